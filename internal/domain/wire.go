package domain

// BoardPost is an outbound message for the board: an opaque lookup token
// plus the ciphertext stored under it. The seeker is effectively public.
type BoardPost struct {
	Seeker []byte `json:"seeker"`
	Cipher []byte `json:"cipher"`
}

// BoardEntry is one record fetched from the board.
type BoardEntry struct {
	Seeker []byte `json:"seeker"`
	Cipher []byte `json:"cipher"`
}

// Inbound is the result of a successful board-entry decrypt.
//
// Released lists seekers of our own earlier posts that the peer has
// consumed; the caller may delete those entries from the board.
type Inbound struct {
	Sender   UserID   `json:"sender"`
	Body     []byte   `json:"body"`
	SentAt   int64    `json:"sent_at"`
	Released [][]byte `json:"released,omitempty"`
}
