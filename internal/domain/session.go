package domain

// SessionStatus is the lifecycle phase of a peer session. It only ever
// advances Pending -> Active -> Closed.
type SessionStatus int

const (
	// StatusPending means an announcement was sent or received but the
	// exchange is not yet mutually confirmed.
	StatusPending SessionStatus = iota
	// StatusActive means both sides can exchange messages.
	StatusActive
	// StatusClosed means the session was discarded or fatally broken; no
	// further I/O is possible.
	StatusClosed
)

// String returns a short lowercase name for the status.
func (s SessionStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusActive:
		return "active"
	case StatusClosed:
		return "closed"
	}
	return "unknown"
}

// Direction records which side originated the session's announcement.
type Direction int

const (
	// Initiated means we broadcast the first announcement.
	Initiated Direction = iota
	// Received means the peer's announcement reached us first.
	Received
)

// String returns a short lowercase name for the direction.
func (d Direction) String() string {
	if d == Initiated {
		return "initiated"
	}
	return "received"
}

// SessionInfo is a read-only view of one peer session.
type SessionInfo struct {
	Peer       UserID        `json:"peer"`
	Status     SessionStatus `json:"status"`
	Direction  Direction     `json:"direction"`
	LastSendAt int64         `json:"last_send_at"`
}
