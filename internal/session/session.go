package session

import (
	"fmt"

	"parley/internal/domain"
	"parley/internal/protocol/ratchet"
)

// maxOutstanding caps how many of our unacked sent seekers we remember
// per peer.
const maxOutstanding = 64

// maxSeedHistory caps how many bootstrap fingerprints a session remembers
// for announcement replay detection.
const maxSeedHistory = 16

// peerSession is the full state for one peer. Send and Recv are the two
// independent chain directions: Send exists once the peer's announcement
// has been opened, Recv once we have broadcast our own.
type peerSession struct {
	Peer      domain.UserID        `json:"peer"`
	PeerKeys  domain.PublicKeys    `json:"peer_keys"`
	Status    domain.SessionStatus `json:"status"`
	Direction domain.Direction     `json:"direction"`

	Send *ratchet.State  `json:"send,omitempty"`
	Recv *ratchet.Window `json:"recv,omitempty"`

	// SeedHistory holds hashes of every bootstrap that has seeded Send, so
	// redelivered announcements never move the chain off the keys the peer
	// listens on.
	SeedHistory [][]byte `json:"seed_history,omitempty"`

	// AckQueue holds seekers we consumed and still owe the peer in our
	// next message; Outstanding holds seekers of our posts the peer has
	// not acknowledged yet.
	AckQueue    [][]byte `json:"ack_queue,omitempty"`
	Outstanding [][]byte `json:"outstanding,omitempty"`

	CreatedAt  int64 `json:"created_at"`
	LastSendAt int64 `json:"last_send_at"`
}

// advanceStatus moves the lifecycle forward. Backward transitions are an
// internal invariant violation and are rejected, never applied.
func (s *peerSession) advanceStatus(to domain.SessionStatus) error {
	if to < s.Status {
		return fmt.Errorf("session %s: refusing %s -> %s transition",
			shortID(s.Peer), s.Status, to)
	}
	s.Status = to
	return nil
}

// seenSeed reports whether the bootstrap fingerprint already seeded Send.
func (s *peerSession) seenSeed(seed []byte) bool {
	for _, have := range s.SeedHistory {
		if string(have) == string(seed) {
			return true
		}
	}
	return false
}

func (s *peerSession) rememberSeed(seed []byte) {
	s.SeedHistory = append(s.SeedHistory, seed)
	if len(s.SeedHistory) > maxSeedHistory {
		s.SeedHistory = s.SeedHistory[len(s.SeedHistory)-maxSeedHistory:]
	}
}

func (s *peerSession) rememberOutstanding(seeker []byte) {
	s.Outstanding = append(s.Outstanding, seeker)
	if len(s.Outstanding) > maxOutstanding {
		s.Outstanding = s.Outstanding[len(s.Outstanding)-maxOutstanding:]
	}
}

// dropAcked removes peer-acknowledged seekers from Outstanding.
func (s *peerSession) dropAcked(acked [][]byte) {
	if len(acked) == 0 || len(s.Outstanding) == 0 {
		return
	}
	keep := s.Outstanding[:0]
	for _, have := range s.Outstanding {
		matched := false
		for _, a := range acked {
			if string(a) == string(have) {
				matched = true
				break
			}
		}
		if !matched {
			keep = append(keep, have)
		}
	}
	s.Outstanding = keep
}
