package session

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"lukechampine.com/blake3"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/protocol/announce"
	"parley/internal/protocol/ratchet"
	"parley/internal/util/memzero"
)

// DefaultStaleAfter is how long a session's send side may idle before
// Refresh reports it as needing a keep-alive.
const DefaultStaleAfter = 24 * time.Hour

const sendChainLabel = "reply"

// messagePayload is the sealed interior of a board entry.
type messagePayload struct {
	Sender domain.UserID `json:"sender"`
	Body   []byte        `json:"body"`
	SentAt int64         `json:"sent_at"`
	Acked  [][]byte      `json:"acked,omitempty"`
}

// Manager is the session protocol engine. It is safe for concurrent use;
// all state lives behind one lock.
type Manager struct {
	mu       sync.Mutex
	identity *domain.Identity
	self     domain.UserID
	sessions map[domain.UserID]*peerSession

	log        *logrus.Logger
	window     int
	staleAfter time.Duration
}

// NewManager builds an engine around the given identity. A nil identity is
// allowed for a manager that will be populated via Load; operations that
// need secret keys fail with ErrIdentityUnavailable until then. A nil
// logger silences the engine.
func NewManager(id *domain.Identity, log *logrus.Logger) *Manager {
	m := &Manager{
		sessions:   make(map[domain.UserID]*peerSession),
		log:        log,
		window:     ratchet.DefaultWindow,
		staleAfter: DefaultStaleAfter,
	}
	if m.log == nil {
		m.log = logrus.New()
		m.log.SetLevel(logrus.PanicLevel)
	}
	if id != nil {
		m.setIdentity(*id)
	}
	return m
}

func (m *Manager) setIdentity(id domain.Identity) {
	m.identity = &id
	m.self = crypto.DeriveUserID(id.Pub)
}

// SelfID returns our derived user id.
func (m *Manager) SelfID() (domain.UserID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.UserID{}, domain.ErrIdentityUnavailable
	}
	return m.self, nil
}

// PublicKeys returns the public half of the loaded identity.
func (m *Manager) PublicKeys() (domain.PublicKeys, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.PublicKeys{}, domain.ErrIdentityUnavailable
	}
	return m.identity.Pub, nil
}

// EstablishOutgoing creates or re-seeds the session toward peer and
// returns the announcement bytes to broadcast.
//
// The announcement's bootstrap secret seeds our receive chain (the peer
// replies on it). A brand-new session starts Pending with
// direction=Initiated; an existing session keeps its status and direction
// and only has its receive side replaced.
func (m *Manager) EstablishOutgoing(peer domain.PublicKeys) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return nil, domain.ErrIdentityUnavailable
	}
	peerID := crypto.DeriveUserID(peer)
	if peerID == m.self {
		return nil, domain.ErrSelfPeer
	}

	wire, boot, err := announce.Build(*m.identity, peer)
	if err != nil {
		return nil, fmt.Errorf("build announcement: %w", err)
	}
	recv, err := ratchet.NewWindow(ratchet.Init(boot, sendChainLabel), m.window)
	memzero.Zero(boot[:])
	if err != nil {
		return nil, err
	}

	sess, exists := m.sessions[peerID]
	if exists && sess.Status == domain.StatusClosed {
		// A closed session is dead state; establishing starts over.
		m.log.WithField("peer", shortID(peerID)).Warn("replacing closed session")
		exists = false
	}
	if !exists {
		sess = &peerSession{
			Peer:      peerID,
			PeerKeys:  peer,
			Status:    domain.StatusPending,
			Direction: domain.Initiated,
			CreatedAt: time.Now().Unix(),
		}
		m.sessions[peerID] = sess
	}
	sess.Recv = &recv
	m.log.WithFields(logrus.Fields{
		"peer":   shortID(peerID),
		"status": sess.Status.String(),
	}).Debug("outgoing session established")
	return wire, nil
}

// FeedAnnouncement processes one announcement fetched from the relay.
// ok=false means it belongs to somebody else, which is the common case on
// broadcast traffic.
//
// A first announcement from an unknown peer creates an Active session with
// direction=Received: holding the bootstrap secret is enough to send
// replies. A reciprocal announcement for a session we initiated promotes
// it from Pending to Active.
func (m *Manager) FeedAnnouncement(wire []byte) (domain.PublicKeys, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.PublicKeys{}, false, domain.ErrIdentityUnavailable
	}

	sender, boot, err := announce.Open(wire, *m.identity)
	if err != nil {
		if errors.Is(err, domain.ErrNotForUs) {
			return domain.PublicKeys{}, false, nil
		}
		return domain.PublicKeys{}, false, err
	}
	senderID := crypto.DeriveUserID(sender)
	if senderID == m.self {
		// Our own broadcast reflected back.
		return domain.PublicKeys{}, false, nil
	}

	seed := bootFingerprint(boot)
	sess, exists := m.sessions[senderID]
	switch {
	case exists && sess.Status == domain.StatusClosed:
		m.log.WithField("peer", shortID(senderID)).Debug("announcement for closed session ignored")
		return domain.PublicKeys{}, false, nil

	case exists:
		if sess.seenSeed(seed) {
			// A bootstrap we already consumed arrived again, either a
			// straight repeat or a stale redelivery after a newer
			// announcement. Re-seeding would move the send chain off the
			// keys the peer listens on, so keep the current state.
			m.log.WithField("peer", shortID(senderID)).Debug("replayed announcement ignored")
			return sender, true, nil
		}
		send := ratchet.Init(boot, sendChainLabel)
		sess.Send = &send
		sess.rememberSeed(seed)
		sess.PeerKeys = sender
		if err := sess.advanceStatus(domain.StatusActive); err != nil {
			m.log.WithField("peer", shortID(senderID)).Warn(err.Error())
			return domain.PublicKeys{}, false, nil
		}
		m.log.WithField("peer", shortID(senderID)).Debug("session promoted to active")

	default:
		send := ratchet.Init(boot, sendChainLabel)
		m.sessions[senderID] = &peerSession{
			Peer:        senderID,
			PeerKeys:    sender,
			Status:      domain.StatusActive,
			Direction:   domain.Received,
			Send:        &send,
			SeedHistory: [][]byte{seed},
			CreatedAt:   time.Now().Unix(),
		}
		m.log.WithField("peer", shortID(senderID)).Debug("session created from announcement")
	}
	return sender, true, nil
}

// ReadKeys aggregates the outstanding seekers across sessions that can
// receive. The list is bounded: at most one window of tokens per peer.
func (m *Manager) ReadKeys() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, sess := range m.sessions {
		if sess.Status == domain.StatusClosed || sess.Recv == nil {
			continue
		}
		out = append(out, sess.Recv.Seekers()...)
	}
	return out
}

// FeedBoardEntry routes a fetched (seeker, ciphertext) pair to the session
// owning the seeker. ok=false when no session claims it; most board
// traffic belongs to other users, so this is not an error.
func (m *Manager) FeedBoardEntry(seeker, cipher []byte) (domain.Inbound, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, sess := range m.sessions {
		if sess.Status == domain.StatusClosed || sess.Recv == nil {
			continue
		}
		plain, consumed, ok, err := sess.Recv.TryDecrypt(seeker, cipher)
		if err != nil {
			// Index exhaustion while refilling the window. The session
			// is unrecoverable; other peers stay usable.
			m.closeSession(sess, err)
			return domain.Inbound{}, false, fmt.Errorf("session %s: %w", shortID(sess.Peer), err)
		}
		if !ok {
			continue
		}

		var p messagePayload
		if uerr := json.Unmarshal(plain, &p); uerr != nil {
			m.log.WithField("peer", shortID(sess.Peer)).Warn("undecodable payload accepted by chain; dropping")
			return domain.Inbound{}, false, nil
		}
		if p.Sender != sess.Peer {
			m.log.WithField("peer", shortID(sess.Peer)).Warn("payload sender mismatch; dropping")
			return domain.Inbound{}, false, nil
		}

		sess.AckQueue = append(sess.AckQueue, consumed...)
		sess.dropAcked(p.Acked)
		return domain.Inbound{
			Sender:   p.Sender,
			Body:     p.Body,
			SentAt:   p.SentAt,
			Released: p.Acked,
		}, true, nil
	}
	return domain.Inbound{}, false, nil
}

// Send encrypts plaintext for an active peer. The returned post carries
// the seeker the peer will poll for and the sealed payload, which also
// piggybacks acknowledgements for entries we consumed.
func (m *Manager) Send(peer domain.UserID, plaintext []byte) (domain.BoardPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.identity == nil {
		return domain.BoardPost{}, domain.ErrIdentityUnavailable
	}
	sess, ok := m.sessions[peer]
	if !ok {
		return domain.BoardPost{}, domain.ErrUnknownPeer
	}
	if sess.Status != domain.StatusActive || sess.Send == nil {
		return domain.BoardPost{}, domain.ErrSessionNotActive
	}

	now := time.Now().Unix()
	body, err := json.Marshal(messagePayload{
		Sender: m.self,
		Body:   plaintext,
		SentAt: now,
		Acked:  sess.AckQueue,
	})
	if err != nil {
		return domain.BoardPost{}, err
	}

	seeker, cipher, next, err := sess.Send.EncryptNext(body)
	if err != nil {
		if errors.Is(err, domain.ErrIndexExhausted) {
			m.closeSession(sess, err)
		}
		return domain.BoardPost{}, fmt.Errorf("session %s: %w", shortID(peer), err)
	}
	*sess.Send = next
	sess.AckQueue = nil
	sess.rememberOutstanding(seeker)
	sess.LastSendAt = now
	return domain.BoardPost{Seeker: seeker, Cipher: cipher}, nil
}

// Status reports the lifecycle phase for a known peer.
func (m *Manager) Status(peer domain.UserID) (domain.SessionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[peer]
	if !ok {
		return 0, domain.ErrUnknownPeer
	}
	return sess.Status, nil
}

// Peers lists every peer with a session, in stable order.
func (m *Manager) Peers() []domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.UserID, 0, len(m.sessions))
	for id := range m.sessions {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Slice()) < string(out[j].Slice())
	})
	return out
}

// Info returns the read-only view of one session.
func (m *Manager) Info(peer domain.UserID) (domain.SessionInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[peer]
	if !ok {
		return domain.SessionInfo{}, domain.ErrUnknownPeer
	}
	return domain.SessionInfo{
		Peer:       sess.Peer,
		Status:     sess.Status,
		Direction:  sess.Direction,
		LastSendAt: sess.LastSendAt,
	}, nil
}

// Discard closes and erases the peer's session. Subsequent operations on
// the peer return ErrUnknownPeer.
func (m *Manager) Discard(peer domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[peer]
	if !ok {
		return domain.ErrUnknownPeer
	}
	_ = sess.advanceStatus(domain.StatusClosed)
	delete(m.sessions, peer)
	m.log.WithField("peer", shortID(peer)).Debug("session discarded")
	return nil
}

// Refresh reports active peers whose send side has idled past the
// staleness window and could use a keep-alive message. Pure inspection;
// the caller decides whether to actually send.
func (m *Manager) Refresh(now time.Time) []domain.UserID {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.UserID
	for id, sess := range m.sessions {
		if sess.Status != domain.StatusActive || sess.Send == nil {
			continue
		}
		last := sess.LastSendAt
		if last == 0 {
			last = sess.CreatedAt
		}
		if now.Sub(time.Unix(last, 0)) >= m.staleAfter {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return string(out[i].Slice()) < string(out[j].Slice())
	})
	return out
}

// closeSession forces a session to Closed after a fatal error. The entry
// stays in the table so the caller can observe the state before discarding.
func (m *Manager) closeSession(sess *peerSession, cause error) {
	_ = sess.advanceStatus(domain.StatusClosed)
	sess.Send = nil
	sess.Recv = nil
	m.log.WithFields(logrus.Fields{
		"peer":  shortID(sess.Peer),
		"cause": cause.Error(),
	}).Warn("session force-closed")
}

func bootFingerprint(boot [32]byte) []byte {
	sum := blake3.Sum256(boot[:])
	return sum[:16]
}

func shortID(id domain.UserID) string {
	return hex.EncodeToString(id[:4])
}

// Compile-time assertion that Manager implements the engine seam.
var _ domain.Engine = (*Manager)(nil)
