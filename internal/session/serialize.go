package session

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/util/memzero"
)

// snapshotVersion tags the sealed blob format.
const snapshotVersion byte = 1

// snapshot is the serialized engine state. It exists only inside the
// sealed blob; secret key material never leaves the engine unencrypted.
type snapshot struct {
	Identity *domain.Identity `json:"identity,omitempty"`
	Sessions []*peerSession   `json:"sessions"`
}

// Export seals the full engine state under the caller-supplied 32-byte
// wrapping key. The result is opaque to everything but Load.
func (m *Manager) Export(wrappingKey []byte) ([]byte, error) {
	if len(wrappingKey) != crypto.KeySize {
		return nil, domain.ErrInvalidKey
	}
	m.mu.Lock()
	snap := snapshot{
		Identity: m.identity,
		Sessions: make([]*peerSession, 0, len(m.sessions)),
	}
	for _, sess := range m.sessions {
		snap.Sessions = append(snap.Sessions, sess)
	}
	raw, err := json.Marshal(snap)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(raw)

	nonce := make([]byte, crypto.NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ct, err := crypto.Seal(wrappingKey, nonce, raw, []byte{snapshotVersion})
	if err != nil {
		return nil, err
	}

	blob := make([]byte, 0, 1+len(nonce)+len(ct))
	blob = append(blob, snapshotVersion)
	blob = append(blob, nonce...)
	blob = append(blob, ct...)
	return blob, nil
}

// Load replaces the full engine state from a sealed blob. No partial
// merge: on success the previous table and identity are gone; on failure
// nothing changes.
func (m *Manager) Load(blob, wrappingKey []byte) error {
	if len(wrappingKey) != crypto.KeySize {
		return domain.ErrInvalidKey
	}
	if len(blob) < 1+crypto.NonceSize || blob[0] != snapshotVersion {
		return domain.ErrAuthentication
	}
	nonce := blob[1 : 1+crypto.NonceSize]
	ct := blob[1+crypto.NonceSize:]

	raw, err := crypto.Open(wrappingKey, nonce, ct, []byte{snapshotVersion})
	if err != nil {
		return domain.ErrAuthentication
	}
	defer memzero.Zero(raw)

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("decode state snapshot: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[domain.UserID]*peerSession, len(snap.Sessions))
	for _, sess := range snap.Sessions {
		m.sessions[sess.Peer] = sess
	}
	m.identity = nil
	m.self = domain.UserID{}
	if snap.Identity != nil {
		m.setIdentity(*snap.Identity)
	}
	return nil
}
