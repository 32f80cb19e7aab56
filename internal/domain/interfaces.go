package domain

import (
	"context"
	"time"
)

// Engine is the session protocol engine seam. The real implementation is
// session.Manager; test harnesses may substitute deterministic fixtures.
//
// The engine performs no I/O of its own: it consumes and produces byte
// buffers, and the caller drives broadcast, polling and persistence.
type Engine interface {
	// EstablishOutgoing creates (or re-seeds) the pending session for the
	// peer and returns announcement bytes for external broadcast.
	EstablishOutgoing(peer PublicKeys) ([]byte, error)

	// FeedAnnouncement processes one fetched announcement. ok is false
	// when the announcement belongs to somebody else.
	FeedAnnouncement(wire []byte) (sender PublicKeys, ok bool, err error)

	// ReadKeys returns the seekers to poll the board with, bounded per
	// session.
	ReadKeys() [][]byte

	// FeedBoardEntry routes one fetched board entry to the owning
	// session. ok is false when no session claims the seeker.
	FeedBoardEntry(seeker, cipher []byte) (msg Inbound, ok bool, err error)

	// Send encrypts plaintext for an active peer and returns the post to
	// hand to the board.
	Send(peer UserID, plaintext []byte) (BoardPost, error)

	// Status reports the session status for a known peer.
	Status(peer UserID) (SessionStatus, error)
	// Peers lists every peer with a session.
	Peers() []UserID
	// Discard closes and erases the peer's session.
	Discard(peer UserID) error
	// Refresh reports active peers whose send side has been idle long
	// enough to need a keep-alive. Pure inspection.
	Refresh(now time.Time) []UserID

	// Export seals the full engine state under the wrapping key.
	Export(wrappingKey []byte) ([]byte, error)
	// Load replaces the full engine state from a sealed blob.
	Load(blob, wrappingKey []byte) error
}

// BoardClient talks to the passive message board and announcement relay.
type BoardClient interface {
	PostAnnouncement(ctx context.Context, wire []byte) error
	// FetchAnnouncements returns announcements after the given cursor and
	// the cursor to resume from.
	FetchAnnouncements(ctx context.Context, since int64) ([][]byte, int64, error)

	PostEntry(ctx context.Context, post BoardPost) error
	FetchEntries(ctx context.Context, seekers [][]byte) ([]BoardEntry, error)
	ReleaseEntries(ctx context.Context, seekers [][]byte) error
}

// BlobStore persists opaque byte blobs by name. The engine state blob and
// its KDF salt live here, keyed externally by account.
type BlobStore interface {
	Put(name string, blob []byte) error
	Get(name string) ([]byte, bool, error)
	Close() error
}
