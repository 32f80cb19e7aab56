package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/session"
)

func newIdentity(t *testing.T, seed string) domain.Identity {
	t.Helper()
	id, err := crypto.IdentityFromSeed([]byte(seed+"-padding-to-floor"), []byte("manager-test"))
	require.NoError(t, err)
	return id
}

func newManager(t *testing.T, seed string) (*session.Manager, domain.Identity) {
	t.Helper()
	id := newIdentity(t, seed)
	return session.NewManager(&id, nil), id
}

// connect establishes a full-duplex pair: both sides announce, both feed.
func connect(t *testing.T, a, b *session.Manager, aID, bID domain.Identity) {
	t.Helper()
	annA, err := a.EstablishOutgoing(bID.Pub)
	require.NoError(t, err)
	annB, err := b.EstablishOutgoing(aID.Pub)
	require.NoError(t, err)

	_, ok, err := b.FeedAnnouncement(annA)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = a.FeedAnnouncement(annB)
	require.NoError(t, err)
	require.True(t, ok)
}

func containsSeeker(keys [][]byte, seeker []byte) bool {
	for _, k := range keys {
		if string(k) == string(seeker) {
			return true
		}
	}
	return false
}

func TestEstablishAndAnnounce_StatusFlow(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)
	bobUID := crypto.DeriveUserID(bobID.Pub)

	ann, err := alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)

	st, err := alice.Status(bobUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, st)

	sender, ok, err := bob.FeedAnnouncement(ann)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, aliceID.Pub, sender)

	// Receiving an announcement is enough for Bob to reply.
	st, err = bob.Status(aliceUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, st)

	// Alice stays pending until Bob's reciprocal announcement.
	st, err = alice.Status(bobUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, st)

	annBack, err := bob.EstablishOutgoing(aliceID.Pub)
	require.NoError(t, err)
	_, ok, err = alice.FeedAnnouncement(annBack)
	require.NoError(t, err)
	require.True(t, ok)

	st, err = alice.Status(bobUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, st)

	// Bob's status did not move backward from the reciprocal exchange.
	st, err = bob.Status(aliceUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, st)
}

func TestSendReceive_RoundTripAndReplay(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)
	bobUID := crypto.DeriveUserID(bobID.Pub)

	ann, err := alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)
	_, ok, err := bob.FeedAnnouncement(ann)
	require.NoError(t, err)
	require.True(t, ok)

	post, err := bob.Send(aliceUID, []byte("hi"))
	require.NoError(t, err)

	require.True(t, containsSeeker(alice.ReadKeys(), post.Seeker),
		"alice must poll for bob's next seeker")

	msg, ok, err := alice.FeedBoardEntry(post.Seeker, post.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, bobUID, msg.Sender)
	assert.Equal(t, []byte("hi"), msg.Body)
	assert.NotZero(t, msg.SentAt)

	// Replay of the consumed pair yields no result.
	_, ok, err = alice.FeedBoardEntry(post.Seeker, post.Cipher)
	require.NoError(t, err)
	assert.False(t, ok)

	// A foreign entry yields no result either.
	_, ok, err = alice.FeedBoardEntry(make([]byte, 32), []byte("junk"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReceive_GapTolerance(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)

	ann, err := alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)
	_, ok, err := bob.FeedAnnouncement(ann)
	require.NoError(t, err)
	require.True(t, ok)

	first, err := bob.Send(aliceUID, []byte("lost"))
	require.NoError(t, err)
	second, err := bob.Send(aliceUID, []byte("delivered"))
	require.NoError(t, err)

	// Only the second message reaches Alice; the chain advances past the
	// gap.
	msg, ok, err := alice.FeedBoardEntry(second.Seeker, second.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("delivered"), msg.Body)

	_, ok, err = alice.FeedBoardEntry(first.Seeker, first.Cipher)
	require.NoError(t, err)
	assert.False(t, ok, "skipped seeker must not decrypt after the gap closed")
}

func TestSend_Preconditions(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	_, bobID := newManager(t, "bob")
	bobUID := crypto.DeriveUserID(bobID.Pub)

	_, err := alice.Send(bobUID, []byte("hi"))
	assert.ErrorIs(t, err, domain.ErrUnknownPeer)

	_, err = alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)
	_, err = alice.Send(bobUID, []byte("hi"))
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	// Identity-less manager cannot establish at all.
	empty := session.NewManager(nil, nil)
	_, err = empty.EstablishOutgoing(bobID.Pub)
	assert.ErrorIs(t, err, domain.ErrIdentityUnavailable)

	// Sessions with ourselves are rejected.
	_, err = alice.EstablishOutgoing(aliceID.Pub)
	assert.ErrorIs(t, err, domain.ErrSelfPeer)
}

func TestDiscard_ErasesSession(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)
	bobUID := crypto.DeriveUserID(bobID.Pub)
	connect(t, alice, bob, aliceID, bobID)

	require.NoError(t, alice.Discard(bobUID))

	_, err := alice.Status(bobUID)
	assert.ErrorIs(t, err, domain.ErrUnknownPeer)
	_, err = alice.Send(bobUID, []byte("hi"))
	assert.ErrorIs(t, err, domain.ErrUnknownPeer)
	assert.ErrorIs(t, alice.Discard(bobUID), domain.ErrUnknownPeer)
	assert.Empty(t, alice.Peers())
	assert.Empty(t, alice.ReadKeys())

	// Bob's side is untouched and can still address Alice.
	_, err = bob.Send(aliceUID, []byte("still here"))
	assert.NoError(t, err)
}

func TestFeedAnnouncement_DuplicateDoesNotResetChain(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)

	ann, err := alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)
	_, ok, err := bob.FeedAnnouncement(ann)
	require.NoError(t, err)
	require.True(t, ok)

	first, err := bob.Send(aliceUID, []byte("one"))
	require.NoError(t, err)

	// The same announcement arrives again (relays may repeat traffic).
	_, ok, err = bob.FeedAnnouncement(ann)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, bob.Peers(), 1)

	second, err := bob.Send(aliceUID, []byte("two"))
	require.NoError(t, err)
	assert.NotEqual(t, first.Seeker, second.Seeker,
		"send chain must not rewind onto used indices")

	m1, ok, err := alice.FeedBoardEntry(first.Seeker, first.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), m1.Body)
	m2, ok, err := alice.FeedBoardEntry(second.Seeker, second.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), m2.Body)
}

func TestFeedAnnouncement_StaleRedeliveryKeepsNewestChain(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)

	ann1, err := alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)
	ann2, err := alice.EstablishOutgoing(bobID.Pub)
	require.NoError(t, err)

	// Bob processes both in order, then the relay redelivers the older one.
	_, ok, err := bob.FeedAnnouncement(ann1)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = bob.FeedAnnouncement(ann2)
	require.NoError(t, err)
	require.True(t, ok)
	_, ok, err = bob.FeedAnnouncement(ann1)
	require.NoError(t, err)
	assert.True(t, ok)

	// Alice listens on the chain from her latest announcement; the stale
	// redelivery must not have moved Bob's send side off it.
	post, err := bob.Send(aliceUID, []byte("hello"))
	require.NoError(t, err)
	msg, ok, err := alice.FeedBoardEntry(post.Seeker, post.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), msg.Body)
}

func TestAcknowledgements_PropagateToSender(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)
	bobUID := crypto.DeriveUserID(bobID.Pub)
	connect(t, alice, bob, aliceID, bobID)

	fromAlice, err := alice.Send(bobUID, []byte("ping"))
	require.NoError(t, err)
	_, ok, err := bob.FeedBoardEntry(fromAlice.Seeker, fromAlice.Cipher)
	require.NoError(t, err)
	require.True(t, ok)

	// Bob's next message carries the acknowledgement; Alice learns her
	// board slot can be released.
	fromBob, err := bob.Send(aliceUID, []byte("pong"))
	require.NoError(t, err)
	msg, ok, err := alice.FeedBoardEntry(fromBob.Seeker, fromBob.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, containsSeeker(msg.Released, fromAlice.Seeker))
}

func TestRefresh_ReportsStaleActiveSessions(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	bobUID := crypto.DeriveUserID(bobID.Pub)
	connect(t, alice, bob, aliceID, bobID)

	assert.Empty(t, alice.Refresh(time.Now()))

	stale := alice.Refresh(time.Now().Add(session.DefaultStaleAfter + time.Hour))
	require.Len(t, stale, 1)
	assert.Equal(t, bobUID, stale[0])
}

func TestSerialization_Fidelity(t *testing.T) {
	alice, aliceID := newManager(t, "alice")
	bob, bobID := newManager(t, "bob")
	aliceUID := crypto.DeriveUserID(aliceID.Pub)
	bobUID := crypto.DeriveUserID(bobID.Pub)
	connect(t, alice, bob, aliceID, bobID)

	// Some traffic so chains are mid-flight.
	post, err := alice.Send(bobUID, []byte("before export"))
	require.NoError(t, err)
	_, ok, err := bob.FeedBoardEntry(post.Seeker, post.Cipher)
	require.NoError(t, err)
	require.True(t, ok)

	key := make([]byte, 32)
	key[0] = 0x55
	blob, err := alice.Export(key)
	require.NoError(t, err)

	restored := session.NewManager(nil, nil)
	require.NoError(t, restored.Load(blob, key))

	assert.ElementsMatch(t, alice.Peers(), restored.Peers())
	assert.ElementsMatch(t, alice.ReadKeys(), restored.ReadKeys())
	st, err := restored.Status(bobUID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, st)

	// The restored engine continues the conversation seamlessly.
	fromBob, err := bob.Send(aliceUID, []byte("after restore"))
	require.NoError(t, err)
	msg, ok, err := restored.FeedBoardEntry(fromBob.Seeker, fromBob.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("after restore"), msg.Body)

	fromRestored, err := restored.Send(bobUID, []byte("and back"))
	require.NoError(t, err)
	reply, ok, err := bob.FeedBoardEntry(fromRestored.Seeker, fromRestored.Cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("and back"), reply.Body)
}

func TestSerialization_WrongKeyFailsClosed(t *testing.T) {
	alice, _ := newManager(t, "alice")

	key := make([]byte, 32)
	blob, err := alice.Export(key)
	require.NoError(t, err)

	wrong := make([]byte, 32)
	wrong[31] = 1
	restored := session.NewManager(nil, nil)
	assert.ErrorIs(t, restored.Load(blob, wrong), domain.ErrAuthentication)

	assert.ErrorIs(t, restored.Load(blob, []byte("short")), domain.ErrInvalidKey)
	_, err = alice.Export([]byte("short"))
	assert.ErrorIs(t, err, domain.ErrInvalidKey)

	// Corrupted blob.
	blob[len(blob)-1] ^= 0xff
	assert.ErrorIs(t, restored.Load(blob, key), domain.ErrAuthentication)
}
