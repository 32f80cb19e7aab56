package ratchet_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/domain"
	"parley/internal/protocol/ratchet"
)

func testBoot(b byte) [32]byte {
	var boot [32]byte
	for i := range boot {
		boot[i] = b
	}
	return boot
}

func TestState_NextSeekerSideEffectFree(t *testing.T) {
	st := ratchet.Init(testBoot(1), "reply")

	s1, next1, err := st.NextSeeker()
	require.NoError(t, err)
	s2, next2, err := st.NextSeeker()
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Equal(t, next1, next2)
	assert.Equal(t, uint64(1), next1.Index)

	// The advanced state yields a different token.
	s3, _, err := next1.NextSeeker()
	require.NoError(t, err)
	assert.NotEqual(t, s1, s3)
}

func TestChain_BothSidesAgree(t *testing.T) {
	// Sender and receiver seed from the same bootstrap secret and must
	// derive the same seeker sequence.
	send := ratchet.Init(testBoot(2), "reply")
	recv, err := ratchet.NewWindow(ratchet.Init(testBoot(2), "reply"), 4)
	require.NoError(t, err)

	seeker, _, err := send.NextSeeker()
	require.NoError(t, err)
	assert.Equal(t, recv.Seekers()[0], seeker)
}

func TestWindow_RoundTripAndReplay(t *testing.T) {
	send := ratchet.Init(testBoot(3), "reply")
	recv, err := ratchet.NewWindow(ratchet.Init(testBoot(3), "reply"), 8)
	require.NoError(t, err)

	seeker, cipher, next, err := send.EncryptNext([]byte("hi"))
	require.NoError(t, err)
	send = next

	plain, consumed, ok, err := recv.TryDecrypt(seeker, cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hi"), plain)
	require.Len(t, consumed, 1)
	assert.Equal(t, seeker, consumed[0])

	// Replaying the consumed pair finds nothing.
	_, _, ok, err = recv.TryDecrypt(seeker, cipher)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWindow_GapTolerance(t *testing.T) {
	send := ratchet.Init(testBoot(4), "reply")
	recv, err := ratchet.NewWindow(ratchet.Init(testBoot(4), "reply"), 8)
	require.NoError(t, err)

	// Three sends; the first two are lost in transport.
	var seekers [][]byte
	var ciphers [][]byte
	for i := 0; i < 3; i++ {
		seeker, cipher, next, err := send.EncryptNext([]byte{byte('a' + i)})
		require.NoError(t, err)
		seekers = append(seekers, seeker)
		ciphers = append(ciphers, cipher)
		send = next
	}

	plain, consumed, ok, err := recv.TryDecrypt(seekers[2], ciphers[2])
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte{'c'}, plain)
	// Accepting index 2 consumes the skipped positions 0 and 1 too.
	assert.Len(t, consumed, 3)
	assert.Equal(t, uint64(3), recv.NextIndex())

	// The dropped earlier message can no longer be accepted.
	_, _, ok, err = recv.TryDecrypt(seekers[0], ciphers[0])
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWindow_TopUpKeepsWidth(t *testing.T) {
	send := ratchet.Init(testBoot(5), "reply")
	recv, err := ratchet.NewWindow(ratchet.Init(testBoot(5), "reply"), 5)
	require.NoError(t, err)
	require.Len(t, recv.Seekers(), 5)

	seeker, cipher, _, err := send.EncryptNext([]byte("x"))
	require.NoError(t, err)
	_, _, ok, err := recv.TryDecrypt(seeker, cipher)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Len(t, recv.Seekers(), 5)
	assert.Equal(t, uint64(1), recv.NextIndex())
}

func TestWindow_CorruptCiphertextKeepsEntry(t *testing.T) {
	send := ratchet.Init(testBoot(6), "reply")
	recv, err := ratchet.NewWindow(ratchet.Init(testBoot(6), "reply"), 4)
	require.NoError(t, err)

	seeker, cipher, _, err := send.EncryptNext([]byte("hello"))
	require.NoError(t, err)

	bad := append([]byte(nil), cipher...)
	bad[0] ^= 0xff
	_, _, ok, err := recv.TryDecrypt(seeker, bad)
	require.NoError(t, err)
	assert.False(t, ok)

	// The genuine copy still decrypts afterwards.
	plain, _, ok, err := recv.TryDecrypt(seeker, cipher)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), plain)
}

func TestChain_IndexExhaustion(t *testing.T) {
	// A chain at the last representable index must refuse to step:
	// wrapping would reuse nonces and tokens.
	worn := ratchet.State{ChainKey: make([]byte, 32), Index: math.MaxUint64}

	_, _, err := worn.NextSeeker()
	assert.ErrorIs(t, err, domain.ErrIndexExhausted)

	_, _, _, err = worn.EncryptNext([]byte("one too many"))
	assert.ErrorIs(t, err, domain.ErrIndexExhausted)

	// One step short still works.
	last := ratchet.State{ChainKey: make([]byte, 32), Index: math.MaxUint64 - 1}
	_, next, err := last.NextSeeker()
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), next.Index)
}

func TestWindow_ExhaustionDuringFill(t *testing.T) {
	// Accepting the final entry forces a top-up past the last index.
	tail := ratchet.State{ChainKey: bytes.Repeat([]byte{8}, 32), Index: math.MaxUint64 - 1}
	send := tail
	recv, err := ratchet.NewWindow(tail, 1)
	require.NoError(t, err)

	seeker, cipher, _, err := send.EncryptNext([]byte("last"))
	require.NoError(t, err)
	_, _, _, err = recv.TryDecrypt(seeker, cipher)
	assert.ErrorIs(t, err, domain.ErrIndexExhausted)
}

func TestChain_LabelSeparation(t *testing.T) {
	a := ratchet.Init(testBoot(7), "reply")
	b := ratchet.Init(testBoot(7), "other")

	sa, _, err := a.NextSeeker()
	require.NoError(t, err)
	sb, _, err := b.NextSeeker()
	require.NoError(t, err)
	assert.NotEqual(t, sa, sb)
}
