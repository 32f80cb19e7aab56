package ratchet

import (
	"crypto/sha256"
	"io"
	"math"

	"golang.org/x/crypto/hkdf"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/util/memzero"
)

const (
	// SeekerSize is the length of a board lookup token.
	SeekerSize = 32

	chainKeySize = 32
)

var (
	rootLabel = []byte("parley/chain/root/v1")
	stepLabel = []byte("parley/chain/step/v1")
)

// State is one direction of a conversation chain. Values are immutable in
// use: stepping returns the advanced copy and the caller persists it.
type State struct {
	ChainKey []byte `json:"chain_key"`
	Index    uint64 `json:"index"`
}

// Init seeds a chain from an announcement bootstrap secret. The label
// separates chains derived from the same secret.
func Init(boot [32]byte, label string) State {
	ck := make([]byte, chainKeySize)
	r := hkdf.New(sha256.New, boot[:], []byte(label), rootLabel)
	if _, err := io.ReadFull(r, ck); err != nil {
		panic("ratchet: chain init: " + err.Error())
	}
	return State{ChainKey: ck, Index: 0}
}

// step derives the seeker and message key at the current index along with
// the next chain key.
func (s State) step() (seeker, messageKey []byte, next State, err error) {
	if len(s.ChainKey) != chainKeySize {
		return nil, nil, State{}, domain.ErrInvalidKey
	}
	if s.Index == math.MaxUint64 {
		// Wrapping the index would reuse nonces and tokens. Fatal.
		return nil, nil, State{}, domain.ErrIndexExhausted
	}
	r := hkdf.New(sha256.New, s.ChainKey, nil, stepLabel)
	nextCK := make([]byte, chainKeySize)
	seeker = make([]byte, SeekerSize)
	messageKey = make([]byte, crypto.KeySize)
	if _, err = io.ReadFull(r, nextCK); err != nil {
		return nil, nil, State{}, err
	}
	if _, err = io.ReadFull(r, seeker); err != nil {
		return nil, nil, State{}, err
	}
	if _, err = io.ReadFull(r, messageKey); err != nil {
		return nil, nil, State{}, err
	}
	return seeker, messageKey, State{ChainKey: nextCK, Index: s.Index + 1}, nil
}

// NextSeeker returns the seeker at the current index and the advanced
// state. Side-effect free: calling it twice on the same state yields the
// same token.
func (s State) NextSeeker() ([]byte, State, error) {
	seeker, mk, next, err := s.step()
	if err != nil {
		return nil, State{}, err
	}
	memzero.Zero(mk)
	return seeker, next, nil
}

// EncryptNext derives the seeker and message key at the current index,
// seals plaintext under them, and returns the advanced state. The message
// key and prior chain key are not retained.
func (s State) EncryptNext(plaintext []byte) (seeker, cipher []byte, next State, err error) {
	seeker, mk, next, err := s.step()
	if err != nil {
		return nil, nil, State{}, err
	}
	cipher, err = crypto.Seal(mk, crypto.NonceFromIndex(s.Index), plaintext, seeker)
	memzero.Zero(mk)
	if err != nil {
		return nil, nil, State{}, err
	}
	return seeker, cipher, next, nil
}
