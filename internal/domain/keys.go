package domain

import "fmt"

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// X25519Private is a Curve25519 private key.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// Ed25519Public is an Ed25519 signing public key.
type Ed25519Public [32]byte

// Slice returns the key as a []byte.
func (p Ed25519Public) Slice() []byte { return p[:] }

// Ed25519Private is an Ed25519 signing private key (ed25519.PrivateKey layout).
type Ed25519Private [64]byte

// Slice returns the key as a []byte.
func (k Ed25519Private) Slice() []byte { return k[:] }

// PublicKeys is the public half of an identity: one Diffie-Hellman key and
// one signing key. This is what peers exchange out of band and what an
// announcement carries inside its sealed payload.
type PublicKeys struct {
	X  X25519Public  `json:"x"`
	Ed Ed25519Public `json:"ed"`
}

// SecretKeys is the private half of an identity. It must never appear in
// any serialized form without encryption.
type SecretKeys struct {
	X  X25519Private  `json:"x"`
	Ed Ed25519Private `json:"ed"`
}

// Identity pairs the public and secret halves of a long-term identity.
type Identity struct {
	Pub PublicKeys `json:"pub"`
	Sec SecretKeys `json:"sec"`
}

// UserID is the stable 32-byte identifier derived one-way from PublicKeys.
type UserID [32]byte

// Slice returns the identifier as a []byte.
func (id UserID) Slice() []byte { return id[:] }

// MustUserID converts a 32-byte slice into a UserID, panicking on any other
// length. Use only where the length is a programmer invariant.
func MustUserID(b []byte) UserID {
	if len(b) != 32 {
		panic(fmt.Errorf("user id: want 32 bytes, got %d", len(b)))
	}
	var out UserID
	copy(out[:], b)
	return out
}
