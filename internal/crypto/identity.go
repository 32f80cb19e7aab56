package crypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
	"lukechampine.com/blake3"

	"parley/internal/domain"
	"parley/internal/util/memzero"
)

const (
	// MinSeedBytes is the entropy floor for identity seeds.
	MinSeedBytes = 16

	userIDLabel = "parley/uid/v1"
)

// IdentityFromSeed deterministically derives a long-term identity from seed
// bytes and a domain-separation tag. The same seed and tag always yield the
// same keys, which is what makes mnemonic-based account restore work.
func IdentityFromSeed(seed, domainTag []byte) (domain.Identity, error) {
	if len(seed) < MinSeedBytes {
		return domain.Identity{}, domain.ErrInvalidSeed
	}

	var id domain.Identity

	xr := hkdf.New(sha256.New, seed, domainTag, []byte("parley/identity/x25519"))
	if _, err := io.ReadFull(xr, id.Sec.X[:]); err != nil {
		return domain.Identity{}, fmt.Errorf("derive x25519 secret: %w", err)
	}
	clamp(&id.Sec.X)
	xPub, err := curve25519.X25519(id.Sec.X.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("derive x25519 public: %w", err)
	}
	copy(id.Pub.X[:], xPub)

	er := hkdf.New(sha256.New, seed, domainTag, []byte("parley/identity/ed25519"))
	edSeed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(er, edSeed); err != nil {
		return domain.Identity{}, fmt.Errorf("derive ed25519 seed: %w", err)
	}
	edPriv := ed25519.NewKeyFromSeed(edSeed)
	memzero.Zero(edSeed)
	copy(id.Sec.Ed[:], edPriv)
	copy(id.Pub.Ed[:], edPriv.Public().(ed25519.PublicKey))

	return id, nil
}

// DeriveUserID maps public keys to the stable 32-byte addressing id.
// One-way and collision-resistant for honest inputs.
func DeriveUserID(pub domain.PublicKeys) domain.UserID {
	h := blake3.New(32, nil)
	h.Write([]byte(userIDLabel))
	h.Write(pub.Ed.Slice())
	h.Write(pub.X.Slice())
	return domain.MustUserID(h.Sum(nil))
}

// DH computes X25519 Diffie-Hellman.
func DH(priv domain.X25519Private, pub domain.X25519Public) (out [32]byte, err error) {
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	return out, nil
}

// GenerateX25519Ephemeral returns a fresh Curve25519 key pair read from
// rand. The private key is clamped per RFC 7748.
func GenerateX25519Ephemeral(rand io.Reader) (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = io.ReadFull(rand, priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

func clamp(k *domain.X25519Private) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
