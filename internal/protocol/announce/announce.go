package announce

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"lukechampine.com/blake3"

	"parley/internal/crypto"
	"parley/internal/domain"
	"parley/internal/util/memzero"
)

const (
	version byte = 1

	tagSize = 8

	headerSize = 1 + tagSize + 32 // version | routing tag | ephemeral pub
)

var (
	keyLabel = []byte("parley/announce/key/v1")
	tagLabel = []byte("parley/announce/tag/v1")
)

// payload is the sealed interior of an announcement.
type payload struct {
	X    domain.X25519Public  `json:"x"`
	Ed   domain.Ed25519Public `json:"ed"`
	Boot [32]byte             `json:"boot"`
	Sig  []byte               `json:"sig"`
}

// Build seals a fresh bootstrap secret and our public keys to the peer.
// It returns the wire bytes to broadcast and the secret for seeding our
// local ratchet state.
func Build(our domain.Identity, peer domain.PublicKeys) (wire []byte, boot [32]byte, err error) {
	if _, err = io.ReadFull(rand.Reader, boot[:]); err != nil {
		return nil, boot, fmt.Errorf("bootstrap secret: %w", err)
	}

	ephPriv, ephPub, err := crypto.GenerateX25519Ephemeral(rand.Reader)
	if err != nil {
		return nil, boot, fmt.Errorf("ephemeral key: %w", err)
	}
	defer memzero.Zero(ephPriv[:])

	header := make([]byte, 0, headerSize)
	header = append(header, version)
	header = append(header, routingTag(peer.X)...)
	header = append(header, ephPub.Slice()...)

	// Sign the transcript so the recipient can authenticate the sender.
	sig := ed25519.Sign(our.Sec.Ed.Slice(), transcript(header, boot, peer.X))

	body, err := json.Marshal(payload{X: our.Pub.X, Ed: our.Pub.Ed, Boot: boot, Sig: sig})
	if err != nil {
		return nil, boot, err
	}
	defer memzero.Zero(body)

	key, err := sealKey(ephPriv, peer.X, ephPub, peer.X)
	if err != nil {
		return nil, boot, err
	}
	defer memzero.Zero(key)

	// Zero nonce: the key is bound to a fresh ephemeral pair per call.
	ct, err := crypto.Seal(key, make([]byte, crypto.NonceSize), body, header)
	if err != nil {
		return nil, boot, err
	}
	return append(header, ct...), boot, nil
}

// Open attempts to decrypt an announcement with our identity. Announcements
// addressed to somebody else, truncated blobs, and tampered ciphertexts all
// yield ErrNotForUs; that is the normal outcome for most broadcast traffic.
//
// Opening is a pure function of the wire bytes and our secret key, so
// feeding the same announcement twice yields identical results.
func Open(wire []byte, our domain.Identity) (sender domain.PublicKeys, boot [32]byte, err error) {
	if len(wire) <= headerSize || wire[0] != version {
		return sender, boot, domain.ErrNotForUs
	}
	header, ct := wire[:headerSize], wire[headerSize:]

	// Cheap rejection before any key agreement. The AEAD open below is
	// still the authoritative check.
	if !equalTag(header[1:1+tagSize], routingTag(our.Pub.X)) {
		return sender, boot, domain.ErrNotForUs
	}

	var ephPub domain.X25519Public
	copy(ephPub[:], header[1+tagSize:])

	key, err := sealKey(our.Sec.X, ephPub, ephPub, our.Pub.X)
	if err != nil {
		return sender, boot, domain.ErrNotForUs
	}
	defer memzero.Zero(key)

	body, err := crypto.Open(key, make([]byte, crypto.NonceSize), ct, header)
	if err != nil {
		return sender, boot, domain.ErrNotForUs
	}
	defer memzero.Zero(body)

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return sender, boot, domain.ErrNotForUs
	}
	if !ed25519.Verify(p.Ed.Slice(), transcript(header, p.Boot, our.Pub.X), p.Sig) {
		return sender, boot, domain.ErrNotForUs
	}
	return domain.PublicKeys{X: p.X, Ed: p.Ed}, p.Boot, nil
}

// routingTag gives recipients a fast discard test for announcements that
// cannot be theirs. It reveals only that a blob targets some public key.
func routingTag(recipient domain.X25519Public) []byte {
	h := blake3.New(32, nil)
	h.Write(tagLabel)
	h.Write(recipient.Slice())
	return h.Sum(nil)[:tagSize]
}

func sealKey(priv domain.X25519Private, pub domain.X25519Public, ephPub domain.X25519Public, recipient domain.X25519Public) ([]byte, error) {
	shared, err := crypto.DH(priv, pub)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(shared[:])

	salt := make([]byte, 0, 64)
	salt = append(salt, ephPub.Slice()...)
	salt = append(salt, recipient.Slice()...)

	key := make([]byte, crypto.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, shared[:], salt, keyLabel), key); err != nil {
		return nil, err
	}
	return key, nil
}

func transcript(header []byte, boot [32]byte, recipient domain.X25519Public) []byte {
	t := make([]byte, 0, len(header)+64)
	t = append(t, header...)
	t = append(t, boot[:]...)
	t = append(t, recipient.Slice()...)
	return t
}

func equalTag(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var v byte
	for i := range a {
		v |= a[i] ^ b[i]
	}
	return v == 0
}
