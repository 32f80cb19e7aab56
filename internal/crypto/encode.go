package crypto

import (
	"encoding/hex"

	"github.com/mr-tron/base58"
	"lukechampine.com/blake3"

	"parley/internal/domain"
)

// Version bytes for the checksummed text encodings.
const (
	userIDVersion byte = 0x1f
	cardVersion   byte = 0x2b
)

const checksumSize = 4

// EncodeUserID renders a user id as checksummed Base58 for display and
// storage at the boundary. Internal logic uses the raw bytes only.
func EncodeUserID(id domain.UserID) string {
	return encodeCheck(userIDVersion, id.Slice())
}

// DecodeUserID parses a checksummed Base58 user id.
func DecodeUserID(s string) (domain.UserID, error) {
	payload, err := decodeCheck(userIDVersion, s)
	if err != nil {
		return domain.UserID{}, err
	}
	if len(payload) != 32 {
		return domain.UserID{}, domain.ErrBadEncoding
	}
	return domain.MustUserID(payload), nil
}

// EncodeCard renders public keys as a checksummed Base58 contact card,
// the blob two users exchange out of band before establishing a session.
func EncodeCard(pub domain.PublicKeys) string {
	payload := make([]byte, 0, 64)
	payload = append(payload, pub.X.Slice()...)
	payload = append(payload, pub.Ed.Slice()...)
	return encodeCheck(cardVersion, payload)
}

// DecodeCard parses a contact card back into public keys.
func DecodeCard(s string) (domain.PublicKeys, error) {
	payload, err := decodeCheck(cardVersion, s)
	if err != nil {
		return domain.PublicKeys{}, err
	}
	if len(payload) != 64 {
		return domain.PublicKeys{}, domain.ErrBadEncoding
	}
	var pub domain.PublicKeys
	copy(pub.X[:], payload[:32])
	copy(pub.Ed[:], payload[32:])
	return pub, nil
}

// Fingerprint returns a short hex fingerprint of a public key for
// display and logging.
func Fingerprint(pub []byte) string {
	sum := blake3.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}

func encodeCheck(version byte, payload []byte) string {
	buf := make([]byte, 0, 1+len(payload)+checksumSize)
	buf = append(buf, version)
	buf = append(buf, payload...)
	sum := blake3.Sum256(buf)
	buf = append(buf, sum[:checksumSize]...)
	return base58.Encode(buf)
}

func decodeCheck(version byte, s string) ([]byte, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return nil, domain.ErrBadEncoding
	}
	if len(raw) < 1+checksumSize || raw[0] != version {
		return nil, domain.ErrBadEncoding
	}
	body, check := raw[:len(raw)-checksumSize], raw[len(raw)-checksumSize:]
	sum := blake3.Sum256(body)
	for i := 0; i < checksumSize; i++ {
		if sum[i] != check[i] {
			return nil, domain.ErrBadEncoding
		}
	}
	return body[1:], nil
}
