package crypto

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"parley/internal/domain"
)

const (
	// KeySize is the AEAD key length.
	KeySize = chacha20poly1305.KeySize
	// NonceSize is the AEAD nonce length.
	NonceSize = chacha20poly1305.NonceSize
)

// Seal encrypts plaintext under key and nonce, binding ad. Callers are
// responsible for nonce uniqueness per key.
func Seal(key, nonce, plaintext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead: %w", err)
	}
	return aead.Seal(nil, nonce, plaintext, ad), nil
}

// Open decrypts and authenticates ciphertext. A failed open returns
// ErrAuthentication; callers interpret it as "not for me" or "corrupted",
// never as a fatal condition.
func Open(key, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("aead: %w", err)
	}
	pt, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, domain.ErrAuthentication
	}
	return pt, nil
}

// NonceFromIndex encodes a monotonic counter into an AEAD nonce. Message
// keys are single-use, so a counter nonce can never repeat under one key.
func NonceFromIndex(index uint64) []byte {
	nonce := make([]byte, NonceSize)
	binary.BigEndian.PutUint64(nonce[NonceSize-8:], index)
	return nonce
}
