package crypto

import (
	"errors"

	"golang.org/x/crypto/argon2"
)

// SaltSize is the salt length for passphrase key derivation.
const SaltSize = 16

// DeriveWrappingKey stretches a passphrase into the 32-byte key used to
// seal the engine state blob, using Argon2id.
func DeriveWrappingKey(passphrase string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, errors.New("invalid salt size")
	}
	return argon2.IDKey([]byte(passphrase), salt, 1, 1<<16, 8, KeySize), nil
}
