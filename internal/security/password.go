package security

import (
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrHash signals an internal hashing failure (e.g. a corrupt stored
// hash), never a plain password mismatch.
var ErrHash = errors.New("password hashing failure")

const hashCost = 10

// digest pre-hashes the plaintext so bcrypt's 72-byte input limit never
// rejects a long password. Base64 keeps the digest free of NUL bytes,
// which bcrypt treats as terminators.
func digest(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))

	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])

	return out
}

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(digest(plain), hashCost)

	if err != nil {
		return "", ErrHash
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password.
// A wrong password returns (false, nil); only a malformed hash is an error.
func CheckPassword(hash, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), digest(plain))

	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, ErrHash
}
