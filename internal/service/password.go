package service

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes new passwords and verifies stored ones.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	// Verify reports whether plain matches stored. rehash is true when the
	// stored value is in a legacy format and should be replaced.
	Verify(plain, stored string) (ok bool, rehash bool)
}

type bcryptHasher struct {
	cost int
}

func NewBcryptHasher(cost int) PasswordHasher {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptHasher{cost: cost}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *bcryptHasher) Verify(plain, stored string) (bool, bool) {
	if stored == "" {
		return false, false
	}
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil, false
	}

	// base64 wrapped bcrypt written by an older client
	if decoded, err := base64.StdEncoding.DecodeString(stored); err == nil && isBcrypt(string(decoded)) {
		ok := bcrypt.CompareHashAndPassword(decoded, []byte(plain)) == nil
		return ok, ok
	}

	// plaintext rows from before hashing was introduced
	ok := subtle.ConstantTimeCompare([]byte(plain), []byte(stored)) == 1
	return ok, ok
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
