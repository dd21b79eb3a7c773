package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// ErrAlreadyHashed means the input to HashPassword already looks like a
// bcrypt hash. Hashing a hash would silently lock the user out, so this is
// treated as a caller bug, not a bad password.
var ErrAlreadyHashed = errors.New("refusing to hash an already-hashed password")

func HashPassword(password string, cost int) (string, error) {
	if strings.HasPrefix(password, "$2") {
		return "", ErrAlreadyHashed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword reports whether plain matches the stored hash. A mismatch
// is a normal false, never an error.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
