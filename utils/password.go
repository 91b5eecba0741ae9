package utils

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor. Not configurable.
const PasswordCost = 12

func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash. An empty hash never
// matches.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
