package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns the bcrypt hash of a shared secret, suitable for AUTOGEN_SECRET_HASH.
func HashSecret(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	return string(b), err
}

// CheckSecret reports whether plain matches the bcrypt hash.
func CheckSecret(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
