package fingerprint

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Prefix marks fingerprints minted by the console
const Prefix = "TC-DEV-"

// Cost is the bcrypt cost used for stored fingerprints
var Cost = 12

// New mints a random device fingerprint
func New() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return Prefix + strings.ToUpper(hex.EncodeToString(b)), nil
}

// Hash hashes a fingerprint for the device binding table
func Hash(fp string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(fp), Cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a raw fingerprint with a stored hash
func Verify(fp, hash string) bool {
	if fp == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(fp)) == nil
}

// Valid reports whether fp looks like something a console could send
func Valid(fp string) bool {
	fp = strings.TrimSpace(fp)
	return len(fp) >= 8 && len(fp) <= 72
}

// Label shortens a fingerprint for display, keeping the last four characters
func Label(fp string) string {
	fp = strings.TrimSpace(fp)
	if len(fp) <= 4 {
		return fp
	}
	return "…" + fp[len(fp)-4:]
}
