// Package crypto provides random secret generation for Cinelog.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Character sets for generated values.
const (
	// secretChars is URL- and shell-safe.
	secretChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	// passwordChars avoids look-alike characters.
	passwordChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"
)

// Generated lengths.
const (
	// SigningSecretLength is the length of a generated token signing secret.
	SigningSecretLength = 48

	// MinSigningSecretLength is the shortest secret accepted for HS256 signing.
	MinSigningSecretLength = 32

	// PasswordLength is the length of a generated user password.
	PasswordLength = 16
)

// ErrInvalidLength indicates a non-positive length was requested.
var ErrInvalidLength = errors.New("length must be positive")

// GenerateSigningSecret generates a random secret for auth.jwt_secret.
func GenerateSigningSecret() (string, error) {
	return generateRandomString(SigningSecretLength, secretChars)
}

// GeneratePassword generates a random initial password.
func GeneratePassword() (string, error) {
	return generateRandomString(PasswordLength, passwordChars)
}

// GenerateHexSecret returns n random bytes hex-encoded.
func GenerateHexSecret(n int) (string, error) {
	if n <= 0 {
		return "", ErrInvalidLength
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// IsStrongSigningSecret reports whether secret is long enough to sign tokens.
func IsStrongSigningSecret(secret string) bool {
	return len(strings.TrimSpace(secret)) >= MinSigningSecretLength
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set. Bytes that would bias
// the distribution are rejected.
func generateRandomString(length int, charset string) (string, error) {
	if length <= 0 {
		return "", ErrInvalidLength
	}

	charsetLen := len(charset)
	limit := 256 - (256 % charsetLen)

	result := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(result) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			result = append(result, charset[int(b)%charsetLen])
			if len(result) == length {
				break
			}
		}
	}

	return string(result), nil
}
