// Package auth implements the optional password handshake and the encrypted
// framing used on authenticated management API connections.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/pbkdf2"
)

const (
	AutoGenKeyLength = 16
	Base62Chars      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	PBKDF2Iterations = 100000
	PBKDF2Salt       = "dsubridge-key-v1"
	SessionKeySize   = 32

	sessionContext = "dsubridge-session-v1"
)

// ErrEmptyPassword is returned by DeriveKey for an empty password.
var ErrEmptyPassword = errors.New("password cannot be empty")

// GenerateKey creates a random base62 password of AutoGenKeyLength chars.
func GenerateKey() (string, error) {
	raw := make([]byte, AutoGenKeyLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	for i, b := range raw {
		raw[i] = Base62Chars[int(b)%len(Base62Chars)]
	}
	return string(raw), nil
}

// DeriveKey stretches a password to a 32 byte key with PBKDF2-SHA256.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key([]byte(password), []byte(PBKDF2Salt), PBKDF2Iterations, SessionKeySize, sha256.New), nil
}

// DeriveSessionKey mixes the long term key with both handshake nonces.
func DeriveSessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	for _, part := range [][]byte{key, serverNonce, clientNonce, []byte(sessionContext)} {
		h.Write(part)
	}
	return h.Sum(nil)
}
