package auth

import (
	"bufio"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/padlink/dsubridge/apitypes"
	apierror "github.com/padlink/dsubridge/internal/server/api/error"
)

// Handshake layout:
//
//	client: HandshakeMagic | nonce[32] | HMAC-SHA256(key, authContext | nonce)
//	server: "OK\0" | nonce[32]
//
// A server that rejects the password writes a problem line instead of "OK\0".
const (
	HandshakeMagic = "DSBA\x00"
	NonceSize      = 32
	authContext    = "dsubridge-auth-v1"
	okPrefix       = "OK\x00"

	// HandshakeSize is the length of a complete client handshake.
	HandshakeSize = len(HandshakeMagic) + NonceSize + sha256.Size
)

func clientProof(key, nonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	_, _ = mac.Write([]byte(authContext))
	_, _ = mac.Write(nonce)
	return mac.Sum(nil)
}

func newNonce() ([]byte, error) {
	n := make([]byte, NonceSize)
	if _, err := rand.Read(n); err != nil {
		return nil, err
	}
	return n, nil
}

// ReadClientNonce reads the nonce following the already consumed magic.
func ReadClientNonce(r io.Reader) ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(r, nonce); err != nil {
		return nil, fmt.Errorf("read client nonce: %w", err)
	}
	return nonce, nil
}

// WriteServerHandshake sends "OK\0" followed by a fresh server nonce.
func WriteServerHandshake(w io.Writer) ([]byte, error) {
	if w == nil {
		return nil, fmt.Errorf("write response: write on nil pointer")
	}
	nonce, err := newNonce()
	if err != nil {
		return nil, fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := w.Write(append([]byte(okPrefix), nonce...)); err != nil {
		return nil, fmt.Errorf("write response: %w", err)
	}
	return nonce, nil
}

// IsAuthHandshake peeks at r and reports whether a handshake starts there.
// It stops peeking at the first byte that differs from the magic, so short
// plain requests do not block.
func IsAuthHandshake(r *bufio.Reader) (bool, error) {
	for i := 1; i <= len(HandshakeMagic); i++ {
		b, err := r.Peek(i)
		if err != nil {
			return false, err
		}
		if b[i-1] != HandshakeMagic[i-1] {
			return false, nil
		}
	}
	return true, nil
}

// ServerHandshake verifies a client handshake read from r and answers on w.
func ServerHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if r == nil {
		return nil, nil, fmt.Errorf("handshake: nil reader")
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}
	if _, err := r.Discard(len(HandshakeMagic)); err != nil {
		return nil, nil, fmt.Errorf("discard handshake magic: %w", err)
	}
	clientNonce, err = ReadClientNonce(r)
	if err != nil {
		return nil, nil, err
	}
	proof := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, proof); err != nil {
		return nil, nil, fmt.Errorf("read client auth: %w", err)
	}
	if !hmac.Equal(proof, clientProof(key, clientNonce)) {
		return nil, nil, apierror.ErrUnauthorized("invalid password")
	}
	serverNonce, err = WriteServerHandshake(w)
	if err != nil {
		return nil, nil, err
	}
	return clientNonce, serverNonce, nil
}

// ClientHandshake sends a handshake for key on w and reads the answer from r.
func ClientHandshake(r *bufio.Reader, w io.Writer, key []byte) (clientNonce, serverNonce []byte, err error) {
	if r == nil || w == nil {
		return nil, nil, fmt.Errorf("handshake: nil reader or writer")
	}
	if len(key) == 0 {
		return nil, nil, fmt.Errorf("handshake: missing key")
	}
	clientNonce, err = newNonce()
	if err != nil {
		return nil, nil, fmt.Errorf("generate client nonce: %w", err)
	}
	msg := append([]byte(HandshakeMagic), clientNonce...)
	msg = append(msg, clientProof(key, clientNonce)...)
	if _, err := w.Write(msg); err != nil {
		return nil, nil, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(okPrefix))
	if _, err := io.ReadFull(r, prefix); err != nil {
		return nil, nil, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != okPrefix {
		rest, _ := io.ReadAll(r)
		line := strings.TrimSuffix(string(append(prefix, rest...)), "\n")
		var problem apitypes.ApiError
		if err := json.Unmarshal([]byte(line), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
			return nil, nil, problem
		}
		return nil, nil, fmt.Errorf("invalid handshake response from server: %s", line)
	}
	serverNonce = make([]byte, NonceSize)
	if _, err := io.ReadFull(r, serverNonce); err != nil {
		return nil, nil, fmt.Errorf("read server nonce: %w", err)
	}
	return clientNonce, serverNonce, nil
}

// Dial performs ClientHandshake on conn and returns the encrypted connection.
func Dial(conn net.Conn, password string) (net.Conn, error) {
	key, err := DeriveKey(password)
	if err != nil {
		return nil, err
	}
	clientNonce, serverNonce, err := ClientHandshake(bufio.NewReader(conn), conn, key)
	if err != nil {
		return nil, err
	}
	return WrapConn(conn, DeriveSessionKey(key, serverNonce, clientNonce))
}
