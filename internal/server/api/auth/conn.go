package auth

import (
	"bufio"
	"bytes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// Frame layout: u32 BE length | nonce[12] | ciphertext. The first four nonce
// bytes are random per connection, the rest is the send counter.
const (
	maxFrameSize = 2 * 1024 * 1024
	lengthSize   = 4
)

// Conn encrypts every Write as one frame and decrypts frames on Read.
type Conn struct {
	net.Conn
	src  io.Reader
	aead cipher.AEAD

	wmu     sync.Mutex
	prefix  [4]byte
	sendCtr uint64

	rmu     sync.Mutex
	pending bytes.Buffer
}

// WrapConn returns conn with chacha20poly1305 framing keyed by sessionKey.
func WrapConn(conn net.Conn, sessionKey []byte) (net.Conn, error) {
	return wrap(conn, conn, sessionKey)
}

// Accept runs ServerHandshake on conn, reading through r, and returns the
// encrypted connection. Bytes r has already buffered are not lost.
func Accept(conn net.Conn, r *bufio.Reader, key []byte) (net.Conn, error) {
	clientNonce, serverNonce, err := ServerHandshake(r, conn, key)
	if err != nil {
		return nil, err
	}
	return wrap(conn, r, DeriveSessionKey(key, serverNonce, clientNonce))
}

func wrap(conn net.Conn, src io.Reader, sessionKey []byte) (*Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	c := &Conn{Conn: conn, src: src, aead: aead}
	if _, err := rand.Read(c.prefix[:]); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	frame := make([]byte, lengthSize+chacha20poly1305.NonceSize, lengthSize+chacha20poly1305.NonceSize+len(p)+c.aead.Overhead())
	nonce := frame[lengthSize:]
	copy(nonce, c.prefix[:])
	binary.BigEndian.PutUint64(nonce[4:], c.sendCtr)
	c.sendCtr++

	frame = c.aead.Seal(frame, nonce, p, nil)
	binary.BigEndian.PutUint32(frame[:lengthSize], uint32(len(frame)-lengthSize))
	if _, err := c.Conn.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	if c.pending.Len() == 0 {
		var hdr [lengthSize]byte
		if _, err := io.ReadFull(c.src, hdr[:]); err != nil {
			return 0, err
		}
		length := binary.BigEndian.Uint32(hdr[:])
		if length > maxFrameSize || length < chacha20poly1305.NonceSize {
			return 0, io.ErrUnexpectedEOF
		}
		pkt := make([]byte, length)
		if _, err := io.ReadFull(c.src, pkt); err != nil {
			return 0, err
		}
		nonce, ct := pkt[:chacha20poly1305.NonceSize], pkt[chacha20poly1305.NonceSize:]
		pt, err := c.aead.Open(ct[:0], nonce, ct, nil)
		if err != nil {
			return 0, err
		}
		c.pending.Write(pt)
	}
	return c.pending.Read(p)
}
