package apiclient

import (
	"bufio"
	"context"
	"encoding"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/padlink/dsubridge/apitypes"
)

// ErrStreamClosed is returned by writes on a closed PadStream.
var ErrStreamClosed = errors.New("stream closed")

// PadStream feeds native adapter reports to a pad slot on the server.
// The pad stays bound until the stream is closed.
type PadStream struct {
	conn    net.Conn
	Slot    uint8
	Adapter string

	mu     sync.Mutex
	closed bool
}

// OpenPadStream binds a new pad of the given adapter type. slot < 0 picks the
// first free slot. req may be nil.
func (c *Client) OpenPadStream(ctx context.Context, slot int, adapter string, req *apitypes.PadStreamRequest) (*PadStream, error) {
	if c.transport.mock != nil {
		return nil, fmt.Errorf("stream connections not supported with mock transport")
	}
	id := "any"
	if slot >= 0 {
		id = fmt.Sprintf("%d", slot)
	}
	var payload any
	if req != nil {
		payload = req
	}
	line, err := requestBytes(fillPath("pad/{id}/stream/{type}", map[string]string{"id": id, "type": adapter}), payload)
	if err != nil {
		return nil, err
	}

	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := conn.Write(line); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream request: %w", err)
	}
	if c.transport.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(c.transport.cfg.ReadTimeout))
	}
	// The server writes nothing after the accept line, so the buffered
	// reader cannot swallow stream data.
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read stream response: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	accepted, err := parse[apitypes.PadStreamResponse](strings.TrimSuffix(resp, "\n"))
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &PadStream{conn: conn, Slot: accepted.Slot, Adapter: accepted.Adapter}, nil
}

// Write sends raw report bytes.
func (s *PadStream) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrStreamClosed
	}
	return s.conn.Write(data)
}

// WriteBinary marshals v (e.g. a ds4hid.Report) and sends it as one report.
func (s *PadStream) WriteBinary(v encoding.BinaryMarshaler) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.Write(data)
	return err
}

// SetWriteDeadline sets the write deadline for the underlying connection.
func (s *PadStream) SetWriteDeadline(t time.Time) error {
	return s.conn.SetWriteDeadline(t)
}

// Close ends the stream; the server releases the slot.
func (s *PadStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
