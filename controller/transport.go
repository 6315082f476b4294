package controller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
)

// Transport is the raw report boundary an adapter reads from: a HID handle,
// an evdev node or a network stream carrying device reports.
type Transport interface {
	// Open establishes the underlying connection.
	Open(ctx context.Context) error
	// ReadFrame blocks until one complete device report is available.
	ReadFrame(ctx context.Context) ([]byte, error)
	// Close releases the connection and unblocks a pending ReadFrame.
	Close() error
	// Info describes the device, "" if unknown.
	Info() string
}

// FrameTransport reads fixed size frames from a stream.
type FrameTransport struct {
	rc   io.ReadCloser
	size int
	info string

	closeOnce sync.Once
	closeErr  error
}

// NewFrameTransport returns a Transport that reads size byte frames from rc.
func NewFrameTransport(rc io.ReadCloser, size int, info string) *FrameTransport {
	return &FrameTransport{rc: rc, size: size, info: info}
}

func (t *FrameTransport) Open(ctx context.Context) error {
	if t.size <= 0 {
		return fmt.Errorf("invalid frame size %d", t.size)
	}
	return ctx.Err()
}

func (t *FrameTransport) ReadFrame(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	buf := make([]byte, t.size)
	if _, err := io.ReadFull(t.rc, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *FrameTransport) Close() error {
	t.closeOnce.Do(func() { t.closeErr = t.rc.Close() })
	return t.closeErr
}

func (t *FrameTransport) Info() string { return t.info }

// IsDisconnect reports whether err is an ordinary end of a transport rather
// than a device failure.
func IsDisconnect(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled)
}

// Pump runs the read loop of a transport backed adapter.
type Pump struct {
	base *Base
	t    Transport

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPump couples a Base with the Transport it reads from.
func NewPump(b *Base, t Transport) *Pump {
	return &Pump{base: b, t: t}
}

// Start opens the transport in the background. Once open, meta is called to
// build the initial pad meta and every frame is passed to handle; a handle
// error is reported but does not stop the loop. Start is a no-op when the
// adapter is already open, opening or closed.
func (p *Pump) Start(meta func(info string) DualshockMeta, handle func(frame []byte) error) {
	p.mu.Lock()
	if !p.base.Begin() {
		p.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go func() {
		defer close(done)
		defer p.base.Closed()
		defer func() { _ = p.t.Close() }()

		if err := p.t.Open(ctx); err != nil {
			p.base.Fail("open", err)
			return
		}
		if p.base.IsClosed() {
			return
		}
		info := p.t.Info()
		p.base.Opened(info, meta(info))

		for {
			frame, err := p.t.ReadFrame(ctx)
			if err != nil {
				if ctx.Err() == nil && !IsDisconnect(err) {
					p.base.Fail("read", err)
				}
				return
			}
			if err := handle(frame); err != nil {
				p.base.Fail("decode", err)
			}
		}
	}()
}

// Stop closes the transport, waits for the read loop and marks the adapter
// closed. Safe to call more than once and before Start.
func (p *Pump) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		_ = p.t.Close()
		<-done
	}
	p.base.Closed()
}
