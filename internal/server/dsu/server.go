// Package dsu serves DSU (cemuhook) clients over UDP from the pads bound to
// its four slots.
package dsu

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync/atomic"

	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/internal/log"
	"github.com/padlink/dsubridge/motion"
)

// ErrNotRunning is returned by calls made while the event loop is not running.
var ErrNotRunning = errors.New("dsu server not running")

const maxDatagram = 1024

type datagram struct {
	from netip.AddrPort
	data []byte
}

// Server owns the UDP socket and runs the Core on a single event loop.
type Server struct {
	config    ServerConfig
	logger    *slog.Logger
	rawLogger log.RawLogger
	filter    motion.Config

	core    *Core
	events  chan Event
	packets chan datagram
	calls   chan func(*Core)

	conn    *net.UDPConn
	ready   chan struct{}
	stopped chan struct{}

	droppedEvents atomic.Uint64
}

func New(config ServerConfig, logger *slog.Logger, rawLogger log.RawLogger) (*Server, error) {
	kind, err := motion.ParseKind(config.Filter.Type)
	if err != nil {
		return nil, err
	}
	filter, err := motion.NewConfig(kind, config.Filter.Params...)
	if err != nil {
		return nil, err
	}
	if config.ServerID == 0 {
		var b [4]byte
		_, _ = rand.Read(b[:])
		config.ServerID = binary.LittleEndian.Uint32(b[:])
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 256
	}
	if rawLogger == nil {
		rawLogger = log.NewRaw(nil)
	}

	s := &Server{
		config:    config,
		logger:    logger,
		rawLogger: rawLogger,
		filter:    filter,
		events:    make(chan Event, config.EventBuffer),
		packets:   make(chan datagram, 64),
		calls:     make(chan func(*Core)),
		ready:     make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	s.core = NewCore(CoreConfig{
		ServerID:      config.ServerID,
		ClientTimeout: config.ClientTimeout,
		Sink:          s.enqueue,
		Release:       func(c controller.Controller) { go c.Close() },
		Logger:        logger,
	})
	return s, nil
}

// enqueue runs on adapter goroutines. Only data events may be dropped; open,
// close and error events wait for room so a slot never keeps a dead adapter.
func (s *Server) enqueue(ev Event) {
	if ev.Kind != EventData {
		select {
		case s.events <- ev:
		case <-s.stopped:
		}
		return
	}
	select {
	case s.events <- ev:
	default:
		if n := s.droppedEvents.Add(1); n&(n-1) == 0 {
			s.logger.Warn("adapter event queue full, dropping", "dropped", n)
		}
	}
}

// DroppedEvents returns the number of adapter data events lost to a full
// queue.
func (s *Server) DroppedEvents() uint64 { return s.droppedEvents.Load() }

// ServerID returns the id sent in every packet.
func (s *Server) ServerID() uint32 { return s.config.ServerID }

// Ready is closed once the socket is bound.
func (s *Server) Ready() <-chan struct{} { return s.ready }

// LocalAddr returns the bound UDP address, nil before Ready.
func (s *Server) LocalAddr() *net.UDPAddr {
	select {
	case <-s.ready:
		return s.conn.LocalAddr().(*net.UDPAddr)
	default:
		return nil
	}
}

// Run binds the socket and serves until ctx is done. All bound pads are
// released on return.
func (s *Server) Run(ctx context.Context) error {
	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(ctx, "udp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen dsu: %w", err)
	}
	s.conn = pc.(*net.UDPConn)
	defer close(s.stopped)
	defer s.conn.Close()

	close(s.ready)
	s.logger.Info("DSU server listening", "addr", s.conn.LocalAddr(), "serverId", s.config.ServerID)

	readErr := make(chan error, 1)
	go func() { readErr <- s.readLoop() }()

	for {
		select {
		case <-ctx.Done():
			s.core.Close()
			s.logger.Info("DSU server stopped")
			return nil
		case err := <-readErr:
			s.core.Close()
			return fmt.Errorf("read dsu: %w", err)
		case d := <-s.packets:
			s.send(s.core.HandlePacket(d.from, d.data))
		case ev := <-s.events:
			s.send(s.core.HandleEvent(ev))
		case fn := <-s.calls:
			fn(s.core)
		}
	}
}

func (s *Server) readLoop() error {
	buf := make([]byte, maxDatagram)
	for {
		n, from, err := s.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		data := append([]byte(nil), buf[:n]...)
		s.rawLogger.Log(true, data)
		from = netip.AddrPortFrom(from.Addr().Unmap(), from.Port())
		select {
		case s.packets <- datagram{from: from, data: data}:
		case <-s.stopped:
			return nil
		}
	}
}

func (s *Server) send(out []Outbound) {
	for _, o := range out {
		s.rawLogger.Log(false, o.Data)
		if _, err := s.conn.WriteToUDPAddrPort(o.Data, o.To); err != nil {
			s.logger.Debug("dsu write failed", "remote", o.To, "error", err)
		}
	}
}

// do runs fn on the event loop and waits for it.
func (s *Server) do(fn func(*Core)) error {
	done := make(chan struct{})
	select {
	case s.calls <- func(c *Core) { fn(c); close(done) }:
	case <-s.stopped:
		return ErrNotRunning
	}
	<-done
	return nil
}

// Bind attaches ctrl to slot (negative for the first free one), applies the
// default filter and opens it.
func (s *Server) Bind(ctrl controller.Controller, slot int) (uint8, error) {
	if err := ctrl.SetFilter(s.filter); err != nil {
		return 0, err
	}
	var id uint8
	var bindErr error
	if err := s.do(func(c *Core) { id, bindErr = c.Bind(ctrl, slot) }); err != nil {
		return 0, err
	}
	if bindErr != nil {
		return 0, bindErr
	}
	ctrl.Open()
	return id, nil
}

// ClosePad unbinds and closes the pad in slot.
func (s *Server) ClosePad(slot uint8) error {
	var err error
	if derr := s.do(func(c *Core) { err = c.Unbind(slot) }); derr != nil {
		return derr
	}
	return err
}

// SetFilter changes the motion filter of the pad in slot.
func (s *Server) SetFilter(slot uint8, cfg motion.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	var err error
	if derr := s.do(func(c *Core) { err = c.SetFilter(slot, cfg) }); derr != nil {
		return derr
	}
	return err
}

func (s *Server) Pads() ([]PadInfo, error) {
	var pads []PadInfo
	err := s.do(func(c *Core) { pads = c.Pads() })
	return pads, err
}

func (s *Server) Clients() ([]ClientInfo, error) {
	var clients []ClientInfo
	err := s.do(func(c *Core) { clients = c.Clients() })
	return clients, err
}

// Subscribe calls fn with every report of slot as sent to clients. fn runs
// on the event loop and must not block.
func (s *Server) Subscribe(slot uint8, fn func(controller.DualshockData)) (cancel func(), err error) {
	var id uint64
	var subErr error
	if err := s.do(func(c *Core) { id, subErr = c.Subscribe(slot, fn) }); err != nil {
		return nil, err
	}
	if subErr != nil {
		return nil, subErr
	}
	return func() { _ = s.do(func(c *Core) { c.Unsubscribe(id) }) }, nil
}
