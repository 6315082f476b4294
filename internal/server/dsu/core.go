package dsu

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sort"
	"time"

	"github.com/padlink/dsubridge/controller"
	pdsu "github.com/padlink/dsubridge/dsu"
	"github.com/padlink/dsubridge/motion"
)

var (
	ErrInvalidSlot = errors.New("invalid pad slot")
	ErrSlotBusy    = errors.New("pad slot in use")
	ErrNoFreeSlot  = errors.New("no free pad slot")
	ErrSlotEmpty   = errors.New("pad slot empty")
)

// Outbound is a datagram to send.
type Outbound struct {
	To   netip.AddrPort
	Data []byte
}

// EventKind is the adapter stream an Event came from.
type EventKind uint8

const (
	EventOpenClose EventKind = iota
	EventData
	EventError
)

// Event carries an adapter emission into the core. Gen identifies the binding
// that produced it so late events of a previous binding are ignored.
type Event struct {
	Slot uint8
	Gen  uint64
	Kind EventKind

	OpenClose controller.OpenCloseEvent
	Data      controller.DualshockData
	Err       error
}

// PadInfo is a snapshot of one slot.
type PadInfo struct {
	Slot          uint8                       `json:"slot"`
	State         controller.State            `json:"state"`
	Meta          controller.DualshockMeta    `json:"meta"`
	Info          string                      `json:"info,omitempty"`
	Filter        motion.Config               `json:"filter"`
	PacketCounter uint32                      `json:"packetCounter"`
	Last          *controller.DualshockReport `json:"last,omitempty"`
}

// ClientInfo is a snapshot of one UDP client.
type ClientInfo struct {
	Addr     string    `json:"addr"`
	ClientID uint32    `json:"clientId"`
	All      bool      `json:"all"`
	Slots    []int     `json:"slots"`
	MACs     []string  `json:"macs"`
	LastSeen time.Time `json:"lastSeen"`
	Sent     uint64    `json:"sent"`
}

type filterer interface {
	Filter() motion.Config
}

type slot struct {
	id      uint8
	gen     uint64
	ctrl    controller.Controller
	state   controller.State
	meta    controller.DualshockMeta
	info    string
	counter uint32
	last    *controller.DualshockReport
	detach  []func()
}

type client struct {
	addr     netip.AddrPort
	clientID uint32
	tracker  *Tracker
	sent     uint64
}

type subscriber struct {
	slot uint8
	fn   func(controller.DualshockData)
}

// CoreConfig configures a Core.
type CoreConfig struct {
	ServerID      uint32
	ClientTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
	// Sink receives adapter events; it is called on adapter goroutines and
	// must not block.
	Sink func(Event)
	// Release is called with every controller the core unbinds. Defaults to
	// calling Close.
	Release func(controller.Controller)
	Logger  *slog.Logger
}

// Core holds all protocol state. It is not safe for concurrent use; the
// Server serializes every call on its event loop.
type Core struct {
	serverID uint32
	timeout  time.Duration
	now      func() time.Time
	sink     func(Event)
	release  func(controller.Controller)
	logger   *slog.Logger

	slots   [controller.MaxPads]slot
	nextGen uint64
	clients map[netip.AddrPort]*client

	subs    map[uint64]subscriber
	nextSub uint64
}

func NewCore(cfg CoreConfig) *Core {
	c := &Core{
		serverID: cfg.ServerID,
		timeout:  cfg.ClientTimeout,
		now:      cfg.Now,
		sink:     cfg.Sink,
		release:  cfg.Release,
		logger:   cfg.Logger,
		clients:  make(map[netip.AddrPort]*client),
		subs:     make(map[uint64]subscriber),
	}
	if c.timeout <= 0 {
		c.timeout = DefaultClientTimeout
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.sink == nil {
		c.sink = func(Event) {}
	}
	if c.release == nil {
		c.release = func(ctrl controller.Controller) { ctrl.Close() }
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	for i := range c.slots {
		c.slots[i] = slot{id: uint8(i), state: controller.StateDisconnected, meta: controller.DisconnectedMeta(uint8(i))}
	}
	return c
}

// HandlePacket processes one inbound datagram and returns the replies.
// Invalid packets are dropped.
func (c *Core) HandlePacket(from netip.AddrPort, buf []byte) []Outbound {
	p, err := pdsu.Decode(buf)
	if err != nil {
		c.logger.Debug("dropping packet", "remote", from, "error", err)
		return nil
	}

	switch p.Type {
	case pdsu.MessageVersion:
		return []Outbound{{To: from, Data: pdsu.EncodeVersionResponse(c.serverID)}}

	case pdsu.MessagePorts:
		req, err := pdsu.DecodePortsRequest(p.Body)
		if err != nil {
			c.logger.Debug("dropping ports request", "remote", from, "error", err)
			return nil
		}
		var out []Outbound
		for _, id := range req.IDs {
			if int(id) >= controller.MaxPads {
				continue
			}
			out = append(out, Outbound{To: from, Data: pdsu.EncodePortInfo(c.serverID, c.slotMeta(&c.slots[id]))})
		}
		return out

	case pdsu.MessagePadData:
		req, err := pdsu.DecodePadDataRequest(p.Body)
		if err != nil {
			c.logger.Debug("dropping pad data request", "remote", from, "error", err)
			return nil
		}
		cl, ok := c.clients[from]
		if !ok {
			cl = &client{addr: from, tracker: NewTracker(c.timeout)}
			c.clients[from] = cl
			c.logger.Info("dsu client subscribed", "remote", from, "clientId", p.SenderID)
		}
		cl.clientID = p.SenderID
		cl.tracker.Register(req.Flags, req.PadID, req.MAC, c.now())
	}
	return nil
}

// Bind attaches ctrl to a slot and subscribes to its streams. A negative
// slot selects the first free one. The slot is Reserved until the adapter
// reports open, or Connected right away if it already is.
func (c *Core) Bind(ctrl controller.Controller, want int) (uint8, error) {
	s, err := c.freeSlot(want)
	if err != nil {
		return 0, err
	}

	c.nextGen++
	s.gen = c.nextGen
	s.ctrl = ctrl
	s.state = controller.StateReserved
	s.counter = 0
	s.last = nil
	s.meta = controller.DisconnectedMeta(s.id)
	s.meta.State = controller.StateReserved
	s.info, _ = ctrl.InfoString()

	id, gen := s.id, s.gen
	s.detach = []func(){
		ctrl.OnOpenClose().Subscribe(func(ev controller.OpenCloseEvent) {
			c.sink(Event{Slot: id, Gen: gen, Kind: EventOpenClose, OpenClose: ev})
		}),
		ctrl.OnDualshockData().Subscribe(func(d controller.DualshockData) {
			c.sink(Event{Slot: id, Gen: gen, Kind: EventData, Data: d})
		}),
		ctrl.OnError().Subscribe(func(err error) {
			c.sink(Event{Slot: id, Gen: gen, Kind: EventError, Err: err})
		}),
	}

	if ctrl.IsOpen() {
		if meta, ok := ctrl.DualshockMeta(); ok {
			c.connect(s, meta)
		}
	}
	c.logger.Info("pad bound", "slot", id, "state", s.state, "info", s.info)
	return id, nil
}

func (c *Core) freeSlot(want int) (*slot, error) {
	if want >= controller.MaxPads {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSlot, want)
	}
	if want >= 0 {
		s := &c.slots[want]
		if s.ctrl != nil {
			return nil, fmt.Errorf("%w: %d", ErrSlotBusy, want)
		}
		return s, nil
	}
	for i := range c.slots {
		if c.slots[i].ctrl == nil {
			return &c.slots[i], nil
		}
	}
	return nil, ErrNoFreeSlot
}

// Unbind detaches the controller of a slot and releases it.
func (c *Core) Unbind(id uint8) error {
	if int(id) >= controller.MaxPads {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, id)
	}
	s := &c.slots[id]
	if s.ctrl == nil {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, id)
	}
	c.disconnect(s, "unbound")
	return nil
}

// HandleEvent applies an adapter event and returns the datagrams it causes.
func (c *Core) HandleEvent(ev Event) []Outbound {
	if int(ev.Slot) >= controller.MaxPads {
		return nil
	}
	s := &c.slots[ev.Slot]
	if s.ctrl == nil || s.gen != ev.Gen {
		return nil
	}

	switch ev.Kind {
	case EventOpenClose:
		if ev.OpenClose.Status {
			s.info = ev.OpenClose.Info
			meta, _ := s.ctrl.DualshockMeta()
			c.connect(s, meta)
			return nil
		}
		c.disconnect(s, "adapter closed")

	case EventError:
		var aerr *controller.AdapterError
		if errors.As(ev.Err, &aerr) && aerr.Op == "decode" {
			c.logger.Warn("pad report error", "slot", s.id, "error", ev.Err)
			return nil
		}
		c.logger.Error("pad adapter error", "slot", s.id, "error", ev.Err)
		c.disconnect(s, "adapter error")

	case EventData:
		return c.broadcast(s, ev.Data)
	}
	return nil
}

func (c *Core) connect(s *slot, meta controller.DualshockMeta) {
	if s.state == controller.StateConnected {
		return
	}
	s.state = controller.StateConnected
	s.meta = meta
	c.logger.Info("pad connected", "slot", s.id, "mac", meta.MAC, "info", s.info)
}

func (c *Core) disconnect(s *slot, reason string) {
	ctrl := s.ctrl
	for _, cancel := range s.detach {
		cancel()
	}
	*s = slot{id: s.id, state: controller.StateDisconnected, meta: controller.DisconnectedMeta(s.id), counter: s.counter}
	c.logger.Info("pad disconnected", "slot", s.id, "reason", reason)
	if ctrl != nil {
		c.release(ctrl)
	}
}

// broadcast sends d to every client eligible for the slot. The slot counter
// advances once per report that reached at least one client.
func (c *Core) broadcast(s *slot, d controller.DualshockData) []Outbound {
	// data implies the adapter is open even if its open event was dropped
	c.connect(s, d.Meta)
	s.meta = d.Meta
	report := d.Report
	s.last = &report

	meta := c.slotMeta(s)
	for _, sub := range c.subs {
		if sub.slot == s.id {
			sub.fn(controller.DualshockData{Report: report, Meta: meta})
		}
	}

	now := c.now()
	var out []Outbound
	var pkt []byte
	for _, cl := range c.clients {
		if !cl.tracker.Eligible(s.id, meta.MAC, now) {
			continue
		}
		if pkt == nil {
			pkt = pdsu.EncodePadData(c.serverID, meta, report, s.counter)
		}
		cl.sent++
		out = append(out, Outbound{To: cl.addr, Data: pkt})
	}
	if len(out) > 0 {
		s.counter++
	}
	return out
}

// slotMeta is the meta clients see: the adapter's meta with the slot's id
// and state.
func (c *Core) slotMeta(s *slot) controller.DualshockMeta {
	if s.state == controller.StateDisconnected {
		return controller.DisconnectedMeta(s.id)
	}
	m := s.meta
	m.PadID = s.id
	m.State = s.state
	m.MAC = controller.NormalizeMAC(m.MAC)
	if s.state == controller.StateReserved {
		m.IsActive = false
	}
	return m
}

// SetFilter replaces the motion filter of the controller in a slot.
func (c *Core) SetFilter(id uint8, cfg motion.Config) error {
	if int(id) >= controller.MaxPads {
		return fmt.Errorf("%w: %d", ErrInvalidSlot, id)
	}
	s := &c.slots[id]
	if s.ctrl == nil {
		return fmt.Errorf("%w: %d", ErrSlotEmpty, id)
	}
	return s.ctrl.SetFilter(cfg)
}

// Subscribe registers fn for the data of a slot as clients see it. fn runs
// on the event loop and must not block.
func (c *Core) Subscribe(id uint8, fn func(controller.DualshockData)) (uint64, error) {
	if int(id) >= controller.MaxPads {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSlot, id)
	}
	c.nextSub++
	c.subs[c.nextSub] = subscriber{slot: id, fn: fn}
	return c.nextSub, nil
}

func (c *Core) Unsubscribe(sub uint64) {
	delete(c.subs, sub)
}

// Pads returns a snapshot of all slots.
func (c *Core) Pads() []PadInfo {
	pads := make([]PadInfo, 0, controller.MaxPads)
	for i := range c.slots {
		s := &c.slots[i]
		p := PadInfo{
			Slot:          s.id,
			State:         s.state,
			Meta:          c.slotMeta(s),
			Info:          s.info,
			Filter:        motion.Config{Type: motion.Disabled},
			PacketCounter: s.counter,
		}
		if f, ok := s.ctrl.(filterer); ok {
			p.Filter = f.Filter()
		}
		if s.last != nil {
			last := *s.last
			p.Last = &last
		}
		pads = append(pads, p)
	}
	return pads
}

// Clients returns a snapshot of all known clients, ordered by address.
func (c *Core) Clients() []ClientInfo {
	now := c.now()
	clients := make([]ClientInfo, 0, len(c.clients))
	for _, cl := range c.clients {
		info := ClientInfo{
			Addr:     cl.addr.String(),
			ClientID: cl.clientID,
			All:      cl.tracker.LiveAll(now),
			Slots:    []int{},
			MACs:     cl.tracker.LiveMACs(now),
			LastSeen: cl.tracker.LastSeen(),
			Sent:     cl.sent,
		}
		for i := uint8(0); i < controller.MaxPads; i++ {
			if cl.tracker.LiveSlot(i, now) {
				info.Slots = append(info.Slots, int(i))
			}
		}
		if info.MACs == nil {
			info.MACs = []string{}
		}
		sort.Strings(info.MACs)
		clients = append(clients, info)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].Addr < clients[j].Addr })
	return clients
}

// Close unbinds every slot.
func (c *Core) Close() {
	for i := range c.slots {
		if c.slots[i].ctrl != nil {
			c.disconnect(&c.slots[i], "shutdown")
		}
	}
}
