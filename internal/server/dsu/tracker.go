package dsu

import (
	"time"

	"github.com/padlink/dsubridge/controller"
	pdsu "github.com/padlink/dsubridge/dsu"
)

// DefaultClientTimeout is how long a pad data request keeps a client
// subscribed.
const DefaultClientTimeout = 5000 * time.Millisecond

// Tracker records when one client last asked for pad data, per scope.
// A zero time means the scope was never requested. Timestamps only move
// forward and are never cleared.
type Tracker struct {
	timeout time.Duration
	all     time.Time
	slots   [controller.MaxPads]time.Time
	macs    map[string]time.Time
}

// NewTracker returns an empty tracker; timeout <= 0 selects DefaultClientTimeout.
func NewTracker(timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}
	return &Tracker{timeout: timeout, macs: make(map[string]time.Time)}
}

// Register records a pad data request. With no flags only the all-pads scope
// is touched; the id and mac bits update their scopes independently. An id
// outside the pad range and the zero MAC are ignored.
func (t *Tracker) Register(flags pdsu.RegisterFlags, padID uint8, mac string, now time.Time) {
	if flags == pdsu.RegisterAll {
		t.all = later(t.all, now)
		return
	}
	if flags&pdsu.RegisterID != 0 && int(padID) < controller.MaxPads {
		t.slots[padID] = later(t.slots[padID], now)
	}
	if flags&pdsu.RegisterMAC != 0 {
		// the zero MAC is shared by every pad without an address
		if mac = controller.NormalizeMAC(mac); mac != controller.ZeroMAC {
			t.macs[mac] = later(t.macs[mac], now)
		}
	}
}

func (t *Tracker) live(ts, now time.Time) bool {
	return !ts.IsZero() && now.Sub(ts) < t.timeout
}

// LiveAll reports whether the all-pads subscription is current.
func (t *Tracker) LiveAll(now time.Time) bool { return t.live(t.all, now) }

// LiveSlot reports whether the subscription for padID is current.
func (t *Tracker) LiveSlot(padID uint8, now time.Time) bool {
	if int(padID) >= controller.MaxPads {
		return false
	}
	return t.live(t.slots[padID], now)
}

// LiveMAC reports whether the subscription for mac is current. The zero MAC
// is never live.
func (t *Tracker) LiveMAC(mac string, now time.Time) bool {
	mac = controller.NormalizeMAC(mac)
	if mac == controller.ZeroMAC {
		return false
	}
	return t.live(t.macs[mac], now)
}

// Eligible reports whether the client wants data for the pad in padID
// identified by mac.
func (t *Tracker) Eligible(padID uint8, mac string, now time.Time) bool {
	return t.LiveAll(now) || t.LiveSlot(padID, now) || t.LiveMAC(mac, now)
}

// LastSeen returns the most recent registration of any scope.
func (t *Tracker) LastSeen() time.Time {
	last := t.all
	for _, ts := range t.slots {
		last = later(last, ts)
	}
	for _, ts := range t.macs {
		last = later(last, ts)
	}
	return last
}

// LiveMACs returns the MACs with a current subscription.
func (t *Tracker) LiveMACs(now time.Time) []string {
	var macs []string
	for mac, ts := range t.macs {
		if t.live(ts, now) {
			macs = append(macs, mac)
		}
	}
	return macs
}

func later(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
