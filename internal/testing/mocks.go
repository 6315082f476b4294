package testing

import (
	"sync"
	"time"

	"github.com/padlink/dsubridge/controller"
)

// FakeController is an adapter without a device. Open connects synchronously
// unless ManualOpen is set, in which case Connect completes the open.
type FakeController struct {
	*controller.Base

	ManualOpen bool

	mu     sync.Mutex
	meta   controller.DualshockMeta
	info   string
	closes int
}

// NewFakeController returns an unopened DS4 fake with the given MAC.
func NewFakeController(info, mac string) *FakeController {
	return &FakeController{
		Base: controller.NewBase("fake"),
		info: info,
		meta: controller.DualshockMeta{
			Model:          controller.ModelDS4,
			ConnectionType: controller.ConnectionTypeUSB,
			MAC:            mac,
			Battery:        controller.BatteryFull,
		},
	}
}

func (f *FakeController) Open() controller.Controller {
	if !f.Begin() {
		return f
	}
	if !f.ManualOpen {
		f.Connect()
	}
	return f
}

// Connect reports the fake as opened.
func (f *FakeController) Connect() {
	f.mu.Lock()
	info, meta := f.info, f.meta
	f.mu.Unlock()
	f.Opened(info, meta)
}

func (f *FakeController) Close() {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	f.Closed()
}

// Closes returns how often Close was called.
func (f *FakeController) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}

// Push publishes r as if it came from the device.
func (f *FakeController) Push(r controller.DualshockReport) controller.DualshockReport {
	return f.Publish(r, r)
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
