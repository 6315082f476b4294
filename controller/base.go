package controller

import (
	"errors"
	"sync"
	"time"

	"github.com/padlink/dsubridge/motion"
)

// ErrClosed is reported when an adapter is used after Close.
var ErrClosed = errors.New("adapter closed")

// Base implements the parts of Controller that do not depend on a device:
// streams, last-value accessors, motion filtering, packet counting and the
// open/close bookkeeping. Adapters embed *Base and implement Open and Close.
type Base struct {
	name string

	data      *Stream[DualshockData]
	native    *Stream[any]
	motions   *Stream[MotionData]
	errs      *Stream[error]
	openClose *Stream[OpenCloseEvent]

	filter *motion.Filter
	epoch  time.Time

	mu         sync.Mutex
	opening    bool
	open       bool
	closed     bool
	info       string
	meta       *DualshockMeta
	lastReport *DualshockReport
	lastNative any
	hasNative  bool
	lastMotion *MotionData
	counter    uint32
}

// NewBase returns a Base for an adapter named name (used in errors and logs).
func NewBase(name string) *Base {
	return &Base{
		name:      name,
		data:      NewStream[DualshockData](),
		native:    NewStream[any](),
		motions:   NewStream[MotionData](),
		errs:      NewStream[error](),
		openClose: NewStream[OpenCloseEvent](),
		filter:    motion.NewFilter(),
		epoch:     time.Now(),
	}
}

func (b *Base) Name() string { return b.name }

func (b *Base) OnDualshockData() *Stream[DualshockData] { return b.data }
func (b *Base) OnReport() *Stream[any]                  { return b.native }
func (b *Base) OnMotionsData() *Stream[MotionData]      { return b.motions }
func (b *Base) OnError() *Stream[error]                 { return b.errs }
func (b *Base) OnOpenClose() *Stream[OpenCloseEvent]    { return b.openClose }

func (b *Base) InfoString() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.info, b.info != ""
}

func (b *Base) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

func (b *Base) SetFilter(cfg motion.Config) error {
	return b.filter.Set(cfg)
}

// Filter returns the active motion filter configuration.
func (b *Base) Filter() motion.Config {
	return b.filter.Config()
}

func (b *Base) DualshockMeta() (DualshockMeta, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.meta == nil {
		return DualshockMeta{}, false
	}
	return *b.meta, true
}

func (b *Base) DualshockReport() (DualshockReport, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastReport == nil {
		return DualshockReport{}, false
	}
	return *b.lastReport, true
}

func (b *Base) Report() (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastNative, b.hasNative
}

func (b *Base) MotionData() (MotionData, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastMotion == nil {
		return MotionData{}, false
	}
	return *b.lastMotion, true
}

// Timestamp returns microseconds since the adapter was created, taken from
// the monotonic clock.
func (b *Base) Timestamp() uint64 {
	return uint64(time.Since(b.epoch).Microseconds())
}

// Begin marks the adapter as opening. It returns false if the adapter is
// already opening, open, or closed; the caller must not start another
// connection attempt then.
func (b *Base) Begin() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed || b.opening || b.open {
		return false
	}
	b.opening = true
	return true
}

// Opened records a successful open and emits the open event.
func (b *Base) Opened(info string, meta DualshockMeta) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.opening = false
	b.open = true
	b.info = info
	meta.MAC = NormalizeMAC(meta.MAC)
	meta.State = StateConnected
	meta.IsActive = true
	b.meta = &meta
	b.mu.Unlock()

	b.openClose.Emit(OpenCloseEvent{Info: info, Status: true})
}

// SetMeta applies fn to the current meta, e.g. on a battery change.
func (b *Base) SetMeta(fn func(m *DualshockMeta)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.meta == nil {
		return
	}
	fn(b.meta)
	b.meta.MAC = NormalizeMAC(b.meta.MAC)
}

// Fail emits err on the error stream wrapped in an AdapterError.
func (b *Base) Fail(op string, err error) {
	if err == nil {
		return
	}
	var aerr *AdapterError
	if !errors.As(err, &aerr) {
		err = &AdapterError{Adapter: b.name, Op: op, Err: err}
	}
	b.errs.Emit(err)
}

// Closed records the end of the adapter: the meta is reset, a close event is
// emitted and every stream completes. Only the first call has an effect.
func (b *Base) Closed() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.opening = false
	b.open = false
	b.meta = nil
	info := b.info
	b.mu.Unlock()

	b.openClose.Emit(OpenCloseEvent{Info: info, Status: false})

	b.data.Complete()
	b.native.Complete()
	b.motions.Complete()
	b.errs.Complete()
	b.openClose.Complete()
}

// IsClosed reports whether Closed has run.
func (b *Base) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Publish stamps r with the next packet counter (and a motion timestamp if it
// has none), runs its motion through the filter, caches everything and emits
// on the report, motion and data streams. The stamped report is returned.
// Reports of an adapter that is not open are returned unfiltered.
func (b *Base) Publish(native any, r DualshockReport) DualshockReport {
	if r.MotionTimestamp == 0 {
		r.MotionTimestamp = b.Timestamp()
	}

	b.mu.Lock()
	if !b.open || b.meta == nil {
		b.mu.Unlock()
		return r
	}
	// only published samples advance the filter state
	filtered := b.filter.Apply(motion.Sample{Accel: r.Accel, Gyro: r.Gyro})
	r.Accel, r.Gyro = filtered.Accel, filtered.Gyro
	m := MotionData{Timestamp: r.MotionTimestamp, Accel: r.Accel, Gyro: r.Gyro}
	r.PacketCounter = b.counter
	b.counter++
	b.lastReport = &r
	b.lastNative = native
	b.hasNative = true
	b.lastMotion = &m
	meta := *b.meta
	b.mu.Unlock()

	b.native.Emit(native)
	b.motions.Emit(m)
	b.data.Emit(DualshockData{Report: r, Meta: meta})
	return r
}

// PublishMotion emits a motion-only sample for adapters that sample motion
// faster than full reports.
func (b *Base) PublishMotion(m MotionData) MotionData {
	if m.Timestamp == 0 {
		m.Timestamp = b.Timestamp()
	}

	b.mu.Lock()
	if !b.open {
		b.mu.Unlock()
		return m
	}
	filtered := b.filter.Apply(motion.Sample{Accel: m.Accel, Gyro: m.Gyro})
	m.Accel, m.Gyro = filtered.Accel, filtered.Gyro
	b.lastMotion = &m
	b.mu.Unlock()

	b.motions.Emit(m)
	return m
}
