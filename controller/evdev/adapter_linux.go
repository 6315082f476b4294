//go:build linux

package evdev

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kenshaw/evdev"
	"github.com/padlink/dsubridge/controller"
)

var motionAxes = []evdev.AbsoluteType{
	evdev.AbsoluteX, evdev.AbsoluteY, evdev.AbsoluteZ,
	evdev.AbsoluteRX, evdev.AbsoluteRY, evdev.AbsoluteRZ,
}

// Scan returns the motion sensors matching globs.
func Scan(globs []string) []Candidate {
	var out []Candidate
	for _, g := range globs {
		paths, err := filepath.Glob(g)
		if err != nil {
			continue
		}
		for _, p := range paths {
			d, err := evdev.OpenFile(p)
			if err != nil {
				continue
			}
			if isMotionSensor(d) {
				out = append(out, Candidate{Path: p, Name: d.Name(), Serial: d.Serial()})
			}
			d.Close()
		}
	}
	return out
}

func isMotionSensor(d *evdev.Evdev) bool {
	id := d.ID()
	if !supported(id.Vendor, id.Product) || !strings.Contains(strings.ToLower(d.Name()), "motion") {
		return false
	}
	axes := d.AbsoluteTypes()
	for _, a := range motionAxes {
		if _, ok := axes[a]; !ok {
			return false
		}
	}
	return true
}

// Adapter reads accelerometer and gyroscope axes from an event device and
// publishes them as reports with centred sticks and no buttons.
type Adapter struct {
	*controller.Base

	path   string
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an unopened adapter for the event device at path.
func New(path string, logger *slog.Logger) controller.Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		Base:   controller.NewBase(AdapterName),
		path:   path,
		logger: logger.With("adapter", AdapterName, "path", path),
	}
}

func (a *Adapter) Open() controller.Controller {
	if !a.Begin() {
		return a
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	a.mu.Lock()
	a.cancel, a.done = cancel, done
	a.mu.Unlock()
	go a.run(ctx, done)
	return a
}

func (a *Adapter) Close() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
	a.Closed()
}

func (a *Adapter) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer a.Closed()

	d, err := evdev.OpenFile(a.path)
	if err != nil {
		a.Fail("open", err)
		return
	}
	defer d.Close()
	if !isMotionSensor(d) {
		a.Fail("open", fmt.Errorf("%s is not a motion sensor", a.path))
		return
	}

	conn := controller.ConnectionTypeNone
	switch d.ID().BusType {
	case evdev.BusUSB:
		conn = controller.ConnectionTypeUSB
	case evdev.BusBluetooth:
		conn = controller.ConnectionTypeBluetooth
	}
	a.logger.Info("motion sensor opened", "name", d.Name(), "serial", d.Serial())
	a.Opened(d.Name(), controller.DualshockMeta{
		ConnectionType: conn,
		Model:          controller.ModelDS4,
		MAC:            d.Serial(),
		Battery:        controller.BatteryNone,
	})

	res := make(map[evdev.AbsoluteType]float32, len(motionAxes))
	for t, axis := range d.AbsoluteTypes() {
		if axis.Res != 0 {
			res[t] = float32(axis.Res)
		}
	}

	ch, err := d.Poll(ctx, 64)
	if err != nil {
		a.Fail("read", err)
		return
	}

	var r controller.DualshockReport
	dirty := false
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if ev.Type != evdev.EventAbsolute {
				// sync/misc events close a batch of axis updates
				if dirty {
					r.Sticks = controller.CenteredSticks()
					a.Publish(r, r)
					dirty = false
				}
				continue
			}
			t := evdev.AbsoluteType(ev.Code)
			scale, ok := res[t]
			if !ok {
				continue
			}
			v := float32(ev.Value) / scale
			switch t {
			case evdev.AbsoluteX:
				r.Accel.X = -v
			case evdev.AbsoluteY:
				r.Accel.Y = -v
			case evdev.AbsoluteZ:
				r.Accel.Z = -v
			case evdev.AbsoluteRX:
				r.Gyro.X = v
			case evdev.AbsoluteRY:
				r.Gyro.Y = -v
			case evdev.AbsoluteRZ:
				r.Gyro.Z = -v
			default:
				continue
			}
			r.MotionTimestamp = uint64(ev.Time.Nano() / int64(time.Microsecond))
			dirty = true
		}
	}
}
