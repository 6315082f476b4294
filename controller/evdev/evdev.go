// Package evdev exposes Linux motion sensor event devices, such as the one
// the kernel creates for a DualShock 4, as controllers.
package evdev

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/padlink/dsubridge/controller"
)

const (
	AdapterName = "evdev"

	SonyVendor  = 0x054C
	DS4v1       = 0x05C4
	DS4v2       = 0x09CC
	DS4Wireless = 0x0BA0

	DefaultGlob = "/dev/input/event*"
)

// ErrUnsupported is reported on platforms without evdev.
var ErrUnsupported = errors.New("evdev is only available on linux")

// Config is the evdev section of the CLI.
type Config struct {
	Scan         bool          `help:"Scan for DualShock 4 motion sensors and bind them to free slots" default:"false" env:"DSUBRIDGE_EVDEV_SCAN"`
	ScanInterval time.Duration `help:"Interval between scans" default:"2s" env:"DSUBRIDGE_EVDEV_SCAN_INTERVAL"`
	Paths        []string      `help:"Event device globs to scan" default:"/dev/input/event*" env:"DSUBRIDGE_EVDEV_PATHS"`
}

// Candidate is a motion sensor found by Scan.
type Candidate struct {
	Path   string
	Name   string
	Serial string
}

// supported reports whether vendor/product is a known motion sensor source.
func supported(vendor, product uint16) bool {
	if vendor != SonyVendor {
		return false
	}
	switch product {
	case DS4v1, DS4v2, DS4Wireless:
		return true
	}
	return false
}

// BindFunc attaches a discovered controller, typically to a DSU slot.
type BindFunc func(c controller.Controller) error

// Watcher periodically scans for motion sensors and binds new ones. A device
// is bound at most once while its controller is alive.
type Watcher struct {
	cfg    Config
	bind   BindFunc
	scan   func(globs []string) []Candidate
	open   func(c Candidate, logger *slog.Logger) controller.Controller
	logger *slog.Logger

	mu     sync.Mutex
	active map[string]bool
}

func NewWatcher(cfg Config, bind BindFunc, logger *slog.Logger) *Watcher {
	if len(cfg.Paths) == 0 {
		cfg.Paths = []string{DefaultGlob}
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 2 * time.Second
	}
	return &Watcher{
		cfg:    cfg,
		bind:   bind,
		scan:   Scan,
		open:   func(c Candidate, l *slog.Logger) controller.Controller { return New(c.Path, l) },
		logger: logger,
		active: make(map[string]bool),
	}
}

// Run scans until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	t := time.NewTicker(w.cfg.ScanInterval)
	defer t.Stop()
	for {
		w.ScanOnce()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// ScanOnce binds every new candidate and returns how many were bound.
func (w *Watcher) ScanOnce() int {
	bound := 0
	for _, c := range w.scan(w.cfg.Paths) {
		key := c.Serial
		if key == "" {
			key = c.Path
		}
		w.mu.Lock()
		if w.active[key] {
			w.mu.Unlock()
			continue
		}
		w.active[key] = true
		w.mu.Unlock()

		ctrl := w.open(c, w.logger)
		ctrl.OnOpenClose().OnComplete(func() {
			w.mu.Lock()
			delete(w.active, key)
			w.mu.Unlock()
		})
		if err := w.bind(ctrl); err != nil {
			w.logger.Warn("cannot bind motion sensor", "path", c.Path, "error", err)
			ctrl.Close()
			continue
		}
		w.logger.Info("motion sensor bound", "path", c.Path, "name", c.Name)
		bound++
	}
	return bound
}
