// Package controller defines the capability contract every controller adapter
// implements, the DualShock compatible data model adapters normalize into, and
// the shared plumbing (streams, last-value cache, motion filter) adapters embed.
package controller

import (
	"fmt"

	"github.com/padlink/dsubridge/motion"
)

// Controller is implemented by every physical or virtual controller adapter.
type Controller interface {
	// OnDualshockData emits every normalized {report, meta} pair.
	OnDualshockData() *Stream[DualshockData]
	// OnReport emits the adapter's native report before normalization.
	OnReport() *Stream[any]
	// OnMotionsData emits timestamped motion samples.
	OnMotionsData() *Stream[MotionData]
	// OnError emits adapter errors. Errors alone do not end the other streams.
	OnError() *Stream[error]
	// OnOpenClose emits lifecycle transitions.
	OnOpenClose() *Stream[OpenCloseEvent]

	// InfoString returns a human readable device descriptor when available.
	InfoString() (string, bool)

	// Open starts connecting in the background and returns the controller.
	// Failures are reported through OnError and OnOpenClose, never returned.
	Open() Controller
	// Close tears the adapter down. Safe to call at any time, more than once.
	Close()
	IsOpen() bool

	// SetFilter replaces the motion filter for all following samples.
	SetFilter(cfg motion.Config) error

	DualshockMeta() (DualshockMeta, bool)
	DualshockReport() (DualshockReport, bool)
	Report() (any, bool)
	MotionData() (MotionData, bool)
}

// AdapterError wraps a device level failure.
type AdapterError struct {
	Adapter string
	Op      string
	Err     error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Adapter, e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
