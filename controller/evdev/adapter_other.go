//go:build !linux

package evdev

import (
	"log/slog"

	"github.com/padlink/dsubridge/controller"
)

// Scan finds nothing outside linux.
func Scan([]string) []Candidate { return nil }

// Adapter fails to open outside linux.
type Adapter struct {
	*controller.Base
}

func New(_ string, _ *slog.Logger) controller.Controller {
	return &Adapter{Base: controller.NewBase(AdapterName)}
}

func (a *Adapter) Open() controller.Controller {
	if a.Begin() {
		a.Fail("open", ErrUnsupported)
		a.Closed()
	}
	return a
}

func (a *Adapter) Close() { a.Closed() }
