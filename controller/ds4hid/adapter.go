// Package ds4hid reads DualShock 4 USB input reports.
package ds4hid

import (
	"fmt"
	"log/slog"

	"github.com/padlink/dsubridge/controller"
)

func init() {
	controller.RegisterAdapter(AdapterName, &registration{})
}

type registration struct{}

func (r *registration) FrameSize() int { return ReportSize }

func (r *registration) New(t controller.Transport, o *controller.Options) controller.Controller {
	return New(t, o)
}

// Adapter is a DualShock 4 fed by raw USB input reports.
type Adapter struct {
	*controller.Base

	pump     *controller.Pump
	mac      string
	connType controller.ConnectionType
	logger   *slog.Logger

	battery controller.Battery
}

// New returns an unopened adapter reading from t.
func New(t controller.Transport, o *controller.Options) *Adapter {
	b := controller.NewBase(AdapterName)
	return &Adapter{
		Base:     b,
		pump:     controller.NewPump(b, t),
		mac:      o.GetMAC(),
		connType: o.ConnType(controller.ConnectionTypeUSB),
		logger:   o.GetLogger().With("adapter", AdapterName),
	}
}

func (a *Adapter) Open() controller.Controller {
	a.pump.Start(a.meta, a.handleFrame)
	return a
}

func (a *Adapter) Close() {
	a.pump.Stop()
}

func (a *Adapter) meta(info string) controller.DualshockMeta {
	if info == "" {
		info = infoFallback
	}
	a.logger.Info("dualshock 4 connected", "info", info, "mac", a.mac)
	return controller.DualshockMeta{
		ConnectionType: a.connType,
		Model:          controller.ModelDS4,
		MAC:            a.mac,
		Battery:        controller.BatteryNone,
	}
}

// handleFrame runs on the pump goroutine only.
func (a *Adapter) handleFrame(frame []byte) error {
	var r Report
	if err := r.UnmarshalBinary(frame); err != nil {
		return fmt.Errorf("input report: %w", err)
	}
	if bat := r.Battery(); bat != a.battery {
		a.battery = bat
		a.SetMeta(func(m *controller.DualshockMeta) { m.Battery = bat })
		a.logger.Debug("battery changed", "battery", bat)
	}
	a.Publish(r, r.ToDualshock())
	return nil
}
