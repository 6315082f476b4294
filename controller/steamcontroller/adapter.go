// Package steamcontroller adapts Valve Steam Controller / Steam Deck input
// reports to the DualShock model.
package steamcontroller

import (
	"fmt"
	"log/slog"

	"github.com/padlink/dsubridge/controller"
)

func init() {
	controller.RegisterAdapter(AdapterName, &registration{})
}

type registration struct{}

func (r *registration) FrameSize() int { return InputStateSize }

func (r *registration) New(t controller.Transport, o *controller.Options) controller.Controller {
	return New(t, o)
}

// Adapter reads InputState frames from a Transport.
type Adapter struct {
	*controller.Base

	pump     *controller.Pump
	mac      string
	connType controller.ConnectionType
	logger   *slog.Logger
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
		info = defaultInfoString
	}
	a.logger.Info("steam controller connected", "info", info, "mac", a.mac)
	return controller.DualshockMeta{
		ConnectionType: a.connType,
		Model:          controller.ModelDS4,
		MAC:            a.mac,
		Battery:        controller.BatteryNone,
	}
}

func (a *Adapter) handleFrame(frame []byte) error {
	var st InputState
	if err := st.UnmarshalBinary(frame); err != nil {
		return fmt.Errorf("input state: %w", err)
	}
	a.Publish(st, ToDualshock(st))
	return nil
}
