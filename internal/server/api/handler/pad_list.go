package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/dsu"
	"github.com/padlink/dsubridge/motion"
)

func toAPIFilter(c motion.Config) apitypes.FilterConfig {
	params := c.Params
	if params == nil {
		params = []float64{}
	}
	return apitypes.FilterConfig{Type: string(c.Type), Params: params}
}

func toAPIPad(p dsu.PadInfo) apitypes.Pad {
	return apitypes.Pad{
		Slot:           p.Slot,
		State:          p.State.String(),
		Model:          uint8(p.Meta.Model),
		ConnectionType: uint8(p.Meta.ConnectionType),
		MAC:            p.Meta.MAC,
		Battery:        uint8(p.Meta.Battery),
		Active:         p.Meta.IsActive,
		Info:           p.Info,
		Filter:         toAPIFilter(p.Filter),
		PacketCounter:  p.PacketCounter,
	}
}

// PadList returns a handler that lists all four pad slots.
func PadList(s *dsu.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		pads, err := s.Pads()
		if err != nil {
			return problem(err)
		}
		payload := apitypes.PadListResponse{Pads: make([]apitypes.Pad, 0, len(pads))}
		for _, p := range pads {
			payload.Pads = append(payload.Pads, toAPIPad(p))
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
