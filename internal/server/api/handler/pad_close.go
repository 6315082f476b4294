package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/dsu"
)

// PadClose returns a handler that unbinds and closes the pad in a slot.
func PadClose(s *dsu.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		slot, err := parseSlot(req.Params)
		if err != nil {
			return err
		}
		if err := s.ClosePad(slot); err != nil {
			return problem(err)
		}
		logger.Info("pad closed", "slot", slot)
		b, err := json.Marshal(apitypes.PadCloseResponse{Slot: slot})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
