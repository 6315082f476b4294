package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/internal/server/api"
	apierror "github.com/padlink/dsubridge/internal/server/api/error"
	"github.com/padlink/dsubridge/internal/server/dsu"
	"github.com/padlink/dsubridge/motion"
)

// PadFilter returns a handler that replaces the motion filter of a pad. The
// payload is an apitypes.FilterConfig; an invalid one leaves the current
// filter in place.
func PadFilter(s *dsu.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		slot, err := parseSlot(req.Params)
		if err != nil {
			return err
		}
		if req.Payload == "" {
			return apierror.ErrBadRequest("missing payload")
		}
		var fc apitypes.FilterConfig
		if err := json.Unmarshal([]byte(req.Payload), &fc); err != nil {
			return apierror.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err))
		}
		kind, err := motion.ParseKind(fc.Type)
		if err != nil {
			return problem(err)
		}
		cfg, err := motion.NewConfig(kind, fc.Params...)
		if err != nil {
			return problem(err)
		}
		if err := s.SetFilter(slot, cfg); err != nil {
			return problem(err)
		}
		logger.Info("pad filter changed", "slot", slot, "type", cfg.Type, "params", cfg.Params)

		b, err := json.Marshal(apitypes.PadFilterResponse{Slot: slot, Filter: toAPIFilter(cfg)})
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
