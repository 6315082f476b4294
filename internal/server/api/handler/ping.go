package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/dsu"
	"github.com/padlink/dsubridge/internal/util"
)

// Ping reports the server identity and build version.
func Ping(s *dsu.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		version, err := util.GetVersion()
		if err != nil {
			return err
		}
		resp := apitypes.PingResponse{
			Server:   "dsubridge",
			Version:  version,
			ServerID: s.ServerID(),
		}
		if addr := s.LocalAddr(); addr != nil {
			resp.DSUAddr = addr.String()
		}
		b, err := json.Marshal(resp)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
