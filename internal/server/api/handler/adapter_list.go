package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/internal/server/api"
)

// AdapterList returns a handler listing the adapter types a pad stream can use.
func AdapterList() api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		names := controller.ListAdapterTypes()
		payload := apitypes.AdapterListResponse{Adapters: make([]apitypes.Adapter, 0, len(names))}
		for _, name := range names {
			reg := controller.GetAdapter(name)
			if reg == nil {
				continue
			}
			payload.Adapters = append(payload.Adapters, apitypes.Adapter{Name: name, FrameSize: reg.FrameSize()})
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
