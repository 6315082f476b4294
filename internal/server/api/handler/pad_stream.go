package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/internal/server/api"
	apierror "github.com/padlink/dsubridge/internal/server/api/error"
	"github.com/padlink/dsubridge/internal/server/dsu"
)

// PadStream returns a stream handler that binds a controller fed by the
// connection itself: after the accept line the client writes raw native
// reports of the adapter named by {type}, one FrameSize chunk each. The pad
// stays bound until either side closes.
func PadStream(s *dsu.Server) api.StreamHandlerFunc {
	return func(conn net.Conn, req *api.Request, logger *slog.Logger) error {
		want, err := parseSlotOrAny(req.Params)
		if err != nil {
			return err
		}
		name := strings.ToLower(req.Params["type"])
		reg := controller.GetAdapter(name)
		if reg == nil {
			return apierror.ErrNotFound(fmt.Sprintf("unknown adapter type: %s", name))
		}

		var sreq apitypes.PadStreamRequest
		if strings.TrimSpace(req.Payload) != "" {
			if err := json.Unmarshal([]byte(req.Payload), &sreq); err != nil {
				return apierror.ErrBadRequest(fmt.Sprintf("invalid JSON payload: %v", err))
			}
		}
		opts := &controller.Options{MAC: sreq.MAC, Logger: logger}
		if sreq.ConnectionType != nil {
			ct := controller.ConnectionType(*sreq.ConnectionType)
			opts.ConnectionType = &ct
		}

		t := controller.NewFrameTransport(conn, reg.FrameSize(), fmt.Sprintf("%s via %s", name, conn.RemoteAddr()))
		ctrl := reg.New(t, opts)
		closed := make(chan struct{})
		ctrl.OnOpenClose().OnComplete(func() { close(closed) })

		slot, err := s.Bind(ctrl, want)
		if err != nil {
			return problem(err)
		}
		logger = logger.With("slot", slot, "adapter", name)
		logger.Info("pad stream bound")

		b, err := json.Marshal(apitypes.PadStreamResponse{Slot: slot, Adapter: name})
		if err == nil {
			_, err = conn.Write(append(b, '\n'))
		}
		if err != nil {
			logger.Warn("pad stream accept failed", "error", err)
			ctrl.Close()
		}

		select {
		case <-closed:
		case <-req.Ctx.Done():
			ctrl.Close()
			<-closed
		}
		logger.Info("pad stream closed")
		return nil
	}
}
