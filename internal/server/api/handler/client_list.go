package handler

import (
	"encoding/json"
	"log/slog"

	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/dsu"
)

// ClientList returns a handler listing the UDP clients that registered for
// pad data and which of their subscriptions are still live.
func ClientList(s *dsu.Server) api.HandlerFunc {
	return func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		clients, err := s.Clients()
		if err != nil {
			return problem(err)
		}
		payload := apitypes.ClientListResponse{Clients: make([]apitypes.Client, 0, len(clients))}
		for _, c := range clients {
			payload.Clients = append(payload.Clients, apitypes.Client{
				Addr:     c.Addr,
				ClientID: c.ClientID,
				All:      c.All,
				Slots:    c.Slots,
				MACs:     c.MACs,
				LastSeen: c.LastSeen,
				Sent:     c.Sent,
			})
		}
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res.JSON = string(b)
		return nil
	}
}
