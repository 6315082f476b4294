package monitor

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/padlink/dsubridge/controller"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamPad sends every report of one slot as a JSON text message until the
// peer goes away.
func (m *Server) streamPad(w http.ResponseWriter, r *http.Request) {
	id, ok := slotParam(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	logger := m.logger.With("remote", r.RemoteAddr, "slot", id)

	send := make(chan []byte, m.cfg.SendBuffer)
	done := make(chan struct{})
	var dropped atomic.Uint64

	// runs on the DSU event loop, so it must not block
	cancel, err := m.dsu.Subscribe(id, func(d controller.DualshockData) {
		b, err := json.Marshal(d)
		if err != nil {
			return
		}
		select {
		case send <- b:
		default:
			dropped.Add(1)
		}
	})
	if err != nil {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, err.Error()))
		return
	}
	defer cancel()
	logger.Debug("monitor stream opened")

	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			logger.Debug("monitor stream closed", "dropped", dropped.Load())
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			return
		case msg := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("monitor stream write failed", "error", err)
				return
			}
		}
	}
}
