// Package monitor serves a read-only HTTP view of the DSU server: pad and
// client snapshots as JSON and a websocket feed of the reports of one slot.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/internal/server/dsu"
)

type Server struct {
	dsu    *dsu.Server
	cfg    Config
	logger *slog.Logger
}

func New(s *dsu.Server, cfg Config, logger *slog.Logger) *Server {
	return &Server{dsu: s, cfg: cfg.withDefaults(), logger: logger}
}

// Handler builds the routing tree.
func (m *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", m.health)
	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(10 * time.Second))
		api.Get("/pads", m.listPads)
		api.Get("/pads/{id}", m.getPad)
		api.Get("/clients", m.listClients)
	})
	r.Get("/ws/pads/{id}", m.streamPad)
	return r
}

// Run listens on the configured address until ctx is done.
func (m *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return err
	}
	return m.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (m *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	m.logger.Info("monitor listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil {
			m.logger.Error("monitor server failed", "error", err)
		}
		return err
	}
}

func (m *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"serverId":      m.dsu.ServerID(),
		"droppedEvents": m.dsu.DroppedEvents(),
	})
}

func (m *Server) listPads(w http.ResponseWriter, _ *http.Request) {
	pads, err := m.dsu.Pads()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"pads": pads})
}

func (m *Server) getPad(w http.ResponseWriter, r *http.Request) {
	id, ok := slotParam(w, r)
	if !ok {
		return
	}
	pads, err := m.dsu.Pads()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pads[id])
}

func (m *Server) listClients(w http.ResponseWriter, _ *http.Request) {
	clients, err := m.dsu.Clients()
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clients": clients})
}

func slotParam(w http.ResponseWriter, r *http.Request) (uint8, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_slot", "invalid pad id: "+raw)
		return 0, false
	}
	if id >= controller.MaxPads {
		writeError(w, http.StatusNotFound, "not_found", "pad "+raw+" not found")
		return 0, false
	}
	return uint8(id), true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
