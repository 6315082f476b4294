package testing

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/padlink/dsubridge/internal/log"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/dsu"
)

// StartDSUServer runs a DSU server on a free loopback port until the test
// ends.
func StartDSUServer(t *testing.T) *dsu.Server {
	t.Helper()
	srv, err := dsu.New(dsu.ServerConfig{Addr: "127.0.0.1:0", EventBuffer: 64}, slog.Default(), log.NewRaw(nil))
	if err != nil {
		t.Fatalf("dsu server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-errCh:
		case <-time.After(2 * time.Second):
			t.Error("dsu server did not stop")
		}
	})
	select {
	case <-srv.Ready():
	case err := <-errCh:
		t.Fatalf("dsu server exited: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("dsu server not ready")
	}
	return srv
}

// StartAPIServer starts a DSU server and an API server on free ports and
// calls register so the test can add the handlers it needs. done stops the
// API server; the DSU server stops with the test.
func StartAPIServer(t *testing.T, register func(r *api.Router, s *dsu.Server, apiSrv *api.Server)) (addr string, srv *dsu.Server, done func()) {
	return StartAPIServerWithConfig(t, api.ServerConfig{}, register)
}

// StartAPIServerWithConfig is StartAPIServer with a custom API config, e.g.
// to set a password.
func StartAPIServerWithConfig(t *testing.T, cfg api.ServerConfig, register func(r *api.Router, s *dsu.Server, apiSrv *api.Server)) (addr string, srv *dsu.Server, done func()) {
	t.Helper()
	srv = StartDSUServer(t)

	apiSrv, err := api.New(srv, "127.0.0.1:0", cfg, slog.Default())
	if err != nil {
		t.Fatalf("api server: %v", err)
	}
	if register != nil {
		register(apiSrv.Router(), srv, apiSrv)
	}
	if err := apiSrv.Start(); err != nil {
		t.Fatalf("api start failed: %v", err)
	}
	return apiSrv.Addr().String(), srv, apiSrv.Close
}

// ExecCmd dials the API server, sends cmd with the null terminator and
// returns the first response line without its newline.
func ExecCmd(t *testing.T, addr string, cmd string) string {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()
	_ = c.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := fmt.Fprintf(c, "%s\x00", cmd); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil && err != io.EOF {
		t.Fatalf("read failed: %v", err)
	}
	return strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
}
