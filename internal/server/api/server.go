package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/padlink/dsubridge/internal/server/api/auth"
	apierror "github.com/padlink/dsubridge/internal/server/api/error"
	"github.com/padlink/dsubridge/internal/server/dsu"
)

var wsRegex = regexp.MustCompile(`\s`)

// Server implements the line based TCP management API.
type Server struct {
	dsu    *dsu.Server
	addr   string
	ln     net.Listener
	logger *slog.Logger
	router *Router
	config ServerConfig
	key    []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an API server in front of s. A non-empty config.Password
// enables the authentication handshake.
func New(s *dsu.Server, addr string, config ServerConfig, logger *slog.Logger) (*Server, error) {
	a := &Server{
		dsu:    s,
		addr:   addr,
		logger: logger,
		config: config,
		router: NewRouter(),
	}
	if config.Password != "" {
		key, err := auth.DeriveKey(config.Password)
		if err != nil {
			return nil, fmt.Errorf("derive api key: %w", err)
		}
		a.key = key
	} else if config.RequireAuth {
		return nil, errors.New("api: authentication required but no key configured")
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	return a, nil
}

// Router returns the router so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// DSU returns the protocol server the API manages.
func (a *Server) DSU() *dsu.Server { return a.dsu }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the listen address once Start succeeded.
func (a *Server) Addr() net.Addr {
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.ln = ln
	a.logger.Info("API listening", "addr", ln.Addr().String(), "auth", a.key != nil, "requireAuth", a.config.RequireAuth)
	a.wg.Add(1)
	go a.serve()
	return nil
}

// Close stops accepting, cancels running streams and waits for them.
func (a *Server) Close() {
	a.cancel()
	if a.ln != nil {
		_ = a.ln.Close()
	}
	a.wg.Wait()
}

func (a *Server) serve() {
	defer a.wg.Done()
	for {
		c, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Error("API accept error", "error", err)
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.handleConn(c)
		}()
	}
}

func writeError(w io.Writer, err error) {
	problemJSON, _ := json.Marshal(apierror.WrapError(err))
	fmt.Fprintf(w, "%s\n", problemJSON)
}

func writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
	} else {
		fmt.Fprintf(w, "%s\n", rest)
	}
}

// bufferedConn reads through r so bytes already buffered while parsing the
// request reach the stream handler.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

// authenticate upgrades conn when the client starts with a handshake.
func (a *Server) authenticate(conn net.Conn, r *bufio.Reader, logger *slog.Logger) (net.Conn, *bufio.Reader, error) {
	isAuth, err := auth.IsAuthHandshake(r)
	if err != nil {
		return nil, nil, err
	}
	if !isAuth {
		if a.config.RequireAuth {
			// consume the request so the close is orderly
			_, _ = r.ReadString('\x00')
			return nil, nil, apierror.ErrUnauthorized("authentication required")
		}
		return conn, r, nil
	}
	if a.key == nil {
		_, _ = r.Discard(auth.HandshakeSize)
		return nil, nil, apierror.ErrUnauthorized("authentication is not configured on this server")
	}
	sc, err := auth.Accept(conn, r, a.key)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("api session authenticated")
	return sc, bufio.NewReader(sc), nil
}

func (a *Server) handleConn(raw net.Conn) {
	defer raw.Close()

	connCtx, connCancel := context.WithCancel(a.ctx)
	defer connCancel()
	go func() {
		<-connCtx.Done()
		_ = raw.SetDeadline(time.Now())
	}()

	connLogger := a.logger.With("remote", raw.RemoteAddr().String())
	if a.config.ReadTimeout > 0 {
		_ = raw.SetReadDeadline(time.Now().Add(a.config.ReadTimeout))
	}

	conn, r, err := a.authenticate(raw, bufio.NewReader(raw), connLogger)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return
		}
		connLogger.Warn("api authentication failed", "error", err)
		writeError(raw, err)
		return
	}

	reqData, err := r.ReadString('\x00')
	if err != nil {
		if errors.Is(err, io.EOF) {
			connLogger.Error("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	reqData = strings.TrimSuffix(reqData, "\x00")
	if reqData == "" {
		connLogger.Error("api empty command")
		writeError(conn, apierror.ErrBadRequest("empty request"))
		return
	}

	var path, payload string
	if loc := wsRegex.FindStringIndex(reqData); loc != nil {
		path, payload = reqData[:loc[0]], reqData[loc[1]:]
	} else {
		path = reqData
	}
	if path == "" {
		connLogger.Error("api empty path")
		writeError(conn, apierror.ErrBadRequest("empty path"))
		return
	}
	path = strings.ToLower(path)
	connLogger.Debug("api cmd", "path", path)

	if h, params := a.router.Match(path); h != nil {
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("api handler error", "path", path, "error", err)
			writeError(conn, err)
			return
		}
		connLogger.Debug("api handler success", "path", path)
		writeOK(conn, res.JSON)
		return
	}

	if sh, params := a.router.MatchStream(path); sh != nil {
		_ = raw.SetReadDeadline(time.Time{})
		connLogger.Info("api stream begin", "path", path)
		req := &Request{Ctx: connCtx, Params: params, Payload: payload}
		if err := sh(bufferedConn{Conn: conn, r: r}, req, connLogger); err != nil {
			connLogger.Error("api stream handler error", "path", path, "error", err)
			writeError(conn, err)
		}
		connLogger.Info("api stream end", "path", path)
		return
	}

	connLogger.Error("api unknown path", "path", path)
	writeError(conn, apierror.ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}
