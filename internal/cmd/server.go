package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/controller/evdev"
	"github.com/padlink/dsubridge/internal/configpaths"
	"github.com/padlink/dsubridge/internal/log"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/api/auth"
	"github.com/padlink/dsubridge/internal/server/api/handler"
	"github.com/padlink/dsubridge/internal/server/dsu"
	"github.com/padlink/dsubridge/internal/server/monitor"
	"github.com/padlink/dsubridge/internal/util"
)

const keyFileName = "dsubridge.key.txt"

type Server struct {
	DSU     dsu.ServerConfig `embed:"" prefix:"dsu."`
	API     api.ServerConfig `embed:"" prefix:"api."`
	Monitor monitor.Config   `embed:"" prefix:"monitor."`
	Evdev   evdev.Config     `embed:"" prefix:"evdev."`
}

// Run is called by Kong when the server command is executed.
func (s *Server) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.StartServer(ctx, logger, rawLogger)
}

// loadAPIKey reads the API password from the key file, creating one on
// first start.
func (s *Server) loadAPIKey(logger *slog.Logger) error {
	keyFilePath := s.API.KeyFile
	if keyFilePath == "" {
		dir, err := configpaths.DefaultConfigDir()
		if err != nil {
			return fmt.Errorf("failed to resolve key file path: %w", err)
		}
		keyFilePath = filepath.Join(dir, keyFileName)
	}
	if pwd, err := os.ReadFile(keyFilePath); err == nil {
		s.API.Password = strings.TrimSpace(string(pwd))
		logger.Debug("loaded API password", "path", keyFilePath)
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to read key file: %w", err)
	}

	newPwd, err := auth.GenerateKey()
	if err != nil {
		return fmt.Errorf("failed to generate new API password: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyFilePath), 0o700); err != nil {
		return fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyFilePath, []byte(newPwd), 0o600); err != nil {
		return fmt.Errorf("failed to write new API password to file: %w", err)
	}
	s.API.Password = newPwd
	logger.Info("Generated API server password", "path", keyFilePath)
	if util.IsInteractive() {
		logger.Info("-------------------------------------")
		logger.Info("Your dsubridge API password is:")
		logger.Info("-------------------------------------")
		logger.Info(newPwd)
		logger.Info("-------------------------------------")
		logger.Info("You can change this password at any time by editing the file")
	}
	return nil
}

func registerHandlers(r *api.Router, s *dsu.Server) {
	r.Register("ping", handler.Ping(s))
	r.Register("pad/list", handler.PadList(s))
	r.Register("pad/{id}/filter", handler.PadFilter(s))
	r.Register("pad/{id}/close", handler.PadClose(s))
	r.Register("client/list", handler.ClientList(s))
	r.Register("adapter/list", handler.AdapterList())
	r.RegisterStream("pad/{id}/stream/{type}", handler.PadStream(s))
}

func (s *Server) StartServer(ctx context.Context, logger *slog.Logger, rawLogger log.RawLogger) error {
	if s.API.Addr != "" {
		if err := s.loadAPIKey(logger); err != nil {
			return err
		}
	}

	dsuSrv, err := dsu.New(s.DSU, logger, rawLogger)
	if err != nil {
		return fmt.Errorf("dsu config: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	dsuErrCh := make(chan error, 1)
	go func() { dsuErrCh <- dsuSrv.Run(ctx) }()
	select {
	case err := <-dsuErrCh:
		return err
	case <-dsuSrv.Ready():
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	if s.API.Addr != "" {
		apiSrv, err := api.New(dsuSrv, s.API.Addr, s.API, logger)
		if err != nil {
			cancel()
			<-dsuErrCh
			return err
		}
		registerHandlers(apiSrv.Router(), dsuSrv)
		if err := apiSrv.Start(); err != nil {
			logger.Error("failed to start API server", "error", err)
			cancel()
			<-dsuErrCh
			if util.IsRunFromGUI() {
				fmt.Println("Press any key to exit...")
				b := make([]byte, 1)
				_, _ = os.Stdin.Read(b)
			}
			return err
		}
		defer apiSrv.Close()
	} else {
		logger.Info("API server disabled")
	}

	if s.Monitor.Addr != "" {
		mon := monitor.New(dsuSrv, s.Monitor, logger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mon.Run(ctx); err != nil {
				logger.Error("monitor stopped", "error", err)
			}
		}()
	}

	if s.Evdev.Scan {
		w := evdev.NewWatcher(s.Evdev, func(c controller.Controller) error {
			_, err := dsuSrv.Bind(c, -1)
			return err
		}, logger.With("component", "evdev"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	if util.IsRunFromGUI() {
		go func() {
			time.Sleep(250 * time.Millisecond)
			util.HideConsoleWindow()
		}()
	}

	select {
	case <-ctx.Done():
		return <-dsuErrCh
	case err := <-dsuErrCh:
		cancel()
		return err
	}
}
