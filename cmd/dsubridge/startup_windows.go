//go:build windows

package main

import (
	"log/slog"
	"os"
	"slices"

	"github.com/padlink/dsubridge/internal/util"
)

// A double-clicked executable has no arguments, so it runs the server.
func init() {
	if !util.IsRunFromGUI() {
		return
	}
	if len(os.Args) < 2 || os.Args[1] != "server" {
		slog.Info("Detected GUI startup, injecting 'server' argument")
		slog.Warn("Run from a CLI for more options!")
		os.Args = slices.Insert(os.Args, 1, "server")
	}
}
