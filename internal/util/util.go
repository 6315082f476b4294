// Package util holds small process level helpers shared by the commands.
package util

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Version is set at build time with
// -ldflags "-X github.com/padlink/dsubridge/internal/util.Version=x.y.z".
var Version = ""

// GetVersion returns the build version without a leading "v", or a dev
// marker for local builds.
func GetVersion() (string, error) {
	if Version == "" {
		return "0.0.1-dev", nil
	}
	v := strings.TrimPrefix(Version, "v")
	base := strings.SplitN(v, "-", 2)[0]
	if strings.Count(base, ".") != 2 {
		return "", fmt.Errorf("invalid version format: %s (expected x.y.z)", Version)
	}
	return v, nil
}

// IsInteractive reports whether stdout is a terminal. Secrets are only
// echoed to the log when someone is watching.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}
