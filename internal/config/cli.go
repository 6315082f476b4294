// Package config holds the root command line of dsubridge.
package config

import (
	"github.com/alecthomas/kong"
	"github.com/padlink/dsubridge/internal/cmd"
	"github.com/padlink/dsubridge/internal/log"
)

// CLI is the root kong grammar. Config files are resolved before parsing, so
// the Config flag only appears here to be documented and accepted.
type CLI struct {
	Config  string           `help:"Config file (JSON, YAML or TOML)" type:"path" env:"DSUBRIDGE_CONFIG"`
	Log     log.Config       `embed:"" prefix:"log."`
	Version kong.VersionFlag `help:"Print the version and exit"`

	Server    cmd.Server        `cmd:"" default:"withargs" help:"Run the DSU motion server"`
	Cfg       cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
	Install   cmd.Install       `cmd:"" help:"Install dsubridge as a system service"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Remove the dsubridge system service"`
}
