package main

import (
	"os"
	"strings"

	"github.com/padlink/dsubridge/internal/config"
	"github.com/padlink/dsubridge/internal/configpaths"
	"github.com/padlink/dsubridge/internal/log"
	"github.com/padlink/dsubridge/internal/util"

	_ "github.com/padlink/dsubridge/internal/registry" // register all adapters

	"github.com/alecthomas/kong"
	kongtoml "github.com/alecthomas/kong-toml"
	kongyaml "github.com/alecthomas/kong-yaml"
)

func main() {
	userCfg := findUserConfig(os.Args[1:])
	jsonPaths, yamlPaths, tomlPaths := configpaths.ConfigCandidatePaths(userCfg)

	version, err := util.GetVersion()
	if err != nil {
		version = util.Version
	}

	var cli config.CLI
	ctx := kong.Parse(&cli,
		kong.Name("dsubridge"),
		kong.Description("DSU (cemuhook) motion server for game controllers"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		// flags and env override config values
		kong.Configuration(kong.JSON, jsonPaths...),
		kong.Configuration(kongyaml.Loader, yamlPaths...),
		kong.Configuration(kongtoml.Loader, tomlPaths...),
	)

	logger, rawLogger, closeFiles, err := log.SetupLogger(cli.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer func() {
		for _, c := range closeFiles {
			_ = c.Close()
		}
	}()

	ctx.Bind(logger)
	ctx.BindTo(rawLogger, (*log.RawLogger)(nil))

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

func findUserConfig(args []string) string {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if v, ok := strings.CutPrefix(a, "--config="); ok {
			return v
		}
		if a == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return os.Getenv(configpaths.EnvConfig)
}
