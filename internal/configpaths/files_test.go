package configpaths_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/padlink/dsubridge/internal/configpaths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNamedConfigPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses XDG_CONFIG_HOME")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	tests := []struct {
		format string
		want   string
	}{
		{"json", "/tmp/xdg/dsubridge/server.json"},
		{"yaml", "/tmp/xdg/dsubridge/server.yaml"},
		{"yml", "/tmp/xdg/dsubridge/server.yaml"},
		{"toml", "/tmp/xdg/dsubridge/server.toml"},
		{"", "/tmp/xdg/dsubridge/server.json"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := configpaths.DefaultNamedConfigPath("server", tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigCandidatePaths(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("checks /etc candidates")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	tests := []struct {
		name     string
		userPath string
		first    func(j, y, t []string) string
	}{
		{"json user file", "my.json", func(j, _, _ []string) string { return j[0] }},
		{"yaml user file", "my.yml", func(_, y, _ []string) string { return y[0] }},
		{"toml user file", "my.toml", func(_, _, t []string) string { return t[0] }},
		{"unknown extension goes to json", "my.conf", func(j, _, _ []string) string { return j[0] }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j, y, tm := configpaths.ConfigCandidatePaths(tt.userPath)
			assert.Equal(t, tt.userPath, tt.first(j, y, tm))
		})
	}

	j, _, tm := configpaths.ConfigCandidatePaths("")
	assert.Contains(t, j, filepath.Join("/tmp/xdg/dsubridge", "server.json"))
	assert.Contains(t, tm, "/etc/dsubridge/config.toml")
}
