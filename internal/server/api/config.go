package api

import "time"

// ServerConfig configures the management API listener.
type ServerConfig struct {
	Addr        string        `help:"Management API listen address" default:"localhost:26761" env:"DSUBRIDGE_API_ADDR"`
	RequireAuth bool          `help:"Reject API connections that do not authenticate with the API key" default:"false" env:"DSUBRIDGE_API_REQUIRE_AUTH"`
	KeyFile     string        `help:"File holding the API key; generated on first start when missing" env:"DSUBRIDGE_API_KEY_FILE"`
	ReadTimeout time.Duration `help:"Time a client has to send its request" default:"10s" env:"DSUBRIDGE_API_READ_TIMEOUT"`
	Password    string        `kong:"-"`
}
