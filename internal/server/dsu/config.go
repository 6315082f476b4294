package dsu

import "time"

// ServerConfig represents the DSU server configuration.
type ServerConfig struct {
	Addr          string        `help:"DSU UDP listen address" default:"127.0.0.1:26760" env:"DSUBRIDGE_DSU_ADDR"`
	ServerID      uint32        `help:"Server id sent in every packet; 0 picks a random one" default:"0" env:"DSUBRIDGE_DSU_SERVER_ID"`
	ClientTimeout time.Duration `help:"How long a pad data request keeps a client subscribed" default:"5s" env:"DSUBRIDGE_DSU_CLIENT_TIMEOUT"`
	EventBuffer   int           `help:"Adapter event queue length; data events beyond it are dropped" default:"256" env:"DSUBRIDGE_DSU_EVENT_BUFFER"`
	Filter        FilterConfig  `embed:"" prefix:"filter."`
}

// FilterConfig is the motion filter applied to newly bound pads.
type FilterConfig struct {
	Type   string    `help:"Default motion filter (disabled, low-high-pass)" default:"disabled" env:"DSUBRIDGE_DSU_FILTER_TYPE"`
	Params []float64 `help:"Default motion filter coefficients" env:"DSUBRIDGE_DSU_FILTER_PARAMS"`
}
