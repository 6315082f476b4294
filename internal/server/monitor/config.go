package monitor

import "time"

// Config is the monitor section of the CLI.
type Config struct {
	Addr         string        `help:"HTTP monitor listen address; empty disables the monitor" default:"localhost:26762" env:"DSUBRIDGE_MONITOR_ADDR"`
	SendBuffer   int           `help:"Reports queued per websocket before new ones are dropped" default:"64" env:"DSUBRIDGE_MONITOR_SEND_BUFFER"`
	WriteTimeout time.Duration `help:"Websocket write timeout" default:"5s" env:"DSUBRIDGE_MONITOR_WRITE_TIMEOUT"`
}

func (c Config) withDefaults() Config {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 64
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	return c
}
