package controller

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Options are the adapter independent settings passed to a Registration.
type Options struct {
	// MAC identifies the physical unit; adapters fall back to ZeroMAC.
	MAC string
	// ConnectionType overrides what the adapter would report.
	ConnectionType *ConnectionType
	Logger         *slog.Logger
}

// Registration describes an adapter type that can be created on top of a
// frame based Transport.
type Registration interface {
	// FrameSize is the size of one native report on the wire.
	FrameSize() int
	// New returns an unopened adapter reading from t.
	New(t Transport, o *Options) Controller
}

var (
	adapterRegistry   = make(map[string]Registration)
	adapterRegistryMu sync.RWMutex
)

// RegisterAdapter registers an adapter type. It should be called from adapter
// package init functions. Names are case-insensitive.
func RegisterAdapter(name string, reg Registration) {
	adapterRegistryMu.Lock()
	defer adapterRegistryMu.Unlock()
	adapterRegistry[strings.ToLower(name)] = reg
}

// GetAdapter returns the registration for name, or nil.
func GetAdapter(name string) Registration {
	adapterRegistryMu.RLock()
	defer adapterRegistryMu.RUnlock()
	return adapterRegistry[strings.ToLower(name)]
}

// ListAdapterTypes returns the registered adapter names, sorted.
func ListAdapterTypes() []string {
	adapterRegistryMu.RLock()
	defer adapterRegistryMu.RUnlock()
	types := make([]string, 0, len(adapterRegistry))
	for name := range adapterRegistry {
		types = append(types, name)
	}
	sort.Strings(types)
	return types
}

// GetLogger returns the configured logger or slog.Default.
func (o *Options) GetLogger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// ConnType returns the override or def.
func (o *Options) ConnType(def ConnectionType) ConnectionType {
	if o == nil || o.ConnectionType == nil {
		return def
	}
	return *o.ConnectionType
}

// GetMAC returns the configured MAC, normalized.
func (o *Options) GetMAC() string {
	if o == nil {
		return ZeroMAC
	}
	return NormalizeMAC(o.MAC)
}
