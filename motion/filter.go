package motion

import (
	"fmt"
	"strings"
	"sync"
)

// Kind selects a filter strategy.
type Kind string

const (
	Disabled    Kind = "disabled"
	LowHighPass Kind = "low-high-pass"
)

const axisCount = 6

// paramCount is the number of coefficients each kind takes.
var paramCount = map[Kind]int{
	Disabled:    0,
	LowHighPass: 2,
}

// Config is a filter selection plus its coefficients.
//
// For LowHighPass, Params[0] is the low-pass smoothing factor and Params[1] the
// high-pass factor.
type Config struct {
	Type   Kind      `json:"type" yaml:"type" toml:"type"`
	Params []float64 `json:"params" yaml:"params" toml:"params"`
}

// ConfigurationError reports a filter configuration whose parameter list does
// not match its type.
type ConfigurationError struct {
	Type Kind
	Want int
	Got  int
}

func (e *ConfigurationError) Error() string {
	if e.Want < 0 {
		return fmt.Sprintf("motion filter: unknown filter type %q", string(e.Type))
	}
	return fmt.Sprintf("motion filter: %s takes %d parameter(s), got %d", e.Type, e.Want, e.Got)
}

// NewConfig builds and validates a filter configuration.
func NewConfig(kind Kind, params ...float64) (Config, error) {
	c := Config{Type: kind, Params: append([]float64(nil), params...)}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// ParseKind accepts the kind names case-insensitively; an empty string means Disabled.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if k == "" {
		return Disabled, nil
	}
	if _, ok := paramCount[k]; !ok {
		return "", &ConfigurationError{Type: k, Want: -1, Got: 0}
	}
	return k, nil
}

// Validate checks the parameter arity against the filter type.
func (c Config) Validate() error {
	kind := c.Type
	if kind == "" {
		kind = Disabled
	}
	want, ok := paramCount[kind]
	if !ok {
		return &ConfigurationError{Type: c.Type, Want: -1, Got: len(c.Params)}
	}
	if len(c.Params) != want {
		return &ConfigurationError{Type: kind, Want: want, Got: len(c.Params)}
	}
	return nil
}

// Enabled reports whether the config changes samples at all.
func (c Config) Enabled() bool {
	return c.Type == LowHighPass
}

// State is the recursive per-axis state of a filter. The zero value is a fresh
// state; the first sample seeds it.
type State struct {
	seeded bool
	lp     [axisCount]float64
	hp     [axisCount]float64
	prev   [axisCount]float64
}

// Apply runs one sample through the filter described by c. It is a pure
// function: the returned State must be passed to the next call.
func Apply(s Sample, st State, c Config) (Sample, State) {
	if !c.Enabled() || len(c.Params) != paramCount[LowHighPass] {
		return s, State{}
	}
	lowCoef, highCoef := c.Params[0], c.Params[1]

	in := s.axes()
	if !st.seeded {
		st = State{seeded: true, lp: in, prev: in}
		return s, st
	}

	var out [axisCount]float64
	for i, x := range in {
		st.lp[i] += lowCoef * (x - st.lp[i])
		st.hp[i] = highCoef * (st.hp[i] + x - st.prev[i])
		st.prev[i] = x
		out[i] = st.lp[i] + st.hp[i]
	}
	return sampleFromAxes(out), st
}

// Filter couples a Config with its running State. It is safe for concurrent use.
type Filter struct {
	mu    sync.Mutex
	cfg   Config
	state State
}

// NewFilter returns a disabled filter.
func NewFilter() *Filter {
	return &Filter{cfg: Config{Type: Disabled}}
}

// Set replaces the active configuration. An invalid configuration is rejected
// and the previous one stays active. A successful Set resets the filter state.
func (f *Filter) Set(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Type == "" {
		c.Type = Disabled
	}
	c.Params = append([]float64(nil), c.Params...)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.cfg = c
	f.state = State{}
	return nil
}

// Config returns a copy of the active configuration.
func (f *Filter) Config() Config {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.cfg
	c.Params = append([]float64(nil), c.Params...)
	return c
}

// Apply filters s with the active configuration and advances the state.
func (f *Filter) Apply(s Sample) Sample {
	f.mu.Lock()
	defer f.mu.Unlock()
	out, st := Apply(s, f.state, f.cfg)
	f.state = st
	return out
}
