package motion_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padlink/dsubridge/motion"
)

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name    string
		kind    motion.Kind
		params  []float64
		wantErr bool
	}{
		{name: "disabled without params", kind: motion.Disabled},
		{name: "disabled with params", kind: motion.Disabled, params: []float64{1}, wantErr: true},
		{name: "low-high-pass no params", kind: motion.LowHighPass, wantErr: true},
		{name: "low-high-pass one param", kind: motion.LowHighPass, params: []float64{0.5}, wantErr: true},
		{name: "low-high-pass two params", kind: motion.LowHighPass, params: []float64{0.5, 0.2}},
		{name: "low-high-pass three params", kind: motion.LowHighPass, params: []float64{0.5, 0.2, 0.1}, wantErr: true},
		{name: "unknown kind", kind: motion.Kind("kalman"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := motion.NewConfig(tt.kind, tt.params...)
			if tt.wantErr {
				var cerr *motion.ConfigurationError
				require.Error(t, err)
				assert.True(t, errors.As(err, &cerr))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, cfg.Type)
			assert.Len(t, cfg.Params, len(tt.params))
		})
	}
}

func TestParseKind(t *testing.T) {
	k, err := motion.ParseKind("Low-High-Pass")
	require.NoError(t, err)
	assert.Equal(t, motion.LowHighPass, k)

	k, err = motion.ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, motion.Disabled, k)

	_, err = motion.ParseKind("nope")
	assert.Error(t, err)
}

func TestApplyDisabledIsIdentity(t *testing.T) {
	s := motion.Sample{
		Accel: motion.Vector{X: 0.1, Y: -0.98, Z: 0.02},
		Gyro:  motion.Vector{X: 12, Y: -3, Z: 0.5},
	}
	out, st := motion.Apply(s, motion.State{}, motion.Config{Type: motion.Disabled})
	assert.Equal(t, s, out)
	assert.Equal(t, motion.State{}, st)
}

func TestApplyLowHighPassConvergesOnConstantInput(t *testing.T) {
	cfg, err := motion.NewConfig(motion.LowHighPass, 0.3, 0.6)
	require.NoError(t, err)

	in := motion.Sample{
		Accel: motion.Vector{X: 0.25, Y: -1, Z: 0.5},
		Gyro:  motion.Vector{X: 90, Y: -45, Z: 10},
	}
	var st motion.State
	var out motion.Sample
	for i := 0; i < 200; i++ {
		out, st = motion.Apply(in, st, cfg)
	}
	assert.InDelta(t, in.Accel.X, out.Accel.X, 1e-4)
	assert.InDelta(t, in.Accel.Y, out.Accel.Y, 1e-4)
	assert.InDelta(t, in.Accel.Z, out.Accel.Z, 1e-4)
	assert.InDelta(t, in.Gyro.X, out.Gyro.X, 1e-3)
	assert.InDelta(t, in.Gyro.Y, out.Gyro.Y, 1e-3)
	assert.InDelta(t, in.Gyro.Z, out.Gyro.Z, 1e-3)
}

func TestApplyLowHighPassSmoothsStep(t *testing.T) {
	cfg, err := motion.NewConfig(motion.LowHighPass, 0.5, 0)
	require.NoError(t, err)

	_, st := motion.Apply(motion.Sample{}, motion.State{}, cfg)
	out, _ := motion.Apply(motion.Sample{Gyro: motion.Vector{X: 10}}, st, cfg)
	assert.InDelta(t, 5, out.Gyro.X, 1e-6)
}

func TestFilterSetKeepsPreviousOnError(t *testing.T) {
	f := motion.NewFilter()
	good, err := motion.NewConfig(motion.LowHighPass, 0.5, 0.1)
	require.NoError(t, err)
	require.NoError(t, f.Set(good))

	err = f.Set(motion.Config{Type: motion.LowHighPass, Params: []float64{1}})
	var cerr *motion.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 2, cerr.Want)
	assert.Equal(t, 1, cerr.Got)
	assert.Equal(t, good, f.Config())
}

func TestFilterSetResetsState(t *testing.T) {
	f := motion.NewFilter()
	cfg, err := motion.NewConfig(motion.LowHighPass, 0.1, 0)
	require.NoError(t, err)
	require.NoError(t, f.Set(cfg))

	f.Apply(motion.Sample{Gyro: motion.Vector{X: 100}})
	f.Apply(motion.Sample{Gyro: motion.Vector{X: 100}})

	require.NoError(t, f.Set(cfg))
	// a fresh state is seeded by the first sample, so it passes through untouched
	out := f.Apply(motion.Sample{Gyro: motion.Vector{X: -40}})
	assert.InDelta(t, -40, out.Gyro.X, 1e-6)
}
