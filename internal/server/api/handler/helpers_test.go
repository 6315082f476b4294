package handler_test

import (
	"testing"
	"time"

	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/internal/server/dsu"
	th "github.com/padlink/dsubridge/internal/testing"
	"github.com/stretchr/testify/require"
)

// bindFake binds an opened fake pad to slot and waits until it is connected.
func bindFake(t *testing.T, s *dsu.Server, slot int, mac string) *th.FakeController {
	t.Helper()
	fake := th.NewFakeController("fake pad", mac)
	id, err := s.Bind(fake, slot)
	require.NoError(t, err)
	waitState(t, s, id, controller.StateConnected)
	return fake
}

func waitState(t *testing.T, s *dsu.Server, slot uint8, want controller.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		pads, err := s.Pads()
		return err == nil && pads[slot].State == want
	}, 2*time.Second, 5*time.Millisecond, "slot %d never reached %s", slot, want)
}

func assertJSONOrEqual(t *testing.T, want, got string) {
	t.Helper()
	if len(want) > 0 && want[0] == '{' {
		require.JSONEq(t, want, got)
		return
	}
	require.Equal(t, want, got)
}
