package apiclient_test

import (
	"context"
	"testing"
	"time"

	"github.com/padlink/dsubridge/apiclient"
	"github.com/padlink/dsubridge/apitypes"
	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/controller/ds4hid"
	"github.com/padlink/dsubridge/internal/server/api"
	"github.com/padlink/dsubridge/internal/server/api/handler"
	"github.com/padlink/dsubridge/internal/server/dsu"
	th "github.com/padlink/dsubridge/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/padlink/dsubridge/internal/registry"
)

func startStreamServer(t *testing.T) (string, *dsu.Server) {
	t.Helper()
	addr, srv, done := th.StartAPIServer(t, func(r *api.Router, s *dsu.Server, apiSrv *api.Server) {
		r.RegisterStream("pad/{id}/stream/{type}", handler.PadStream(s))
	})
	t.Cleanup(done)
	return addr, srv
}

func waitSlot(t *testing.T, s *dsu.Server, slot uint8, want controller.State) {
	t.Helper()
	require.Eventually(t, func() bool {
		pads, err := s.Pads()
		return err == nil && pads[slot].State == want
	}, 2*time.Second, 5*time.Millisecond, "slot %d never reached %s", slot, want)
}

func TestOpenPadStreamMockTransport(t *testing.T) {
	c := testClient(nil, nil)
	stream, err := c.OpenPadStream(context.Background(), 0, "ds4", nil)
	assert.Nil(t, stream)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mock transport")
}

func TestOpenPadStreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		slot    int
		adapter string
		wantErr string
	}{
		{name: "unknown adapter", slot: -1, adapter: "xbox", wantErr: "404 Not Found: unknown adapter type: xbox"},
		{name: "slot out of range", slot: 7, adapter: "ds4", wantErr: "404 Not Found: pad 7 not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, _ := startStreamServer(t)
			stream, err := apiclient.New(addr).OpenPadStream(context.Background(), tt.slot, tt.adapter, nil)
			assert.Nil(t, stream)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPadStreamLifecycle(t *testing.T) {
	addr, srv := startStreamServer(t)

	bt := uint8(controller.ConnectionTypeBluetooth)
	stream, err := apiclient.New(addr).OpenPadStream(context.Background(), -1, "ds4", &apitypes.PadStreamRequest{
		MAC:            "AA-BB-CC-DD-EE-FF",
		ConnectionType: &bt,
	})
	require.NoError(t, err)
	assert.Equal(t, uint8(0), stream.Slot)
	assert.Equal(t, "ds4", stream.Adapter)
	waitSlot(t, srv, 0, controller.StateConnected)

	report := ds4hid.Report{LX: 128, LY: 128, RX: 128, RY: 128, Hat: ds4hid.HatNeutral, BatteryLevel: 3}
	require.NoError(t, stream.WriteBinary(report))

	var pad dsu.PadInfo
	require.Eventually(t, func() bool {
		pads, err := srv.Pads()
		if err != nil {
			return false
		}
		pad = pads[0]
		return pad.Last != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", pad.Meta.MAC)
	assert.Equal(t, controller.BatteryLow, pad.Meta.Battery)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close(), "second close is a no-op")
	_, err = stream.Write([]byte{0x01})
	assert.ErrorIs(t, err, apiclient.ErrStreamClosed)

	waitSlot(t, srv, 0, controller.StateDisconnected)
}
