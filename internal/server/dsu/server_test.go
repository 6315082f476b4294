package dsu_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/padlink/dsubridge/controller"
	pdsu "github.com/padlink/dsubridge/dsu"
	"github.com/padlink/dsubridge/internal/log"
	"github.com/padlink/dsubridge/internal/server/dsu"
	dsutesting "github.com/padlink/dsubridge/internal/testing"
	"github.com/padlink/dsubridge/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, cfg dsu.ServerConfig) *dsu.Server {
	t.Helper()
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:0"
	}
	s, err := dsu.New(cfg, slog.Default(), log.NewRaw(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})

	select {
	case <-s.Ready():
	case err := <-done:
		t.Fatalf("server exited: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("server not ready")
	}
	return s
}

func TestServerRejectsBadFilter(t *testing.T) {
	_, err := dsu.New(dsu.ServerConfig{Filter: dsu.FilterConfig{Type: "low-high-pass", Params: []float64{1}}}, slog.Default(), nil)
	var cerr *motion.ConfigurationError
	assert.ErrorAs(t, err, &cerr)

	_, err = dsu.New(dsu.ServerConfig{Filter: dsu.FilterConfig{Type: "kalman"}}, slog.Default(), nil)
	assert.ErrorAs(t, err, &cerr)
}

func TestServerVersionOverUDP(t *testing.T) {
	s := startServer(t, dsu.ServerConfig{ServerID: 1234})
	c := dsutesting.DialDSU(t, s.LocalAddr())

	c.Send(pdsu.EncodeVersionRequest(5))
	resp := c.Recv(time.Second)
	require.NotNil(t, resp)
	p, err := pdsu.DecodeResponse(resp)
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), p.SenderID)
	assert.Equal(t, pdsu.MessageVersion, p.Type)
}

func TestServerCorruptedPacketGetsNoReply(t *testing.T) {
	s := startServer(t, dsu.ServerConfig{})
	c := dsutesting.DialDSU(t, s.LocalAddr())

	pkt := pdsu.EncodeVersionRequest(5)
	pkt[9] ^= 0xFF
	c.Send(pkt)
	assert.Nil(t, c.Recv(200*time.Millisecond))

	// still serving
	c.Send(pdsu.EncodeVersionRequest(5))
	assert.NotNil(t, c.Recv(time.Second))
}

func TestServerStreamsPadData(t *testing.T) {
	s := startServer(t, dsu.ServerConfig{})
	fc := dsutesting.NewFakeController("fake", "01:02:03:04:05:06")
	slot, err := s.Bind(fc, -1)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), slot)

	require.Eventually(t, func() bool {
		pads, err := s.Pads()
		return err == nil && pads[0].State == controller.StateConnected
	}, time.Second, 5*time.Millisecond)

	c := dsutesting.DialDSU(t, s.LocalAddr())
	c.Send(pdsu.EncodePadDataRequest(3, pdsu.RegisterMAC, 0, "01:02:03:04:05:06"))
	require.Eventually(t, func() bool {
		clients, err := s.Clients()
		return err == nil && len(clients) == 1
	}, time.Second, 5*time.Millisecond)

	fc.Push(controller.DualshockReport{Buttons: controller.Buttons{Triangle: true}, L2Analog: 200})
	resp := c.Recv(time.Second)
	require.NotNil(t, resp)

	p, err := pdsu.DecodeResponse(resp)
	require.NoError(t, err)
	d, err := pdsu.DecodePadData(p.Body)
	require.NoError(t, err)
	assert.True(t, d.Report.Buttons.Triangle)
	assert.Equal(t, uint8(200), d.Report.L2Analog)
	assert.Equal(t, "01:02:03:04:05:06", d.Meta.MAC)

	clients, err := s.Clients()
	require.NoError(t, err)
	assert.Equal(t, []string{"01:02:03:04:05:06"}, clients[0].MACs)

	require.NoError(t, s.ClosePad(slot))
	assert.Eventually(t, func() bool { return fc.Closes() > 0 }, time.Second, 5*time.Millisecond)
	assert.ErrorIs(t, s.ClosePad(slot), dsu.ErrSlotEmpty)
}

func TestServerSetFilter(t *testing.T) {
	s := startServer(t, dsu.ServerConfig{})
	fc := dsutesting.NewFakeController("fake", "")
	slot, err := s.Bind(fc, 2)
	require.NoError(t, err)

	var cerr *motion.ConfigurationError
	assert.ErrorAs(t, s.SetFilter(slot, motion.Config{Type: motion.LowHighPass}), &cerr)
	cfg, err := motion.NewConfig(motion.LowHighPass, 0.1, 0.2)
	require.NoError(t, err)
	require.NoError(t, s.SetFilter(slot, cfg))
	assert.Equal(t, cfg, fc.Filter())
}

func TestServerSubscribe(t *testing.T) {
	s := startServer(t, dsu.ServerConfig{})
	fc := dsutesting.NewFakeController("fake", "")
	slot, err := s.Bind(fc, 1)
	require.NoError(t, err)

	got := make(chan controller.DualshockData, 1)
	cancel, err := s.Subscribe(slot, func(d controller.DualshockData) {
		select {
		case got <- d:
		default:
		}
	})
	require.NoError(t, err)
	defer cancel()

	fc.Push(controller.DualshockReport{Buttons: controller.Buttons{Share: true}})
	select {
	case d := <-got:
		assert.True(t, d.Report.Buttons.Share)
		assert.Equal(t, uint8(1), d.Meta.PadID)
	case <-time.After(time.Second):
		t.Fatal("no data")
	}

	_, err = s.Subscribe(7, func(controller.DualshockData) {})
	assert.ErrorIs(t, err, dsu.ErrInvalidSlot)
}

func TestServerCallsAfterStop(t *testing.T) {
	s, err := dsu.New(dsu.ServerConfig{Addr: "127.0.0.1:0"}, slog.Default(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	<-s.Ready()
	cancel()
	require.NoError(t, <-done)

	_, err = s.Pads()
	assert.ErrorIs(t, err, dsu.ErrNotRunning)
}

func TestServerCloseSurvivesFullEventQueue(t *testing.T) {
	s := startServer(t, dsu.ServerConfig{EventBuffer: 1})
	fc := dsutesting.NewFakeController("fake", "aa:bb:cc:dd:ee:01")
	slot, err := s.Bind(fc, 0)
	require.NoError(t, err)

	entered := make(chan struct{}, 1)
	release := make(chan struct{})
	cancel, err := s.Subscribe(slot, func(controller.DualshockData) {
		select {
		case entered <- struct{}{}:
		default:
		}
		<-release
	})
	require.NoError(t, err)
	defer cancel()

	// park the event loop inside the subscriber, then overflow the queue
	fc.Push(controller.DualshockReport{})
	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("event loop never delivered the first report")
	}
	fc.Push(controller.DualshockReport{})
	fc.Push(controller.DualshockReport{})
	assert.NotZero(t, s.DroppedEvents())

	closed := make(chan struct{})
	go func() {
		fc.Close()
		close(closed)
	}()
	close(release)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("adapter close blocked")
	}
	require.Eventually(t, func() bool {
		pads, err := s.Pads()
		return err == nil && pads[0].State == controller.StateDisconnected
	}, 2*time.Second, 5*time.Millisecond)

	again, err := s.Bind(dsutesting.NewFakeController("fake", "aa:bb:cc:dd:ee:02"), 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), again)
}
