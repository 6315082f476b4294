package steamcontroller_test

import (
	"net"
	"testing"
	"time"

	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/controller/steamcontroller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputStateWireFormat(t *testing.T) {
	st := steamcontroller.InputState{
		Buttons:    steamcontroller.ButtonA | steamcontroller.ButtonB,
		LeftStickX: 1234,
		LeftStickY: -2345,
	}
	b, err := st.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, steamcontroller.InputStateSize)
	assert.Equal(t, byte(0xA0), b[0])
	assert.Equal(t, []byte{0xD2, 0x04, 0xD7, 0xF6}, b[40:44])

	var back steamcontroller.InputState
	require.NoError(t, back.UnmarshalBinary(b))
	assert.Equal(t, st, back)

	assert.Error(t, back.UnmarshalBinary(b[:10]))
}

func TestToDualshock(t *testing.T) {
	type testCase struct {
		name   string
		input  steamcontroller.InputState
		verify func(t *testing.T, r controller.DualshockReport)
	}

	cases := []testCase{
		{
			name:  "idle",
			input: steamcontroller.InputState{},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.Equal(t, controller.Buttons{}, r.Buttons)
				assert.Equal(t, controller.CenteredSticks(), r.Sticks)
				assert.Zero(t, r.L2Analog)
				assert.False(t, r.Touch1.Active)
				assert.False(t, r.Touch2.Active)
			},
		},
		{
			name: "face buttons",
			input: steamcontroller.InputState{
				Buttons: steamcontroller.ButtonA | steamcontroller.ButtonY | steamcontroller.ButtonSteam | steamcontroller.ButtonView,
			},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.True(t, r.Buttons.Cross)
				assert.True(t, r.Buttons.Triangle)
				assert.True(t, r.Buttons.PS)
				assert.True(t, r.Buttons.Share)
				assert.False(t, r.Buttons.Circle)
				assert.False(t, r.Buttons.Options)
			},
		},
		{
			name: "dpad and shoulders",
			input: steamcontroller.InputState{
				Buttons: steamcontroller.ButtonDPadUp | steamcontroller.ButtonDPadLeft | steamcontroller.ButtonLB,
			},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.Equal(t, controller.DPad{Up: true, Left: true}, r.Buttons.DPad)
				assert.True(t, r.Buttons.L1)
				assert.False(t, r.Buttons.R1)
			},
		},
		{
			name: "stick extremes",
			input: steamcontroller.InputState{
				LeftStickX:  32767,
				LeftStickY:  32767,
				RightStickX: -32768,
				RightStickY: -32768,
			},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.Equal(t, uint8(255), r.Sticks.LeftX)
				assert.Equal(t, uint8(0), r.Sticks.LeftY)
				assert.Equal(t, uint8(0), r.Sticks.RightX)
				assert.Equal(t, uint8(255), r.Sticks.RightY)
			},
		},
		{
			name:  "triggers",
			input: steamcontroller.InputState{TriggerRawL: 32767, TriggerRawR: 100},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.Equal(t, uint8(255), r.L2Analog)
				assert.True(t, r.Buttons.L2)
				assert.Less(t, r.R2Analog, uint8(0x80))
				assert.False(t, r.Buttons.R2)
			},
		},
		{
			name: "touch pads",
			input: steamcontroller.InputState{
				Buttons:   steamcontroller.ButtonRightPadTouch | steamcontroller.ButtonLeftPadTouch | steamcontroller.ButtonRightPadClick,
				RightPadX: 32767,
				RightPadY: 32767,
				LeftPadX:  -32768,
				LeftPadY:  -32768,
			},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.True(t, r.Buttons.Touch)
				assert.Equal(t, controller.Touch{Active: true, ID: 0, X: 1919, Y: 0}, r.Touch1)
				assert.Equal(t, controller.Touch{Active: true, ID: 1, X: 0, Y: 941}, r.Touch2)
			},
		},
		{
			name: "motion scaling",
			input: steamcontroller.InputState{
				AccelY: -16384,
				GyroX:  160,
			},
			verify: func(t *testing.T, r controller.DualshockReport) {
				assert.InDelta(t, 1.0, r.Accel.Z, 1e-6)
				assert.InDelta(t, 10.0, r.Gyro.X, 1e-6)
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.verify(t, steamcontroller.ToDualshock(tc.input))
		})
	}
}

func TestAdapterPublishesFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()

	reg := controller.GetAdapter("steamcontroller")
	require.NotNil(t, reg)
	require.Equal(t, steamcontroller.InputStateSize, reg.FrameSize())

	tr := controller.NewFrameTransport(server, reg.FrameSize(), "pipe")
	c := reg.New(tr, &controller.Options{MAC: "AA:BB:CC:DD:EE:FF"})

	events := make(chan controller.OpenCloseEvent, 4)
	data := make(chan controller.DualshockData, 4)
	c.OnOpenClose().Subscribe(func(ev controller.OpenCloseEvent) { events <- ev })
	c.OnDualshockData().Subscribe(func(d controller.DualshockData) { data <- d })

	c.Open()
	select {
	case ev := <-events:
		assert.True(t, ev.Status)
		assert.Equal(t, "pipe", ev.Info)
	case <-time.After(time.Second):
		t.Fatal("no open event")
	}

	for i := 0; i < 2; i++ {
		frame, _ := steamcontroller.InputState{Buttons: steamcontroller.ButtonB}.MarshalBinary()
		_, err := client.Write(frame)
		require.NoError(t, err)

		select {
		case d := <-data:
			assert.True(t, d.Report.Buttons.Circle)
			assert.Equal(t, uint32(i), d.Report.PacketCounter)
			assert.Equal(t, "aa:bb:cc:dd:ee:ff", d.Meta.MAC)
			assert.Equal(t, controller.ModelDS4, d.Meta.Model)
			assert.Equal(t, controller.StateConnected, d.Meta.State)
		case <-time.After(time.Second):
			t.Fatal("no data")
		}
	}

	native, ok := c.Report()
	require.True(t, ok)
	assert.IsType(t, steamcontroller.InputState{}, native)

	c.Close()
	select {
	case ev := <-events:
		assert.False(t, ev.Status)
	case <-time.After(time.Second):
		t.Fatal("no close event")
	}
	assert.False(t, c.IsOpen())
	_, ok = c.DualshockMeta()
	assert.False(t, ok)
	assert.True(t, c.OnDualshockData().Completed())
}
