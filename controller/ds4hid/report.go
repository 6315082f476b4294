package ds4hid

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/motion"
)

// Report is a decoded DualShock 4 USB input report (report id 0x01).
type Report struct {
	LX, LY, RX, RY uint8

	Hat     uint8
	Face    uint8
	Buttons uint8
	Special uint8
	Counter uint8

	L2, R2 uint8

	Timestamp uint16

	GyroX, GyroY, GyroZ    int16
	AccelX, AccelY, AccelZ int16

	BatteryLevel uint8
	Cable        bool

	Touch1, Touch2 TouchPoint
}

// TouchPoint is one touchpad contact with 12-bit coordinates.
type TouchPoint struct {
	Active bool
	ID     uint8
	X, Y   uint16
}

// UnmarshalBinary decodes a 64 byte USB input report.
func (r *Report) UnmarshalBinary(b []byte) error {
	if len(b) < ReportSize {
		return io.ErrUnexpectedEOF
	}
	if b[0] != ReportIDUSB {
		return fmt.Errorf("unexpected report id 0x%02x", b[0])
	}

	r.LX, r.LY, r.RX, r.RY = b[offStick], b[offStick+1], b[offStick+2], b[offStick+3]
	r.Hat = b[offButtons] & HatMask
	r.Face = b[offButtons] &^ HatMask
	r.Buttons = b[offButtons+1]
	r.Special = b[offButtons+2] & 0x03
	r.Counter = b[offButtons+2] >> CounterShift
	r.L2, r.R2 = b[offTrigger], b[offTrigger+1]
	r.Timestamp = binary.LittleEndian.Uint16(b[offTime:])

	i16 := func(o int) int16 { return int16(binary.LittleEndian.Uint16(b[o:])) }
	r.GyroX, r.GyroY, r.GyroZ = i16(offGyro), i16(offGyro+2), i16(offGyro+4)
	r.AccelX, r.AccelY, r.AccelZ = i16(offAccel), i16(offAccel+2), i16(offAccel+4)

	r.BatteryLevel = b[offBattery] & BatteryLevelMask
	r.Cable = b[offBattery]&BatteryCableFlag != 0

	r.Touch1 = decodeTouch(b[offTouch1 : offTouch1+4])
	r.Touch2 = decodeTouch(b[offTouch2 : offTouch2+4])
	return nil
}

// MarshalBinary encodes the report in the USB layout.
func (r Report) MarshalBinary() ([]byte, error) {
	b := make([]byte, ReportSize)
	b[0] = ReportIDUSB
	b[offStick], b[offStick+1], b[offStick+2], b[offStick+3] = r.LX, r.LY, r.RX, r.RY
	b[offButtons] = (r.Hat & HatMask) | (r.Face &^ HatMask)
	b[offButtons+1] = r.Buttons
	b[offButtons+2] = (r.Special & 0x03) | r.Counter<<CounterShift
	b[offTrigger], b[offTrigger+1] = r.L2, r.R2
	binary.LittleEndian.PutUint16(b[offTime:], r.Timestamp)

	put := func(o int, v int16) { binary.LittleEndian.PutUint16(b[o:], uint16(v)) }
	put(offGyro, r.GyroX)
	put(offGyro+2, r.GyroY)
	put(offGyro+4, r.GyroZ)
	put(offAccel, r.AccelX)
	put(offAccel+2, r.AccelY)
	put(offAccel+4, r.AccelZ)

	b[offBattery] = r.BatteryLevel & BatteryLevelMask
	if r.Cable {
		b[offBattery] |= BatteryCableFlag
	}
	encodeTouch(b[offTouch1:offTouch1+4], r.Touch1)
	encodeTouch(b[offTouch2:offTouch2+4], r.Touch2)
	return b, nil
}

func decodeTouch(b []byte) TouchPoint {
	return TouchPoint{
		Active: b[0]&TouchInactiveMask == 0,
		ID:     b[0] & TouchIDMask,
		X:      uint16(b[1]) | uint16(b[2]&0x0F)<<8,
		Y:      uint16(b[2]>>4) | uint16(b[3])<<4,
	}
}

func encodeTouch(b []byte, t TouchPoint) {
	x, y := min(t.X, TouchpadMaxX), min(t.Y, TouchpadMaxY)
	b[0] = t.ID & TouchIDMask
	if !t.Active {
		b[0] |= TouchInactiveMask
	}
	b[1] = uint8(x & 0xFF)
	b[2] = uint8((x>>8)&0x0F) | uint8((y&0x0F)<<4)
	b[3] = uint8(y >> 4)
}

// Battery maps the level nibble and cable flag to the DSU battery states.
func (r Report) Battery() controller.Battery {
	if r.Cable {
		if r.BatteryLevel >= BatteryLevelFull {
			return controller.BatteryCharged
		}
		return controller.BatteryCharging
	}
	switch {
	case r.BatteryLevel >= 10:
		return controller.BatteryFull
	case r.BatteryLevel >= 7:
		return controller.BatteryHigh
	case r.BatteryLevel >= 4:
		return controller.BatteryMedium
	case r.BatteryLevel >= 2:
		return controller.BatteryLow
	}
	return controller.BatteryDying
}

// ToDualshock converts the report to the normalized model.
func (r Report) ToDualshock() controller.DualshockReport {
	up := r.Hat == HatUp || r.Hat == HatUpRight || r.Hat == HatUpLeft
	down := r.Hat == HatDown || r.Hat == HatDownRight || r.Hat == HatDownLeft
	left := r.Hat == HatLeft || r.Hat == HatUpLeft || r.Hat == HatDownLeft
	right := r.Hat == HatRight || r.Hat == HatUpRight || r.Hat == HatDownRight

	return controller.DualshockReport{
		Buttons: controller.Buttons{
			Cross:    r.Face&ButtonCross != 0,
			Circle:   r.Face&ButtonCircle != 0,
			Square:   r.Face&ButtonSquare != 0,
			Triangle: r.Face&ButtonTriangle != 0,
			L1:       r.Buttons&ButtonL1 != 0,
			R1:       r.Buttons&ButtonR1 != 0,
			L2:       r.Buttons&ButtonL2 != 0,
			R2:       r.Buttons&ButtonR2 != 0,
			L3:       r.Buttons&ButtonL3 != 0,
			R3:       r.Buttons&ButtonR3 != 0,
			Share:    r.Buttons&ButtonShare != 0,
			Options:  r.Buttons&ButtonOptions != 0,
			PS:       r.Special&ButtonPS != 0,
			Touch:    r.Special&ButtonTouchpadClick != 0,
			DPad:     controller.DPad{Up: up, Down: down, Left: left, Right: right},
		},
		Sticks:   controller.Sticks{LeftX: r.LX, LeftY: r.LY, RightX: r.RX, RightY: r.RY},
		L2Analog: r.L2,
		R2Analog: r.R2,
		Touch1:   controller.Touch(r.Touch1),
		Touch2:   controller.Touch(r.Touch2),
		Accel: motion.Vector{
			X: -float32(r.AccelX) / AccelCountsPerG,
			Y: -float32(r.AccelY) / AccelCountsPerG,
			Z: float32(r.AccelZ) / AccelCountsPerG,
		},
		Gyro: motion.Vector{
			X: float32(r.GyroX) / GyroCountsPerDps,
			Y: -float32(r.GyroY) / GyroCountsPerDps,
			Z: -float32(r.GyroZ) / GyroCountsPerDps,
		},
	}
}
