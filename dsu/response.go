package dsu

import (
	"math"
	"net"

	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/motion"
)

const (
	versionBodySize = 4
	metaSize        = 11
	PortInfoSize    = metaSize + 1
	PadDataSize     = 80
)

// Button bits of the first pad data mask byte.
const (
	Button1Share   uint8 = 0x01
	Button1L3      uint8 = 0x02
	Button1R3      uint8 = 0x04
	Button1Options uint8 = 0x08
	Button1Up      uint8 = 0x10
	Button1Right   uint8 = 0x20
	Button1Down    uint8 = 0x40
	Button1Left    uint8 = 0x80
)

// Button bits of the second pad data mask byte.
const (
	Button2L2       uint8 = 0x01
	Button2R2       uint8 = 0x02
	Button2L1       uint8 = 0x04
	Button2R1       uint8 = 0x08
	Button2Triangle uint8 = 0x10
	Button2Circle   uint8 = 0x20
	Button2Cross    uint8 = 0x40
	Button2Square   uint8 = 0x80
)

// pad data payload offsets
const (
	pdActive    = 11
	pdCounter   = 12
	pdButtons1  = 16
	pdButtons2  = 17
	pdPS        = 18
	pdTouch     = 19
	pdSticks    = 20
	pdAnalogDir = 24
	pdAnalogBtn = 28
	pdTouch1    = 36
	pdTouch2    = 42
	pdTimestamp = 48
	pdAccel     = 56
	pdGyro      = 68
)

// EncodeVersionResponse returns the version reply: the protocol version
// followed by two zero bytes.
func EncodeVersionResponse(serverID uint32) []byte {
	body := make([]byte, versionBodySize)
	le.PutUint16(body, ProtocolVersion)
	return Encode(MagicServer, serverID, MessageVersion, body)
}

// DecodeVersionResponse returns the version a server announced.
func DecodeVersionResponse(body []byte) (uint16, error) {
	if len(body) < 2 {
		return 0, &DecodeError{Reason: ReasonBody, Detail: "version response too short"}
	}
	return le.Uint16(body), nil
}

// EncodePortInfo returns the port info reply for one slot.
func EncodePortInfo(serverID uint32, meta controller.DualshockMeta) []byte {
	body := make([]byte, PortInfoSize)
	putMeta(body, meta)
	return Encode(MagicServer, serverID, MessagePorts, body)
}

// DecodePortInfo parses a port info body.
func DecodePortInfo(body []byte) (controller.DualshockMeta, error) {
	if len(body) < PortInfoSize {
		return controller.DualshockMeta{}, &DecodeError{Reason: ReasonBody, Detail: "port info too short"}
	}
	return meta(body), nil
}

// EncodePadData returns the pad data reply for report r on the pad described
// by meta, stamped with counter.
func EncodePadData(serverID uint32, meta controller.DualshockMeta, r controller.DualshockReport, counter uint32) []byte {
	b := make([]byte, PadDataSize)
	putMeta(b, meta)
	b[pdActive] = boolByte(meta.IsActive, 0x01)
	le.PutUint32(b[pdCounter:], counter)

	btn := r.Buttons
	b[pdButtons1] = boolByte(btn.Share, Button1Share) |
		boolByte(btn.L3, Button1L3) |
		boolByte(btn.R3, Button1R3) |
		boolByte(btn.Options, Button1Options) |
		boolByte(btn.DPad.Up, Button1Up) |
		boolByte(btn.DPad.Right, Button1Right) |
		boolByte(btn.DPad.Down, Button1Down) |
		boolByte(btn.DPad.Left, Button1Left)
	b[pdButtons2] = boolByte(btn.L2, Button2L2) |
		boolByte(btn.R2, Button2R2) |
		boolByte(btn.L1, Button2L1) |
		boolByte(btn.R1, Button2R1) |
		boolByte(btn.Triangle, Button2Triangle) |
		boolByte(btn.Circle, Button2Circle) |
		boolByte(btn.Cross, Button2Cross) |
		boolByte(btn.Square, Button2Square)
	b[pdPS] = boolByte(btn.PS, 0x01)
	b[pdTouch] = boolByte(btn.Touch, 0x01)

	b[pdSticks] = r.Sticks.LeftX
	b[pdSticks+1] = r.Sticks.LeftY
	b[pdSticks+2] = r.Sticks.RightX
	b[pdSticks+3] = r.Sticks.RightY

	// analog pressure: left, down, right, up, then square, cross, circle, triangle
	for i, v := range []bool{
		btn.DPad.Left, btn.DPad.Down, btn.DPad.Right, btn.DPad.Up,
		btn.Square, btn.Cross, btn.Circle, btn.Triangle,
		btn.R1, btn.L1,
	} {
		b[pdAnalogDir+i] = boolByte(v, 0xFF)
	}
	b[pdAnalogBtn+6] = r.R2Analog
	b[pdAnalogBtn+7] = r.L2Analog

	putTouch(b[pdTouch1:], r.Touch1)
	putTouch(b[pdTouch2:], r.Touch2)

	le.PutUint64(b[pdTimestamp:], r.MotionTimestamp)
	putVector(b[pdAccel:], r.Accel)
	putVector(b[pdGyro:], r.Gyro)

	return Encode(MagicServer, serverID, MessagePadData, b)
}

// DecodePadData parses a pad data body. Analog button pressure is not kept.
func DecodePadData(body []byte) (controller.DualshockData, error) {
	if len(body) < PadDataSize {
		return controller.DualshockData{}, &DecodeError{Reason: ReasonBody, Detail: "pad data too short"}
	}
	m := meta(body)
	m.IsActive = body[pdActive] != 0

	b1, b2 := body[pdButtons1], body[pdButtons2]
	r := controller.DualshockReport{
		PacketCounter:   le.Uint32(body[pdCounter:]),
		MotionTimestamp: le.Uint64(body[pdTimestamp:]),
		Accel:           vector(body[pdAccel:]),
		Gyro:            vector(body[pdGyro:]),
		Buttons: controller.Buttons{
			Share:    b1&Button1Share != 0,
			L3:       b1&Button1L3 != 0,
			R3:       b1&Button1R3 != 0,
			Options:  b1&Button1Options != 0,
			L2:       b2&Button2L2 != 0,
			R2:       b2&Button2R2 != 0,
			L1:       b2&Button2L1 != 0,
			R1:       b2&Button2R1 != 0,
			Triangle: b2&Button2Triangle != 0,
			Circle:   b2&Button2Circle != 0,
			Cross:    b2&Button2Cross != 0,
			Square:   b2&Button2Square != 0,
			PS:       body[pdPS] != 0,
			Touch:    body[pdTouch] != 0,
			DPad: controller.DPad{
				Up:    b1&Button1Up != 0,
				Right: b1&Button1Right != 0,
				Down:  b1&Button1Down != 0,
				Left:  b1&Button1Left != 0,
			},
		},
		Sticks: controller.Sticks{
			LeftX:  body[pdSticks],
			LeftY:  body[pdSticks+1],
			RightX: body[pdSticks+2],
			RightY: body[pdSticks+3],
		},
		R2Analog: body[pdAnalogBtn+6],
		L2Analog: body[pdAnalogBtn+7],
		Touch1:   touch(body[pdTouch1:]),
		Touch2:   touch(body[pdTouch2:]),
	}
	return controller.DualshockData{Report: r, Meta: m}, nil
}

// putMeta writes the shared 11 byte slot description.
func putMeta(b []byte, m controller.DualshockMeta) {
	b[0] = m.PadID
	b[1] = byte(m.State)
	b[2] = byte(m.Model)
	b[3] = byte(m.ConnectionType)
	putMAC(b[4:4+macSize], m.MAC)
	b[10] = byte(m.Battery)
}

func meta(b []byte) controller.DualshockMeta {
	return controller.DualshockMeta{
		PadID:          b[0],
		State:          controller.State(b[1]),
		Model:          controller.Model(b[2]),
		ConnectionType: controller.ConnectionType(b[3]),
		MAC:            net.HardwareAddr(b[4 : 4+macSize]).String(),
		Battery:        controller.Battery(b[10]),
	}
}

func putTouch(b []byte, t controller.Touch) {
	b[0] = boolByte(t.Active, 0x01)
	b[1] = t.ID
	le.PutUint16(b[2:], t.X)
	le.PutUint16(b[4:], t.Y)
}

func touch(b []byte) controller.Touch {
	return controller.Touch{
		Active: b[0] != 0,
		ID:     b[1],
		X:      le.Uint16(b[2:]),
		Y:      le.Uint16(b[4:]),
	}
}

func putVector(b []byte, v motion.Vector) {
	le.PutUint32(b[0:], math.Float32bits(v.X))
	le.PutUint32(b[4:], math.Float32bits(v.Y))
	le.PutUint32(b[8:], math.Float32bits(v.Z))
}

func vector(b []byte) motion.Vector {
	return motion.Vector{
		X: math.Float32frombits(le.Uint32(b[0:])),
		Y: math.Float32frombits(le.Uint32(b[4:])),
		Z: math.Float32frombits(le.Uint32(b[8:])),
	}
}

func boolByte(v bool, set uint8) uint8 {
	if v {
		return set
	}
	return 0
}
