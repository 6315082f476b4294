package controller

import (
	"net"
	"strings"

	"github.com/padlink/dsubridge/motion"
)

// MaxPads is the number of pad slots a DSU server exposes.
const MaxPads = 4

// State is the slot connection state reported to DSU clients.
type State uint8

const (
	StateDisconnected State = 0x00
	StateReserved     State = 0x01
	StateConnected    State = 0x02
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateReserved:
		return "reserved"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

type ConnectionType uint8

const (
	ConnectionTypeNone      ConnectionType = 0x00
	ConnectionTypeUSB       ConnectionType = 0x01
	ConnectionTypeBluetooth ConnectionType = 0x02
)

type Model uint8

const (
	ModelNone    Model = 0
	ModelDS3     Model = 1
	ModelDS4     Model = 2
	ModelGeneric Model = 3
)

type Battery uint8

const (
	BatteryNone     Battery = 0x00
	BatteryDying    Battery = 0x01
	BatteryLow      Battery = 0x02
	BatteryMedium   Battery = 0x03
	BatteryHigh     Battery = 0x04
	BatteryFull     Battery = 0x05
	BatteryCharging Battery = 0xEE
	BatteryCharged  Battery = 0xEF
)

// DualshockMeta identifies a pad and its status.
type DualshockMeta struct {
	PadID          uint8          `json:"padId"`
	State          State          `json:"state"`
	ConnectionType ConnectionType `json:"connectionType"`
	Model          Model          `json:"model"`
	MAC            string         `json:"mac"`
	Battery        Battery        `json:"battery"`
	IsActive       bool           `json:"isActive"`
}

// DisconnectedMeta is the meta reported for a slot with nothing bound.
func DisconnectedMeta(padID uint8) DualshockMeta {
	return DualshockMeta{PadID: padID, MAC: ZeroMAC}
}

// ZeroMAC is reported when a pad has no usable hardware address.
const ZeroMAC = "00:00:00:00:00:00"

// NormalizeMAC returns mac in lower case colon notation, or ZeroMAC when it
// cannot be parsed as a 6 byte hardware address.
func NormalizeMAC(mac string) string {
	hw, err := net.ParseMAC(strings.TrimSpace(mac))
	if err != nil || len(hw) != 6 {
		return ZeroMAC
	}
	return hw.String()
}

// Touch is one touchpad contact.
type Touch struct {
	Active bool   `json:"active"`
	ID     uint8  `json:"id"`
	X      uint16 `json:"x"`
	Y      uint16 `json:"y"`
}

// DPad holds the four d-pad directions.
type DPad struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Buttons holds the digital button states of a DualShock 4.
type Buttons struct {
	Cross    bool `json:"cross"`
	Circle   bool `json:"circle"`
	Square   bool `json:"square"`
	Triangle bool `json:"triangle"`
	L1       bool `json:"l1"`
	R1       bool `json:"r1"`
	L2       bool `json:"l2"`
	R2       bool `json:"r2"`
	L3       bool `json:"l3"`
	R3       bool `json:"r3"`
	PS       bool `json:"ps"`
	Options  bool `json:"options"`
	Share    bool `json:"share"`
	Touch    bool `json:"touch"`
	DPad     DPad `json:"dpad"`
}

// Sticks are 0..255 per axis, 128 is centre.
type Sticks struct {
	LeftX  uint8 `json:"leftX"`
	LeftY  uint8 `json:"leftY"`
	RightX uint8 `json:"rightX"`
	RightY uint8 `json:"rightY"`
}

// CenteredSticks returns both sticks at rest.
func CenteredSticks() Sticks {
	return Sticks{LeftX: 128, LeftY: 128, RightX: 128, RightY: 128}
}

// DualshockReport is a single normalized sample. Reports are values; a new one
// is built for every sample.
type DualshockReport struct {
	PacketCounter   uint32        `json:"packetCounter"`
	MotionTimestamp uint64        `json:"motionTimestamp"`
	Accel           motion.Vector `json:"accel"`
	Gyro            motion.Vector `json:"gyro"`
	Buttons         Buttons       `json:"buttons"`
	Sticks          Sticks        `json:"sticks"`
	L2Analog        uint8         `json:"l2Analog"`
	R2Analog        uint8         `json:"r2Analog"`
	Touch1          Touch         `json:"touch1"`
	Touch2          Touch         `json:"touch2"`
}

// DualshockData is the unit consumers observe: a report and the meta it was
// produced under.
type DualshockData struct {
	Report DualshockReport `json:"report"`
	Meta   DualshockMeta   `json:"meta"`
}

// MotionData is a timestamped motion sample.
type MotionData struct {
	Timestamp uint64        `json:"timestamp"`
	Accel     motion.Vector `json:"accel"`
	Gyro      motion.Vector `json:"gyro"`
}

// OpenCloseEvent reports a lifecycle transition of an adapter.
type OpenCloseEvent struct {
	Info   string `json:"info"`
	Status bool   `json:"status"`
}
