package ds4hid

const (
	SonyVID      = 0x054C
	DS4v1PID     = 0x05C4
	DS4v2PID     = 0x09CC
	WirelessPID  = 0x0BA0
	AdapterName  = "ds4"
	ReportIDUSB  = 0x01
	ReportSize   = 64
	infoFallback = "DualShock 4"
)

// Byte 5 carries the hat in the low nibble and face buttons in the high one,
// byte 6 the shoulder and stick buttons, byte 7 PS/touch click and a counter.
const (
	ButtonSquare   uint8 = 0x10
	ButtonCross    uint8 = 0x20
	ButtonCircle   uint8 = 0x40
	ButtonTriangle uint8 = 0x80

	ButtonL1      uint8 = 0x01
	ButtonR1      uint8 = 0x02
	ButtonL2      uint8 = 0x04
	ButtonR2      uint8 = 0x08
	ButtonShare   uint8 = 0x10
	ButtonOptions uint8 = 0x20
	ButtonL3      uint8 = 0x40
	ButtonR3      uint8 = 0x80

	ButtonPS            uint8 = 0x01
	ButtonTouchpadClick uint8 = 0x02

	HatMask      uint8 = 0x0F
	CounterShift       = 2
)

const (
	HatUp        = 0x00
	HatUpRight   = 0x01
	HatRight     = 0x02
	HatDownRight = 0x03
	HatDown      = 0x04
	HatDownLeft  = 0x05
	HatLeft      = 0x06
	HatUpLeft    = 0x07
	HatNeutral   = 0x08
)

const (
	// GyroCountsPerDps is the raw gyro resolution at the ±2000°/s range.
	GyroCountsPerDps = 16.384
	// AccelCountsPerG is the raw accelerometer resolution at the ±4g range.
	AccelCountsPerG = 8192.0
)

const (
	TouchpadMaxX      uint16 = 1919
	TouchpadMaxY      uint16 = 941
	TouchInactiveMask uint8  = 0x80
	TouchIDMask       uint8  = 0x7F
)

const (
	BatteryLevelMask = 0x0F
	BatteryCableFlag = 0x10
	// BatteryLevelFull is the level reported once charging completed.
	BatteryLevelFull = 0x0B
)

const (
	offStick   = 1
	offButtons = 5
	offTrigger = 8
	offTime    = 10
	offGyro    = 13
	offAccel   = 19
	offBattery = 30
	offTouch1  = 35
	offTouch2  = 39
)
