package steamcontroller

import (
	"encoding/binary"
	"io"
)

// InputState is the native Steam Controller report: the fields of SDL's
// `SteamDeckStatePacket_t` minus the packet number.
//
// Wire format: fixed 52 bytes, little-endian.
type InputState struct {
	Buttons uint64 `json:"buttons"`

	LeftPadX  int16 `json:"leftPadX"`
	LeftPadY  int16 `json:"leftPadY"`
	RightPadX int16 `json:"rightPadX"`
	RightPadY int16 `json:"rightPadY"`

	AccelX int16 `json:"accelX"`
	AccelY int16 `json:"accelY"`
	AccelZ int16 `json:"accelZ"`

	GyroX int16 `json:"gyroX"`
	GyroY int16 `json:"gyroY"`
	GyroZ int16 `json:"gyroZ"`

	GyroQuatW int16 `json:"gyroQuatW"`
	GyroQuatX int16 `json:"gyroQuatX"`
	GyroQuatY int16 `json:"gyroQuatY"`
	GyroQuatZ int16 `json:"gyroQuatZ"`

	TriggerRawL uint16 `json:"triggerRawL"`
	TriggerRawR uint16 `json:"triggerRawR"`

	LeftStickX  int16 `json:"leftStickX"`
	LeftStickY  int16 `json:"leftStickY"`
	RightStickX int16 `json:"rightStickX"`
	RightStickY int16 `json:"rightStickY"`

	PressurePadLeft  uint16 `json:"pressurePadLeft"`
	PressurePadRight uint16 `json:"pressurePadRight"`
}

// MarshalBinary encodes the state to the 52-byte wire format.
func (s InputState) MarshalBinary() ([]byte, error) {
	b := make([]byte, InputStateSize)
	binary.LittleEndian.PutUint64(b[0:8], s.Buttons)
	o := 8

	put := func(v uint16) {
		binary.LittleEndian.PutUint16(b[o:o+2], v)
		o += 2
	}
	for _, v := range []int16{
		s.LeftPadX, s.LeftPadY, s.RightPadX, s.RightPadY,
		s.AccelX, s.AccelY, s.AccelZ,
		s.GyroX, s.GyroY, s.GyroZ,
		s.GyroQuatW, s.GyroQuatX, s.GyroQuatY, s.GyroQuatZ,
	} {
		put(uint16(v))
	}
	put(s.TriggerRawL)
	put(s.TriggerRawR)
	for _, v := range []int16{s.LeftStickX, s.LeftStickY, s.RightStickX, s.RightStickY} {
		put(uint16(v))
	}
	put(s.PressurePadLeft)
	put(s.PressurePadRight)
	return b, nil
}

// UnmarshalBinary decodes the 52-byte wire format.
func (s *InputState) UnmarshalBinary(data []byte) error {
	if len(data) < InputStateSize {
		return io.ErrUnexpectedEOF
	}
	s.Buttons = binary.LittleEndian.Uint64(data[0:8])
	o := 8

	u16 := func() uint16 {
		v := binary.LittleEndian.Uint16(data[o : o+2])
		o += 2
		return v
	}
	i16 := func() int16 { return int16(u16()) }

	s.LeftPadX, s.LeftPadY = i16(), i16()
	s.RightPadX, s.RightPadY = i16(), i16()
	s.AccelX, s.AccelY, s.AccelZ = i16(), i16(), i16()
	s.GyroX, s.GyroY, s.GyroZ = i16(), i16(), i16()
	s.GyroQuatW, s.GyroQuatX, s.GyroQuatY, s.GyroQuatZ = i16(), i16(), i16(), i16()
	s.TriggerRawL, s.TriggerRawR = u16(), u16()
	s.LeftStickX, s.LeftStickY = i16(), i16()
	s.RightStickX, s.RightStickY = i16(), i16()
	s.PressurePadLeft, s.PressurePadRight = u16(), u16()
	return nil
}
