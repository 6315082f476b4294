package steamcontroller

import (
	"github.com/padlink/dsubridge/controller"
	"github.com/padlink/dsubridge/motion"
)

// ToDualshock maps a Steam Controller state onto a DualShock report. The
// packet counter and motion timestamp are left for the adapter to stamp.
func ToDualshock(s InputState) controller.DualshockReport {
	pressed := func(mask uint64) bool { return s.Buttons&mask != 0 }

	l2 := triggerToByte(s.TriggerRawL)
	r2 := triggerToByte(s.TriggerRawR)

	r := controller.DualshockReport{
		Buttons: controller.Buttons{
			Cross:    pressed(ButtonA),
			Circle:   pressed(ButtonB),
			Square:   pressed(ButtonX),
			Triangle: pressed(ButtonY),
			L1:       pressed(ButtonLB),
			R1:       pressed(ButtonRB),
			L2:       pressed(ButtonL2) || l2 >= triggerDigitalThresh,
			R2:       pressed(ButtonR2) || r2 >= triggerDigitalThresh,
			L3:       pressed(ButtonL3),
			R3:       pressed(ButtonR3),
			PS:       pressed(ButtonSteam),
			Options:  pressed(ButtonMenu),
			Share:    pressed(ButtonView),
			Touch:    pressed(ButtonLeftPadClick) || pressed(ButtonRightPadClick),
			DPad: controller.DPad{
				Up:    pressed(ButtonDPadUp),
				Down:  pressed(ButtonDPadDown),
				Left:  pressed(ButtonDPadLeft),
				Right: pressed(ButtonDPadRight),
			},
		},
		Sticks: controller.Sticks{
			LeftX:  axisToByte(s.LeftStickX, false),
			LeftY:  axisToByte(s.LeftStickY, true),
			RightX: axisToByte(s.RightStickX, false),
			RightY: axisToByte(s.RightStickY, true),
		},
		L2Analog: l2,
		R2Analog: r2,
		Accel: motion.Vector{
			X: float32(s.AccelX) / AccelCountsPerG,
			Y: float32(s.AccelZ) / AccelCountsPerG,
			Z: -float32(s.AccelY) / AccelCountsPerG,
		},
		Gyro: motion.Vector{
			X: float32(s.GyroX) / GyroCountsPerDps,
			Y: -float32(s.GyroZ) / GyroCountsPerDps,
			Z: float32(s.GyroY) / GyroCountsPerDps,
		},
	}

	if pressed(ButtonRightPadTouch) {
		r.Touch1 = padToTouch(rightPadTouchID, s.RightPadX, s.RightPadY)
	}
	if pressed(ButtonLeftPadTouch) {
		r.Touch2 = padToTouch(leftPadTouchID, s.LeftPadX, s.LeftPadY)
	}
	return r
}

// axisToByte maps -32768..32767 to 0..255; invert flips the axis so that
// up is 0 as on a DualShock.
func axisToByte(v int16, invert bool) uint8 {
	u := int32(v)
	if invert {
		u = min(-u, 32767)
	}
	return uint8((u + 32768) >> 8)
}

func triggerToByte(v uint16) uint8 {
	if v >= triggerFullScale {
		return 0xFF
	}
	return uint8(uint32(v) * 255 / triggerFullScale)
}

func padToTouch(id uint8, x, y int16) controller.Touch {
	return controller.Touch{
		Active: true,
		ID:     id,
		X:      padCoord(x, false, touchpadResolutionX),
		Y:      padCoord(y, true, touchpadResolutionY),
	}
}

func padCoord(v int16, invert bool, res int32) uint16 {
	u := int32(v)
	if invert {
		u = min(-u, 32767)
	}
	return uint16((u + 32768) * (res - 1) / 65535)
}
