// Package motion holds accelerometer/gyroscope sample types and the motion
// filters applied to them before they reach DSU clients.
package motion

// Vector is a three axis reading. Accelerometer vectors are in g, gyroscope
// vectors in degrees/second (x = pitch, y = yaw, z = roll).
type Vector struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// Sample is one accelerometer + gyroscope reading.
type Sample struct {
	Accel Vector `json:"accel"`
	Gyro  Vector `json:"gyro"`
}

func (s Sample) axes() [axisCount]float64 {
	return [axisCount]float64{
		float64(s.Accel.X), float64(s.Accel.Y), float64(s.Accel.Z),
		float64(s.Gyro.X), float64(s.Gyro.Y), float64(s.Gyro.Z),
	}
}

func sampleFromAxes(a [axisCount]float64) Sample {
	return Sample{
		Accel: Vector{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2])},
		Gyro:  Vector{X: float32(a[3]), Y: float32(a[4]), Z: float32(a[5])},
	}
}
