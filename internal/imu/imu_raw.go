package imu

import (
	"fmt"
	"math"
)

// Raw accelerometer unit conventions for boards that stream integer readings.
const (
	UnitsCounts = "counts" // LSB counts, divided by the accel scale before gravity scaling
	UnitsG      = "g"      // already in g, only multiplied by gravity
)

// IMURaw represents a single raw board sample as streamed by the ankle boards
// (Schema B). Accel axes are x/y/z, gyro axes are a/b/g.
type IMURaw struct {
	Millis int64 `json:"millis"`

	Ax float64 `json:"x"` // accel
	Ay float64 `json:"y"`
	Az float64 `json:"z"`

	Gx float64 `json:"a"` // gyro
	Gy float64 `json:"b"`
	Gz float64 `json:"g"`
}

// RawScale converts raw board readings into SI units.
type RawScale struct {
	AccelUnits string  // UnitsCounts or UnitsG
	AccelScale float64 // counts per g (MPU-6050 ±2g: 16384)
	GyroScale  float64 // counts per °/s (MPU-6050 ±250°/s: 131)
	Gravity    float64 // m/s² per g
}

// DefaultRawScale matches the MPU-6050 boards at their power-on ranges.
func DefaultRawScale() RawScale {
	return RawScale{
		AccelUnits: UnitsCounts,
		AccelScale: 16384.0,
		GyroScale:  131.0,
		Gravity:    9.81,
	}
}

// Validate checks that the scale is usable.
func (s RawScale) Validate() error {
	switch s.AccelUnits {
	case UnitsCounts:
		if s.AccelScale <= 0 {
			return fmt.Errorf("accel scale must be positive, got %g", s.AccelScale)
		}
	case UnitsG:
	default:
		return fmt.Errorf("unknown raw accel units %q (want %q or %q)", s.AccelUnits, UnitsCounts, UnitsG)
	}
	if s.GyroScale <= 0 {
		return fmt.Errorf("gyro scale must be positive, got %g", s.GyroScale)
	}
	if s.Gravity <= 0 {
		return fmt.Errorf("gravity must be positive, got %g", s.Gravity)
	}
	return nil
}

// Convert turns a raw reading into a Sample in m/s² and °/s.
func (s RawScale) Convert(r IMURaw) Sample {
	accel := func(v float64) float64 {
		if s.AccelUnits == UnitsG {
			return v * s.Gravity
		}
		return v / s.AccelScale * s.Gravity
	}

	return Sample{
		TimestampMS: r.Millis,
		Accel:       Vec3{X: accel(r.Ax), Y: accel(r.Ay), Z: accel(r.Az)},
		Gyro:        Vec3{X: r.Gx / s.GyroScale, Y: r.Gy / s.GyroScale, Z: r.Gz / s.GyroScale},
		AccelOK:     true,
	}
}

// Unconvert maps an SI sample back to board readings, rounded to whole
// counts when the scale is in counts.
func (s RawScale) Unconvert(v Sample) IMURaw {
	accel := func(a float64) float64 {
		if s.AccelUnits == UnitsG {
			return a / s.Gravity
		}
		return math.Round(a / s.Gravity * s.AccelScale)
	}

	return IMURaw{
		Millis: v.TimestampMS,
		Ax:     accel(v.Accel.X),
		Ay:     accel(v.Accel.Y),
		Az:     accel(v.Accel.Z),
		Gx:     math.Round(v.Gyro.X * s.GyroScale),
		Gy:     math.Round(v.Gyro.Y * s.GyroScale),
		Gz:     math.Round(v.Gyro.Z * s.GyroScale),
	}
}
