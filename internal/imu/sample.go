package imu

import (
	"fmt"
	"math"
	"strings"
)

// Side identifies the instrumented limb.
type Side string

const (
	Left  Side = "LEFT"
	Right Side = "RIGHT"
)

// Sides lists both limbs in reporting order.
var Sides = [2]Side{Left, Right}

// Other returns the opposite limb.
func (s Side) Other() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Lower returns the side tag as used in map keys ("left"/"right").
func (s Side) Lower() string {
	return strings.ToLower(string(s))
}

// ParseSide accepts LEFT/RIGHT in any case.
func ParseSide(v string) (Side, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case string(Left):
		return Left, nil
	case string(Right):
		return Right, nil
	}
	return "", fmt.Errorf("unknown side %q", v)
}

// Vec3 is a three-axis reading.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Norm returns the Euclidean length.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sample is one timestamped reading for one limb, in SI units.
// AccelOK is false when the source record lacked an accelerometer axis.
type Sample struct {
	TimestampMS int64 `json:"timestamp"`
	Accel       Vec3  `json:"accelerometer"`
	Gyro        Vec3  `json:"gyroscope"`
	AccelOK     bool  `json:"-"`
}

// AccelMagnitude returns |accel|, or 0 when the reading is incomplete.
func (s Sample) AccelMagnitude() float64 {
	if !s.AccelOK {
		return 0
	}
	return s.Accel.Norm()
}
