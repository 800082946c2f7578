package imu

import (
	"math"
	"testing"
)

func TestConvert(t *testing.T) {
	raw := IMURaw{Millis: 42, Ax: 16384, Ay: -8192, Az: 0, Gx: 131, Gy: 0, Gz: -262}

	s := DefaultRawScale().Convert(raw)
	if s.TimestampMS != 42 || !s.AccelOK {
		t.Fatalf("sample = %+v", s)
	}
	if math.Abs(s.Accel.X-9.81) > 1e-12 || math.Abs(s.Accel.Y+4.905) > 1e-12 {
		t.Fatalf("accel = %+v", s.Accel)
	}
	if s.Gyro.X != 1 || s.Gyro.Z != -2 {
		t.Fatalf("gyro = %+v", s.Gyro)
	}

	g := RawScale{AccelUnits: UnitsG, GyroScale: 131, Gravity: 9.81}
	if got := g.Convert(IMURaw{Ax: 1}).Accel.X; got != 9.81 {
		t.Fatalf("g units: x = %v", got)
	}

	back := DefaultRawScale().Unconvert(s)
	if back != raw {
		t.Fatalf("Unconvert = %+v, want %+v", back, raw)
	}
}

func TestRawScaleValidate(t *testing.T) {
	tests := []struct {
		name  string
		scale RawScale
		ok    bool
	}{
		{"default", DefaultRawScale(), true},
		{"g ignores accel scale", RawScale{AccelUnits: UnitsG, GyroScale: 131, Gravity: 9.81}, true},
		{"zero accel scale", RawScale{AccelUnits: UnitsCounts, GyroScale: 131, Gravity: 9.81}, false},
		{"unknown units", RawScale{AccelUnits: "mg", AccelScale: 1, GyroScale: 131, Gravity: 9.81}, false},
		{"zero gyro scale", RawScale{AccelUnits: UnitsG, Gravity: 9.81}, false},
		{"zero gravity", RawScale{AccelUnits: UnitsG, GyroScale: 131}, false},
	}
	for _, tt := range tests {
		if err := tt.scale.Validate(); (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
	}
}

func TestSides(t *testing.T) {
	for _, in := range []string{"left", " LEFT ", "Left"} {
		if s, err := ParseSide(in); err != nil || s != Left {
			t.Errorf("ParseSide(%q) = %v, %v", in, s, err)
		}
	}
	if _, err := ParseSide("middle"); err == nil {
		t.Errorf("ParseSide accepted an unknown side")
	}
	if Left.Other() != Right || Right.Other() != Left {
		t.Errorf("Other is not symmetric")
	}
	if Right.Lower() != "right" {
		t.Errorf("Lower = %q", Right.Lower())
	}
}

func TestAccelMagnitude(t *testing.T) {
	s := Sample{Accel: Vec3{X: 3, Y: 4}, AccelOK: true}
	if s.AccelMagnitude() != 5 {
		t.Fatalf("magnitude = %v", s.AccelMagnitude())
	}
	s.AccelOK = false
	if s.AccelMagnitude() != 0 {
		t.Fatalf("incomplete sample magnitude = %v", s.AccelMagnitude())
	}
}
