package recording

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
)

func TestDecodeIMUData(t *testing.T) {
	data := []byte(`{"imuData":[
		{"deviceId":"left-ankle","timestamp":20,"accelerometer":{"x":0,"y":0,"z":9.81},"gyroscope":{"x":1,"y":2,"z":3}},
		{"deviceId":"LEFT-ANKLE","timestamp":10,"accelerometer":{"x":3,"y":4,"z":0}},
		{"deviceId":"RIGHT-ANKLE","timestamp":10,"accelerometer":{"x":1,"y":2}},
		{"deviceId":"BASE-SPINE","timestamp":10,"accelerometer":{"x":1,"y":2,"z":3}}
	]}`)

	rec, err := Decode(data, imu.DefaultRawScale())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rec.Schema != SchemaIMUData {
		t.Fatalf("schema = %q", rec.Schema)
	}
	if rec.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", rec.Skipped)
	}

	left := rec.Side(imu.Left)
	if len(left) != 2 || left[0].TimestampMS != 10 || left[1].TimestampMS != 20 {
		t.Fatalf("left samples not sorted by timestamp: %+v", left)
	}
	if got := left[0].AccelMagnitude(); got != 5 {
		t.Fatalf("left[0] magnitude = %v, want 5", got)
	}
	if left[1].Gyro != (imu.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("gyro = %+v", left[1].Gyro)
	}

	right := rec.Side(imu.Right)
	if len(right) != 1 || right[0].AccelOK {
		t.Fatalf("right sample with missing z should be kept with AccelOK=false: %+v", right)
	}
	if right[0].AccelMagnitude() != 0 {
		t.Fatalf("incomplete reading must have magnitude 0")
	}
}

func TestDecodeRaw(t *testing.T) {
	data := []byte(`{
		"izquierda":[{"millis":5,"x":0,"y":0,"z":16384,"a":131,"b":0,"g":-262}],
		"derecha":[{"millis":7,"x":8192,"y":0,"z":0,"a":0,"b":0,"g":0},{"millis":6,"x":0,"y":0,"z":0,"a":0,"b":0,"g":0}]
	}`)

	tests := []struct {
		name  string
		scale imu.RawScale
		wantZ float64
	}{
		{"counts", imu.DefaultRawScale(), 9.81},
		{"g", imu.RawScale{AccelUnits: imu.UnitsG, GyroScale: 131, Gravity: 9.81}, 16384 * 9.81},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := Decode(data, tt.scale)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			left := rec.Side(imu.Left)
			if len(left) != 1 {
				t.Fatalf("left = %d samples", len(left))
			}
			if math.Abs(left[0].Accel.Z-tt.wantZ) > 1e-9 {
				t.Fatalf("z = %v, want %v", left[0].Accel.Z, tt.wantZ)
			}
			if left[0].Gyro.X != 1 || left[0].Gyro.Z != -2 {
				t.Fatalf("gyro = %+v", left[0].Gyro)
			}
			right := rec.Side(imu.Right)
			if len(right) != 2 || right[0].TimestampMS != 6 {
				t.Fatalf("right not sorted: %+v", right)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"unknown", `{"samples":[]}`, ErrUnrecognizedSchema},
		{"both", `{"imuData":[],"derecha":[]}`, ErrAmbiguousSchema},
		{"raw missing field", `{"izquierda":[{"millis":1,"x":0,"y":0,"z":0,"a":0,"b":0}]}`, ErrMissingField},
		{"imuData missing deviceId", `{"imuData":[{"timestamp":1}]}`, ErrMissingField},
		{"imuData missing timestamp", `{"imuData":[{"deviceId":"LEFT"}]}`, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data), imu.DefaultRawScale())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Decode error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode([]byte(`not json`), imu.DefaultRawScale()); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
	if _, err := Decode([]byte(`{"derecha":[]}`), imu.RawScale{AccelUnits: "volts"}); err == nil {
		t.Fatalf("expected error for invalid raw scale")
	}
}

func TestSyntheticRoundTrip(t *testing.T) {
	gen := DefaultSynthetic()
	rec := gen.Recording()

	left, right := rec.Side(imu.Left), rec.Side(imu.Right)
	if len(left) == 0 || len(left) != len(right) {
		t.Fatalf("sides: %d / %d samples", len(left), len(right))
	}

	raw := rec.Raw(imu.DefaultRawScale())
	path := filepath.Join(t.TempDir(), "synthetic.json")
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	back, err := LoadFile(path, imu.DefaultRawScale())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if back.Schema != SchemaRaw || len(back.Side(imu.Left)) != len(left) {
		t.Fatalf("round trip lost samples")
	}
	// counts quantisation: 9.81/16384 per count
	for i, s := range back.Side(imu.Left) {
		if math.Abs(s.Accel.Z-left[i].Accel.Z) > 1e-3 {
			t.Fatalf("sample %d: z %v vs %v", i, s.Accel.Z, left[i].Accel.Z)
		}
	}
}

func TestSyntheticPeakTimes(t *testing.T) {
	gen := DefaultSynthetic()
	gen.FreezeAfter = 5
	gen.FreezeMS = 1200

	times := gen.PeakTimes()
	if len(times) != gen.Reps {
		t.Fatalf("got %d peak times", len(times))
	}
	if times[0] != gen.LeadMS+gen.PeriodMS/2 {
		t.Fatalf("first peak at %d", times[0])
	}
	if d := times[5] - times[4]; d != gen.PeriodMS+gen.FreezeMS {
		t.Fatalf("freeze gap = %d", d)
	}
}
