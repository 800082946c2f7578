package signal

import (
	"testing"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
)

func restSamples(n int) []imu.Sample {
	out := make([]imu.Sample, n)
	for i := range out {
		out[i] = imu.Sample{
			TimestampMS: int64(i * 10),
			Accel:       imu.Vec3{Z: 9.81},
			AccelOK:     true,
		}
	}
	return out
}

// movingSamples is rest followed by an alternating ±3 m/s² burst on z.
func movingSamples(rest, moving int) []imu.Sample {
	out := restSamples(rest + moving)
	for i := rest; i < len(out); i++ {
		if i%2 == 0 {
			out[i].Accel.Z += 3
		} else {
			out[i].Accel.Z -= 3
		}
	}
	return out
}

func TestTrimInactivity(t *testing.T) {
	cfg := DefaultTrimConfig()

	tests := []struct {
		name    string
		samples []imu.Sample
		want    int // samples dropped
	}{
		{"empty", nil, 0},
		{"shorter than two windows", movingSamples(60, 30), 0},
		{"flat", restSamples(200), 0},
		{"rest then movement", movingSamples(120, 200), 72},
		{"moving from the start", movingSamples(0, 200), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stats := TrimWithStats(tt.samples, cfg)
			if stats.Trimmed != tt.want {
				t.Fatalf("trimmed %d samples, want %d", stats.Trimmed, tt.want)
			}
			if stats.Original != len(tt.samples) || stats.Remaining != len(got) {
				t.Fatalf("stats %+v inconsistent with %d -> %d", stats, len(tt.samples), len(got))
			}
			if len(got) > 0 && got[0].TimestampMS != tt.samples[tt.want].TimestampMS {
				t.Fatalf("result does not start at the cut")
			}
		})
	}
}

func TestTrimInactivityIdempotent(t *testing.T) {
	cfg := DefaultTrimConfig()
	once := TrimInactivity(movingSamples(120, 200), cfg)
	twice := TrimInactivity(once, cfg)
	if len(once) != len(twice) {
		t.Fatalf("second trim changed length %d -> %d", len(once), len(twice))
	}
}

func TestTrimInactivityMissingAxes(t *testing.T) {
	// Incomplete readings count as zero magnitude, which is itself movement
	// against a 9.81 baseline.
	samples := restSamples(200)
	for i := 100; i < 110; i++ {
		samples[i].AccelOK = false
	}
	_, stats := TrimWithStats(samples, DefaultTrimConfig())
	if stats.Trimmed != 51 {
		t.Fatalf("trimmed %d, want 51", stats.Trimmed)
	}
}
