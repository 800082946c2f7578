package signal

import (
	"gonum.org/v1/gonum/floats"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
)

// AccelerometerSeries holds parallel per-axis arrays for the samples that
// carried a complete accelerometer reading. Indices are dense over the kept
// samples; timestamps are carried through as recorded and may have gaps.
type AccelerometerSeries struct {
	X          []float64 `json:"x"`
	Y          []float64 `json:"y"`
	Z          []float64 `json:"z"`
	Timestamps []int64   `json:"timestamps"`
	Magnitude  []float64 `json:"magnitude"`
}

// Len returns the number of retained samples.
func (s AccelerometerSeries) Len() int {
	return len(s.Magnitude)
}

// Extract builds the series, skipping samples with a missing accelerometer axis.
func Extract(samples []imu.Sample) AccelerometerSeries {
	s := AccelerometerSeries{
		X:          make([]float64, 0, len(samples)),
		Y:          make([]float64, 0, len(samples)),
		Z:          make([]float64, 0, len(samples)),
		Timestamps: make([]int64, 0, len(samples)),
		Magnitude:  make([]float64, 0, len(samples)),
	}
	for _, smp := range samples {
		if !smp.AccelOK {
			continue
		}
		s.X = append(s.X, smp.Accel.X)
		s.Y = append(s.Y, smp.Accel.Y)
		s.Z = append(s.Z, smp.Accel.Z)
		s.Timestamps = append(s.Timestamps, smp.TimestampMS)
		s.Magnitude = append(s.Magnitude, smp.Accel.Norm())
	}
	return s
}

// Intervals returns the time between consecutive peaks, in milliseconds.
func Intervals(timestamps []int64, peaks []int) []float64 {
	if len(peaks) < 2 {
		return []float64{}
	}
	out := make([]float64, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		out[i-1] = float64(timestamps[peaks[i]] - timestamps[peaks[i-1]])
	}
	return out
}

// AxisRange returns the largest peak-to-peak span among the three axes. It is
// a coarse amplitude proxy kept for reporting next to the integrated
// displacement.
func AxisRange(s AccelerometerSeries) float64 {
	if s.Len() == 0 {
		return 0
	}
	ptp := func(v []float64) float64 { return floats.Max(v) - floats.Min(v) }
	return max(ptp(s.X), ptp(s.Y), ptp(s.Z))
}
