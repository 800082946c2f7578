// Package signal turns per-limb sample sequences into numeric series and
// locates repetitions in them.
package signal

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
)

// TrimConfig controls inactivity trimming.
type TrimConfig struct {
	// Threshold is the minimum standard deviation of |accel| (m/s²) inside a
	// window for it to count as movement. A resting sensor reads a constant
	// ~9.8 m/s², so the test is on spread, not on level.
	Threshold float64
	// MinLen is the window length in samples.
	MinLen int
}

// DefaultTrimConfig returns the clinical defaults (0.5 m/s², 50 samples).
func DefaultTrimConfig() TrimConfig {
	return TrimConfig{Threshold: 0.5, MinLen: 50}
}

// TrimStats records how much of a sequence was dropped.
type TrimStats struct {
	Original  int `json:"original"`
	Trimmed   int `json:"trimmed"`
	Remaining int `json:"remaining"`
}

// TrimInactivity drops the leading segment that shows no movement. The cut is
// the start of the first MinLen-sample window whose magnitude standard
// deviation exceeds Threshold. Sequences shorter than 2*MinLen, and sequences
// where no window qualifies, are returned unchanged.
func TrimInactivity(samples []imu.Sample, cfg TrimConfig) []imu.Sample {
	return samples[trimIndex(samples, cfg):]
}

// TrimWithStats is TrimInactivity plus the before/after counts.
func TrimWithStats(samples []imu.Sample, cfg TrimConfig) ([]imu.Sample, TrimStats) {
	idx := trimIndex(samples, cfg)
	return samples[idx:], TrimStats{
		Original:  len(samples),
		Trimmed:   idx,
		Remaining: len(samples) - idx,
	}
}

func trimIndex(samples []imu.Sample, cfg TrimConfig) int {
	if cfg.MinLen <= 0 || len(samples) < 2*cfg.MinLen {
		return 0
	}

	mags := make([]float64, len(samples))
	for i, s := range samples {
		mags[i] = s.AccelMagnitude()
	}

	for i := 0; i < len(mags)-cfg.MinLen; i++ {
		window := mags[i : i+cfg.MinLen]
		if math.Sqrt(stat.PopVariance(window, nil)) > cfg.Threshold {
			return i
		}
	}
	return 0
}
