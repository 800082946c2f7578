package pipeline

import (
	"fmt"

	"github.com/relabs-tech/motion_analyzer/internal/diagnosis"
	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/movement"
	"github.com/relabs-tech/motion_analyzer/internal/signal"
)

// Options carries every stage's parameters.
type Options struct {
	Trim       signal.TrimConfig
	Peaks      signal.PeakParams // Prominence is replaced per side by the adaptive value
	Prominence signal.ProminenceConfig
	Smoothing  int // Savitzky-Golay window for peak picking; 0 disables
	Analyzer   movement.Config
	Scale      imu.RawScale
	Policy     string // diagnosis no-movement policy
}

// DefaultOptions returns the clinical defaults.
func DefaultOptions() Options {
	return Options{
		Trim: signal.DefaultTrimConfig(),
		Peaks: signal.PeakParams{
			Height:   0.2,
			Distance: 10,
			MaxPeaks: 10,
		},
		Prominence: signal.DefaultProminenceConfig(),
		Analyzer:   movement.DefaultConfig(),
		Scale:      imu.DefaultRawScale(),
		Policy:     diagnosis.PolicyScore,
	}
}

// Validate rejects option sets that no stage can run with.
func (o Options) Validate() error {
	if o.Trim.MinLen < 0 {
		return fmt.Errorf("trim window must not be negative, got %d", o.Trim.MinLen)
	}
	if o.Peaks.MaxPeaks < 0 {
		return fmt.Errorf("max peaks must not be negative, got %d", o.Peaks.MaxPeaks)
	}
	if o.Smoothing != 0 && (o.Smoothing < 3 || o.Smoothing%2 == 0) {
		return fmt.Errorf("smoothing window must be an odd number >= 3, got %d", o.Smoothing)
	}
	if err := o.Scale.Validate(); err != nil {
		return err
	}
	if _, err := diagnosis.NewScorer(o.Policy); err != nil {
		return err
	}
	return nil
}
