// Package movement derives repetition-level movement features from a
// magnitude series and its detected peaks.
package movement

// Metrics summarises one limb in one recording. Magnitudes are m/s², times
// are milliseconds, vertical amplitude is centimetres.
type Metrics struct {
	NReps                  int     `json:"n_reps"`
	MagnitudeMean          float64 `json:"magnitude_mean"`
	MagnitudeMax           float64 `json:"magnitude_max"`
	RepTimeMean            float64 `json:"rep_time_mean"`
	RepTimeStd             float64 `json:"rep_time_std"`
	FatigueIndex           float64 `json:"fatigue_index"`
	SlowdownRate           float64 `json:"slowdown_rate"`
	VerticalAmplitudeMean  float64 `json:"vertical_amplitude_mean"`
	VerticalAmplitudeDecay float64 `json:"vertical_amplitude_decay"`
	VerticalAmplitudeRatio float64 `json:"vertical_amplitude_ratio"`
	Hesitations            int     `json:"hesitations"`
}

// Empty is the record for a limb with no detected repetitions. The amplitude
// ratio sits at its neutral value of 1.
func Empty() Metrics {
	return Metrics{VerticalAmplitudeRatio: 1.0}
}

// Values returns the metrics keyed by their JSON names.
func (m Metrics) Values() map[string]float64 {
	return map[string]float64{
		"n_reps":                   float64(m.NReps),
		"magnitude_mean":           m.MagnitudeMean,
		"magnitude_max":            m.MagnitudeMax,
		"rep_time_mean":            m.RepTimeMean,
		"rep_time_std":             m.RepTimeStd,
		"fatigue_index":            m.FatigueIndex,
		"slowdown_rate":            m.SlowdownRate,
		"vertical_amplitude_mean":  m.VerticalAmplitudeMean,
		"vertical_amplitude_decay": m.VerticalAmplitudeDecay,
		"vertical_amplitude_ratio": m.VerticalAmplitudeRatio,
		"hesitations":              float64(m.Hesitations),
	}
}
