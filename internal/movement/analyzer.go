package movement

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Config tunes the analyzer.
type Config struct {
	// HesitationStdFactor is k in "interval > mean + k*std".
	HesitationStdFactor float64
}

// DefaultConfig returns k = 1.5.
func DefaultConfig() Config {
	return Config{HesitationStdFactor: 1.5}
}

// Input bundles what Analyze needs from the signal stage. Z and Timestamps
// index the same retained samples as Magnitude.
type Input struct {
	Magnitude  []float64
	Peaks      []int
	Intervals  []float64
	Z          []float64
	Timestamps []int64
}

// Analyze computes every Metrics field. With no peaks it returns Empty().
func Analyze(in Input, cfg Config) Metrics {
	if len(in.Peaks) == 0 {
		return Empty()
	}

	peakMags := make([]float64, len(in.Peaks))
	for i, p := range in.Peaks {
		peakMags[i] = in.Magnitude[p]
	}

	m := Metrics{
		NReps:                  len(in.Peaks),
		MagnitudeMean:          stat.Mean(peakMags, nil),
		MagnitudeMax:           floats.Max(peakMags),
		FatigueIndex:           FatigueIndex(peakMags),
		SlowdownRate:           SlowdownRate(in.Intervals),
		VerticalAmplitudeDecay: AmplitudeDecay(peakMags),
		VerticalAmplitudeRatio: AmplitudeRatio(peakMags),
		Hesitations:            CountHesitations(in.Intervals, cfg.HesitationStdFactor),
	}
	if len(in.Intervals) > 0 {
		m.RepTimeMean = stat.Mean(in.Intervals, nil)
		m.RepTimeStd = popStd(in.Intervals)
	}
	m.VerticalAmplitudeMean, _ = VerticalDisplacement(in.Z, in.Timestamps, in.Peaks)
	return m
}

// FatigueIndex is the relative drop of the mean peak magnitude from the first
// half of the repetitions to the second. Needs at least 4 peaks.
func FatigueIndex(peakMags []float64) float64 {
	if len(peakMags) < 4 {
		return 0
	}
	first, second := halves(peakMags)
	if first == 0 {
		return 0
	}
	return (first - second) / first
}

// SlowdownRate is the least-squares slope of interval duration against
// repetition index, in ms per repetition. Needs at least 3 intervals.
func SlowdownRate(intervals []float64) float64 {
	if len(intervals) < 3 {
		return 0
	}
	return slope(intervals)
}

// CountHesitations counts intervals longer than mean + k*std. Needs at least
// 3 intervals.
func CountHesitations(intervals []float64, k float64) int {
	if len(intervals) < 3 {
		return 0
	}
	limit := stat.Mean(intervals, nil) + k*popStd(intervals)
	n := 0
	for _, v := range intervals {
		if v > limit {
			n++
		}
	}
	return n
}

// AmplitudeDecay is the least-squares slope of peak magnitude against
// repetition index. Negative means the movement shrinks. Needs 3 peaks.
func AmplitudeDecay(peakMags []float64) float64 {
	if len(peakMags) < 3 {
		return 0
	}
	return slope(peakMags)
}

// AmplitudeRatio is first-half mean over second-half mean of the peak
// magnitudes; above 1 means the movement shrank. Needs 4 peaks, otherwise
// (or for a zero second half) it is 1.
func AmplitudeRatio(peakMags []float64) float64 {
	if len(peakMags) < 4 {
		return 1.0
	}
	first, second := halves(peakMags)
	if second == 0 {
		return 1.0
	}
	return first / second
}

// halves splits at n/2 and returns the two means; the second half gets the
// extra element for odd n.
func halves(v []float64) (first, second float64) {
	mid := len(v) / 2
	return stat.Mean(v[:mid], nil), stat.Mean(v[mid:], nil)
}

func slope(y []float64) float64 {
	x := make([]float64, len(y))
	for i := range x {
		x[i] = float64(i)
	}
	_, beta := stat.LinearRegression(x, y, nil, false)
	return beta
}

func popStd(v []float64) float64 {
	return math.Sqrt(stat.PopVariance(v, nil))
}
