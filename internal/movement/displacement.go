package movement

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// VerticalDisplacement estimates the vertical travel of each repetition by
// integrating the z acceleration twice. Gravity is approximated by the mean
// of z, and velocity is re-centred before the second pass to cancel drift.
// Each repetition spans two consecutive peaks (both inclusive); its amplitude
// is max-min of the displacement in that span, in centimetres. The first
// return value is the mean over repetitions.
//
// Fewer than 2 peaks or samples, or a non-increasing timestamp, yield 0 and
// no repetitions.
func VerticalDisplacement(z []float64, timestamps []int64, peaks []int) (float64, []float64) {
	if len(peaks) < 2 || len(z) < 2 || len(timestamps) != len(z) {
		return 0, []float64{}
	}

	dt := make([]float64, len(z))
	for i := 1; i < len(z); i++ {
		dt[i] = float64(timestamps[i]-timestamps[i-1]) / 1000.0
		if dt[i] <= 0 {
			return 0, []float64{}
		}
	}

	acc := make([]float64, len(z))
	copy(acc, z)
	floats.AddConst(-stat.Mean(acc, nil), acc)

	vel := integrate(acc, dt)
	floats.AddConst(-stat.Mean(vel, nil), vel)
	disp := integrate(vel, dt)

	reps := make([]float64, 0, len(peaks)-1)
	for i := 1; i < len(peaks); i++ {
		seg := disp[peaks[i-1] : peaks[i]+1]
		reps = append(reps, (floats.Max(seg)-floats.Min(seg))*100.0)
	}
	return stat.Mean(reps, nil), reps
}

// integrate is a cumulative trapezoid starting at zero.
func integrate(y, dt []float64) []float64 {
	out := make([]float64, len(y))
	for i := 1; i < len(y); i++ {
		out[i] = out[i-1] + 0.5*(y[i-1]+y[i])*dt[i]
	}
	return out
}
