// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package recording

import (
	"math"
	"math/rand/v2"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
)

// Synthetic generates a stomping recording with smoothly decaying repetitions.
// The active limb carries the full pulse, the passive limb a fraction of it.
type Synthetic struct {
	Active       imu.Side
	Reps         int
	PeriodMS     int64   // time per repetition
	SampleRateHz float64 // samples per second
	Amplitude    float64 // first peak above gravity, m/s²
	Decay        float64 // amplitude lost per repetition, m/s²
	PassiveRatio float64 // passive pulse relative to the active one
	LeadMS       int64   // quiet time before the first and after the last rep
	FreezeAfter  int     // rep index preceded by an extra pause (0 disables)
	FreezeMS     int64
	Noise        float64 // gaussian noise std, m/s²
	Seed         uint64
	Gravity      float64
}

// DefaultSynthetic is ten stomps at 600 ms on the left foot.
func DefaultSynthetic() Synthetic {
	return Synthetic{
		Active:       imu.Left,
		Reps:         10,
		PeriodMS:     600,
		SampleRateHz: 100,
		Amplitude:    5.0,
		Decay:        0.2,
		PassiveRatio: 0.2,
		LeadMS:       1000,
		Gravity:      9.81,
	}
}

// PeakTimes returns the timestamp of each repetition's peak.
func (g Synthetic) PeakTimes() []int64 {
	starts := g.repStarts()
	out := make([]int64, len(starts))
	for i, s := range starts {
		out[i] = s + g.PeriodMS/2
	}
	return out
}

func (g Synthetic) repStarts() []int64 {
	starts := make([]int64, g.Reps)
	for k := range starts {
		starts[k] = g.LeadMS + int64(k)*g.PeriodMS
		if g.FreezeAfter > 0 && k >= g.FreezeAfter {
			starts[k] += g.FreezeMS
		}
	}
	return starts
}

// Recording builds the two-limb recording.
func (g Synthetic) Recording() *Recording {
	rec := newRecording(SchemaIMUData)
	if g.Reps <= 0 || g.PeriodMS <= 0 || g.SampleRateHz <= 0 {
		return rec
	}

	rng := rand.New(rand.NewPCG(g.Seed, g.Seed^0x9e3779b97f4a7c15))
	noise := func() float64 {
		if g.Noise <= 0 {
			return 0
		}
		return rng.NormFloat64() * g.Noise
	}

	starts := g.repStarts()
	end := starts[len(starts)-1] + g.PeriodMS + g.LeadMS
	step := 1000.0 / g.SampleRateHz

	for i := 0; ; i++ {
		t := int64(math.Round(float64(i) * step))
		if t > end {
			break
		}
		pulse := 0.0
		for k, s := range starts {
			if t < s || t >= s+g.PeriodMS {
				continue
			}
			phase := float64(t-s) / float64(g.PeriodMS)
			amp := g.Amplitude - float64(k)*g.Decay
			pulse = max(amp, 0) * math.Pow(math.Sin(math.Pi*phase), 2)
			break
		}

		for _, side := range imu.Sides {
			p := pulse
			if side != g.Active {
				p *= g.PassiveRatio
			}
			rec.Samples[side] = append(rec.Samples[side], imu.Sample{
				TimestampMS: t,
				Accel:       imu.Vec3{X: noise(), Y: noise(), Z: g.Gravity + p + noise()},
				AccelOK:     true,
			})
		}
	}
	return rec
}

// Raw renders the recording in the board layout using scale.
func (r *Recording) Raw(scale imu.RawScale) RawRecording {
	conv := func(samples []imu.Sample) []imu.IMURaw {
		out := make([]imu.IMURaw, 0, len(samples))
		for _, s := range samples {
			out = append(out, scale.Unconvert(s))
		}
		return out
	}
	return RawRecording{
		Izquierda: conv(r.Samples[imu.Left]),
		Derecha:   conv(r.Samples[imu.Right]),
	}
}
