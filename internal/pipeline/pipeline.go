// Package pipeline runs a recording through every analysis stage: both limbs
// are trimmed and measured, the active limb is picked, and its metrics are
// graded.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/motion_analyzer/internal/diagnosis"
	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/movement"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
	"github.com/relabs-tech/motion_analyzer/internal/signal"
)

// SideResult is everything computed for one limb.
type SideResult struct {
	Side       imu.Side                   `json:"side"`
	Trim       signal.TrimStats           `json:"trim"`
	Series     signal.AccelerometerSeries `json:"-"`
	Peaks      []int                      `json:"peaks"`
	Prominence float64                    `json:"prominence"`
	Metrics    movement.Metrics           `json:"metrics"`
	AxisRange  float64                    `json:"axis_range"`
}

// AnalyzeSide trims one limb's samples, detects its repetitions and computes
// its metrics.
func AnalyzeSide(side imu.Side, samples []imu.Sample, opts Options) (SideResult, error) {
	trimmed, stats := signal.TrimWithStats(samples, opts.Trim)
	series := signal.Extract(trimmed)

	res := SideResult{
		Side:      side,
		Trim:      stats,
		Series:    series,
		Peaks:     []int{},
		Metrics:   movement.Empty(),
		AxisRange: signal.AxisRange(series),
	}
	if series.Len() == 0 {
		return res, nil
	}

	picked, err := signal.Smooth(series.Magnitude, opts.Smoothing)
	if err != nil {
		return res, fmt.Errorf("%s: %w", side, err)
	}

	params := opts.Peaks
	params.Prominence = signal.AdaptiveProminence(series.Magnitude, opts.Prominence)
	res.Prominence = params.Prominence
	res.Peaks = signal.DetectPeaks(picked, params)

	res.Metrics = movement.Analyze(movement.Input{
		Magnitude:  series.Magnitude,
		Peaks:      res.Peaks,
		Intervals:  signal.Intervals(series.Timestamps, res.Peaks),
		Z:          series.Z,
		Timestamps: series.Timestamps,
	}, opts.Analyzer)
	return res, nil
}

// Report compares the two limbs of one recording.
type Report struct {
	ActiveSide         imu.Side                      `json:"active_side"`
	Active             movement.Metrics              `json:"active"`
	Passive            movement.Metrics              `json:"passive"`
	Trim               map[imu.Side]signal.TrimStats `json:"trim"`
	AxisRange          map[imu.Side]float64          `json:"axis_range"`
	AsymmetryMagnitude float64                       `json:"asymmetry_mag"`
	AsymmetryRhythm    float64                       `json:"asymmetry_rhythm"`
}

// PassiveSide is the limb that is not active.
func (r Report) PassiveSide() imu.Side {
	return r.ActiveSide.Other()
}

// Flatten returns the numeric report fields under flat keys, the way they
// are written to CSV and aggregated into baselines. The active side label is
// not numeric and is left out.
func (r Report) Flatten() map[string]float64 {
	out := make(map[string]float64, 32)
	for k, v := range r.Active.Values() {
		out["active_"+k] = v
	}
	for k, v := range r.Passive.Values() {
		out["passive_"+k] = v
	}
	out["active_axis_range"] = r.AxisRange[r.ActiveSide]
	out["passive_axis_range"] = r.AxisRange[r.PassiveSide()]
	out["asymmetry_mag"] = r.AsymmetryMagnitude
	out["asymmetry_rhythm"] = r.AsymmetryRhythm
	for _, side := range imu.Sides {
		t := r.Trim[side]
		prefix := "trim_" + side.Lower() + "_"
		out[prefix+"original"] = float64(t.Original)
		out[prefix+"trimmed"] = float64(t.Trimmed)
		out[prefix+"remaining"] = float64(t.Remaining)
	}
	return out
}

// Analysis is a report plus the grade of its active limb.
type Analysis struct {
	Report    Report           `json:"report"`
	Diagnosis diagnosis.Result `json:"diagnosis"`
	Sides     []SideResult     `json:"sides,omitempty"`
}

// Process analyses both limbs concurrently and builds the report.
func Process(ctx context.Context, rec *recording.Recording, opts Options) (Report, []SideResult, error) {
	var results [2]SideResult

	g, ctx := errgroup.WithContext(ctx)
	for i, side := range imu.Sides {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := AnalyzeSide(side, rec.Side(side), opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, nil, err
	}

	left, right := results[0], results[1]
	active, passive := right, left
	if left.Metrics.MagnitudeMean > right.Metrics.MagnitudeMean {
		active, passive = left, right
	}

	report := Report{
		ActiveSide: active.Side,
		Active:     active.Metrics,
		Passive:    passive.Metrics,
		Trim: map[imu.Side]signal.TrimStats{
			left.Side:  left.Trim,
			right.Side: right.Trim,
		},
		AxisRange: map[imu.Side]float64{
			left.Side:  left.AxisRange,
			right.Side: right.AxisRange,
		},
		AsymmetryMagnitude: Asymmetry(active.Metrics.MagnitudeMean, passive.Metrics.MagnitudeMean),
		AsymmetryRhythm:    Asymmetry(active.Metrics.RepTimeMean, passive.Metrics.RepTimeMean),
	}
	return report, results[:], nil
}

// Analyze runs Process and grades the active limb.
func Analyze(ctx context.Context, rec *recording.Recording, opts Options) (Analysis, error) {
	scorer, err := diagnosis.NewScorer(opts.Policy)
	if err != nil {
		return Analysis{}, err
	}

	report, sides, err := Process(ctx, rec, opts)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		Report:    report,
		Diagnosis: scorer.Diagnose(report.Active),
		Sides:     sides,
	}, nil
}

// Asymmetry is |a-b| / max(a,b) rounded to three decimals, 0 when both are 0.
func Asymmetry(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	den := max(a, b)
	if den == 0 {
		return 0
	}
	return math.RoundToEven(math.Abs(a-b)/den*1000) / 1000
}
