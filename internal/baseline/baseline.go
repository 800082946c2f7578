// Package baseline aggregates control-group recordings into per-exercise
// population statistics for every movement metric.
package baseline

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
)

// Exercises known to the baseline.
const (
	ExerciseTapping = "tapping"
	ExerciseStomp   = "stomp"
)

// Stats summarises one metric over the control population.
type Stats struct {
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	P10  float64 `json:"p10"`
	P25  float64 `json:"p25"`
	P50  float64 `json:"p50"`
	P75  float64 `json:"p75"`
	P90  float64 `json:"p90"`
}

// Baseline maps exercise to metric name to statistics.
type Baseline map[string]map[string]Stats

// Entry is one control recording.
type Entry struct {
	Path     string `yaml:"path"`
	Exercise string `yaml:"exercise"`
}

// InferExercise guesses the exercise from a recording path. Anything that
// does not mention stomping is treated as tapping.
func InferExercise(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "tapping"):
		return ExerciseTapping
	case strings.Contains(lower, "stomp"), strings.Contains(lower, "stom"), strings.Contains(lower, "zapate"):
		return ExerciseStomp
	}
	return ExerciseTapping
}

// ScanDir lists every .json file below dir as an entry.
func ScanDir(dir string) ([]Entry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("controls directory: %w", err)
	}

	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".json") {
			return nil
		}
		entries = append(entries, Entry{Path: path, Exercise: InferExercise(path)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}
	return entries, nil
}

// Collect analyses both limbs of every entry and groups the metric values by
// exercise. Recordings that fail to load are logged and skipped.
func Collect(entries []Entry, opts pipeline.Options) map[string][]map[string]float64 {
	feats := map[string][]map[string]float64{
		ExerciseTapping: {},
		ExerciseStomp:   {},
	}

	for _, e := range entries {
		exercise := e.Exercise
		if exercise == "" {
			exercise = InferExercise(e.Path)
		}

		rec, err := recording.LoadFile(e.Path, opts.Scale)
		if err != nil {
			log.Printf("baseline: skipping %s: %v", e.Path, err)
			continue
		}

		counts := make([]int, 0, 2)
		for _, side := range imu.Sides {
			samples := rec.Side(side)
			counts = append(counts, len(samples))
			if len(samples) == 0 {
				continue
			}
			res, err := pipeline.AnalyzeSide(side, samples, opts)
			if err != nil {
				log.Printf("baseline: %s %s: %v", e.Path, side, err)
				continue
			}
			feats[exercise] = append(feats[exercise], res.Metrics.Values())
		}
		log.Printf("baseline: processed %s -> %s (L:%d R:%d)", e.Path, exercise, counts[0], counts[1])
	}
	return feats
}

// Build computes the statistics of every metric present in the feature rows.
func Build(feats map[string][]map[string]float64) Baseline {
	out := make(Baseline, len(feats))
	for exercise, rows := range feats {
		out[exercise] = Summarize(rows)
	}
	return out
}

// Summarize computes Stats per metric, ignoring NaN values.
func Summarize(rows []map[string]float64) map[string]Stats {
	columns := make(map[string][]float64)
	for _, row := range rows {
		for k, v := range row {
			if math.IsNaN(v) {
				continue
			}
			columns[k] = append(columns[k], v)
		}
	}

	out := make(map[string]Stats, len(columns))
	for k, values := range columns {
		if len(values) == 0 {
			continue
		}
		sort.Float64s(values)
		out[k] = Stats{
			Mean: stat.Mean(values, nil),
			Std:  math.Sqrt(stat.PopVariance(values, nil)),
			P10:  Percentile(values, 10),
			P25:  Percentile(values, 25),
			P50:  Percentile(values, 50),
			P75:  Percentile(values, 75),
			P90:  Percentile(values, 90),
		}
	}
	return out
}

// Percentile interpolates linearly between the closest ranks of sorted,
// placing the p-th percentile at rank (n-1)*p/100.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	rank := float64(n-1) * p / 100
	lo := int(math.Floor(rank))
	hi := min(lo+1, n-1)
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// WriteFile writes the baseline as indented JSON, creating parent dirs.
func (b Baseline) WriteFile(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(b, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
