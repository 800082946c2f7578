// Package diagnosis grades a limb's movement metrics on a 0-4 motor
// impairment scale.
package diagnosis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/relabs-tech/motion_analyzer/internal/movement"
)

// No-movement policies for the inverted magnitude feature.
const (
	// PolicyScore applies the magnitude curve literally, so a limb with no
	// repetitions scores the maximum on that feature.
	PolicyScore = "score"
	// PolicyNeutral scores magnitude as normal when no repetitions were found.
	PolicyNeutral = "neutral"
)

// Feature names as used in ContributingFactors and FeatureScores.
const (
	FeatureDecay       = "decay_rate"
	FeatureRatio       = "amplitude_ratio"
	FeatureMagnitude   = "magnitude"
	FeatureRhythm      = "rhythm_variability"
	FeatureRepTime     = "repetition_time"
	FeatureHesitations = "hesitations"
)

// FeatureScore is one feature's contribution.
type FeatureScore struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Score  float64 `json:"score"`
	Band   string  `json:"band"`
	Weight float64 `json:"weight"`
}

// Result is the graded assessment for one limb.
type Result struct {
	SeverityScore       int               `json:"severity_score"`
	SeverityLabel       string            `json:"severity_label"`
	Confidence          float64           `json:"confidence"`
	WeightedScore       float64           `json:"weighted_score"`
	ContributingFactors map[string]string `json:"contributing_factors"`
	ClinicalNotes       string            `json:"clinical_notes"`
	FeatureScores       []FeatureScore    `json:"feature_scores"`
	NoMovement          bool              `json:"no_movement"`
}

var severityLabels = [5]string{
	"Normal - No signs of motor impairment",
	"Mild - Slight amplitude reduction or irregular rhythm",
	"Moderate - Clear bradykinesia with progressive reduction",
	"Marked - Severe bradykinesia with frequent freezing",
	"Severe - Extremely limited movement",
}

// SeverityLabel returns the text for a 0-4 score.
func SeverityLabel(score int) string {
	return severityLabels[max(0, min(4, score))]
}

type feature struct {
	name       string
	thresholds Thresholds
	inverse    bool
	weight     float64
}

// Scorer holds the clinical threshold tables. The zero value is not usable;
// build it with NewScorer.
type Scorer struct {
	policy   string
	features [6]feature
}

// NewScorer returns a scorer with the fixed clinical thresholds and weights.
func NewScorer(policy string) (*Scorer, error) {
	switch policy {
	case "", PolicyScore:
		policy = PolicyScore
	case PolicyNeutral:
	default:
		return nil, fmt.Errorf("unknown no-movement policy %q", policy)
	}

	return &Scorer{
		policy: policy,
		// decay m/s² per rep (absolute), ratio first/second half, magnitude
		// m/s², rhythm and repetition time ms, hesitations per 10 reps.
		features: [6]feature{
			{FeatureDecay, Thresholds{0.03, 0.08, 0.15, 0.25, 0.40}, false, 0.30},
			{FeatureRatio, Thresholds{1.05, 1.15, 1.30, 1.50, 2.00}, false, 0.25},
			{FeatureMagnitude, Thresholds{3.0, 2.2, 1.5, 1.0, 0.6}, true, 0.15},
			{FeatureRhythm, Thresholds{150, 250, 400, 600, 800}, false, 0.15},
			{FeatureRepTime, Thresholds{600, 800, 1100, 1500, 2000}, false, 0.10},
			{FeatureHesitations, Thresholds{0.5, 1.5, 3.0, 5.0, 7.0}, false, 0.05},
		},
	}, nil
}

var defaultScorer, _ = NewScorer(PolicyScore)

// Diagnose grades metrics with the default scorer.
func Diagnose(m movement.Metrics) Result {
	return defaultScorer.Diagnose(m)
}

// Diagnose grades metrics. It never fails: every input maps to a finite score.
func (s *Scorer) Diagnose(m movement.Metrics) Result {
	hesitationsPer10 := float64(m.Hesitations) / float64(max(m.NReps, 1)) * 10
	values := [6]float64{
		math.Abs(m.VerticalAmplitudeDecay),
		m.VerticalAmplitudeRatio,
		m.MagnitudeMean,
		m.RepTimeStd,
		m.RepTimeMean,
		hesitationsPer10,
	}
	noMovement := m.NReps == 0

	res := Result{
		ContributingFactors: make(map[string]string, len(s.features)),
		FeatureScores:       make([]FeatureScore, len(s.features)),
		NoMovement:          noMovement,
	}

	scores := make([]float64, len(s.features))
	bands := make(map[string]string, len(s.features))
	for i, f := range s.features {
		score, band := scoreFeature(values[i], f.thresholds, f.inverse)
		if f.name == FeatureMagnitude && noMovement && s.policy == PolicyNeutral {
			score, band = 0, BandNormal
		}
		scores[i] = score
		bands[f.name] = band
		res.WeightedScore += score * f.weight
		res.FeatureScores[i] = FeatureScore{Name: f.name, Value: values[i], Score: score, Band: band, Weight: f.weight}
	}

	res.SeverityScore = max(0, min(4, int(math.RoundToEven(res.WeightedScore))))
	res.SeverityLabel = SeverityLabel(res.SeverityScore)
	res.Confidence = max(0.5, min(1.0, 1.0-stat.PopVariance(scores, nil)/4.0))

	res.ContributingFactors[FeatureDecay] = fmt.Sprintf("%s (%.3f m/s²/rep)", bands[FeatureDecay], values[0])
	res.ContributingFactors[FeatureRatio] = fmt.Sprintf("%s (%.2f)", bands[FeatureRatio], values[1])
	res.ContributingFactors[FeatureMagnitude] = fmt.Sprintf("%s (%.2f m/s²)", bands[FeatureMagnitude], values[2])
	res.ContributingFactors[FeatureRhythm] = fmt.Sprintf("%s (%.0f ms)", bands[FeatureRhythm], values[3])
	res.ContributingFactors[FeatureRepTime] = fmt.Sprintf("%s (%.0f ms)", bands[FeatureRepTime], values[4])
	res.ContributingFactors[FeatureHesitations] = fmt.Sprintf("%s (%d/%d reps)", bands[FeatureHesitations], m.Hesitations, m.NReps)

	res.ClinicalNotes = clinicalNotes(res.SeverityScore, bands, noMovement)
	return res
}
