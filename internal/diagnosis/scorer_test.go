package diagnosis

import (
	"math"
	"strings"
	"testing"

	"github.com/relabs-tech/motion_analyzer/internal/movement"
)

func healthy() movement.Metrics {
	return movement.Metrics{
		NReps:                  10,
		MagnitudeMean:          6.0,
		MagnitudeMax:           7.0,
		RepTimeMean:            500,
		RepTimeStd:             40,
		VerticalAmplitudeDecay: -0.01,
		VerticalAmplitudeRatio: 1.01,
	}
}

func TestScoreFeature(t *testing.T) {
	direct := Thresholds{0.03, 0.08, 0.15, 0.25, 0.40}
	inverse := Thresholds{3.0, 2.2, 1.5, 1.0, 0.6}

	tests := []struct {
		name      string
		value     float64
		t         Thresholds
		inverse   bool
		wantScore float64
		wantBand  string
	}{
		{"below normal", 0.01, direct, false, 0, BandNormal},
		{"at normal", 0.03, direct, false, 0, BandNormal},
		{"mid mild", 0.055, direct, false, 0.5, BandMild},
		{"at mild", 0.08, direct, false, 1, BandMild},
		{"mid marked", 0.20, direct, false, 2.5, BandMarked},
		{"at severe", 0.40, direct, false, 4, BandSevere},
		{"beyond severe", 3.0, direct, false, 4, BandSevere},
		{"inverse normal", 4.0, inverse, true, 0, BandNormal},
		{"inverse mid mild", 2.6, inverse, true, 0.5, BandMild},
		{"inverse zero", 0, inverse, true, 4, BandSevere},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, band := scoreFeature(tt.value, tt.t, tt.inverse)
			if math.Abs(score-tt.wantScore) > 1e-9 || band != tt.wantBand {
				t.Fatalf("scoreFeature(%v) = %v %q, want %v %q", tt.value, score, band, tt.wantScore, tt.wantBand)
			}
		})
	}
}

func TestDiagnoseHealthy(t *testing.T) {
	res := Diagnose(healthy())
	if res.SeverityScore != 0 {
		t.Fatalf("severity = %d, want 0", res.SeverityScore)
	}
	if res.Confidence != 1 {
		t.Fatalf("confidence = %v, want 1", res.Confidence)
	}
	if !strings.HasPrefix(res.SeverityLabel, "Normal") {
		t.Fatalf("label = %q", res.SeverityLabel)
	}
	if len(res.ContributingFactors) != 6 || len(res.FeatureScores) != 6 {
		t.Fatalf("want 6 factors and feature scores")
	}
	if res.ContributingFactors[FeatureMagnitude] != "normal (6.00 m/s²)" {
		t.Fatalf("magnitude factor = %q", res.ContributingFactors[FeatureMagnitude])
	}
}

func TestDiagnoseNoMovement(t *testing.T) {
	res := Diagnose(movement.Empty())
	if !res.NoMovement {
		t.Fatalf("NoMovement not set")
	}
	// Only magnitude scores (4.0 * 0.15 = 0.6), which rounds to 1.
	if res.SeverityScore != 1 {
		t.Fatalf("severity = %d, want 1", res.SeverityScore)
	}
	if res.Confidence != 0.5 {
		t.Fatalf("confidence = %v, want 0.5", res.Confidence)
	}
	if !strings.Contains(res.ClinicalNotes, "No repetitions") {
		t.Fatalf("clinical notes lack the no-movement warning:\n%s", res.ClinicalNotes)
	}

	neutral, err := NewScorer(PolicyNeutral)
	if err != nil {
		t.Fatal(err)
	}
	if got := neutral.Diagnose(movement.Empty()); got.SeverityScore != 0 || !got.NoMovement {
		t.Fatalf("neutral policy: severity %d, no-movement %v", got.SeverityScore, got.NoMovement)
	}
}

func TestDiagnoseImpaired(t *testing.T) {
	m := movement.Metrics{
		NReps:                  10,
		MagnitudeMean:          0.8,
		RepTimeMean:            1800,
		RepTimeStd:             700,
		VerticalAmplitudeDecay: -0.5,
		VerticalAmplitudeRatio: 2.5,
		Hesitations:            8,
	}
	res := Diagnose(m)
	if res.SeverityScore < 3 {
		t.Fatalf("severity = %d, want >= 3 (weighted %.2f)", res.SeverityScore, res.WeightedScore)
	}
	if res.ContributingFactors[FeatureHesitations] != "severe (8/10 reps)" {
		t.Fatalf("hesitation factor = %q", res.ContributingFactors[FeatureHesitations])
	}
}

func TestDiagnoseBounds(t *testing.T) {
	inputs := []movement.Metrics{
		movement.Empty(),
		healthy(),
		{NReps: 1, MagnitudeMean: 100, VerticalAmplitudeRatio: -3, VerticalAmplitudeDecay: 10},
		{NReps: 4, MagnitudeMean: 2.2, RepTimeMean: 900, RepTimeStd: 300, VerticalAmplitudeRatio: 1.2, Hesitations: 1},
		{NReps: 3, MagnitudeMean: math.Inf(1), RepTimeStd: 1e9},
	}
	for i, m := range inputs {
		res := Diagnose(m)
		if res.SeverityScore < 0 || res.SeverityScore > 4 {
			t.Errorf("input %d: severity %d out of range", i, res.SeverityScore)
		}
		if res.Confidence < 0.5 || res.Confidence > 1 {
			t.Errorf("input %d: confidence %v out of range", i, res.Confidence)
		}
		if res.SeverityLabel != SeverityLabel(res.SeverityScore) {
			t.Errorf("input %d: label mismatch", i)
		}
	}
}

func TestSeverityRounding(t *testing.T) {
	tests := []struct {
		name  string
		tweak func(*movement.Metrics)
		want  int
	}{
		// ratio at the moderate threshold scores 2: 2*0.25 = 0.5 rounds to even
		{"half rounds to even", func(m *movement.Metrics) { m.VerticalAmplitudeRatio = 1.30 }, 0},
		// decay mid-moderate scores 2.5: 2.5*0.30 = 0.75
		{"above half rounds up", func(m *movement.Metrics) { m.VerticalAmplitudeDecay = -0.20 }, 1},
	}
	for _, tt := range tests {
		m := healthy()
		tt.tweak(&m)
		if got := Diagnose(m).SeverityScore; got != tt.want {
			t.Errorf("%s: severity = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestNewScorerRejectsUnknownPolicy(t *testing.T) {
	if _, err := NewScorer("ignore"); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}
