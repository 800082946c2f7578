package baseline

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		values []float64
		p      float64
		want   float64
	}{
		{[]float64{5}, 90, 5},
		{[]float64{1, 2, 3, 4}, 25, 1.75},
		{[]float64{1, 2, 3, 4}, 50, 2.5},
		{[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 90, 9.1},
		{[]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 10, 1.9},
		{[]float64{1, 3}, 100, 3},
		{[]float64{1, 3}, 0, 1},
	}
	for _, tt := range tests {
		if got := Percentile(tt.values, tt.p); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Percentile(%v, %v) = %v, want %v", tt.values, tt.p, got, tt.want)
		}
	}
	if !math.IsNaN(Percentile(nil, 50)) {
		t.Errorf("empty input should give NaN")
	}
}

func TestInferExercise(t *testing.T) {
	tests := map[string]string{
		"data/sanos/P01_tapping.json":       ExerciseTapping,
		"data/sanos/P01_Stomping.json":      ExerciseStomp,
		"data/sanos/zapateo/P02.json":       ExerciseStomp,
		"data/sanos/P03.json":               ExerciseTapping,
		"data/sanos/stomp/P04_tapping.json": ExerciseTapping,
	}
	for path, want := range tests {
		if got := InferExercise(path); got != want {
			t.Errorf("InferExercise(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	rows := []map[string]float64{
		{"n_reps": 10, "fatigue_index": 0.1},
		{"n_reps": 8, "fatigue_index": math.NaN()},
		{"n_reps": 9, "fatigue_index": 0.3},
	}
	got := Summarize(rows)

	reps := got["n_reps"]
	if reps.Mean != 9 || reps.P50 != 9 || reps.P10 != 8.2 {
		t.Errorf("n_reps stats = %+v", reps)
	}
	if math.Abs(reps.Std-math.Sqrt(2.0/3.0)) > 1e-12 {
		t.Errorf("n_reps std = %v, want population std", reps.Std)
	}

	fi := got["fatigue_index"]
	if math.Abs(fi.Mean-0.2) > 1e-12 || math.Abs(fi.P50-0.2) > 1e-12 {
		t.Errorf("NaN should be ignored: %+v", fi)
	}
}

func writeSynthetic(t *testing.T, path string, gen recording.Synthetic) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(gen.Recording().Raw(imu.DefaultRawScale()))
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeSynthetic(t, filepath.Join(dir, "stomp", "c1.json"), recording.DefaultSynthetic())
	slow := recording.DefaultSynthetic()
	slow.PeriodMS = 800
	writeSynthetic(t, filepath.Join(dir, "stomp", "c2.json"), slow)
	writeSynthetic(t, filepath.Join(dir, "c3_tapping.json"), recording.DefaultSynthetic())
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"other":1}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries = %d, want 4", len(entries))
	}

	feats := Collect(entries, pipeline.DefaultOptions())
	// two limbs per recording
	if len(feats[ExerciseStomp]) != 4 || len(feats[ExerciseTapping]) != 2 {
		t.Fatalf("rows: stomp %d tapping %d", len(feats[ExerciseStomp]), len(feats[ExerciseTapping]))
	}

	b := Build(feats)
	rt := b[ExerciseStomp]["rep_time_mean"]
	if rt.Mean != 700 || rt.P10 != 600 || rt.P90 != 800 {
		t.Fatalf("stomp rep_time_mean stats = %+v", rt)
	}

	out := filepath.Join(dir, "baselines", "population_baseline.json")
	if err := b.WriteFile(out); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var back Baseline
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("written baseline is not valid JSON: %v", err)
	}
	if back[ExerciseTapping]["n_reps"].Mean != 10 {
		t.Fatalf("tapping n_reps mean = %v", back[ExerciseTapping]["n_reps"].Mean)
	}
}

func TestScanDirMissing(t *testing.T) {
	if _, err := ScanDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeSynthetic(t, filepath.Join(dir, "extra", "a.json"), recording.DefaultSynthetic())
	writeSynthetic(t, filepath.Join(dir, "controls", "b_stomp.json"), recording.DefaultSynthetic())

	manifest := filepath.Join(dir, "manifest.yaml")
	body := `controls_dir: controls
output: out/baseline.json
recordings:
  - path: extra/a.json
    exercise: stomp
`
	if err := os.WriteFile(manifest, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadManifest(manifest)
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	if m.Output != filepath.Join(dir, "out", "baseline.json") {
		t.Errorf("output = %q", m.Output)
	}

	entries, err := m.Entries()
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Path != filepath.Join(dir, "extra", "a.json") || entries[0].Exercise != ExerciseStomp {
		t.Errorf("listed entry = %+v", entries[0])
	}
	if entries[1].Exercise != ExerciseStomp {
		t.Errorf("scanned entry = %+v", entries[1])
	}
}
