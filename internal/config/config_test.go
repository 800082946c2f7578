package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "motion_config.txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "motion_config.txt"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != "sqlite" || cfg.StoreDSN != "analyses.db" {
		t.Fatalf("store = %q %q", cfg.StoreDriver, cfg.StoreDSN)
	}
	if cfg.PipelineOptions() != pipeline.DefaultOptions() {
		t.Fatalf("sample config drifted from defaults:\n%+v\n%+v", cfg.PipelineOptions(), pipeline.DefaultOptions())
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
# comment
MQTT_BROKER = tcp://broker:1883
TRIM_THRESHOLD=0.8
TARGET_REPS=0
SMOOTHING_WINDOW=7
NO_MOVEMENT_POLICY=neutral
RAW_ACCEL_UNITS=g
STORE_DRIVER=postgres
STORE_DSN=postgres://u:p@db/motion?sslmode=disable
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.MQTTBroker != "tcp://broker:1883" {
		t.Errorf("broker = %q", cfg.MQTTBroker)
	}
	opts := cfg.PipelineOptions()
	if opts.Trim.Threshold != 0.8 || opts.Trim.MinLen != 50 {
		t.Errorf("trim = %+v", opts.Trim)
	}
	if opts.Peaks.MaxPeaks != 0 || opts.Smoothing != 7 {
		t.Errorf("peaks = %+v smoothing = %d", opts.Peaks, opts.Smoothing)
	}
	if opts.Policy != "neutral" || opts.Scale.AccelUnits != "g" {
		t.Errorf("policy = %q units = %q", opts.Policy, opts.Scale.AccelUnits)
	}
	if cfg.TopicAnalysis != "motion/analysis" {
		t.Errorf("unset key lost its default: %q", cfg.TopicAnalysis)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown key", "FOO=1", "unknown config key"},
		{"no equals", "MQTT_BROKER", "invalid config line 1"},
		{"bad int", "TRIM_MIN_LEN=abc", "invalid TRIM_MIN_LEN"},
		{"int below range", "PEAK_MIN_DISTANCE=0", "PEAK_MIN_DISTANCE must be >= 1"},
		{"negative float", "TRIM_THRESHOLD=-1", "must not be negative"},
		{"even smoothing", "SMOOTHING_WINDOW=4", "SMOOTHING_WINDOW"},
		{"policy", "NO_MOVEMENT_POLICY=skip", "NO_MOVEMENT_POLICY"},
		{"units", "RAW_ACCEL_UNITS=mg", "RAW_ACCEL_UNITS"},
		{"driver", "STORE_DRIVER=mysql", "STORE_DRIVER"},
		{"driver without dsn", "STORE_DRIVER=sqlite", "STORE_DSN is required"},
		{"empty broker", "MQTT_BROKER=", "MQTT_BROKER is required"},
		{"zero gyro scale", "RAW_GYRO_SCALE=0", "gyro scale"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body+"\n"))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Load error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestLoadOptional(t *testing.T) {
	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.WebServerPort != 8080 || cfg.PipelineOptions() != pipeline.DefaultOptions() {
		t.Fatalf("missing file should give defaults, got %+v", cfg)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatalf("Load must fail on a missing file")
	}
}
