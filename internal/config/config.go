package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/relabs-tech/motion_analyzer/internal/diagnosis"
	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/movement"
	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
	"github.com/relabs-tech/motion_analyzer/internal/signal"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDAnalyzer string
	MQTTClientIDConsole  string
	MQTTClientIDCapture  string
	MQTTClientIDSimulate string

	// Topics
	TopicRecording string
	TopicAnalysis  string

	// Trimming
	TrimThreshold float64 // m/s², std of |accel| inside a window
	TrimMinLen    int     // samples

	// Peak detection
	PeakMinHeight        float64
	PeakMinDistance      int // samples
	PeakMinWidth         float64
	PeakProminenceFloor  float64
	PeakProminenceFactor float64
	TargetReps           int
	SmoothingWindow      int // 0 disables

	// Analysis and scoring
	HesitationStdFactor float64
	NoMovementPolicy    string // "score" or "neutral"

	// Raw board units
	RawAccelUnits string // "counts" or "g"
	RawAccelScale float64
	RawGyroScale  float64
	Gravity       float64

	// Web Server
	WebServerPort int

	// Storage
	StoreDriver     string // "", "postgres" or "sqlite"
	StoreDSN        string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	RedisTTLSeconds int

	// Serial capture
	CaptureSerialPort string
	CaptureBaudRate   int
	CaptureMaxSamples int
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns a configuration with every analysis parameter at its
// clinical default and the local broker.
func Default() *Config {
	opts := pipeline.DefaultOptions()
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDAnalyzer: "motion-analyzer",
		MQTTClientIDConsole:  "motion-console",
		MQTTClientIDCapture:  "motion-capture",
		MQTTClientIDSimulate: "motion-simulate",

		TopicRecording: "motion/recording",
		TopicAnalysis:  "motion/analysis",

		TrimThreshold: opts.Trim.Threshold,
		TrimMinLen:    opts.Trim.MinLen,

		PeakMinHeight:        opts.Peaks.Height,
		PeakMinDistance:      opts.Peaks.Distance,
		PeakMinWidth:         opts.Peaks.Width,
		PeakProminenceFloor:  opts.Prominence.Floor,
		PeakProminenceFactor: opts.Prominence.Factor,
		TargetReps:           opts.Peaks.MaxPeaks,

		HesitationStdFactor: opts.Analyzer.HesitationStdFactor,
		NoMovementPolicy:    opts.Policy,

		RawAccelUnits: opts.Scale.AccelUnits,
		RawAccelScale: opts.Scale.AccelScale,
		RawGyroScale:  opts.Scale.GyroScale,
		Gravity:       opts.Scale.Gravity,

		WebServerPort: 8080,

		RedisTTLSeconds: 3600,

		CaptureBaudRate:   115200,
		CaptureMaxSamples: 60000,
	}
}

// Load reads the configuration file and returns a Config struct. Keys not
// present in the file keep their Default() values.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default().
func LoadOptional(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return Load(configPath)
}

func parseInt(key, value string, lo int) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < lo {
		return 0, fmt.Errorf("%s must be >= %d, got %d", key, lo, v)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %g", key, v)
	}
	return v, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_ANALYZER":
		c.MQTTClientIDAnalyzer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_CAPTURE":
		c.MQTTClientIDCapture = value
	case "MQTT_CLIENT_ID_SIMULATE":
		c.MQTTClientIDSimulate = value

	// Topics
	case "TOPIC_RECORDING":
		c.TopicRecording = value
	case "TOPIC_ANALYSIS":
		c.TopicAnalysis = value

	// Trimming
	case "TRIM_THRESHOLD":
		c.TrimThreshold, err = parseFloat(key, value)
	case "TRIM_MIN_LEN":
		c.TrimMinLen, err = parseInt(key, value, 1)

	// Peak detection
	case "PEAK_MIN_HEIGHT":
		c.PeakMinHeight, err = parseFloat(key, value)
	case "PEAK_MIN_DISTANCE":
		c.PeakMinDistance, err = parseInt(key, value, 1)
	case "PEAK_MIN_WIDTH":
		c.PeakMinWidth, err = parseFloat(key, value)
	case "PEAK_PROMINENCE_FLOOR":
		c.PeakProminenceFloor, err = parseFloat(key, value)
	case "PEAK_PROMINENCE_FACTOR":
		c.PeakProminenceFactor, err = parseFloat(key, value)
	case "TARGET_REPS":
		c.TargetReps, err = parseInt(key, value, 0)
	case "SMOOTHING_WINDOW":
		c.SmoothingWindow, err = parseInt(key, value, 0)
		if err == nil && c.SmoothingWindow != 0 && (c.SmoothingWindow < 3 || c.SmoothingWindow%2 == 0) {
			err = fmt.Errorf("SMOOTHING_WINDOW must be 0 or an odd number >= 3, got %d", c.SmoothingWindow)
		}

	// Analysis and scoring
	case "HESITATION_STD_FACTOR":
		c.HesitationStdFactor, err = parseFloat(key, value)
	case "NO_MOVEMENT_POLICY":
		if value != diagnosis.PolicyScore && value != diagnosis.PolicyNeutral {
			return fmt.Errorf("NO_MOVEMENT_POLICY must be %q or %q, got %q", diagnosis.PolicyScore, diagnosis.PolicyNeutral, value)
		}
		c.NoMovementPolicy = value

	// Raw board units
	case "RAW_ACCEL_UNITS":
		if value != imu.UnitsCounts && value != imu.UnitsG {
			return fmt.Errorf("RAW_ACCEL_UNITS must be %q or %q, got %q", imu.UnitsCounts, imu.UnitsG, value)
		}
		c.RawAccelUnits = value
	case "RAW_ACCEL_SCALE":
		c.RawAccelScale, err = parseFloat(key, value)
	case "RAW_GYRO_SCALE":
		c.RawGyroScale, err = parseFloat(key, value)
	case "GRAVITY":
		c.Gravity, err = parseFloat(key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value, 1)

	// Storage
	case "STORE_DRIVER":
		switch value {
		case "", "postgres", "sqlite":
			c.StoreDriver = value
		default:
			return fmt.Errorf("STORE_DRIVER must be postgres or sqlite, got %q", value)
		}
	case "STORE_DSN":
		c.StoreDSN = value
	case "REDIS_ADDR":
		c.RedisAddr = value
	case "REDIS_PASSWORD":
		c.RedisPassword = value
	case "REDIS_DB":
		c.RedisDB, err = parseInt(key, value, 0)
	case "REDIS_TTL_SECONDS":
		c.RedisTTLSeconds, err = parseInt(key, value, 0)

	// Serial capture
	case "CAPTURE_SERIAL_PORT":
		c.CaptureSerialPort = value
	case "CAPTURE_BAUD_RATE":
		c.CaptureBaudRate, err = parseInt(key, value, 1)
	case "CAPTURE_MAX_SAMPLES":
		c.CaptureMaxSamples, err = parseInt(key, value, 1)

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.TopicRecording == "" || c.TopicAnalysis == "" {
		return fmt.Errorf("TOPIC_RECORDING and TOPIC_ANALYSIS are required")
	}
	if c.StoreDriver != "" && c.StoreDSN == "" {
		return fmt.Errorf("STORE_DSN is required when STORE_DRIVER is set")
	}
	return c.PipelineOptions().Validate()
}

// PipelineOptions maps the analysis keys onto the stage parameters.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		Trim: signal.TrimConfig{
			Threshold: c.TrimThreshold,
			MinLen:    c.TrimMinLen,
		},
		Peaks: signal.PeakParams{
			Height:   c.PeakMinHeight,
			Distance: c.PeakMinDistance,
			Width:    c.PeakMinWidth,
			MaxPeaks: c.TargetReps,
		},
		Prominence: signal.ProminenceConfig{
			Floor:  c.PeakProminenceFloor,
			Factor: c.PeakProminenceFactor,
		},
		Smoothing: c.SmoothingWindow,
		Analyzer:  movement.Config{HesitationStdFactor: c.HesitationStdFactor},
		Scale: imu.RawScale{
			AccelUnits: c.RawAccelUnits,
			AccelScale: c.RawAccelScale,
			GyroScale:  c.RawGyroScale,
			Gravity:    c.Gravity,
		},
		Policy: c.NoMovementPolicy,
	}
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
