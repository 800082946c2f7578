// Package recording decodes exercise recordings into per-limb sample
// sequences. Two layouts are accepted: an "imuData" array of SI samples
// tagged by device, and raw "izquierda"/"derecha" board streams.
package recording

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/relabs-tech/motion_analyzer/internal/imu"
)

// Schema identifiers.
const (
	SchemaIMUData = "imuData"
	SchemaRaw     = "raw"
)

var (
	ErrUnrecognizedSchema = errors.New("unrecognized recording schema: expected \"imuData\" or \"izquierda\"/\"derecha\"")
	ErrAmbiguousSchema    = errors.New("ambiguous recording schema: both \"imuData\" and \"izquierda\"/\"derecha\" present")
	ErrMissingField       = errors.New("missing required field")
)

// Recording holds both limbs' samples, each sorted by timestamp.
type Recording struct {
	Schema  string                    `json:"schema"`
	Samples map[imu.Side][]imu.Sample `json:"samples"`
	Skipped int                       `json:"skipped"` // imuData entries from devices on neither limb
}

// Side returns the samples for one limb (nil if none).
func (r *Recording) Side(s imu.Side) []imu.Sample {
	return r.Samples[s]
}

type axes struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

func (a *axes) complete() bool {
	return a != nil && a.X != nil && a.Y != nil && a.Z != nil
}

func (a *axes) vec() imu.Vec3 {
	var v imu.Vec3
	if a == nil {
		return v
	}
	if a.X != nil {
		v.X = *a.X
	}
	if a.Y != nil {
		v.Y = *a.Y
	}
	if a.Z != nil {
		v.Z = *a.Z
	}
	return v
}

type imuDataEntry struct {
	DeviceID      *string  `json:"deviceId"`
	Timestamp     *float64 `json:"timestamp"`
	Accelerometer *axes    `json:"accelerometer"`
	Gyroscope     *axes    `json:"gyroscope"`
}

type rawEntry struct {
	Millis *float64 `json:"millis"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Z      *float64 `json:"z"`
	A      *float64 `json:"a"`
	B      *float64 `json:"b"`
	G      *float64 `json:"g"`
}

// RawRecording is the raw board layout, used when producing recordings.
type RawRecording struct {
	Izquierda []imu.IMURaw `json:"izquierda"`
	Derecha   []imu.IMURaw `json:"derecha"`
}

// LoadFile reads and decodes a recording file.
func LoadFile(path string, scale imu.RawScale) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recording: %w", err)
	}
	defer f.Close()

	rec, err := DecodeReader(f, scale)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

// DecodeReader decodes a recording from r.
func DecodeReader(r io.Reader, scale imu.RawScale) (*Recording, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read recording: %w", err)
	}
	return Decode(data, scale)
}

// Decode picks the schema by key presence and normalises both limbs.
// Raw board counts are converted with scale.
func Decode(data []byte, scale imu.RawScale) (*Recording, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("invalid recording JSON: %w", err)
	}

	imuData, hasIMU := top["imuData"]
	left, hasLeft := top["izquierda"]
	right, hasRight := top["derecha"]

	switch {
	case hasIMU && (hasLeft || hasRight):
		return nil, ErrAmbiguousSchema
	case hasIMU:
		return decodeIMUData(imuData)
	case hasLeft || hasRight:
		if err := scale.Validate(); err != nil {
			return nil, fmt.Errorf("raw scale: %w", err)
		}
		return decodeRaw(left, right, scale)
	}

	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, fmt.Errorf("%w (found keys %v)", ErrUnrecognizedSchema, keys)
}

func decodeIMUData(raw json.RawMessage) (*Recording, error) {
	var entries []imuDataEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("invalid imuData array: %w", err)
	}

	rec := newRecording(SchemaIMUData)
	for i, e := range entries {
		if e.DeviceID == nil {
			return nil, fmt.Errorf("imuData[%d]: %w: deviceId", i, ErrMissingField)
		}
		if e.Timestamp == nil {
			return nil, fmt.Errorf("imuData[%d]: %w: timestamp", i, ErrMissingField)
		}

		device := strings.ToUpper(*e.DeviceID)
		var side imu.Side
		switch {
		case strings.Contains(device, string(imu.Left)):
			side = imu.Left
		case strings.Contains(device, string(imu.Right)):
			side = imu.Right
		default:
			rec.Skipped++
			continue
		}

		rec.Samples[side] = append(rec.Samples[side], imu.Sample{
			TimestampMS: int64(*e.Timestamp),
			Accel:       e.Accelerometer.vec(),
			Gyro:        e.Gyroscope.vec(),
			AccelOK:     e.Accelerometer.complete(),
		})
	}
	rec.sort()
	return rec, nil
}

func decodeRaw(left, right json.RawMessage, scale imu.RawScale) (*Recording, error) {
	rec := newRecording(SchemaRaw)
	for _, part := range []struct {
		key  string
		side imu.Side
		data json.RawMessage
	}{
		{"izquierda", imu.Left, left},
		{"derecha", imu.Right, right},
	} {
		if part.data == nil {
			continue
		}
		var entries []rawEntry
		if err := json.Unmarshal(part.data, &entries); err != nil {
			return nil, fmt.Errorf("invalid %s array: %w", part.key, err)
		}
		samples := make([]imu.Sample, 0, len(entries))
		for i, e := range entries {
			r, err := e.toRaw()
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", part.key, i, err)
			}
			samples = append(samples, scale.Convert(r))
		}
		rec.Samples[part.side] = samples
	}
	rec.sort()
	return rec, nil
}

func (e rawEntry) toRaw() (imu.IMURaw, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"millis", e.Millis}, {"x", e.X}, {"y", e.Y}, {"z", e.Z}, {"a", e.A}, {"b", e.B}, {"g", e.G},
	}
	for _, f := range fields {
		if f.v == nil {
			return imu.IMURaw{}, fmt.Errorf("%w: %s", ErrMissingField, f.name)
		}
	}
	return imu.IMURaw{
		Millis: int64(*e.Millis),
		Ax:     *e.X,
		Ay:     *e.Y,
		Az:     *e.Z,
		Gx:     *e.A,
		Gy:     *e.B,
		Gz:     *e.G,
	}, nil
}

func newRecording(schema string) *Recording {
	return &Recording{
		Schema: schema,
		Samples: map[imu.Side][]imu.Sample{
			imu.Left:  {},
			imu.Right: {},
		},
	}
}

func (r *Recording) sort() {
	for _, side := range imu.Sides {
		s := r.Samples[side]
		sort.SliceStable(s, func(i, j int) bool { return s[i].TimestampMS < s[j].TimestampMS })
	}
}
