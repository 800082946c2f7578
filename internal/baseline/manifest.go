package baseline

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists control recordings explicitly instead of walking a
// directory. Relative paths resolve against the manifest's directory.
type Manifest struct {
	ControlsDir string  `yaml:"controls_dir"`
	Output      string  `yaml:"output"`
	Recordings  []Entry `yaml:"recordings"`
}

// LoadManifest reads and parses a YAML manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	m.ControlsDir = resolve(m.ControlsDir)
	m.Output = resolve(m.Output)
	for i := range m.Recordings {
		m.Recordings[i].Path = resolve(m.Recordings[i].Path)
	}
	return &m, nil
}

// Entries returns the listed recordings plus everything under ControlsDir.
func (m *Manifest) Entries() ([]Entry, error) {
	entries := append([]Entry(nil), m.Recordings...)
	if m.ControlsDir != "" {
		found, err := ScanDir(m.ControlsDir)
		if err != nil {
			return nil, err
		}
		entries = append(entries, found...)
	}
	return entries, nil
}
