package app

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/relabs-tech/motion_analyzer/internal/baseline"
	"github.com/relabs-tech/motion_analyzer/internal/pipeline"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
)

// FileResult is one analysed recording file.
type FileResult struct {
	File     string            `json:"file"`
	Exercise string            `json:"exercise"`
	Analysis pipeline.Analysis `json:"analysis"`
}

// AnalyzeFiles runs the pipeline on each file in order.
func AnalyzeFiles(ctx context.Context, paths []string, opts pipeline.Options) ([]FileResult, error) {
	out := make([]FileResult, 0, len(paths))
	for _, path := range paths {
		rec, err := recording.LoadFile(path, opts.Scale)
		if err != nil {
			return nil, err
		}
		a, err := pipeline.Analyze(ctx, rec, opts)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, FileResult{
			File:     filepath.Base(path),
			Exercise: baseline.InferExercise(path),
			Analysis: a,
		})
	}
	return out, nil
}

// WriteJSON writes the results as indented JSON.
func WriteJSON(w io.Writer, results []FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WriteCSV writes one row per file: file, exercise, active side, then every
// flattened report field plus severity, in sorted column order.
func WriteCSV(w io.Writer, results []FileResult) error {
	if len(results) == 0 {
		return nil
	}

	keySet := make(map[string]struct{})
	for _, r := range results {
		for k := range r.Analysis.Report.Flatten() {
			keySet[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(keySet))
	for k := range keySet {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cw := csv.NewWriter(w)
	header := append([]string{"file", "exercise", "active_side"}, keys...)
	header = append(header, "severity_score", "severity_label", "confidence")
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		flat := r.Analysis.Report.Flatten()
		row := []string{r.File, r.Exercise, string(r.Analysis.Report.ActiveSide)}
		for _, k := range keys {
			v, ok := flat[k]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		d := r.Analysis.Diagnosis
		row = append(row, strconv.Itoa(d.SeverityScore), d.SeverityLabel, strconv.FormatFloat(d.Confidence, 'f', 3, 64))
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile creates path (and its directory) and writes the CSV.
func WriteCSVFile(path string, results []FileResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteCSV(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

const DefaultBaselineFile = "baselines/population_baseline.json"

// RunBaseline builds the population baseline from a controls directory or
// a YAML manifest and writes it to output.
func RunBaseline(controlsDir, manifestPath, output string, opts pipeline.Options) error {
	var entries []baseline.Entry
	if manifestPath != "" {
		m, err := baseline.LoadManifest(manifestPath)
		if err != nil {
			return err
		}
		if output == "" {
			output = m.Output
		}
		if entries, err = m.Entries(); err != nil {
			return err
		}
	} else {
		var err error
		if entries, err = baseline.ScanDir(controlsDir); err != nil {
			return err
		}
	}
	if output == "" {
		output = DefaultBaselineFile
	}

	b := baseline.Build(baseline.Collect(entries, opts))
	if err := b.WriteFile(output); err != nil {
		return err
	}
	fmt.Println("=========================================")
	fmt.Println("  Population baseline generated")
	fmt.Printf("  File: %s\n", output)
	fmt.Println("=========================================")
	return nil
}
