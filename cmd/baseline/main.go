// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/motion_analyzer/internal/app"
	"github.com/relabs-tech/motion_analyzer/internal/config"
)

func main() {
	configPath := flag.String("config", "motion_config.txt", "configuration file (defaults apply if missing)")
	controls := flag.String("controls", "./data/sanos", "directory of control recordings")
	manifest := flag.String("manifest", "", "YAML manifest listing control recordings (overrides -controls)")
	output := flag.String("out", "", "output file (default: manifest output or baselines/population_baseline.json)")
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunBaseline(*controls, *manifest, *output, cfg.PipelineOptions()); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
