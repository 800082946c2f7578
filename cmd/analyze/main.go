// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/motion_analyzer/internal/app"
	"github.com/relabs-tech/motion_analyzer/internal/config"
)

func main() {
	configPath := flag.String("config", "motion_config.txt", "configuration file (defaults apply if missing)")
	csvPath := flag.String("csv", "", "also write flattened reports to this CSV file")
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatalf("usage: analyze [-config file] [-csv out.csv] recording.json...")
	}

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	results, err := app.AnalyzeFiles(context.Background(), flag.Args(), cfg.PipelineOptions())
	if err != nil {
		log.Fatalf("analysis failed: %v", err)
	}

	if err := app.WriteJSON(os.Stdout, results); err != nil {
		log.Fatalf("failed to write results: %v", err)
	}
	if *csvPath != "" {
		if err := app.WriteCSVFile(*csvPath, results); err != nil {
			log.Fatalf("failed to write CSV: %v", err)
		}
		log.Printf("analyze: wrote %s", *csvPath)
	}
}
