// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"

	"github.com/relabs-tech/motion_analyzer/internal/app"
	"github.com/relabs-tech/motion_analyzer/internal/config"
)

func main() {
	// Load configuration
	if err := config.InitGlobal("motion_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunAnalyzer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
