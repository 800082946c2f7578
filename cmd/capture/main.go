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
	patient := flag.String("patient", "", "patient code to tag recordings with")
	exercise := flag.String("exercise", "", "exercise name to tag recordings with")
	flag.Parse()

	log.Println("starting motion-analyzer capture (serial receiver)")

	// Load configuration
	if err := config.InitGlobal("motion_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if config.Get().CaptureSerialPort == "" {
		log.Fatalf("CAPTURE_SERIAL_PORT is required")
	}

	if err := app.RunCapture(*patient, *exercise); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
