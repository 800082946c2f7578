// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"time"

	"github.com/relabs-tech/motion_analyzer/internal/app"
	"github.com/relabs-tech/motion_analyzer/internal/config"
	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
)

func main() {
	gen := recording.DefaultSynthetic()

	side := flag.String("side", string(gen.Active), "active side (LEFT or RIGHT)")
	flag.IntVar(&gen.Reps, "reps", gen.Reps, "repetitions per recording")
	flag.Int64Var(&gen.PeriodMS, "period", gen.PeriodMS, "milliseconds per repetition")
	flag.Float64Var(&gen.Amplitude, "amplitude", gen.Amplitude, "first peak above gravity (m/s²)")
	flag.Float64Var(&gen.Decay, "decay", gen.Decay, "amplitude lost per repetition (m/s²)")
	flag.Float64Var(&gen.Noise, "noise", 0.05, "gaussian noise std (m/s²)")
	flag.IntVar(&gen.FreezeAfter, "freeze-after", 0, "repetition preceded by a pause (0 disables)")
	flag.Int64Var(&gen.FreezeMS, "freeze", 1500, "pause length in milliseconds")
	count := flag.Int("count", 1, "number of recordings to publish")
	interval := flag.Duration("interval", 5*time.Second, "time between recordings")
	patient := flag.String("patient", "SIM", "patient code")
	exercise := flag.String("exercise", "stomp", "exercise name")
	flag.Parse()

	active, err := imu.ParseSide(*side)
	if err != nil {
		log.Fatalf("invalid -side: %v", err)
	}
	gen.Active = active

	// Load configuration
	if err := config.InitGlobal("motion_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gen.Gravity = config.Get().Gravity

	if err := app.RunSimulate(gen, *patient, *exercise, *count, *interval); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
