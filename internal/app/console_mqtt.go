package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_analyzer/internal/config"
	"github.com/relabs-tech/motion_analyzer/internal/store"
)

// RunConsoleMQTT prints one line per analysis published by the analyzer.
func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	token := client.Subscribe(cfg.TopicAnalysis, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var r store.Record
		if err := json.Unmarshal(msg.Payload(), &r); err != nil {
			log.Printf("console: analysis unmarshal error: %v", err)
			return
		}
		fmt.Println(FormatSummary(&r))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicAnalysis)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}

// FormatSummary renders a record as a single console line.
func FormatSummary(r *store.Record) string {
	rep := r.Analysis.Report
	d := r.Analysis.Diagnosis
	return fmt.Sprintf(
		"[%s] patient=%s exercise=%s side=%-5s reps=%2d mag=%5.2f rep=%6.1fms decay=%+.3f ratio=%.2f hes=%d  severity=%d (%s) conf=%.2f",
		shortID(r.ID), orDash(r.PatientCode), orDash(r.Exercise), rep.ActiveSide,
		rep.Active.NReps, rep.Active.MagnitudeMean, rep.Active.RepTimeMean,
		rep.Active.VerticalAmplitudeDecay, rep.Active.VerticalAmplitudeRatio, rep.Active.Hesitations,
		d.SeverityScore, d.SeverityLabel, d.Confidence,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
