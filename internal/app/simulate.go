// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_analyzer/internal/config"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
)

// RunSimulate publishes count synthetic recordings in the board layout,
// one every interval, varying the seed each time.
func RunSimulate(gen recording.Synthetic, patient, exercise string, count int, interval time.Duration) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDSimulate)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("simulate: connected to MQTT broker at %s", cfg.MQTTBroker)

	topic := recordingTopic(cfg.TopicRecording, patient, exercise)
	scale := cfg.PipelineOptions().Scale

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; i < count; i++ {
		if i > 0 {
			<-ticker.C
		}
		g := gen
		g.Seed = gen.Seed + uint64(i)

		payload, err := json.Marshal(g.Recording().Raw(scale))
		if err != nil {
			return err
		}
		if token := client.Publish(topic, 1, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("simulate: publish error: %v", token.Error())
			continue
		}
		log.Printf("simulate: published recording %d/%d to %s (%d reps, %s active)", i+1, count, topic, g.Reps, g.Active)
	}
	return nil
}
