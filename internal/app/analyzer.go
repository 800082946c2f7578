package app

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/motion_analyzer/internal/config"
)

// RunAnalyzer subscribes to recordings, analyses each one and publishes the
// resulting record. Recordings may be tagged through the topic suffix:
// <TOPIC_RECORDING>/<patient>/<exercise>.
func RunAnalyzer() error {
	log.Println("starting motion-analyzer (MQTT recording subscriber)")

	cfg := config.Get()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := NewService(cfg.PipelineOptions(), st)

	// --- connect to MQTT ---
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDAnalyzer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("analyzer: connected to MQTT broker at %s", cfg.MQTTBroker)

	handler := func(c mqtt.Client, msg mqtt.Message) {
		patient, exercise := topicTags(cfg.TopicRecording, msg.Topic())

		r, err := svc.Analyze(ctx, msg.Payload(), patient, exercise, msg.Topic())
		if err != nil {
			log.Printf("analyzer: %s: %v", msg.Topic(), err)
			return
		}

		payload, err := json.Marshal(r)
		if err != nil {
			log.Printf("analyzer: json marshal error: %v", err)
			return
		}
		if token := c.Publish(cfg.TopicAnalysis, 0, false, payload); token.Wait() && token.Error() != nil {
			log.Printf("analyzer: MQTT publish error: %v", token.Error())
			return
		}
		log.Printf("analyzer: %s side=%s reps=%d severity=%d",
			r.ID, r.Analysis.Report.ActiveSide, r.Analysis.Report.Active.NReps, r.Analysis.Diagnosis.SeverityScore)
	}

	filter := recordingFilter(cfg.TopicRecording)
	if token := client.Subscribe(filter, 1, handler); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("analyzer: subscribed to %s", filter)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("analyzer: shutting down")
	return nil
}

// recordingFilter is the single subscription for recordings. "/#" also
// matches the base topic itself, so untagged recordings arrive exactly once.
func recordingFilter(base string) string {
	return base + "/#"
}

// topicTags extracts "<patient>/<exercise>" from below the base topic.
func topicTags(base, topic string) (patient, exercise string) {
	rest, ok := strings.CutPrefix(topic, base)
	if !ok {
		return "", ""
	}
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) > 0 {
		patient = parts[0]
	}
	if len(parts) > 1 {
		exercise = parts[1]
	}
	return patient, exercise
}
