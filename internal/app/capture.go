package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/motion_analyzer/internal/config"
	"github.com/relabs-tech/motion_analyzer/internal/imu"
	"github.com/relabs-tech/motion_analyzer/internal/recording"
)

// captureLine is one line streamed by the ankle receiver board.
type captureLine struct {
	Side string `json:"side"`
	End  bool   `json:"end"`
	imu.IMURaw
}

// Assembler collects board lines into a raw recording.
type Assembler struct {
	max int
	rec recording.RawRecording
	n   int
}

func NewAssembler(maxSamples int) *Assembler {
	return &Assembler{max: maxSamples}
}

// Add consumes one line. It reports true when the recording is complete,
// either on an end marker or when the sample limit is reached. Lines that are
// not JSON objects (boot banners, blank lines) are ignored.
func (a *Assembler) Add(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return false, nil
	}

	var l captureLine
	if err := json.Unmarshal([]byte(line), &l); err != nil {
		return false, fmt.Errorf("bad capture line %q: %w", line, err)
	}
	if l.End {
		return a.n > 0, nil
	}

	switch strings.ToLower(l.Side) {
	case "izquierda", "left", "l":
		a.rec.Izquierda = append(a.rec.Izquierda, l.IMURaw)
	case "derecha", "right", "r":
		a.rec.Derecha = append(a.rec.Derecha, l.IMURaw)
	default:
		return false, fmt.Errorf("unknown side %q", l.Side)
	}
	a.n++
	return a.max > 0 && a.n >= a.max, nil
}

// Len returns the number of samples collected so far.
func (a *Assembler) Len() int {
	return a.n
}

// Take returns the collected recording and resets the assembler.
func (a *Assembler) Take() recording.RawRecording {
	rec := a.rec
	a.rec = recording.RawRecording{}
	a.n = 0
	return rec
}

// ReadRecording reads lines from r until a recording is complete.
func ReadRecording(r *bufio.Reader, a *Assembler) (recording.RawRecording, error) {
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			done, perr := a.Add(line)
			if perr != nil {
				log.Printf("capture: %v", perr)
			}
			if done {
				return a.Take(), nil
			}
		}
		if err != nil {
			if err == io.EOF && a.Len() > 0 {
				return a.Take(), nil
			}
			return recording.RawRecording{}, err
		}
	}
}

// RunCapture reads recordings from the receiver board's serial port and
// publishes each one for analysis.
func RunCapture(patient, exercise string) error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDCapture)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("capture: connected to MQTT broker at %s", cfg.MQTTBroker)

	serialOpts := serial.OpenOptions{
		PortName:              cfg.CaptureSerialPort,
		BaudRate:              uint(cfg.CaptureBaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}

	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", serialOpts.PortName, err)
	}
	defer port.Close()
	log.Printf("capture: serial port opened on %s at %d baud", serialOpts.PortName, serialOpts.BaudRate)

	topic := recordingTopic(cfg.TopicRecording, patient, exercise)
	reader := bufio.NewReader(port)
	asm := NewAssembler(cfg.CaptureMaxSamples)

	for {
		rec, err := ReadRecording(reader, asm)
		if err != nil {
			log.Printf("capture: read error: %v", err)
			return err
		}

		payload, err := json.Marshal(rec)
		if err != nil {
			log.Printf("capture: json marshal error: %v", err)
			continue
		}
		token := client.Publish(topic, 1, false, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("capture: publish error: %v", token.Error())
			continue
		}
		log.Printf("capture: published recording to %s (L:%d R:%d)", topic, len(rec.Izquierda), len(rec.Derecha))
	}
}

// recordingTopic appends the optional patient/exercise tags the analyzer
// reads back from the topic.
func recordingTopic(base, patient, exercise string) string {
	if patient == "" {
		return base
	}
	if exercise == "" {
		return base + "/" + patient
	}
	return base + "/" + patient + "/" + exercise
}
