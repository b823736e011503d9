package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_selector/internal/config"
	"github.com/relabs-tech/gaze_selector/internal/orientation"
	"github.com/relabs-tech/gaze_selector/internal/ui"
)

// RunConsoleMQTT prints the orientation stream and the selection events seen
// on the broker.
func RunConsoleMQTT() error {
	cfg := config.Get()

	client, err := connectMQTT(cfg, cfg.MQTTClientIDGaze+"-console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	if err := subscribe(client, cfg.TopicQuaternion, printOrientation(cfg.QuaternionIndex)); err != nil {
		return err
	}
	if err := subscribe(client, cfg.TopicEvents, printEvent); err != nil {
		return err
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	return nil
}

func subscribe(client mqtt.Client, topic string, handle func([]byte)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handle(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Printf("console: subscribed to %s", topic)
	return nil
}

func printOrientation(index int) func([]byte) {
	return func(payload []byte) {
		q, err := orientation.DecodeQuaternion(payload)
		if err != nil {
			log.Printf("console: orientation unmarshal error: %v", err)
			return
		}
		fmt.Println(formatOrientation(q, index))
	}
}

func formatOrientation(q orientation.Quaternion, index int) string {
	return fmt.Sprintf("[QUAT]  x=%7.4f y=%7.4f z=%7.4f w=%7.4f  sample=%7.4f",
		q.X(), q.Y(), q.Z(), q.W(), q.Axis(index))
}

func printEvent(payload []byte) {
	var ev ui.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		log.Printf("console: event unmarshal error: %v", err)
		return
	}
	fmt.Println(formatEvent(ev))
}

func formatEvent(ev ui.Event) string {
	s := fmt.Sprintf("[GAZE]  %s %-13s", ev.Time.Format("15:04:05.000"), ev.Type)
	if ev.ItemID != "" {
		s += " item=" + ev.ItemID
	}
	if ev.Duration > 0 {
		s += fmt.Sprintf(" dwell=%s", ev.Duration)
	}
	return s
}
