package app

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_selector/internal/config"
	"github.com/relabs-tech/gaze_selector/internal/orientation"
)

// RunIMUProducer reads the configured orientation source and publishes each
// quaternion to the orientation topic, feeding a controller that runs with
// SOURCE=mqtt on another host.
func RunIMUProducer() error {
	log.Println("starting gaze orientation producer")

	cfg := config.Get()
	if cfg.Source == "mqtt" {
		return errors.New("producer: SOURCE=mqtt would republish its own input")
	}

	src, _, closeSource, err := openSource(cfg, nil)
	if err != nil {
		return err
	}
	defer closeSource()

	client, err := connectMQTT(cfg, cfg.MQTTClientIDProducer)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Println("connected to MQTT, starting publish loop")
	return publishLoop(ctx, src, client, cfg.TopicQuaternion, time.Second/time.Duration(cfg.SensorFrequency))
}

// publishLoop publishes one quaternion per tick. Once per second it logs the
// pose so the headset orientation can be checked from the console.
func publishLoop(ctx context.Context, src orientation.Source, client mqtt.Client, topic string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastLog time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			q, err := src.Next()
			if err != nil {
				if !errors.Is(err, orientation.ErrNoData) {
					log.Printf("error from orientation source: %v", err)
				}
				continue
			}

			payload, err := orientation.EncodeQuaternion(q)
			if err != nil {
				log.Printf("json marshal error (quaternion): %v", err)
				continue
			}
			if token := client.Publish(topic, 0, false, payload); token.Wait() && token.Error() != nil {
				log.Printf("MQTT publish error (%s): %v", topic, token.Error())
				continue
			}

			if t.Sub(lastLog) >= time.Second {
				lastLog = t
				pose := orientation.ToPose(q)
				log.Printf("%s tick: q=[%.4f %.4f %.4f %.4f] R=%.2f P=%.2f Y=%.2f",
					t.Format(time.RFC3339), q.X(), q.Y(), q.Z(), q.W(),
					pose.Roll, pose.Pitch, pose.Yaw)
			}
		}
	}
}
