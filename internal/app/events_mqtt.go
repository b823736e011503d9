// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_selector/internal/ui"
)

// mqttEventSink publishes board events as JSON. Publishing does not wait for
// the broker acknowledgement; failures are logged from the token callback.
type mqttEventSink struct {
	client mqtt.Client
	topic  string
}

var _ ui.EventSink = (*mqttEventSink)(nil)

func (s *mqttEventSink) Publish(ev ui.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal error: %v", err)
		return
	}

	token := s.client.Publish(s.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("events: MQTT publish error (%s): %v", s.topic, token.Error())
		}
	}()
}
