// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// quaternionMessage is the JSON published on the orientation topic. Producers
// that only know a pose may send roll/pitch/yaw instead.
type quaternionMessage struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
	W *float64 `json:"w"`

	Roll  *float64 `json:"roll"`
	Pitch *float64 `json:"pitch"`
	Yaw   *float64 `json:"yaw"`
}

// EncodeQuaternion is the payload format DecodeQuaternion reads back.
func EncodeQuaternion(q Quaternion) ([]byte, error) {
	x, y, z, w := q[0], q[1], q[2], q[3]
	return json.Marshal(quaternionMessage{X: &x, Y: &y, Z: &z, W: &w})
}

// DecodeQuaternion parses an orientation payload.
func DecodeQuaternion(payload []byte) (Quaternion, error) {
	var m quaternionMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return Quaternion{}, err
	}

	if m.X != nil && m.Y != nil && m.Z != nil && m.W != nil {
		return Quaternion{*m.X, *m.Y, *m.Z, *m.W}.Normalize(), nil
	}
	if m.Roll != nil || m.Pitch != nil || m.Yaw != nil {
		var p Pose
		if m.Roll != nil {
			p.Roll = *m.Roll
		}
		if m.Pitch != nil {
			p.Pitch = *m.Pitch
		}
		if m.Yaw != nil {
			p.Yaw = *m.Yaw
		}
		return FromPose(p), nil
	}
	return Quaternion{}, fmt.Errorf("payload has neither quaternion nor pose fields")
}

// MQTTSource keeps the latest orientation published on a topic.
type MQTTSource struct {
	mu     sync.RWMutex
	latest Quaternion
	have   bool
}

// NewMQTTSource subscribes to topic on an already connected client.
func NewMQTTSource(client mqtt.Client, topic string) (*MQTTSource, error) {
	s := &MQTTSource{}

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		s.handle(msg.Payload())
	})
	token.Wait()
	if token.Error() != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Printf("mqtt source: subscribed to %s", topic)

	return s, nil
}

func (s *MQTTSource) handle(payload []byte) {
	q, err := DecodeQuaternion(payload)
	if err != nil {
		log.Printf("mqtt source: payload unmarshal error: %v", err)
		return
	}

	s.mu.Lock()
	s.latest = q
	s.have = true
	s.mu.Unlock()
}

// Next returns the last received orientation, or ErrNoData.
func (s *MQTTSource) Next() (Quaternion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.have {
		return Quaternion{}, ErrNoData
	}
	return s.latest, nil
}
