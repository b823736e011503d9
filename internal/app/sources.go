// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"fmt"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/gaze_selector/internal/config"
	"github.com/relabs-tech/gaze_selector/internal/orientation"
)

// openSource builds the configured orientation source and the permission
// querier that guards it. The returned closer is never nil.
func openSource(cfg *config.Config, client mqtt.Client) (orientation.Source, orientation.PermissionQuerier, func(), error) {
	noop := func() {}

	var (
		src    orientation.Source
		perms  orientation.PermissionQuerier
		closer = noop
	)

	switch cfg.Source {
	case "mock":
		log.Println("using mock orientation source")
		src = orientation.NewMockSource()
		perms = orientation.GrantAll(orientation.RequiredPermissions...)

	case "imu":
		log.Printf("using MPU9250 on %s (CS %s)", cfg.IMUSPIDevice, cfg.IMUCSPin)
		s, err := orientation.NewIMUSource(cfg.IMUSPIDevice, cfg.IMUCSPin)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("imu source: %w", err)
		}
		src = s
		perms = orientation.DevicePermissions{Paths: []string{cfg.IMUSPIDevice}}

	case "serial":
		log.Printf("using serial attitude sensor on %s @ %d", cfg.SerialPort, cfg.SerialBaudRate)
		s, err := orientation.NewSerialSource(cfg.SerialPort, cfg.SerialBaudRate)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("serial source: %w", err)
		}
		src = s
		perms = orientation.DevicePermissions{Paths: []string{cfg.SerialPort}}
		closer = func() {
			if err := s.Close(); err != nil {
				log.Printf("serial source: close error: %v", err)
			}
		}

	case "mqtt":
		if client == nil {
			return nil, nil, noop, fmt.Errorf("mqtt source: no broker connection")
		}
		s, err := orientation.NewMQTTSource(client, cfg.TopicQuaternion)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("mqtt source: %w", err)
		}
		src = s
		perms = orientation.GrantAll(orientation.RequiredPermissions...)

	default:
		return nil, nil, noop, fmt.Errorf("unknown source %q", cfg.Source)
	}

	// an explicit grant list replaces the device probe
	if len(cfg.Permissions) > 0 {
		perms = orientation.ParsePermissions(cfg.Permissions)
	}
	return src, perms, closer, nil
}

// connectMQTT connects to the configured broker.
func connectMQTT(cfg *config.Config, clientID string) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("MQTT connect %s: %w", cfg.MQTTBroker, token.Error())
	}
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)
	return client, nil
}
