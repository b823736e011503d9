// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gaze_selector/internal/app"
	"github.com/relabs-tech/gaze_selector/internal/config"
)

func main() {
	configPath := flag.String("config", "./gaze_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting gaze orientation producer (sensor → MQTT)")

	// Load configuration
	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunIMUProducer(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
