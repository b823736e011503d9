package main

import (
	"log"

	"github.com/relabs-tech/gaze_selector/internal/app"
	"github.com/relabs-tech/gaze_selector/internal/config"
)

func main() {
	log.Println("starting gaze console (MQTT subscriber)")

	// Load configuration
	if err := config.InitGlobal("gaze_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
