// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDGaze     string
	MQTTClientIDProducer string

	// Topics
	TopicQuaternion string // orientation quaternions consumed by the mqtt source
	TopicEvents     string // selection events published by the controller

	// Sample source: "mock", "imu", "serial" or "mqtt"
	Source string
	// Granted capabilities, comma separated ("accelerometer,gyroscope").
	// Empty means: probe the backing device.
	Permissions []string

	// Sensor
	SensorFrequency int // Hz
	QuaternionIndex int // controlled axis inside [x, y, z, w]

	// IMU Hardware
	IMUSPIDevice string
	IMUCSPin     string

	// Serial attitude sensor
	SerialPort     string
	SerialBaudRate int

	// Gaze controller
	SensitivityFactor    float64 // px per quaternion unit, sign selects screen direction
	IdleDelayMS          int
	BufferLength         int
	BufferIterationLimit int
	NoiseThreshold       float64 // px
	InnerLimit           float64 // px
	OuterLimit           float64 // px
	SmoothingAlpha       float64
	AutoSelect           bool
	DrawMotion           bool
	ConfirmDurationMS    int
	TrackedAxis          string // "vertical" or "horizontal"

	// Web Server
	WebServerPort int
	LayoutFile    string
	DebugLogSize  int

	// Display
	DisplayEnabled bool
	DisplayI2CBus  string
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported so other packages cannot modify it without locking.
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Default returns the configuration used when a key is absent from the file.
// The gaze values are the ones the controller was tuned with on the headset.
func Default() *Config {
	return &Config{
		MQTTBroker:           "tcp://localhost:1883",
		MQTTClientIDGaze:     "gaze-controller",
		MQTTClientIDProducer: "gaze-imu-producer",
		TopicQuaternion:      "gaze/orientation",
		TopicEvents:          "gaze/events",

		Source:          "mock",
		SensorFrequency: 30,
		QuaternionIndex: 1,

		IMUSPIDevice:   "/dev/spidev0.0",
		IMUCSPin:       "8",
		SerialPort:     "/dev/ttyUSB0",
		SerialBaudRate: 115200,

		SensitivityFactor:    -5000,
		IdleDelayMS:          4000,
		BufferLength:         10,
		BufferIterationLimit: 5,
		NoiseThreshold:       30,
		InnerLimit:           50,
		OuterLimit:           400,
		SmoothingAlpha:       0.1,
		AutoSelect:           false,
		DrawMotion:           true,
		ConfirmDurationMS:    2000,
		TrackedAxis:          "vertical",

		WebServerPort: 8080,
		LayoutFile:    "layout.yaml",
		DebugLogSize:  200,

		DisplayEnabled: false,
		DisplayI2CBus:  "",
	}
}

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// Parse reads KEY=VALUE lines on top of Default().
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	var err error
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_GAZE":
		c.MQTTClientIDGaze = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value

	// Topics
	case "TOPIC_QUATERNION":
		c.TopicQuaternion = value
	case "TOPIC_EVENTS":
		c.TopicEvents = value

	// Source
	case "SOURCE":
		c.Source = strings.ToLower(value)
	case "PERMISSIONS":
		c.Permissions = nil
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				c.Permissions = append(c.Permissions, strings.ToLower(p))
			}
		}

	// Sensor
	case "SENSOR_FREQUENCY":
		c.SensorFrequency, err = parseInt(key, value)
	case "QUATERNION_INDEX":
		c.QuaternionIndex, err = parseInt(key, value)
		if err == nil && (c.QuaternionIndex < 0 || c.QuaternionIndex > 3) {
			return fmt.Errorf("QUATERNION_INDEX must be 0-3, got %d", c.QuaternionIndex)
		}

	// IMU Hardware
	case "IMU_SPI_DEVICE":
		c.IMUSPIDevice = value
	case "IMU_CS_PIN":
		c.IMUCSPin = value

	// Serial
	case "SERIAL_PORT":
		c.SerialPort = value
	case "SERIAL_BAUD_RATE":
		c.SerialBaudRate, err = parseInt(key, value)

	// Gaze
	case "SENSITIVITY_FACTOR":
		c.SensitivityFactor, err = parseFloat(key, value)
	case "IDLE_DELAY_MS":
		c.IdleDelayMS, err = parseInt(key, value)
	case "BUFFER_LENGTH":
		c.BufferLength, err = parseInt(key, value)
	case "BUFFER_ITERATION_LIMIT":
		c.BufferIterationLimit, err = parseInt(key, value)
	case "NOISE_THRESHOLD":
		c.NoiseThreshold, err = parseFloat(key, value)
	case "INNER_LIMIT":
		c.InnerLimit, err = parseFloat(key, value)
	case "OUTER_LIMIT":
		c.OuterLimit, err = parseFloat(key, value)
	case "SMOOTHING_ALPHA":
		c.SmoothingAlpha, err = parseFloat(key, value)
	case "AUTO_SELECT":
		c.AutoSelect, err = parseBool(key, value)
	case "DRAW_MOTION":
		c.DrawMotion, err = parseBool(key, value)
	case "CONFIRM_DURATION_MS":
		c.ConfirmDurationMS, err = parseInt(key, value)
	case "TRACKED_AXIS":
		c.TrackedAxis = strings.ToLower(value)

	// Web Server
	case "WEB_SERVER_PORT":
		c.WebServerPort, err = parseInt(key, value)
	case "LAYOUT_FILE":
		c.LayoutFile = value
	case "DEBUG_LOG_SIZE":
		c.DebugLogSize, err = parseInt(key, value)

	// Display
	case "DISPLAY_ENABLED":
		c.DisplayEnabled, err = parseBool(key, value)
	case "DISPLAY_I2C_BUS":
		c.DisplayI2CBus = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return err
}

func parseInt(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseFloat(key, value string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

func parseBool(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return v, nil
}

// validate checks that the values can drive a controller.
func (c *Config) validate() error {
	switch c.Source {
	case "mock", "imu", "serial", "mqtt":
	default:
		return fmt.Errorf("SOURCE must be one of mock, imu, serial, mqtt, got %q", c.Source)
	}
	if c.Source == "mqtt" && c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required for the mqtt source")
	}
	if c.Source == "serial" && (c.SerialPort == "" || c.SerialBaudRate == 0) {
		return fmt.Errorf("SERIAL_PORT and SERIAL_BAUD_RATE are required for the serial source")
	}
	if c.SensorFrequency <= 0 {
		return fmt.Errorf("SENSOR_FREQUENCY must be positive, got %d", c.SensorFrequency)
	}
	if c.SensitivityFactor == 0 {
		return fmt.Errorf("SENSITIVITY_FACTOR must not be zero")
	}
	if c.BufferLength <= 0 {
		return fmt.Errorf("BUFFER_LENGTH must be positive, got %d", c.BufferLength)
	}
	if c.BufferIterationLimit < 0 {
		return fmt.Errorf("BUFFER_ITERATION_LIMIT must not be negative, got %d", c.BufferIterationLimit)
	}
	if c.InnerLimit < 0 || c.OuterLimit <= c.InnerLimit {
		return fmt.Errorf("limits must satisfy 0 <= INNER_LIMIT < OUTER_LIMIT, got %.1f / %.1f", c.InnerLimit, c.OuterLimit)
	}
	if c.SmoothingAlpha <= 0 || c.SmoothingAlpha > 1 {
		return fmt.Errorf("SMOOTHING_ALPHA must be in (0, 1], got %v", c.SmoothingAlpha)
	}
	if c.IdleDelayMS <= 0 {
		return fmt.Errorf("IDLE_DELAY_MS must be positive, got %d", c.IdleDelayMS)
	}
	if c.AutoSelect && c.ConfirmDurationMS <= 0 {
		return fmt.Errorf("CONFIRM_DURATION_MS must be positive when AUTO_SELECT is on")
	}
	if c.TrackedAxis != "vertical" && c.TrackedAxis != "horizontal" {
		return fmt.Errorf("TRACKED_AXIS must be vertical or horizontal, got %q", c.TrackedAxis)
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
