package config

import (
	"fmt"
	"strings"
)

// Validate checks configuration correctness.
// It does not mutate the configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Serial.Baud <= 0 {
		return fmt.Errorf("serial: baud must be positive, got %d", cfg.Serial.Baud)
	}
	if cfg.Serial.ReadTimeout < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative")
	}

	if cfg.Link.TimeoutMs <= 0 {
		return fmt.Errorf("link: timeout_ms must be positive, got %d", cfg.Link.TimeoutMs)
	}
	if cfg.Link.Retries < 0 {
		return fmt.Errorf("link: retries must not be negative")
	}

	if cfg.Session.Samples < 0 {
		return fmt.Errorf("session: samples must not be negative (0 runs until interrupted)")
	}
	if cfg.Session.IntervalMs < 0 {
		return fmt.Errorf("session: interval_ms must not be negative")
	}

	if cfg.MQTT.Broker != "" {
		if cfg.MQTT.Topic == "" {
			return fmt.Errorf("mqtt: topic is required when a broker is set")
		}
		if strings.ContainsAny(cfg.MQTT.Topic, "+#") {
			return fmt.Errorf("mqtt: topic %q must not contain wildcards", cfg.MQTT.Topic)
		}
		if cfg.MQTT.QoS > 2 {
			return fmt.Errorf("mqtt: qos must be 0, 1 or 2, got %d", cfg.MQTT.QoS)
		}
	}

	if cfg.Bench.Address > 0x7F {
		return fmt.Errorf("bench: address 0x%X is not a 7-bit I2C address", cfg.Bench.Address)
	}

	return nil
}
