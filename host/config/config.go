// Package config holds the reader tool configuration, loaded from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"tagpatch/host/serial"
)

type Config struct {
	Serial  serial.Config `yaml:"serial"`
	Link    LinkConfig    `yaml:"link"`
	Session SessionConfig `yaml:"session"`
	Output  OutputConfig  `yaml:"output"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	Bench   BenchConfig   `yaml:"bench"`
}

// ---- LINK ----

type LinkConfig struct {
	TimeoutMs int  `yaml:"timeout_ms"`
	Retries   int  `yaml:"retries"`
	FrameCRC  bool `yaml:"frame_crc"` // append the ISO15693 CRC to requests
}

// ---- SESSION ----

type SessionConfig struct {
	Samples    int `yaml:"samples"` // 0 = until interrupted
	IntervalMs int `yaml:"interval_ms"`
}

// ---- OUTPUT ----

type OutputConfig struct {
	CSV string `yaml:"csv"` // empty = no CSV export
}

// ---- MQTT ----

type MQTTConfig struct {
	Broker   string `yaml:"broker"` // empty = disabled
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// ---- BENCH ----

type BenchConfig struct {
	Bus     string `yaml:"bus"` // i2c-dev bus name, empty = first
	Address uint16 `yaml:"address"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Serial: *serial.DefaultConfig("/dev/ttyUSB0"),
		Link: LinkConfig{
			TimeoutMs: 2000,
			Retries:   2,
			FrameCRC:  true,
		},
		Session: SessionConfig{
			Samples:    100,
			IntervalMs: 100,
		},
		MQTT: MQTTConfig{
			ClientID: "tagreader",
			Topic:    "tagpatch/measurements",
		},
		Bench: BenchConfig{
			Address: 0x50,
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
