// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Coordinator CoordinatorConfig `yaml:"coordinator"`
}

type CoordinatorConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Poll       PollConfig       `yaml:"poll"`
	Limits     LimitsConfig     `yaml:"limits"`
	Consumers  []ConsumerConfig `yaml:"consumers"`
}

// ---- CONNECTION ----

type ConnectionConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// ---- LIMITS ----

type LimitsConfig struct {
	MaxTransactionWords uint16 `yaml:"max_transaction_words"`
	MaxGap              uint16 `yaml:"max_gap"`
	MaxRetries          *int   `yaml:"max_retries"` // nil => default; 0 disables retries
	RetryBackoffMs      int    `yaml:"retry_backoff_ms"`
	MaxInFlight         int    `yaml:"max_in_flight"`
}

// ---- CONSUMERS ----

type ConsumerConfig struct {
	ID        string           `yaml:"id"` // defaulted by Normalize when empty
	Registers []RegisterConfig `yaml:"registers"`
}

type RegisterConfig struct {
	Bank    string `yaml:"bank"` // "input" | "holding"
	Address uint16 `yaml:"address"`
	Type    string `yaml:"type"` // uint16 int16 uint32 int32 float32 float64
}

// Load reads and decodes a config file. Unknown fields are rejected.
// Validate and Normalize are separate steps, in that order.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}
