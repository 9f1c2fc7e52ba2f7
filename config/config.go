// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config provides configuration management for the sage-comms
// communicator: loading, defaulting, and environment-variable
// substitution/override for the process-wide Config.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sage-x-project/sage/pkg/agent/comms"
)

// Config represents the main configuration structure for a sage-comms
// process.
type Config struct {
	Environment string        `yaml:"environment" json:"environment"`
	Comms       *CommsConfig  `yaml:"comms" json:"comms"`
	KeyStore    *KeyStoreConfig `yaml:"keystore" json:"keystore"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig  `yaml:"metrics" json:"metrics"`
	Health      *HealthConfig   `yaml:"health" json:"health"`
}

// CommsConfig configures a comms.Communicator. It mirrors comms.Config
// plus the identity material and optional durable storage the process
// needs to construct one.
type CommsConfig struct {
	// Compression is "zcompress" (opportunistic zlib) or "uncompressed".
	Compression            string        `yaml:"compression" json:"compression"`
	DestinationCacheTTL     time.Duration `yaml:"destination_cache_ttl" json:"destination_cache_ttl"`
	EnvelopeCacheCapacity   int           `yaml:"envelope_cache_capacity" json:"envelope_cache_capacity"`
	DirectoryCacheCapacity  int           `yaml:"directory_cache_capacity" json:"directory_cache_capacity"`
	// DefaultAPIVersion is 2 (legacy) or 3 (HMAC). Defaults to 3.
	DefaultAPIVersion int `yaml:"default_api_version" json:"default_api_version"`

	// CertPath/KeyPath locate this identity's PEM certificate and RSA
	// private key.
	CertPath string `yaml:"cert_path" json:"cert_path"`
	KeyPath  string `yaml:"key_path" json:"key_path"`

	// PostgresDSN, if set, backs the peer-key directory and the
	// replay-defense nonce with durable Postgres storage instead of the
	// in-memory default.
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
}

// ToCommsConfig converts the YAML-facing CommsConfig into the comms
// package's runtime Config.
func (c *CommsConfig) ToCommsConfig() (comms.Config, error) {
	cfg := comms.DefaultConfig()

	switch c.Compression {
	case "", "zcompress":
		cfg.Compression = comms.PolicyZCompress
	case "uncompressed":
		cfg.Compression = comms.PolicyUncompressed
	default:
		return comms.Config{}, fmt.Errorf("invalid comms.compression: %q", c.Compression)
	}

	if c.DestinationCacheTTL > 0 {
		cfg.DestinationCacheTTL = c.DestinationCacheTTL
	}
	if c.EnvelopeCacheCapacity > 0 {
		cfg.EnvelopeCacheCapacity = c.EnvelopeCacheCapacity
	}
	if c.DirectoryCacheCapacity > 0 {
		cfg.DirectoryCacheCapacity = c.DirectoryCacheCapacity
	}

	switch c.DefaultAPIVersion {
	case 0:
		// leave the comms.DefaultConfig() default in place
	case int(comms.APIVersionLegacy), int(comms.APIVersionHMAC):
		cfg.DefaultAPIVersion = comms.APIVersion(c.DefaultAPIVersion)
	default:
		return comms.Config{}, fmt.Errorf("invalid comms.default_api_version: %d", c.DefaultAPIVersion)
	}

	return cfg, nil
}

// KeyStoreConfig represents key storage configuration.
type KeyStoreConfig struct {
	Type          string `yaml:"type" json:"type"` // file, memory
	Directory     string `yaml:"directory" json:"directory"`
	PassphraseEnv string `yaml:"passphrase_env" json:"passphrase_env"`
}

// LoggingConfig represents logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level"`
	Format   string `yaml:"format" json:"format"`
	Output   string `yaml:"output" json:"output"`
	FilePath string `yaml:"file_path" json:"file_path"`
}

// MetricsConfig represents Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HealthConfig represents health-check endpoint configuration.
type HealthConfig struct {
	Enabled bool     `yaml:"enabled" json:"enabled"`
	Port    int      `yaml:"port" json:"port"`
	Path    string   `yaml:"path" json:"path"`
	Checks  []string `yaml:"checks" json:"checks"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file (tried YAML and JSON): %w", err)
		}
	}

	setDefaults(cfg)

	return cfg, nil
}

// SaveToFile saves configuration to a file. The format is chosen by the
// file extension: ".json" writes JSON, anything else writes YAML.
func SaveToFile(cfg *Config, path string) error {
	var data []byte
	var err error

	if len(path) >= 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(cfg, "", "  ")
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults fills unset fields with their default values.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.Comms == nil {
		cfg.Comms = &CommsConfig{}
	}
	if cfg.Comms.Compression == "" {
		cfg.Comms.Compression = "zcompress"
	}
	if cfg.Comms.DestinationCacheTTL == 0 {
		cfg.Comms.DestinationCacheTTL = 10 * time.Minute
	}
	if cfg.Comms.EnvelopeCacheCapacity == 0 {
		cfg.Comms.EnvelopeCacheCapacity = 50000
	}
	if cfg.Comms.DirectoryCacheCapacity == 0 {
		cfg.Comms.DirectoryCacheCapacity = 50000
	}
	if cfg.Comms.DefaultAPIVersion == 0 {
		cfg.Comms.DefaultAPIVersion = int(comms.APIVersionHMAC)
	}

	if cfg.KeyStore != nil {
		if cfg.KeyStore.Type == "" {
			cfg.KeyStore.Type = "file"
		}
		if cfg.KeyStore.Directory == "" {
			cfg.KeyStore.Directory = ".sage/keys"
		}
	}

	if cfg.Logging != nil {
		if cfg.Logging.Level == "" {
			cfg.Logging.Level = "info"
		}
		if cfg.Logging.Format == "" {
			cfg.Logging.Format = "json"
		}
		if cfg.Logging.Output == "" {
			cfg.Logging.Output = "stdout"
		}
	}

	if cfg.Metrics != nil && cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Health != nil && cfg.Health.Path == "" {
		cfg.Health.Path = "/healthz"
	}
}
