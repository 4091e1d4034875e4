// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the assistant service configuration: embedded
// defaults overlaid with an optional YAML file, plus secrets from the
// environment.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxYAMLFileSize bounds config parsing. A config file this large is a
// mistake, not a configuration.
const MaxYAMLFileSize = 1 << 20

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full assistant service configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Google    GoogleConfig    `yaml:"google"`
	Storage   StorageConfig   `yaml:"storage"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// ServerConfig configures the HTTP surfaces.
type ServerConfig struct {
	// ListenAddr is where the API server binds.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr is where the Prometheus endpoint binds.
	MetricsAddr string `yaml:"metrics_addr"`

	// ShutdownGraceSeconds bounds draining on SIGTERM.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds"`
}

// LLMConfig configures the two model tiers and request shaping.
type LLMConfig struct {
	// SmartModel handles planning. Accuracy over cost.
	SmartModel string `yaml:"smart_model"`

	// FastModel handles extraction and summarization.
	FastModel string `yaml:"fast_model"`

	// RequestsPerMinute is the per-process rate limit toward the provider.
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// MaxTokens caps each completion.
	MaxTokens int `yaml:"max_tokens"`

	// EmbeddingModel backs fuzzy event lookup.
	EmbeddingModel string `yaml:"embedding_model"`
}

// GoogleConfig configures the OAuth client. The client secret never lives
// in a file; it is read from GOOGLE_CLIENT_SECRET.
type GoogleConfig struct {
	// ClientID is the OAuth client id.
	ClientID string `yaml:"client_id"`

	// RedirectURL is the OAuth callback.
	RedirectURL string `yaml:"redirect_url"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// DataDir is the Badger database directory.
	DataDir string `yaml:"data_dir"`

	// ArchiveBucket is the GCS bucket for transcript archives. Empty
	// disables archiving.
	ArchiveBucket string `yaml:"archive_bucket"`
}

// AssistantConfig configures assistant behavior.
type AssistantConfig struct {
	// TimeZone is the zone used when rendering the user's clock.
	TimeZone string `yaml:"time_zone"`

	// WebSearchEnabled registers the current_search tool. Requires
	// SERPAPI_API_KEY.
	WebSearchEnabled bool `yaml:"web_search_enabled"`
}

// Load builds the configuration from embedded defaults overlaid with the
// file at path. An empty path uses defaults alone.
func Load(path string) (*Config, error) {
	cfg, err := parse(defaultsYAML)
	if err != nil {
		return nil, fmt.Errorf("config: embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if len(data) > MaxYAMLFileSize {
			return nil, fmt.Errorf("config: %s exceeds maximum size (%d > %d)", path, len(data), MaxYAMLFileSize)
		}
		// Overlay: unmarshal into the defaulted struct so absent fields
		// keep their default values.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	slog.Info("configuration loaded",
		slog.String("path", path),
		slog.String("listen_addr", cfg.Server.ListenAddr),
		slog.String("smart_model", cfg.LLM.SmartModel),
		slog.String("fast_model", cfg.LLM.FastModel),
		slog.Bool("web_search", cfg.Assistant.WebSearchEnabled),
	)
	return cfg, nil
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr must not be empty")
	}
	if c.Server.ShutdownGraceSeconds <= 0 {
		return fmt.Errorf("server.shutdown_grace_seconds must be positive")
	}
	if c.LLM.SmartModel == "" || c.LLM.FastModel == "" {
		return fmt.Errorf("llm models must not be empty")
	}
	if c.LLM.RequestsPerMinute <= 0 {
		return fmt.Errorf("llm.requests_per_minute must be positive")
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir must not be empty")
	}
	if c.Assistant.TimeZone == "" {
		return fmt.Errorf("assistant.time_zone must not be empty")
	}
	return nil
}

// GoogleClientSecret reads the OAuth client secret from the environment.
func GoogleClientSecret() ([]byte, error) {
	secret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("config: GOOGLE_CLIENT_SECRET not set")
	}
	return []byte(secret), nil
}
