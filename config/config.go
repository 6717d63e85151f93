// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the fitment runtime configuration from FITMENT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/fitment/ai"
)

// Prefix is the environment variable prefix.
const Prefix = "FITMENT"

// Record source drivers.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

// Result sink kinds.
const (
	SinkBadger   = "badger"
	SinkPostgres = "postgres"
)

// Checkpoint store kinds.
const (
	CheckpointFile   = "file"
	CheckpointBadger = "badger"
)

// Config is the complete runtime configuration.
type Config struct {
	SourceDriver string `envconfig:"SOURCE_DRIVER" default:"pgx"`
	SourceDSN    string `envconfig:"SOURCE_DSN" required:"true"`
	SourceTable  string `envconfig:"SOURCE_TABLE" default:"records"`

	Provider        string        `envconfig:"PROVIDER" default:"gemini"`
	Model           string        `envconfig:"MODEL" default:"gemini-2.5-flash-lite"`
	APIKey          string        `envconfig:"API_KEY"`
	ProviderURL     string        `envconfig:"PROVIDER_URL"`
	MaxOutputTokens int           `envconfig:"MAX_OUTPUT_TOKENS" default:"8192"`
	Temperature     float64       `envconfig:"TEMPERATURE" default:"0.1"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"0s"`

	Sink       string `envconfig:"SINK" default:"badger"`
	SinkTarget string `envconfig:"SINK_TARGET" required:"true"`
	SinkTable  string `envconfig:"SINK_TABLE" default:"fitment_results"`

	// CheckpointStore selects where checkpoints live. The badger store shares
	// the badger sink's database and requires SINK=badger.
	CheckpointStore      string `envconfig:"CHECKPOINT_STORE" default:"file"`
	CheckpointFile       string `envconfig:"CHECKPOINT_FILE" default:"lastRecord.txt"`
	ReplayCheckpointFile string `envconfig:"REPLAY_CHECKPOINT_FILE" default:"lastReplay.txt"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes names and checks cross-field constraints.
func (c *Config) Validate() error {
	c.SourceDriver = strings.ToLower(strings.TrimSpace(c.SourceDriver))
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Sink = strings.ToLower(strings.TrimSpace(c.Sink))
	c.CheckpointStore = strings.ToLower(strings.TrimSpace(c.CheckpointStore))

	var errs []error
	switch c.SourceDriver {
	case DriverPgx, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("config: unknown SOURCE_DRIVER %q (want %s or %s)", c.SourceDriver, DriverPgx, DriverSQLite))
	}
	if c.SourceDSN == "" {
		errs = append(errs, errors.New("config: SOURCE_DSN is required"))
	}
	if c.SourceTable == "" {
		errs = append(errs, errors.New("config: SOURCE_TABLE cannot be empty"))
	}

	switch c.Sink {
	case SinkBadger, SinkPostgres:
	default:
		errs = append(errs, fmt.Errorf("config: unknown SINK %q (want %s or %s)", c.Sink, SinkBadger, SinkPostgres))
	}
	if c.SinkTarget == "" {
		errs = append(errs, errors.New("config: SINK_TARGET is required"))
	}
	if c.Sink == SinkPostgres && !strings.Contains(c.SinkTarget, "=") && !strings.Contains(c.SinkTarget, "://") {
		errs = append(errs, fmt.Errorf("config: SINK_TARGET %q is not a postgres connection string", c.SinkTarget))
	}

	switch c.CheckpointStore {
	case CheckpointFile:
		if c.CheckpointFile == "" || c.ReplayCheckpointFile == "" {
			errs = append(errs, errors.New("config: checkpoint file paths cannot be empty"))
		} else if c.CheckpointFile == c.ReplayCheckpointFile {
			errs = append(errs, errors.New("config: CHECKPOINT_FILE and REPLAY_CHECKPOINT_FILE must differ"))
		}
	case CheckpointBadger:
		if c.Sink != SinkBadger {
			errs = append(errs, errors.New("config: CHECKPOINT_STORE=badger requires SINK=badger"))
		}
	default:
		errs = append(errs, fmt.Errorf("config: unknown CHECKPOINT_STORE %q", c.CheckpointStore))
	}

	if err := c.AI().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// AI returns the provider configuration in the form the ai adapters take.
// Gemini defaults to its public endpoint when PROVIDER_URL is unset.
func (c *Config) AI() *ai.Config {
	host := c.ProviderURL
	if host == "" && strings.EqualFold(c.Provider, ai.ProviderGemini) {
		host = ai.DefaultGeminiHost
	}
	return ai.NewConfig(
		ai.WithProvider(c.Provider),
		ai.WithHost(host),
		ai.WithAPIKey(c.APIKey),
		ai.WithModel(c.Model),
		ai.WithTemperature(c.Temperature),
		ai.WithMaxOutputTokens(c.MaxOutputTokens),
		ai.WithTimeout(c.RequestTimeout),
	)
}
