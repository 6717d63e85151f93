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

package ai

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Provider names understood by the registry.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds configuration for extraction providers.
type Config struct {
	// Provider selects the adapter. See ai/registry.
	Provider string

	// Host is the base URL of the provider API.
	// Example: "https://generativelanguage.googleapis.com/v1beta" or "http://localhost:11434/v1"
	Host string

	// APIKey authenticates against the provider. Required for gemini.
	APIKey string

	// Model is the default model identifier used when a call does not name one.
	// Example: "gemini-2.5-flash-lite", "gpt-4o-mini"
	Model string

	// Temperature is the sampling temperature.
	// Default: 0.1
	Temperature float64

	// MaxOutputTokens caps the generated output. Responses that hit the cap are
	// repaired by the decoder.
	// Default: 8192
	MaxOutputTokens int

	// Timeout bounds a single provider call. Zero means no timeout.
	Timeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithProvider sets the provider name.
func WithProvider(name string) ConfigOption {
	return func(c *Config) {
		c.Provider = name
	}
}

// WithHost sets the provider base URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithAPIKey sets the provider API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithModel sets the default model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = t
	}
}

// WithMaxOutputTokens sets the output token cap.
func WithMaxOutputTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxOutputTokens = n
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.Timeout = d
	}
}

// DefaultGeminiHost is the public Gemini REST endpoint.
const DefaultGeminiHost = "https://generativelanguage.googleapis.com/v1beta"

// DefaultConfig returns a Config targeting Gemini with the settings the
// fitment prompt was tuned for.
func DefaultConfig() *Config {
	return &Config{
		Provider:        ProviderGemini,
		Host:            DefaultGeminiHost,
		Model:           "gemini-2.5-flash-lite",
		Temperature:     0.1,
		MaxOutputTokens: 8192,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithProvider(ProviderOpenAI),
//	    WithHost("http://localhost:11434"),
//	    WithModel("qwen2.5:3b"),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// Trailing slashes are removed from the host. OpenAI-compatible hosts get the
// /v1 suffix most servers (Ollama, LocalAI, vLLM) require.
func (c *Config) Normalize() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.Host = strings.TrimSuffix(strings.TrimSpace(c.Host), "/")
	if c.Provider == ProviderOpenAI && c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Provider == "" {
		return errors.New("ai config: Provider is required")
	}
	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Provider == ProviderGemini && c.APIKey == "" {
		return errors.New("ai config: APIKey is required for gemini")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("ai config: Temperature must be between 0 and 2, got %v", c.Temperature)
	}
	if c.MaxOutputTokens <= 0 {
		return errors.New("ai config: MaxOutputTokens must be greater than 0")
	}
	if c.Timeout < 0 {
		return errors.New("ai config: Timeout cannot be negative")
	}
	return nil
}
