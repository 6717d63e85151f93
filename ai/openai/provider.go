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

package openai

import (
	"log/slog"

	"github.com/poiesic/fitment/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// NewExtractor creates an extractor for an OpenAI-compatible endpoint.
// The config is validated and normalized before use.
//
// Returns ai.Extractor (not *Extractor) so callers stay provider-agnostic.
func NewExtractor(config *ai.Config) (ai.Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Local OpenAI-compatible servers accept any token.
	token := config.APIKey
	if token == "" {
		token = "none"
	}

	opts := []openai.Option{
		openai.WithBaseURL(config.Host),
		openai.WithToken(token),
		openai.WithModel(config.Model),
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	return NewExtractorWithModel(client, config), nil
}

// NewExtractorWithModel wraps an existing langchaingo model. Config must
// already be valid.
func NewExtractorWithModel(client llms.Model, config *ai.Config) *Extractor {
	return &Extractor{
		client:       client,
		defaultModel: config.Model,
		temperature:  config.Temperature,
		maxTokens:    config.MaxOutputTokens,
		timeout:      config.Timeout,
		logger:       slog.Default().With("component", "openai-extractor"),
	}
}
