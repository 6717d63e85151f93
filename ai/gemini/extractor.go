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

package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/poiesic/fitment/ai"
)

// Extractor implements ai.Extractor using the Gemini REST API.
type Extractor struct {
	client       *http.Client
	host         string
	apiKey       string
	defaultModel string
	generation   generationConfig
	logger       *slog.Logger
}

// newExtractor is an internal constructor that returns the concrete type.
func newExtractor(config *ai.Config) (*Extractor, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Extractor{
		client:       &http.Client{Timeout: config.Timeout},
		host:         config.Host,
		apiKey:       config.APIKey,
		defaultModel: config.Model,
		generation: generationConfig{
			Temperature:     config.Temperature,
			TopK:            1,
			TopP:            1,
			MaxOutputTokens: config.MaxOutputTokens,
			StopSequences:   []string{},
		},
		logger: slog.Default().With("component", "gemini-extractor"),
	}, nil
}

// NewExtractor creates a Gemini extractor from config.
//
// Returns ai.Extractor interface to enforce abstraction.
func NewExtractor(config *ai.Config) (ai.Extractor, error) {
	return newExtractor(config)
}

// Extract sends the fitment prompt for title and decodes the first candidate.
func (e *Extractor) Extract(ctx context.Context, title, model string) (*ai.Extraction, error) {
	if model == "" {
		model = e.defaultModel
	}

	req := generateRequest{
		Contents:         []content{{Parts: []part{textPart(ai.BuildFitmentPrompt(title))}}},
		GenerationConfig: e.generation,
	}

	raw, status, err := postJSON(ctx, e.client, e.endpoint(model), model, req, e.logger)
	if err != nil {
		return nil, err
	}
	if status/100 != 2 {
		err := statusError(status, raw)
		if status == http.StatusTooManyRequests {
			e.logger.Warn("gemini rate limit exceeded", "model", model)
		} else {
			e.logger.Error("gemini returned error status", "model", model, "status", status)
		}
		return nil, err
	}

	var resp generateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}

	in := resp.UsageMetadata.PromptTokenCount
	out := resp.UsageMetadata.CandidatesTokenCount

	if len(resp.Candidates) == 0 {
		e.logger.Error("no candidates in gemini response", "model", model)
		return nil, fmt.Errorf("%w: no candidates", ai.ErrMalformedResponse)
	}
	cand := resp.Candidates[0]
	finish := finishReason(cand.FinishReason)

	// A blocked candidate often has no content, so check before the shape.
	if finish == ai.FinishBlocked {
		e.logger.Warn("content was blocked by safety filters", "model", model, "reason", cand.FinishReason)
		return &ai.Extraction{Items: []any{}, InputTokens: in, OutputTokens: out, Finish: finish}, nil
	}
	if finish != ai.FinishStop && finish != ai.FinishUnspecified {
		e.logger.Warn("gemini response finished early", "model", model, "reason", cand.FinishReason)
	}

	if cand.Content == nil {
		return nil, fmt.Errorf("%w: candidate has no content", ai.ErrMalformedResponse)
	}
	if len(cand.Content.Parts) == 0 || cand.Content.Parts[0].Text == nil {
		return nil, fmt.Errorf("%w: no text part in content", ai.ErrMalformedResponse)
	}

	return &ai.Extraction{
		Items:        ai.DecodeItems(*cand.Content.Parts[0].Text, finish),
		InputTokens:  in,
		OutputTokens: out,
		Finish:       finish,
	}, nil
}

// Close releases idle connections.
func (e *Extractor) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *Extractor) endpoint(model string) string {
	return e.host + "/models/" + url.PathEscape(model) + ":generateContent?key=" + url.QueryEscape(e.apiKey)
}

func finishReason(reason string) ai.FinishReason {
	switch reason {
	case "STOP":
		return ai.FinishStop
	case "MAX_TOKENS":
		return ai.FinishLength
	case "SAFETY", "RECITATION":
		return ai.FinishBlocked
	case "", "FINISH_REASON_UNSPECIFIED":
		return ai.FinishUnspecified
	default:
		return ai.FinishOther
	}
}
