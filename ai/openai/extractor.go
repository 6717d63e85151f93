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
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/fitment/ai"
	"github.com/tmc/langchaingo/llms"
)

// Extractor implements ai.Extractor on top of a langchaingo chat model.
type Extractor struct {
	client       llms.Model
	defaultModel string
	temperature  float64
	maxTokens    int
	timeout      time.Duration
	logger       *slog.Logger
}

// Extract sends the fitment prompt for title and decodes the reply.
func (e *Extractor) Extract(ctx context.Context, title, model string) (*ai.Extraction, error) {
	if model == "" {
		model = e.defaultModel
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(ai.BuildFitmentPrompt(title))},
		},
	}

	response, err := e.client.GenerateContent(ctx, content,
		llms.WithModel(model),
		llms.WithTemperature(e.temperature),
		llms.WithMaxTokens(e.maxTokens),
	)
	if err != nil {
		e.logger.Error("failed to generate content", "model", model, "err", err)
		return nil, fmt.Errorf("%w: %v", ai.ErrTransport, err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return nil, fmt.Errorf("%w: no choices in response", ai.ErrMalformedResponse)
	}

	choice := response.Choices[0]
	finish := finishReason(choice.StopReason)
	in, out := tokenCounts(choice.GenerationInfo)

	if finish == ai.FinishBlocked {
		e.logger.Warn("response withheld by content filter", "model", model)
	}

	items := ai.DecodeItems(choice.Content, finish)
	e.logger.Debug("extracted items",
		"model", model,
		"items", len(items),
		"finish", finish.String(),
		"input_tokens", in,
		"output_tokens", out)

	return &ai.Extraction{
		Items:        items,
		InputTokens:  in,
		OutputTokens: out,
		Finish:       finish,
	}, nil
}

// Close is a no-op; the underlying HTTP client needs no cleanup.
func (e *Extractor) Close() error {
	e.logger.Debug("closing openai extractor")
	return nil
}

func finishReason(stop string) ai.FinishReason {
	switch stop {
	case "stop", "end_turn":
		return ai.FinishStop
	case "length", "max_tokens":
		return ai.FinishLength
	case "content_filter":
		return ai.FinishBlocked
	case "":
		return ai.FinishUnspecified
	default:
		return ai.FinishOther
	}
}

func tokenCounts(info map[string]any) (in, out int) {
	return asInt(info["PromptTokens"]), asInt(info["CompletionTokens"])
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
