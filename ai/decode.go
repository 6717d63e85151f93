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
	"encoding/json"
	"log/slog"
	"strings"
)

const codeFence = "```"

// DecodeItems turns a provider's raw text into a sequence of items. It never
// fails: anything that cannot be decoded yields an empty, non-nil slice.
//
// Blocked output and blank output decode to nothing. Code fences are stripped.
// A JSON array is returned as is and any other truthy JSON value is wrapped in
// a one-element array. When the text does not parse and finish is
// FinishLength, the longest prefix of complete array elements is recovered.
func DecodeItems(text string, finish FinishReason) []any {
	logger := slog.Default().With("component", "decoder")

	if finish == FinishBlocked {
		logger.Warn("content was blocked by safety filters")
		return []any{}
	}

	if strings.TrimSpace(text) == "" {
		logger.Warn("provider returned empty or whitespace-only content")
		return []any{}
	}

	cleaned := StripCodeFence(text)
	if cleaned == "" {
		logger.Warn("content became empty after removing code fences")
		return []any{}
	}

	items, err := parseItems(cleaned)
	if err == nil {
		logger.Debug("parsed provider response", "items", len(items))
		return items
	}

	logger.Warn("failed to parse provider response as JSON",
		"err", err,
		"length", len(cleaned),
		"finish", finish.String())

	if finish != FinishLength {
		return []any{}
	}

	repaired, ok := RepairTruncatedJSON(cleaned)
	if !ok {
		logger.Warn("could not repair truncated JSON")
		return []any{}
	}

	items, err = parseItems(repaired)
	if err != nil {
		logger.Warn("repaired JSON still does not parse", "err", err)
		return []any{}
	}

	logger.Info("recovered items from truncated response", "items", len(items))
	return items
}

// StripCodeFence removes Markdown code-fence wrapping. The opening marker and
// an optional language tag are dropped. If a closing marker follows, it and
// everything after it are dropped too. The result is whitespace-trimmed.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, codeFence) {
		return s
	}

	body := s[len(codeFence):]

	// Language tag, e.g. ```json
	if len(body) > 0 && isLetter(rune(body[0])) {
		i := 0
		for i < len(body) && isTagByte(body[i]) {
			i++
		}
		body = body[i:]
	}

	if end := strings.LastIndex(body, codeFence); end >= 0 {
		body = body[:end]
	}

	return strings.TrimSpace(body)
}

// parseItems parses s as a single JSON value and normalizes it to a slice.
func parseItems(s string) ([]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}

	if arr, ok := v.([]any); ok {
		return arr, nil
	}
	if isFalsy(v) {
		return []any{}, nil
	}
	return []any{v}, nil
}

// isFalsy reports whether a decoded JSON value is empty: null, false, zero,
// the empty string, or an empty object.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case float64:
		return t == 0
	case string:
		return t == ""
	case map[string]any:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// isLetter returns true if the rune is an ASCII letter.
func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isTagByte(b byte) bool {
	return isLetter(rune(b)) || (b >= '0' && b <= '9') || b == '_' || b == '-' || b == '+' || b == '.'
}
