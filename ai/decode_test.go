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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustItems(t *testing.T, s string) []any {
	t.Helper()
	var v []any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestDecodeItems_FencedArray(t *testing.T) {
	array := `[{"brand":"Ford","model":"Focus","years":"2018-"},{"brand":"Fiat","model":"Marea"}]`

	tests := []struct {
		name string
		text string
	}{
		{name: "json tag", text: "```json\n" + array + "\n```"},
		{name: "no tag", text: "```\n" + array + "\n```"},
		{name: "other tag", text: "```javascript\n" + array + "\n```"},
		{name: "surrounding whitespace", text: "  \n```json\n" + array + "\n```\n  "},
		{name: "trailing chatter after fence", text: "```json\n" + array + "\n```\nHope this helps!"},
		{name: "no closing fence", text: "```json\n" + array},
		{name: "unfenced", text: array},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := DecodeItems(tt.text, FinishStop)
			assert.Equal(t, mustItems(t, array), items)
		})
	}
}

func TestDecodeItems_TruncatedWithLengthFinish(t *testing.T) {
	items := DecodeItems(`[{"a":1},{"b":2`, FinishLength)
	assert.Equal(t, []any{map[string]any{"a": float64(1)}}, items)
}

func TestDecodeItems_TruncatedWithoutLengthFinish(t *testing.T) {
	for _, finish := range []FinishReason{FinishStop, FinishUnspecified, FinishOther} {
		items := DecodeItems(`[{"a":1},{"b":2`, finish)
		require.NotNil(t, items, finish.String())
		assert.Empty(t, items, finish.String())
	}
}

func TestDecodeItems_TruncatedInsideFence(t *testing.T) {
	text := "```json\n[{\"brand\":\"Ford\"},{\"brand\":\"Opel\"},{\"brand\":\"Re"
	items := DecodeItems(text, FinishLength)
	assert.Equal(t, mustItems(t, `[{"brand":"Ford"},{"brand":"Opel"}]`), items)
}

func TestDecodeItems_BlockedIsEmptyNotFailure(t *testing.T) {
	items := DecodeItems(`[{"brand":"Ford"}]`, FinishBlocked)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestDecodeItems_Blank(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t\n", "```json\n```", "```\n   \n```"} {
		items := DecodeItems(text, FinishStop)
		require.NotNil(t, items, "%q", text)
		assert.Empty(t, items, "%q", text)
	}
}

func TestDecodeItems_NonArrayValues(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []any
	}{
		{name: "object wrapped", text: `{"brand":"Ford"}`, want: []any{map[string]any{"brand": "Ford"}}},
		{name: "string wrapped", text: `"Ford"`, want: []any{"Ford"}},
		{name: "number wrapped", text: `3`, want: []any{float64(3)}},
		{name: "true wrapped", text: `true`, want: []any{true}},
		{name: "empty object", text: `{}`, want: []any{}},
		{name: "null", text: `null`, want: []any{}},
		{name: "false", text: `false`, want: []any{}},
		{name: "zero", text: `0`, want: []any{}},
		{name: "empty string", text: `""`, want: []any{}},
		{name: "empty array", text: `[]`, want: []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeItems(tt.text, FinishStop))
		})
	}
}

func TestDecodeItems_GarbageNeverFails(t *testing.T) {
	for _, text := range []string{"Sorry, I cannot help with that.", "[1, 2,", "{{{{", "]]]"} {
		for _, finish := range []FinishReason{FinishStop, FinishLength} {
			items := DecodeItems(text, finish)
			assert.NotNil(t, items)
		}
	}
}

func TestDecodeItems_TruncatedTopLevelObject(t *testing.T) {
	// The outer object never closes, so there is no complete element to keep.
	items := DecodeItems(`{"a":{"b":1},"c":`, FinishLength)
	require.NotNil(t, items)
	assert.Empty(t, items)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "```json\n[1]\n```", want: "[1]"},
		{in: "```JSON\n[1]\n```", want: "[1]"},
		{in: "```\n[1]\n```", want: "[1]"},
		{in: "```json[1]```", want: "[1]"},
		{in: "```json\n[1]", want: "[1]"},
		{in: "```[1]```", want: "[1]"},
		{in: "[1]", want: "[1]"},
		{in: "  [1]  ", want: "[1]"},
		{in: "```json\n[1]\n```\nmore text", want: "[1]"},
		{in: "```", want: ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, StripCodeFence(tt.in), "%q", tt.in)
	}
}
