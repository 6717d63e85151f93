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

package mock

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/poiesic/fitment/ai"
)

// MockExtractor is a test double for ai.Extractor.
type MockExtractor struct {
	// ExtractFunc is called by Extract if set.
	// If nil, returns a single item built from the first word of the title.
	ExtractFunc func(ctx context.Context, title, model string) (*ai.Extraction, error)

	calls  atomic.Int64
	closed atomic.Bool

	mu     sync.Mutex
	titles []string
}

// NewMockExtractor creates a mock extractor with default behavior.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{}
}

// WithExtractFunc sets custom Extract behavior.
func (m *MockExtractor) WithExtractFunc(fn func(ctx context.Context, title, model string) (*ai.Extraction, error)) *MockExtractor {
	m.ExtractFunc = fn
	return m
}

func (m *MockExtractor) Extract(ctx context.Context, title, model string) (*ai.Extraction, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.titles = append(m.titles, title)
	m.mu.Unlock()

	if m.ExtractFunc != nil {
		return m.ExtractFunc(ctx, title, model)
	}

	words := strings.Fields(title)
	if len(words) == 0 {
		return &ai.Extraction{Items: []any{}, Finish: ai.FinishStop}, nil
	}
	return &ai.Extraction{
		Items:        []any{map[string]any{"brand": words[0]}},
		InputTokens:  len(title),
		OutputTokens: len(words),
		Finish:       ai.FinishStop,
	}, nil
}

func (m *MockExtractor) Close() error {
	m.closed.Store(true)
	return nil
}

// CallCount returns the number of times Extract was called.
func (m *MockExtractor) CallCount() int {
	return int(m.calls.Load())
}

// Titles returns the titles seen by Extract, in call order.
func (m *MockExtractor) Titles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.titles...)
}

// Closed reports whether Close was called.
func (m *MockExtractor) Closed() bool {
	return m.closed.Load()
}

// Reset clears the call count and custom functions.
func (m *MockExtractor) Reset() {
	m.calls.Store(0)
	m.closed.Store(false)
	m.mu.Lock()
	m.titles = nil
	m.mu.Unlock()
	m.ExtractFunc = nil
}
