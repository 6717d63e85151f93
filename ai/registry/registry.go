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

// Package registry selects an ai.Extractor implementation by provider name.
//
// The table is closed: adding a provider means adding an entry here.
package registry

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/fitment/ai"
	"github.com/poiesic/fitment/ai/gemini"
	"github.com/poiesic/fitment/ai/openai"
)

// Factory builds an extractor from a config.
type Factory func(config *ai.Config) (ai.Extractor, error)

var factories = map[string]Factory{
	ai.ProviderGemini: gemini.NewExtractor,
	ai.ProviderOpenAI: openai.NewExtractor,
}

// New builds the extractor registered under config.Provider.
func New(config *ai.Config) (ai.Extractor, error) {
	name := strings.ToLower(strings.TrimSpace(config.Provider))
	factory, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ai.ErrUnknownProvider, config.Provider, strings.Join(Names(), ", "))
	}
	return factory(config)
}

// Names lists the registered providers in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
