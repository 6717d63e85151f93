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


// Package ai provides the extraction provider contract and the response
// decoding shared by every provider adapter.
//
// # Design Principles
//
// Adapters own the transport: they send the fitment prompt, classify HTTP
// and shape failures as errors, and hand the raw generated text plus the
// finish reason to DecodeItems. DecodeItems owns everything after that:
//
//   - safety-blocked and blank output decode to an empty item list
//   - Markdown code fences are stripped
//   - a JSON array is used as is, any other truthy value is wrapped
//   - output cut off by the token limit is repaired by RepairTruncatedJSON
//
// Decoding never fails. A call that completed always yields an Extraction,
// possibly with no items, so a parse problem can never be mistaken for a
// provider outage.
//
// # Implementation Packages
//
//   - ai/gemini: Gemini generateContent REST adapter
//   - ai/openai: OpenAI-compatible adapter built on langchaingo
//   - ai/mock: test double for unit testing without external services
//   - ai/registry: the closed table of providers selectable by name
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithAPIKey(os.Getenv("FITMENT_API_KEY")))
//	extractor, err := registry.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer extractor.Close()
//
//	extraction, err := extractor.Extract(ctx, "ON CAMURLUK SOL MAREA LANCIA", "")
package ai
