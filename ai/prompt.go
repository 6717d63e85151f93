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
	"fmt"
	"strings"
)

const fitmentPromptTemplate = `You are a car parts expert. Given the product description below, extract the compatible vehicle models and output them as JSON.

Output ONLY a JSON array. Do not include any preamble, explanation, or Markdown. Each element must have the keys
"brand", "model", "submodel", "category" and "years". Use an empty string when a value is unknown. If no vehicle can be
identified, return [].

Example output:
[
  {"brand":"Ford","model":"Focus","submodel":"IV. Nesil","category":"Silgeç Takımı","years":"2018-"}
]

Product: %s`

// BuildFitmentPrompt builds the extraction prompt for a product title.
func BuildFitmentPrompt(title string) string {
	return fmt.Sprintf(fitmentPromptTemplate, scrubString(title))
}

// scrubString cleans up a title before it is embedded in a prompt.
// Control characters are replaced with spaces and runs of whitespace collapse.
func scrubString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
