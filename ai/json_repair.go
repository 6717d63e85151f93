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

import "strings"

// RepairTruncatedJSON recovers the longest run of complete top-level objects
// from a JSON array that was cut off mid-element.
//
// Repair is only attempted when opening brackets or braces outnumber closing
// ones. The text is cut right after the last '}' that brings brace depth back
// to zero and a ']' is appended unless the cut text already ends with one.
// The incomplete trailing element is discarded.
//
// Counting is purely lexical: braces inside string values are counted too.
// ok is false when there is nothing to repair or no complete object exists.
func RepairTruncatedJSON(s string) (repaired string, ok bool) {
	s = strings.TrimSpace(s)

	openBrackets := strings.Count(s, "[")
	closeBrackets := strings.Count(s, "]")
	openBraces := strings.Count(s, "{")
	closeBraces := strings.Count(s, "}")

	if openBrackets <= closeBrackets && openBraces <= closeBraces {
		return "", false
	}

	lastComplete := -1
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				lastComplete = i
			}
		}
	}

	// An object cannot close at index 0.
	if lastComplete <= 0 {
		return "", false
	}

	repaired = s[:lastComplete+1]
	if !strings.HasSuffix(strings.TrimSpace(repaired), "]") {
		repaired += "]"
	}
	return repaired, true
}
