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

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// FitmentItemSchema describes one extracted compatible-vehicle entry.
const FitmentItemSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "brand":    {"type": "string", "minLength": 1},
    "model":    {"type": ["string", "null"]},
    "submodel": {"type": ["string", "null"]},
    "category": {"type": ["string", "null"]},
    "years":    {"type": ["string", "number", "null"]}
  },
  "required": ["brand"]
}`

// SchemaFilter drops extracted items that do not match a JSON schema.
// It is safe for concurrent use.
type SchemaFilter struct {
	schema *jsonschema.Schema
}

// NewSchemaFilter compiles schemaJSON into a filter.
func NewSchemaFilter(schemaJSON string) (*SchemaFilter, error) {
	schema, err := jsonschema.CompileString("item.json", schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile item schema: %w", err)
	}
	return &SchemaFilter{schema: schema}, nil
}

// NewFitmentFilter returns a filter for FitmentItemSchema.
func NewFitmentFilter() (*SchemaFilter, error) {
	return NewSchemaFilter(FitmentItemSchema)
}

// Filter returns the items that validate, preserving order, and the number dropped.
func (f *SchemaFilter) Filter(items []any) (kept []any, dropped int) {
	kept = make([]any, 0, len(items))
	for _, item := range items {
		if err := f.schema.Validate(item); err != nil {
			dropped++
			continue
		}
		kept = append(kept, item)
	}
	return kept, dropped
}
