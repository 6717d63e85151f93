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

package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/storage"
)

// ResultSink implements storage.ResultSink by storing each document as JSON
// under a run-scoped key ordered by row id.
type ResultSink struct {
	backend   *Backend
	ownsStore bool
}

var _ storage.ResultSink = (*ResultSink)(nil)

// newResultSink is the internal constructor returning the concrete type.
func newResultSink(backend *Backend, ownsStore bool) *ResultSink {
	return &ResultSink{backend: backend, ownsStore: ownsStore}
}

// NewResultSink creates a sink on an existing backend. Closing the sink
// leaves the backend open.
func NewResultSink(backend *Backend) storage.ResultSink {
	return newResultSink(backend, false)
}

// OpenResultSink opens the badger directory at path and returns a sink that
// closes the backend when it is closed.
func OpenResultSink(path string) (*ResultSink, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return newResultSink(backend, true), nil
}

// Backend returns the underlying backend.
func (s *ResultSink) Backend() *Backend {
	return s.backend
}

// Insert stores doc, stamping InsertedAt. Inserting the same document twice
// overwrites it.
func (s *ResultSink) Insert(ctx context.Context, doc *core.ResultDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", storage.ErrInvalidQuery)
	}
	doc.InsertedAt = time.Now().UTC()

	value, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	return s.backend.Put(makeResultDocKey(doc.RunID, doc.RowID, doc.DocumentID()), value)
}

// List returns the documents stored for runID in ascending row id order.
func (s *ResultSink) List(ctx context.Context, runID string) ([]*core.ResultDocument, error) {
	var docs []*core.ResultDocument
	prefix := makeResultDocPrefix(runID)

	err := s.backend.Scan(ctx, prefix, func(key, value []byte) error {
		// Skip keys of other runs whose id extends this one.
		if len(key) != len(prefix)+resultDocSuffixLen {
			return nil
		}
		var doc core.ResultDocument
		if err := json.Unmarshal(value, &doc); err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
		docs = append(docs, &doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// Get returns a single document. Returns storage.ErrNotFound if it doesn't exist.
func (s *ResultSink) Get(ctx context.Context, runID string, rowID int64, docID core.ID) (*core.ResultDocument, error) {
	var doc core.ResultDocument
	err := s.backend.Get(makeResultDocKey(runID, rowID, docID), func(value []byte) error {
		return json.Unmarshal(value, &doc)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Close closes the backend if the sink opened it.
func (s *ResultSink) Close() error {
	if s.ownsStore {
		return s.backend.Close()
	}
	return nil
}
