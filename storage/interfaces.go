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

package storage

import (
	"context"

	"github.com/poiesic/fitment/core"
)

// RecordSource yields the records a run should process.
// The selection policy (pending since checkpoint, failure replay) is owned by
// the implementation.
type RecordSource interface {
	// Fetch returns up to limit records in ascending row id order.
	// Returns an empty slice, not an error, when nothing is available.
	Fetch(ctx context.Context, limit int) ([]core.Record, error)

	// Close releases the source's connection.
	Close() error
}

// ResultSink persists one document per processed record.
type ResultSink interface {
	// Insert stores doc. Implementations stamp InsertedAt.
	// Callers log failures; Insert is not retried.
	Insert(ctx context.Context, doc *core.ResultDocument) error

	// Close releases the sink's resources.
	Close() error
}

// CheckpointStore persists the row id the next run resumes after.
type CheckpointStore interface {
	// Read returns the stored row id, or 0 when none was written.
	Read(ctx context.Context) (int64, error)

	// Write replaces the stored row id.
	Write(ctx context.Context, rowID int64) error
}
