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

package batch

import "errors"

var (
	// ErrSourceRequired is returned when a scheduler is created without a record source.
	ErrSourceRequired = errors.New("record source is required")

	// ErrSinkRequired is returned when a scheduler is created without a result sink.
	ErrSinkRequired = errors.New("result sink is required")

	// ErrCheckpointStoreRequired is returned when a scheduler is created without a checkpoint store.
	ErrCheckpointStoreRequired = errors.New("checkpoint store is required")

	// ErrExtractorRequired is returned when a scheduler is created without an extractor.
	ErrExtractorRequired = errors.New("extractor is required")

	// ErrInvalidBatchSize is returned when batch size is < 1
	ErrInvalidBatchSize = errors.New("batch size must be at least 1")

	// ErrInvalidLimit is returned when the record limit is negative
	ErrInvalidLimit = errors.New("limit cannot be negative")

	// ErrInvalidBatchDelay is returned when the batch delay is negative
	ErrInvalidBatchDelay = errors.New("batch delay cannot be negative")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrRunCancelled is recorded in the summary when a run is stopped early.
	ErrRunCancelled = errors.New("processing was cancelled")
)
