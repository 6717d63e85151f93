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

// Package storage defines the collaborators the batch scheduler reads from
// and writes to.
//
// The scheduler only depends on these interfaces; concrete backends live in
// subpackages:
//
//   - storage/sqlsource: RecordSource over database/sql (pgx or sqlite)
//   - storage/badger: CheckpointStore and ResultSink on BadgerDB
//   - storage/file: CheckpointStore on a plain text file
//   - storage/postgres: ResultSink writing JSONB rows through pgxpool
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface, not the concrete type:
//
//	sink, err := badger.NewResultSink(backend)  // returns storage.ResultSink
//
// Internal constructors (newResultSink, newSource, etc.) may return concrete
// types since they're only used within the implementation package.
//
// # Thread Safety
//
// ResultSink implementations must be safe for concurrent use: the scheduler
// writes one document per record from every worker in a batch. RecordSource
// and CheckpointStore are only called from the scheduler's own goroutine.
//
// # Context Support
//
// All methods that touch a backend accept context.Context for cancellation.
package storage
