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

// Package batch runs extraction over records from a RecordSource.
//
// A run fetches up to a limit of pending records, splits them into batches
// and processes the batches strictly one after another. Inside a batch every
// record runs concurrently on a worker pool sized to the batch. Each record
// produces exactly one result document in the ResultSink, successful or not.
// After each batch the checkpoint advances to the row id of the batch's last
// record in input order, and the scheduler pauses before the next batch.
//
// Failures are contained per record: provider errors, invalid records and
// panics all become failed results. Progress and diagnostics are reported
// as typed Events to an Observer.
package batch
