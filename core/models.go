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

package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Record is a single row read from the record source.
// RowID is the source ordering key and is what the checkpoint tracks.
type Record struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	RowID int64  `json:"row_id"`
}

// Item is one structured element extracted from a record's title.
// Items are decoded JSON values and are usually objects.
type Item = any

// ProcessedResult is the per-record outcome kept in the batch report.
// It never carries the extracted content; see ResultDocument for the sink payload.
type ProcessedResult struct {
	RecordID     string    `json:"record_id"`
	Title        string    `json:"title"`
	RowID        int64     `json:"row_id"`
	Success      bool      `json:"success"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Error        string    `json:"error,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
}

// ResultDocument is the payload written to the result sink for one record.
// Successful documents carry the extracted items in Content.
type ResultDocument struct {
	RunID        string    `json:"run_id,omitempty"`
	RecordID     string    `json:"record_id"`
	Title        string    `json:"title"`
	RowID        int64     `json:"row_id"`
	Success      bool      `json:"success"`
	Content      []Item    `json:"ai_result,omitzero"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	Error        string    `json:"error,omitempty"`
	ProcessedAt  time.Time `json:"processed_at"`
	InsertedAt   time.Time `json:"inserted_at,omitzero"`
}

// DocumentID returns the deterministic identifier of the document within a run.
func (d *ResultDocument) DocumentID() ID {
	return IDFromContent(d.RunID + "|" + d.RecordID + "|" + formatInt(d.RowID))
}

// Result returns the reduced form of the document used in batch reports.
func (d *ResultDocument) Result() ProcessedResult {
	return ProcessedResult{
		RecordID:     d.RecordID,
		Title:        d.Title,
		RowID:        d.RowID,
		Success:      d.Success,
		InputTokens:  d.InputTokens,
		OutputTokens: d.OutputTokens,
		Error:        d.Error,
		ProcessedAt:  d.ProcessedAt,
	}
}

// BatchResult aggregates the outcomes of one batch.
// Results are in the batch's input order.
type BatchResult struct {
	BatchNumber  int               `json:"batch_number"`
	TotalRecords int               `json:"total_records"`
	Successful   int               `json:"successful"`
	Failed       int               `json:"failed"`
	Results      []ProcessedResult `json:"results"`
	Error        string            `json:"error,omitempty"`
}

// NewBatchResult counts the outcomes in results and builds a BatchResult.
func NewBatchResult(batchNumber int, results []ProcessedResult) BatchResult {
	br := BatchResult{
		BatchNumber:  batchNumber,
		TotalRecords: len(results),
		Results:      results,
	}
	for _, r := range results {
		if r.Success {
			br.Successful++
		} else {
			br.Failed++
		}
	}
	return br
}

// FailedBatchResult builds the degraded result for a batch whose fan-out faulted.
func FailedBatchResult(batchNumber, totalRecords int, err error) BatchResult {
	br := BatchResult{
		BatchNumber:  batchNumber,
		TotalRecords: totalRecords,
		Failed:       totalRecords,
		Results:      []ProcessedResult{},
	}
	if err != nil {
		br.Error = err.Error()
	}
	return br
}

// LastRowID returns the row id of the last result in batch order.
// ok is false when the batch has no results.
func (b *BatchResult) LastRowID() (rowID int64, ok bool) {
	if len(b.Results) == 0 {
		return 0, false
	}
	return b.Results[len(b.Results)-1].RowID, true
}

// ProcessingModeSequential is the only processing mode: batches run one at a time.
const ProcessingModeSequential = "sequential"

// RunSummary describes a complete run.
type RunSummary struct {
	RunID                 string        `json:"run_id,omitempty"`
	Success               bool          `json:"success"`
	Message               string        `json:"message,omitempty"`
	Error                 string        `json:"error,omitempty"`
	TotalRecordsProcessed int           `json:"total_records_processed"`
	TotalSuccessful       int           `json:"total_successful"`
	TotalFailed           int           `json:"total_failed"`
	BatchesProcessed      int           `json:"batches_processed"`
	ProcessingMode        string        `json:"processing_mode,omitempty"`
	BatchDelay            time.Duration `json:"-"`
	BatchDelaySeconds     float64       `json:"batch_delay"`
	StartTime             time.Time     `json:"start_time"`
	EndTime               time.Time     `json:"end_time"`
	DurationSeconds       float64       `json:"duration_seconds"`
	BatchResults          []BatchResult `json:"batch_results,omitempty"`
	JSONFile              string        `json:"json_file,omitempty"`
}

// Tally fills the aggregate counters from BatchResults.
func (s *RunSummary) Tally() {
	s.TotalSuccessful = 0
	s.TotalFailed = 0
	for _, b := range s.BatchResults {
		s.TotalSuccessful += b.Successful
		s.TotalFailed += b.Failed
	}
}

// Finish stamps the end time and duration.
func (s *RunSummary) Finish(end time.Time) {
	s.EndTime = end
	s.DurationSeconds = end.Sub(s.StartTime).Seconds()
	s.BatchDelaySeconds = s.BatchDelay.Seconds()
}

// Checkpoint is the persisted resumption marker for a named record stream.
type Checkpoint struct {
	Name      string
	LastRowID int64
	UpdatedAt time.Time
}
