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

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/fitment/ai"
	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/storage"
)

// MessageNoRecords is the summary message of a run that found nothing to do.
const MessageNoRecords = "no records found to process"

// Params are the arguments of one run.
type Params struct {
	// Limit caps the number of records fetched.
	Limit int

	// BatchSize is the number of records processed concurrently.
	BatchSize int

	// Delay is the pause between consecutive batches.
	Delay time.Duration
}

// Validate checks the run parameters.
func (p Params) Validate() error {
	if p.Limit < 0 {
		return ErrInvalidLimit
	}
	if p.BatchSize < 1 {
		return ErrInvalidBatchSize
	}
	if p.Delay < 0 {
		return ErrInvalidBatchDelay
	}
	return nil
}

// runner executes the tasks of one batch.
type runner interface {
	Submit(task func()) error
	Release()
}

func newAntsRunner(size int) (runner, error) {
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// Scheduler fetches records, processes them in sequential batches with
// concurrent fan-out inside each batch, writes one result document per
// record and advances the checkpoint after every batch.
type Scheduler struct {
	source      storage.RecordSource
	sink        storage.ResultSink
	checkpoints storage.CheckpointStore
	extractor   ai.Extractor
	model       string
	filter      *ai.SchemaFilter
	retry       RetryPolicy
	observer    Observer
	runID       string
	newRunner   func(size int) (runner, error)
	now         func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler) error

// WithModel sets the model passed to the extractor.
// Default is empty, which selects the extractor's configured model.
func WithModel(model string) Option {
	return func(s *Scheduler) error {
		s.model = model
		return nil
	}
}

// WithItemFilter drops extracted items that fail the filter's schema before
// the document is written.
func WithItemFilter(filter *ai.SchemaFilter) Option {
	return func(s *Scheduler) error {
		s.filter = filter
		return nil
	}
}

// WithRetry enables retries with exponential backoff for failed provider calls.
// Default is a single attempt.
func WithRetry(policy RetryPolicy) Option {
	return func(s *Scheduler) error {
		if policy.MaxAttempts < 0 {
			return ErrInvalidMaxAttempts
		}
		if policy.BaseDelay < 0 {
			return fmt.Errorf("retry base delay cannot be negative: %v", policy.BaseDelay)
		}
		s.retry = policy
		return nil
	}
}

// WithObserver sets the event observer.
// Default is a LogObserver on slog.Default().
func WithObserver(observer Observer) Option {
	return func(s *Scheduler) error {
		if observer == nil {
			observer = nopObserver{}
		}
		s.observer = observer
		return nil
	}
}

// WithRunID sets the run identifier stamped on documents and the summary.
// Default is a random UUID.
func WithRunID(runID string) Option {
	return func(s *Scheduler) error {
		if runID == "" {
			return fmt.Errorf("run id cannot be empty")
		}
		s.runID = runID
		return nil
	}
}

// NewScheduler creates a scheduler. The scheduler closes source when a run
// ends; sink, checkpoints and extractor stay owned by the caller.
func NewScheduler(
	source storage.RecordSource,
	sink storage.ResultSink,
	checkpoints storage.CheckpointStore,
	extractor ai.Extractor,
	opts ...Option,
) (*Scheduler, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if sink == nil {
		return nil, ErrSinkRequired
	}
	if checkpoints == nil {
		return nil, ErrCheckpointStoreRequired
	}
	if extractor == nil {
		return nil, ErrExtractorRequired
	}

	s := &Scheduler{
		source:      source,
		sink:        sink,
		checkpoints: checkpoints,
		extractor:   extractor,
		retry:       RetryPolicy{MaxAttempts: 1},
		observer:    NewLogObserver(nil),
		runID:       uuid.New().String(),
		newRunner:   newAntsRunner,
		now:         func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RunID returns the identifier of the scheduler's run.
func (s *Scheduler) RunID() string {
	return s.runID
}

// Partition splits records into contiguous batches of at most size records,
// preserving order. The last batch may be smaller.
func Partition(records []core.Record, size int) [][]core.Record {
	if size < 1 || len(records) == 0 {
		return nil
	}
	batches := make([][]core.Record, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		batches = append(batches, records[start:end:end])
	}
	return batches
}

// Run executes one run and always returns a summary. The record source is
// closed before Run returns.
//
// Batches run strictly one after another with params.Delay between them.
// Cancelling ctx stops the run at the next batch boundary or during the
// pause; results collected so far are discarded and the summary reports
// failure.
func (s *Scheduler) Run(ctx context.Context, params Params) (summary core.RunSummary) {
	summary = core.RunSummary{
		RunID:          s.runID,
		ProcessingMode: core.ProcessingModeSequential,
		BatchDelay:     params.Delay,
		StartTime:      s.now(),
	}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("unexpected fault: %v", r)
			summary.Success = false
			summary.Error = err.Error()
			summary.BatchResults = nil
			s.emit(Event{Kind: EventRunFaulted, Err: err})
		}
		if err := s.source.Close(); err != nil {
			s.emit(Event{Kind: EventSourceCloseFailed, Err: err})
		}
		summary.Finish(s.now())
		s.emit(Event{Kind: EventRunFinished, Summary: &summary})
	}()

	if err := params.Validate(); err != nil {
		summary.Message = "invalid run parameters"
		summary.Error = err.Error()
		return summary
	}

	s.emit(Event{Kind: EventRunStarted, Count: params.Limit, Delay: params.Delay})

	if err := ctx.Err(); err != nil {
		s.cancel(&summary, err)
		return summary
	}

	records, err := s.source.Fetch(ctx, params.Limit)
	if err != nil {
		s.emit(Event{Kind: EventFetchFailed, Err: err})
		summary.Message = MessageNoRecords
		summary.Error = err.Error()
		return summary
	}
	if len(records) == 0 {
		summary.Message = MessageNoRecords
		return summary
	}

	batches := Partition(records, params.BatchSize)
	s.emit(Event{Kind: EventRecordsFetched, Count: len(records), Batches: len(batches)})

	results := make([]core.BatchResult, 0, len(batches))
	for i, batch := range batches {
		n := i + 1
		if err := ctx.Err(); err != nil {
			s.cancel(&summary, err)
			return summary
		}

		result := s.processBatch(ctx, n, len(batches), batch)
		if err := ctx.Err(); err != nil {
			s.cancel(&summary, err)
			return summary
		}
		results = append(results, result)
		s.advanceCheckpoint(ctx, n, &result)

		if n < len(batches) {
			s.emit(Event{Kind: EventPausing, Batch: n, Delay: params.Delay})
			if err := sleep(ctx, params.Delay); err != nil {
				s.cancel(&summary, err)
				return summary
			}
		}
	}

	summary.Success = true
	summary.TotalRecordsProcessed = len(records)
	summary.BatchesProcessed = len(batches)
	summary.BatchResults = results
	summary.Tally()
	return summary
}

func (s *Scheduler) cancel(summary *core.RunSummary, cause error) {
	err := fmt.Errorf("%w: %w", ErrRunCancelled, cause)
	summary.Success = false
	summary.Error = err.Error()
	summary.BatchResults = nil
	s.emit(Event{Kind: EventRunCancelled, Err: err})
}

// advanceCheckpoint writes the row id of the last result in batch order.
// Degraded batches have no results and leave the checkpoint untouched.
func (s *Scheduler) advanceCheckpoint(ctx context.Context, n int, result *core.BatchResult) {
	rowID, ok := result.LastRowID()
	if !ok {
		return
	}
	if err := s.checkpoints.Write(ctx, rowID); err != nil {
		s.emit(Event{Kind: EventCheckpointFailed, Batch: n, RowID: rowID, Err: err})
		return
	}
	s.emit(Event{Kind: EventCheckpointAdvanced, Batch: n, RowID: rowID})
}

// processBatch fans the records of one batch out to a pool sized to the
// batch and waits for every record before building the result.
func (s *Scheduler) processBatch(ctx context.Context, n, batches int, records []core.Record) core.BatchResult {
	s.emit(Event{Kind: EventBatchStarted, Batch: n, Batches: batches, Count: len(records)})

	var result core.BatchResult
	s.runBatch(ctx, n, records, &result)
	return result
}

func (s *Scheduler) runBatch(ctx context.Context, n int, records []core.Record, result *core.BatchResult) {
	defer func() {
		if r := recover(); r != nil {
			*result = s.faulted(n, len(records), fmt.Errorf("batch fault: %v", r))
		}
	}()

	pool, err := s.newRunner(len(records))
	if err != nil {
		*result = s.faulted(n, len(records), fmt.Errorf("create worker pool: %w", err))
		return
	}
	defer pool.Release()

	results := make([]core.ProcessedResult, len(records))
	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			results[i] = s.processRecord(ctx, n, &records[i])
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			*result = s.faulted(n, len(records), fmt.Errorf("submit record %s: %w", records[i].ID, err))
			return
		}
	}
	wg.Wait()

	*result = core.NewBatchResult(n, results)
	s.emit(Event{Kind: EventBatchFinished, Batch: n, Count: len(records), BatchResult: result})
}

func (s *Scheduler) faulted(n, total int, err error) core.BatchResult {
	s.emit(Event{Kind: EventBatchFaulted, Batch: n, Count: total, Err: err})
	return core.FailedBatchResult(n, total, err)
}

// processRecord runs the pipeline for one record. A panic anywhere in the
// pipeline becomes a failed result for this record only.
func (s *Scheduler) processRecord(ctx context.Context, n int, record *core.Record) core.ProcessedResult {
	var result core.ProcessedResult
	s.runRecord(ctx, n, record, &result)
	return result
}

// runRecord fills result through a pointer so that the recovered failure
// survives the unwinding.
func (s *Scheduler) runRecord(ctx context.Context, n int, record *core.Record, result *core.ProcessedResult) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%v", r)
			*result = core.ProcessedResult{
				RecordID:    record.ID,
				Title:       record.Title,
				RowID:       record.RowID,
				Error:       "processing exception: " + err.Error(),
				ProcessedAt: s.now(),
			}
			s.emit(Event{Kind: EventRecordPanicked, Batch: n, Record: record, Err: err})
			s.emit(Event{Kind: EventRecordFinished, Batch: n, Record: record, Result: result})
		}
	}()

	doc := s.extract(ctx, n, record)
	if err := s.sink.Insert(ctx, doc); err != nil {
		s.emit(Event{Kind: EventSinkFailed, Batch: n, Record: record, Err: err})
	}

	*result = doc.Result()
	s.emit(Event{Kind: EventRecordFinished, Batch: n, Record: record, Result: result})
}

// extract calls the provider and builds the sink document. Provider
// failures produce a failed document; they are never returned as errors.
func (s *Scheduler) extract(ctx context.Context, n int, record *core.Record) *core.ResultDocument {
	doc := &core.ResultDocument{
		RunID:    s.runID,
		RecordID: record.ID,
		Title:    record.Title,
		RowID:    record.RowID,
	}

	if err := core.ValidateRecord(record); err != nil {
		doc.Error = err.Error()
		doc.ProcessedAt = s.now()
		return doc
	}

	var extraction *ai.Extraction
	err := RetryWithBackoff(ctx, func() error {
		var err error
		extraction, err = s.extractor.Extract(ctx, record.Title, s.model)
		if err == nil && extraction == nil {
			err = fmt.Errorf("%w: no extraction returned", ai.ErrMalformedResponse)
		}
		return err
	}, s.retry.attempts(), s.retry.BaseDelay, func(attempt int, err error) {
		s.emit(Event{
			Kind:    EventRecordRetry,
			Batch:   n,
			Record:  record,
			Attempt: attempt,
			Delay:   s.retry.BaseDelay << (attempt - 1),
			Err:     err,
		})
	})
	doc.ProcessedAt = s.now()

	if err != nil {
		doc.Error = "extraction failed: " + err.Error()
		return doc
	}

	items := extraction.Items
	if items == nil {
		items = []any{}
	}
	if s.filter != nil {
		kept, dropped := s.filter.Filter(items)
		if dropped > 0 {
			s.emit(Event{Kind: EventItemsDropped, Batch: n, Record: record, Count: dropped})
		}
		items = kept
	}

	doc.Success = true
	doc.Content = items
	doc.InputTokens = extraction.InputTokens
	doc.OutputTokens = extraction.OutputTokens
	return doc
}

func (s *Scheduler) emit(e Event) {
	e.RunID = s.runID
	if e.Time.IsZero() {
		e.Time = s.now()
	}
	s.observer.Observe(e)
}
