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
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/fitment/core"
)

// EventKind identifies what happened during a run.
type EventKind int

const (
	EventRunStarted EventKind = iota
	EventRecordsFetched
	EventFetchFailed
	EventBatchStarted
	EventRecordRetry
	EventRecordFinished
	EventRecordPanicked
	EventItemsDropped
	EventSinkFailed
	EventBatchFinished
	EventBatchFaulted
	EventCheckpointAdvanced
	EventCheckpointFailed
	EventPausing
	EventRunCancelled
	EventRunFaulted
	EventSourceCloseFailed
	EventRunFinished
)

var eventNames = [...]string{
	EventRunStarted:         "run_started",
	EventRecordsFetched:     "records_fetched",
	EventFetchFailed:        "fetch_failed",
	EventBatchStarted:       "batch_started",
	EventRecordRetry:        "record_retry",
	EventRecordFinished:     "record_finished",
	EventRecordPanicked:     "record_panicked",
	EventItemsDropped:       "items_dropped",
	EventSinkFailed:         "sink_failed",
	EventBatchFinished:      "batch_finished",
	EventBatchFaulted:       "batch_faulted",
	EventCheckpointAdvanced: "checkpoint_advanced",
	EventCheckpointFailed:   "checkpoint_failed",
	EventPausing:            "pausing",
	EventRunCancelled:       "run_cancelled",
	EventRunFaulted:         "run_faulted",
	EventSourceCloseFailed:  "source_close_failed",
	EventRunFinished:        "run_finished",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[k]
}

// Event is a structured notification from the scheduler. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind  EventKind
	RunID string
	Time  time.Time

	// Batch is the 1-based batch number; Batches the number of batches in the run.
	Batch   int
	Batches int

	// Count is the number of records (fetched, in the batch) or dropped items.
	Count int

	Record      *core.Record
	Result      *core.ProcessedResult
	BatchResult *core.BatchResult

	// RowID is the checkpoint value for checkpoint events.
	RowID int64

	// Attempt is the failed attempt number for retry events.
	Attempt int

	Delay   time.Duration
	Err     error
	Summary *core.RunSummary
}

// Observer receives scheduler events. Record-level events arrive from the
// batch's worker goroutines, so implementations must be safe for concurrent use.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

type multiObserver []Observer

func (m multiObserver) Observe(e Event) {
	for _, o := range m {
		o.Observe(e)
	}
}

// Observers fans events out to every non-nil observer in order.
func Observers(observers ...Observer) Observer {
	out := make(multiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

type nopObserver struct{}

func (nopObserver) Observe(Event) {}

// LogObserver renders events through a slog logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) *LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogObserver{logger: logger.With("component", "batch")}
}

func (o *LogObserver) Observe(e Event) {
	l := o.logger
	if e.RunID != "" {
		l = l.With("run_id", e.RunID)
	}

	switch e.Kind {
	case EventRunStarted:
		l.Info("starting sequential batch processing", "delay", e.Delay)
	case EventRecordsFetched:
		l.Info("fetched records", "count", e.Count, "batches", e.Batches)
	case EventFetchFailed:
		l.Error("failed to fetch records", "err", e.Err)
	case EventBatchStarted:
		l.Info("processing batch", "batch", e.Batch, "batches", e.Batches, "records", e.Count)
	case EventRecordRetry:
		l.Warn("retrying record", "batch", e.Batch, "record_id", e.Record.ID, "attempt", e.Attempt, "delay", e.Delay, "err", e.Err)
	case EventRecordFinished:
		if e.Result.Success {
			l.Debug("processed record", "batch", e.Batch, "record_id", e.Result.RecordID, "row_id", e.Result.RowID,
				"input_tokens", e.Result.InputTokens, "output_tokens", e.Result.OutputTokens)
		} else {
			l.Warn("record failed", "batch", e.Batch, "record_id", e.Result.RecordID, "row_id", e.Result.RowID, "err", e.Result.Error)
		}
	case EventRecordPanicked:
		l.Error("exception processing record", "batch", e.Batch, "record_id", e.Record.ID, "err", e.Err)
	case EventItemsDropped:
		l.Warn("dropped items failing schema", "batch", e.Batch, "record_id", e.Record.ID, "dropped", e.Count)
	case EventSinkFailed:
		l.Error("failed to write result document", "batch", e.Batch, "record_id", e.Record.ID, "err", e.Err)
	case EventBatchFinished:
		l.Info("batch completed", "batch", e.Batch, "successful", e.BatchResult.Successful, "failed", e.BatchResult.Failed)
	case EventBatchFaulted:
		l.Error("batch processing error", "batch", e.Batch, "records", e.Count, "err", e.Err)
	case EventCheckpointAdvanced:
		l.Info("checkpoint advanced", "batch", e.Batch, "row_id", e.RowID)
	case EventCheckpointFailed:
		l.Error("failed to write checkpoint", "batch", e.Batch, "row_id", e.RowID, "err", e.Err)
	case EventPausing:
		l.Info("waiting before next batch", "delay", e.Delay)
	case EventRunCancelled:
		l.Warn("batch processing was cancelled", "err", e.Err)
	case EventRunFaulted:
		l.Error("batch processing failed", "err", e.Err)
	case EventSourceCloseFailed:
		l.Warn("failed to close record source", "err", e.Err)
	case EventRunFinished:
		s := e.Summary
		if s.Success {
			l.Info("batch processing completed",
				"successful", s.TotalSuccessful,
				"failed", s.TotalFailed,
				"batches", s.BatchesProcessed,
				"duration", time.Duration(s.DurationSeconds*float64(time.Second)))
		} else {
			l.Warn("batch processing ended without success", "message", s.Message, "err", s.Error)
		}
	}
}

// ProgressObserver drives a ProgressTracker from scheduler events.
type ProgressObserver struct {
	tracker *ProgressTracker
}

// NewProgressObserver writes a progress line to w every reportInterval records.
func NewProgressObserver(w io.Writer, reportInterval int) *ProgressObserver {
	return &ProgressObserver{tracker: NewProgressTracker(w, reportInterval)}
}

func (o *ProgressObserver) Observe(e Event) {
	switch e.Kind {
	case EventRecordsFetched:
		o.tracker.Start(e.Count, e.Batches)
	case EventBatchStarted:
		o.tracker.BeginBatch(e.Batch)
	case EventRecordFinished:
		o.tracker.Record(e.Result.Success)
	case EventBatchFaulted:
		for range e.Count {
			o.tracker.Record(false)
		}
	case EventRunFinished:
		o.tracker.Finish()
	}
}
