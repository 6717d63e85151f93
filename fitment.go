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

// Package fitment wires configuration, storage, extraction providers and the
// batch scheduler into a single Service.
package fitment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/fitment/ai"
	"github.com/poiesic/fitment/ai/registry"
	"github.com/poiesic/fitment/batch"
	"github.com/poiesic/fitment/config"
	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/report"
	"github.com/poiesic/fitment/storage"
	"github.com/poiesic/fitment/storage/badger"
	"github.com/poiesic/fitment/storage/file"
	"github.com/poiesic/fitment/storage/postgres"
	"github.com/poiesic/fitment/storage/sqlsource"
)

// ErrResultsUnavailable is returned by Results when the sink cannot be read back.
var ErrResultsUnavailable = errors.New("result listing requires the badger sink")

// Service owns the long-lived collaborators of fitment runs: the result
// sink, both checkpoint stores and the extraction provider. Record sources
// are opened per run and closed by the scheduler.
type Service struct {
	cfg       *config.Config
	sink      storage.ResultSink
	results   *badger.ResultSink
	pending   storage.CheckpointStore
	replay    storage.CheckpointStore
	extractor ai.Extractor
	logger    *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	extractor ai.Extractor
	logger    *slog.Logger
}

// WithExtractor uses extractor instead of building one from the provider
// configuration. The service closes it on Close.
func WithExtractor(extractor ai.Extractor) ServiceOption {
	return func(o *serviceOptions) {
		o.extractor = extractor
	}
}

// WithLogger sets the logger used by the service and its log observer.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		o.logger = logger
	}
}

// NewService opens the sink and checkpoint stores named by cfg and creates
// the extraction provider.
func NewService(ctx context.Context, cfg *config.Config, opts ...ServiceOption) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	s := &Service{
		cfg:    cfg,
		logger: options.logger.With("component", "fitment"),
	}

	switch cfg.Sink {
	case config.SinkPostgres:
		sink, err := postgres.Open(ctx, cfg.SinkTarget, cfg.SinkTable)
		if err != nil {
			return nil, fmt.Errorf("open postgres sink: %w", err)
		}
		s.sink = sink
	default:
		sink, err := badger.OpenResultSink(cfg.SinkTarget)
		if err != nil {
			return nil, fmt.Errorf("open badger sink: %w", err)
		}
		s.sink = sink
		s.results = sink
	}

	if err := s.openCheckpoints(); err != nil {
		s.sink.Close()
		return nil, err
	}

	s.extractor = options.extractor
	if s.extractor == nil {
		extractor, err := registry.New(cfg.AI())
		if err != nil {
			s.sink.Close()
			return nil, err
		}
		s.extractor = extractor
	}

	return s, nil
}

func (s *Service) openCheckpoints() error {
	if s.cfg.CheckpointStore == config.CheckpointBadger {
		pending, err := badger.NewCheckpointStore(s.results.Backend(), badger.PendingCheckpoint)
		if err != nil {
			return err
		}
		replay, err := badger.NewCheckpointStore(s.results.Backend(), badger.ReplayCheckpoint)
		if err != nil {
			return err
		}
		s.pending, s.replay = pending, replay
		return nil
	}
	s.pending = file.NewCheckpointStore(s.cfg.CheckpointFile)
	s.replay = file.NewCheckpointStore(s.cfg.ReplayCheckpointFile)
	return nil
}

// Close releases the provider and the sink.
func (s *Service) Close() error {
	return errors.Join(s.extractor.Close(), s.sink.Close())
}

// RunOptions are the per-run settings supplied by the caller.
type RunOptions struct {
	Params batch.Params
	Retry  batch.RetryPolicy

	// StrictItems drops extracted items that do not match the fitment item schema.
	StrictItems bool

	// Observer receives scheduler events in addition to the log observer.
	Observer batch.Observer

	// SaveReport writes the summary of a successful run to ReportDir.
	SaveReport bool
	ReportDir  string
}

// Run processes pending records after the pending checkpoint.
// The error is non-nil only when the run could not be set up.
func (s *Service) Run(ctx context.Context, opts RunOptions) (core.RunSummary, error) {
	return s.run(ctx, opts, s.pending, func(db *sql.DB) (storage.RecordSource, error) {
		return sqlsource.NewPendingSource(db, s.cfg.SourceDriver, s.cfg.SourceTable, s.pending)
	})
}

// Replay reprocesses the records listed in the failure-replay file at path,
// skipping the first start entries. Progress is tracked in the replay
// checkpoint so the pending checkpoint never moves backwards.
func (s *Service) Replay(ctx context.Context, path string, start int, opts RunOptions) (core.RunSummary, error) {
	return s.run(ctx, opts, s.replay, func(db *sql.DB) (storage.RecordSource, error) {
		return sqlsource.NewReplaySource(db, s.cfg.SourceDriver, s.cfg.SourceTable, path, start)
	})
}

// ResumeReplay reprocesses the records listed in the failure-replay file at
// path whose row id is after the replay checkpoint, in ascending row id order.
func (s *Service) ResumeReplay(ctx context.Context, path string, opts RunOptions) (core.RunSummary, error) {
	return s.run(ctx, opts, s.replay, func(db *sql.DB) (storage.RecordSource, error) {
		return sqlsource.NewResumedReplaySource(db, s.cfg.SourceDriver, s.cfg.SourceTable, path, s.replay)
	})
}

func (s *Service) run(
	ctx context.Context,
	opts RunOptions,
	checkpoints storage.CheckpointStore,
	newSource func(*sql.DB) (storage.RecordSource, error),
) (core.RunSummary, error) {
	db, err := sqlsource.Open(ctx, s.cfg.SourceDriver, s.cfg.SourceDSN)
	if err != nil {
		return core.RunSummary{}, fmt.Errorf("open record source: %w", err)
	}
	source, err := newSource(db)
	if err != nil {
		db.Close()
		return core.RunSummary{}, fmt.Errorf("create record source: %w", err)
	}

	schedOpts := []batch.Option{
		batch.WithObserver(batch.Observers(batch.NewLogObserver(s.logger), opts.Observer)),
		batch.WithRetry(opts.Retry),
	}
	if opts.StrictItems {
		filter, err := ai.NewFitmentFilter()
		if err != nil {
			source.Close()
			return core.RunSummary{}, err
		}
		schedOpts = append(schedOpts, batch.WithItemFilter(filter))
	}

	scheduler, err := batch.NewScheduler(source, s.sink, checkpoints, s.extractor, schedOpts...)
	if err != nil {
		source.Close()
		return core.RunSummary{}, err
	}

	summary := scheduler.Run(ctx, opts.Params)

	if opts.SaveReport && summary.Success {
		if path, err := report.Save(&summary, opts.ReportDir); err != nil {
			s.logger.Error("failed to save run report", "err", err)
		} else {
			s.logger.Info("saved run report", "file", path)
		}
	}
	return summary, nil
}

// Checkpoint returns the pending checkpoint, or the replay checkpoint when replay is set.
func (s *Service) Checkpoint(ctx context.Context, replay bool) (int64, error) {
	return s.checkpointStore(replay).Read(ctx)
}

// SetCheckpoint overwrites the pending or replay checkpoint.
func (s *Service) SetCheckpoint(ctx context.Context, replay bool, rowID int64) error {
	if rowID < 0 {
		return fmt.Errorf("%w: negative row id %d", storage.ErrInvalidCheckpoint, rowID)
	}
	return s.checkpointStore(replay).Write(ctx, rowID)
}

func (s *Service) checkpointStore(replay bool) storage.CheckpointStore {
	if replay {
		return s.replay
	}
	return s.pending
}

// Results lists the documents a run wrote to the badger sink, in row order.
func (s *Service) Results(ctx context.Context, runID string) ([]*core.ResultDocument, error) {
	if s.results == nil {
		return nil, ErrResultsUnavailable
	}
	return s.results.List(ctx, runID)
}
