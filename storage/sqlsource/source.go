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

package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/storage"
)

// selector decides which row ids, or which row id range, a fetch reads.
type selector interface {
	// query returns the SQL text and its arguments for up to limit rows.
	// A nil query with a nil error means nothing is selected.
	query(ctx context.Context, s *Source, limit int) (string, []any, error)
	name() string
}

// Source implements storage.RecordSource on a database/sql table.
type Source struct {
	db       *sql.DB
	driver   string
	table    string
	selector selector
	logger   *slog.Logger
}

var _ storage.RecordSource = (*Source)(nil)

func newSource(db *sql.DB, driver, table string, sel selector) (*Source, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}
	if err := checkTable(table); err != nil {
		return nil, err
	}
	return &Source{
		db:       db,
		driver:   driver,
		table:    table,
		selector: sel,
		logger:   slog.Default().With("component", "sqlsource", "policy", sel.name(), "table", table),
	}, nil
}

// NewPendingSource creates a source that selects rows after the checkpoint.
// The checkpoint is read on every Fetch. Closing the source closes db.
func NewPendingSource(db *sql.DB, driver, table string, checkpoints storage.CheckpointStore) (storage.RecordSource, error) {
	return newSource(db, driver, table, &pendingSelector{checkpoints: checkpoints})
}

// NewReplaySource creates a source that selects the rows listed in the
// failure-replay file at path, skipping the first start entries. The file is
// read on every Fetch. Closing the source closes db.
func NewReplaySource(db *sql.DB, driver, table, path string, start int) (storage.RecordSource, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: negative start %d", storage.ErrInvalidQuery, start)
	}
	return newSource(db, driver, table, &replaySelector{path: path, start: start})
}

// NewResumedReplaySource creates a source that selects the rows listed in
// the failure-replay file at path whose row id is after the replay
// checkpoint. The listed ids are taken in ascending order, so a run can be
// resumed from the last checkpoint without knowing an entry offset.
func NewResumedReplaySource(db *sql.DB, driver, table, path string, checkpoints storage.CheckpointStore) (storage.RecordSource, error) {
	if checkpoints == nil {
		return nil, fmt.Errorf("%w: nil checkpoint store", storage.ErrInvalidQuery)
	}
	return newSource(db, driver, table, &replaySelector{path: path, checkpoints: checkpoints})
}

// Fetch returns up to limit records in ascending row id order.
func (s *Source) Fetch(ctx context.Context, limit int) ([]core.Record, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative limit %d", storage.ErrInvalidQuery, limit)
	}
	if limit == 0 {
		return []core.Record{}, nil
	}

	query, args, err := s.selector.query(ctx, s, limit)
	if err != nil {
		s.logger.Error("failed to select records", "err", err)
		return nil, err
	}
	if query == "" {
		return []core.Record{}, nil
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to fetch records", "err", err)
		return nil, err
	}
	defer rows.Close()

	records := make([]core.Record, 0, limit)
	for rows.Next() {
		var record core.Record
		if err := rows.Scan(&record.ID, &record.Title, &record.RowID); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("fetched records", "count", len(records))
	return records, nil
}

// Close closes the database.
func (s *Source) Close() error {
	s.logger.Debug("closing record source")
	return s.db.Close()
}

func (s *Source) columns() string {
	return "SELECT id, title, row_id FROM " + s.table
}

type pendingSelector struct {
	checkpoints storage.CheckpointStore
}

func (p *pendingSelector) name() string { return "pending" }

func (p *pendingSelector) query(ctx context.Context, s *Source, limit int) (string, []any, error) {
	lastRowID, err := p.checkpoints.Read(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("read checkpoint: %w", err)
	}
	s.logger.Debug("selecting records after checkpoint", "last_row_id", lastRowID)

	query := fmt.Sprintf("%s WHERE row_id > %s ORDER BY row_id ASC LIMIT %s",
		s.columns(), placeholder(s.driver, 1), placeholder(s.driver, 2))
	return query, []any{lastRowID, limit}, nil
}

type replaySelector struct {
	path  string
	start int

	// When set, entries at or before the checkpoint are skipped instead of
	// the first start entries.
	checkpoints storage.CheckpointStore
}

func (r *replaySelector) name() string { return "replay" }

func (r *replaySelector) query(ctx context.Context, s *Source, limit int) (string, []any, error) {
	ids, err := ReadReplayFile(r.path)
	if err != nil {
		return "", nil, err
	}

	if r.checkpoints != nil {
		lastRowID, err := r.checkpoints.Read(ctx)
		if err != nil {
			return "", nil, fmt.Errorf("read checkpoint: %w", err)
		}
		ids = window(after(ids, lastRowID), 0, limit)
		s.logger.Debug("resuming replayed records", "last_row_id", lastRowID, "count", len(ids))
	} else {
		ids = window(ids, r.start, limit)
		s.logger.Debug("selecting replayed records", "start", r.start, "count", len(ids))
	}
	if len(ids) == 0 {
		return "", nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf("%s WHERE row_id IN (%s) ORDER BY row_id ASC",
		s.columns(), placeholders(s.driver, 1, len(ids)))
	return query, args, nil
}
