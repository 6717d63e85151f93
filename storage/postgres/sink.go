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

// Package postgres implements storage.ResultSink on PostgreSQL through a pgx
// connection pool. Documents are stored one row per record with the
// extracted items in a JSONB column.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/storage"
)

// DefaultTable is the table documents are written to.
const DefaultTable = "fitment_results"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// execer is the subset of *pgxpool.Pool the sink uses.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ResultSink implements storage.ResultSink on a PostgreSQL table.
type ResultSink struct {
	db     execer
	pool   *pgxpool.Pool
	table  string
	logger *slog.Logger
}

var _ storage.ResultSink = (*ResultSink)(nil)

func newResultSink(db execer, table string) (*ResultSink, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("%w: invalid table name %q", storage.ErrInvalidQuery, table)
	}
	return &ResultSink{
		db:     db,
		table:  table,
		logger: slog.Default().With("component", "postgres-sink", "table", table),
	}, nil
}

// Open connects a pool to dsn, creates the table if needed and returns a
// sink that closes the pool when it is closed.
func Open(ctx context.Context, dsn, table string) (*ResultSink, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "fitment"

	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(dialCtx); err != nil {
		pool.Close()
		return nil, err
	}

	sink, err := newResultSink(pool, table)
	if err != nil {
		pool.Close()
		return nil, err
	}
	sink.pool = pool

	if err := sink.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	sink.logger.Info("connected to result database")
	return sink, nil
}

// EnsureSchema creates the results table if it does not exist.
func (s *ResultSink) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, s.createTableSQL())
	return err
}

// Insert writes doc, stamping InsertedAt. A document with the same id
// replaces the previous row.
func (s *ResultSink) Insert(ctx context.Context, doc *core.ResultDocument) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", storage.ErrInvalidQuery)
	}
	doc.InsertedAt = time.Now().UTC()

	var content []byte
	if doc.Success {
		var err error
		content, err = json.Marshal(doc.Content)
		if err != nil {
			return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
		}
	}

	_, err := s.db.Exec(ctx, s.insertSQL(),
		int64(doc.DocumentID()),
		doc.RunID,
		doc.RecordID,
		doc.Title,
		doc.RowID,
		doc.Success,
		content,
		doc.InputTokens,
		doc.OutputTokens,
		doc.Error,
		doc.ProcessedAt,
		doc.InsertedAt,
	)
	return err
}

// Close closes the pool if the sink opened it.
func (s *ResultSink) Close() error {
	if s.pool != nil {
		s.logger.Debug("closing result database")
		s.pool.Close()
	}
	return nil
}

func (s *ResultSink) createTableSQL() string {
	return `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	doc_id        BIGINT PRIMARY KEY,
	run_id        TEXT NOT NULL,
	record_id     TEXT NOT NULL,
	title         TEXT NOT NULL,
	row_id        BIGINT NOT NULL,
	success       BOOLEAN NOT NULL,
	ai_result     JSONB,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	error         TEXT NOT NULL DEFAULT '',
	processed_at  TIMESTAMPTZ NOT NULL,
	inserted_at   TIMESTAMPTZ NOT NULL
)`
}

func (s *ResultSink) insertSQL() string {
	return `INSERT INTO ` + s.table + ` (doc_id, run_id, record_id, title, row_id, success, ai_result,
	input_tokens, output_tokens, error, processed_at, inserted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (doc_id) DO UPDATE SET
	success = EXCLUDED.success,
	ai_result = EXCLUDED.ai_result,
	input_tokens = EXCLUDED.input_tokens,
	output_tokens = EXCLUDED.output_tokens,
	error = EXCLUDED.error,
	processed_at = EXCLUDED.processed_at,
	inserted_at = EXCLUDED.inserted_at`
}
