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

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	mu    sync.Mutex
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestResultSink_InsertSuccess(t *testing.T) {
	db := &fakeExecer{}
	sink, err := newResultSink(db, DefaultTable)
	require.NoError(t, err)

	doc := &core.ResultDocument{
		RunID:        "run-1",
		RecordID:     "rec-7",
		Title:        "SİLECEK FOCUS",
		RowID:        7,
		Success:      true,
		Content:      []core.Item{map[string]any{"brand": "Ford", "model": "Focus"}},
		InputTokens:  80,
		OutputTokens: 12,
		ProcessedAt:  time.Now().UTC(),
	}
	require.NoError(t, sink.Insert(context.Background(), doc))
	assert.False(t, doc.InsertedAt.IsZero())

	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.True(t, strings.HasPrefix(call.sql, "INSERT INTO fitment_results"))
	require.Len(t, call.args, 12)
	assert.Equal(t, int64(doc.DocumentID()), call.args[0])
	assert.Equal(t, "run-1", call.args[1])
	assert.Equal(t, int64(7), call.args[4])
	assert.Equal(t, true, call.args[5])
	assert.JSONEq(t, `[{"brand":"Ford","model":"Focus"}]`, string(call.args[6].([]byte)))
}

func TestResultSink_InsertFailureHasNoContent(t *testing.T) {
	db := &fakeExecer{}
	sink, err := newResultSink(db, "public.results")
	require.NoError(t, err)

	doc := &core.ResultDocument{RunID: "run-1", RecordID: "rec-8", RowID: 8, Error: "provider returned error status"}
	require.NoError(t, sink.Insert(context.Background(), doc))

	call := db.calls[0]
	assert.Nil(t, call.args[6])
	assert.Equal(t, "provider returned error status", call.args[9])
}

func TestResultSink_Errors(t *testing.T) {
	_, err := newResultSink(&fakeExecer{}, "bad table")
	require.ErrorIs(t, err, storage.ErrInvalidQuery)

	sink, err := newResultSink(&fakeExecer{err: errors.New("connection reset")}, DefaultTable)
	require.NoError(t, err)
	require.Error(t, sink.Insert(context.Background(), &core.ResultDocument{RecordID: "x"}))
	require.ErrorIs(t, sink.Insert(context.Background(), nil), storage.ErrInvalidQuery)
	require.NoError(t, sink.Close())
}

func TestResultSink_EnsureSchema(t *testing.T) {
	db := &fakeExecer{}
	sink, err := newResultSink(db, DefaultTable)
	require.NoError(t, err)

	require.NoError(t, sink.EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS fitment_results")
	assert.Contains(t, db.calls[0].sql, "ai_result     JSONB")
}

// TestOpen_Integration runs against a real server when FITMENT_TEST_POSTGRES_DSN is set.
func TestOpen_Integration(t *testing.T) {
	dsn := os.Getenv("FITMENT_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("FITMENT_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	sink, err := Open(ctx, dsn, "fitment_results_test")
	require.NoError(t, err)
	defer sink.Close()

	doc := &core.ResultDocument{
		RunID:       "it-" + time.Now().Format("150405.000"),
		RecordID:    "rec-1",
		RowID:       1,
		Success:     true,
		Content:     []core.Item{map[string]any{"brand": "Fiat"}},
		ProcessedAt: time.Now().UTC(),
	}
	require.NoError(t, sink.Insert(ctx, doc))

	var raw []byte
	err = sink.pool.QueryRow(ctx,
		"SELECT ai_result FROM fitment_results_test WHERE doc_id = $1", int64(doc.DocumentID())).Scan(&raw)
	require.NoError(t, err)

	var items []any
	require.NoError(t, json.Unmarshal(raw, &items))
	assert.Len(t, items, 1)
}
