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

package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/fitment/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successfulSummary() *core.RunSummary {
	start := time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)
	s := &core.RunSummary{
		RunID:          "run-1",
		Success:        true,
		ProcessingMode: core.ProcessingModeSequential,
		BatchDelay:     2 * time.Second,
		StartTime:      start,
		BatchResults: []core.BatchResult{
			core.NewBatchResult(1, []core.ProcessedResult{
				{RecordID: "a", RowID: 1, Success: true},
				{RecordID: "b", RowID: 2, Error: "extraction failed"},
			}),
		},
		TotalRecordsProcessed: 2,
		BatchesProcessed:      1,
	}
	s.Tally()
	s.Finish(start.Add(3 * time.Second))
	return s
}

func TestFileName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	assert.Equal(t, "batch_results_20250314_092653.json", FileName(ts))
}

func TestSave_WritesIndentedReport(t *testing.T) {
	dir := t.TempDir()
	summary := successfulSummary()

	path, err := Save(summary, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch_results_20250314_092653.json"), path)
	assert.Equal(t, path, summary.JSONFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "{\n  \""))
	assert.Contains(t, text, `"processing_mode": "sequential"`)
	assert.Contains(t, text, `"batch_delay": 2`)
	assert.Contains(t, text, `"json_file": "`+path+`"`)

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, 1, loaded.TotalSuccessful)
	assert.Equal(t, 1, loaded.TotalFailed)
	require.Len(t, loaded.BatchResults, 1)
	assert.Len(t, loaded.BatchResults[0].Results, 2)
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports", "nested")

	path, err := Save(successfulSummary(), dir)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestSave_RejectsUnsuccessfulRun(t *testing.T) {
	dir := t.TempDir()
	summary := &core.RunSummary{Message: "no records found to process"}

	_, err := Save(summary, dir)
	assert.ErrorIs(t, err, ErrUnsuccessfulRun)
	assert.Empty(t, summary.JSONFile)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = Save(nil, dir)
	assert.ErrorIs(t, err, ErrUnsuccessfulRun)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
