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

// Package report persists run summaries as timestamped JSON files.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/poiesic/fitment/core"
)

// ErrUnsuccessfulRun is returned when asked to save the summary of a failed run.
var ErrUnsuccessfulRun = errors.New("report: only successful runs are saved")

// FileName returns the report file name for a run started at t.
func FileName(t time.Time) string {
	return "batch_results_" + t.Format("20060102_150405") + ".json"
}

// Save writes summary to dir as a 2-space indented JSON file named after the
// run's start time, and records the file name in summary.JSONFile.
// An empty dir writes to the working directory.
func Save(summary *core.RunSummary, dir string) (string, error) {
	if summary == nil || !summary.Success {
		return "", ErrUnsuccessfulRun
	}

	start := summary.StartTime
	if start.IsZero() {
		start = time.Now()
	}
	name := FileName(start.Local())
	path := name
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create report directory: %w", err)
		}
		path = filepath.Join(dir, name)
	}

	summary.JSONFile = path
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		summary.JSONFile = ""
		return "", fmt.Errorf("encode report: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		summary.JSONFile = ""
		return "", fmt.Errorf("write report %s: %w", path, err)
	}
	return path, nil
}

// Load reads a report written by Save.
func Load(path string) (*core.RunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	var summary core.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", path, err)
	}
	return &summary, nil
}
