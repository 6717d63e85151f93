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

// Package file implements storage.CheckpointStore on a plain text file
// holding a single integer.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/fitment/storage"
)

// CheckpointStore keeps the last row id in a text file.
// A missing or empty file reads as 0.
type CheckpointStore struct {
	path   string
	logger *slog.Logger
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// NewCheckpointStore creates a store backed by the file at path.
// The file is not touched until the first Read or Write.
func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{
		path:   path,
		logger: slog.Default().With("component", "file-checkpoint", "path", path),
	}
}

// Path returns the checkpoint file path.
func (s *CheckpointStore) Path() string {
	return s.path
}

func (s *CheckpointStore) Read(ctx context.Context) (int64, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}

	rowID, err := strconv.ParseInt(text, 10, 64)
	if err != nil || rowID < 0 {
		return 0, fmt.Errorf("%w: %q in %s", storage.ErrInvalidCheckpoint, text, s.path)
	}
	return rowID, nil
}

// Write replaces the file contents atomically with rowID.
func (s *CheckpointStore) Write(ctx context.Context, rowID int64) error {
	if rowID < 0 {
		return fmt.Errorf("%w: negative row id %d", storage.ErrInvalidCheckpoint, rowID)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(strconv.FormatInt(rowID, 10)); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return err
	}

	s.logger.Debug("checkpoint written", "row_id", rowID)
	return nil
}
