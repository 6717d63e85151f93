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

package badger

import (
	"context"
	"errors"
	"time"

	"github.com/poiesic/fitment/core"
	"github.com/poiesic/fitment/storage"
)

// Default checkpoint names. Replay runs keep their own position so they never
// rewind the pending stream.
const (
	PendingCheckpoint = "pending"
	ReplayCheckpoint  = "replay"
)

// CheckpointStore implements storage.CheckpointStore for one named checkpoint.
type CheckpointStore struct {
	backend *Backend
	name    string
}

var _ storage.CheckpointStore = (*CheckpointStore)(nil)

// newCheckpointStore is the internal constructor returning the concrete type.
func newCheckpointStore(backend *Backend, name string) (*CheckpointStore, error) {
	if err := core.ValidateCheckpoint(&core.Checkpoint{Name: name}); err != nil {
		return nil, err
	}
	return &CheckpointStore{
		backend: backend,
		name:    name,
	}, nil
}

// NewCheckpointStore creates a checkpoint store for name on backend.
func NewCheckpointStore(backend *Backend, name string) (storage.CheckpointStore, error) {
	return newCheckpointStore(backend, name)
}

// Read returns the stored row id, or 0 if no checkpoint exists.
func (s *CheckpointStore) Read(ctx context.Context) (int64, error) {
	checkpoint, err := s.Load(ctx)
	if err != nil || checkpoint == nil {
		return 0, err
	}
	return checkpoint.LastRowID, nil
}

// Write persists rowID as the checkpoint.
func (s *CheckpointStore) Write(ctx context.Context, rowID int64) error {
	return s.Save(ctx, &core.Checkpoint{Name: s.name, LastRowID: rowID})
}

// Save persists a full checkpoint, stamping UpdatedAt.
func (s *CheckpointStore) Save(ctx context.Context, checkpoint *core.Checkpoint) error {
	if err := core.ValidateCheckpoint(checkpoint); err != nil {
		return err
	}
	checkpoint.UpdatedAt = time.Now().UTC()
	return s.backend.Put(makeCheckpointKey(checkpoint.Name), storage.MarshalCheckpoint(checkpoint))
}

// Load retrieves the checkpoint. Returns nil, nil if none exists.
func (s *CheckpointStore) Load(ctx context.Context) (*core.Checkpoint, error) {
	var checkpoint *core.Checkpoint
	err := s.backend.Get(makeCheckpointKey(s.name), func(val []byte) error {
		var err error
		checkpoint, err = storage.UnmarshalCheckpoint(val)
		return err
	})
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return checkpoint, err
}
