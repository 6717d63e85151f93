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
	"testing"

	"github.com/poiesic/fitment/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointStore_ReadMissing(t *testing.T) {
	_, checkpoints, backend, err := NewMemoryStores(PendingCheckpoint)
	require.NoError(t, err)
	defer backend.Close()

	rowID, err := checkpoints.Read(context.Background())
	require.NoError(t, err)
	assert.Zero(t, rowID)
}

func TestCheckpointStore_WriteRead(t *testing.T) {
	_, checkpoints, backend, err := NewMemoryStores(PendingCheckpoint)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	require.NoError(t, checkpoints.Write(ctx, 7))
	rowID, err := checkpoints.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rowID)

	require.NoError(t, checkpoints.Write(ctx, 12))
	rowID, err = checkpoints.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12), rowID)
}

func TestCheckpointStore_NamesAreIndependent(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	pending, err := NewCheckpointStore(backend, PendingCheckpoint)
	require.NoError(t, err)
	replay, err := NewCheckpointStore(backend, ReplayCheckpoint)
	require.NoError(t, err)

	require.NoError(t, pending.Write(ctx, 500))
	require.NoError(t, replay.Write(ctx, 3))

	got, err := pending.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500), got)

	got, err = replay.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got)
}

func TestCheckpointStore_LoadStampsUpdatedAt(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	store, err := newCheckpointStore(backend, PendingCheckpoint)
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	require.NoError(t, store.Write(ctx, 42))
	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, PendingCheckpoint, loaded.Name)
	assert.Equal(t, int64(42), loaded.LastRowID)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestCheckpointStore_Invalid(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	_, err = NewCheckpointStore(backend, "")
	require.ErrorIs(t, err, core.ErrInvalidCheckpoint)

	store, err := NewCheckpointStore(backend, PendingCheckpoint)
	require.NoError(t, err)
	err = store.Write(context.Background(), -1)
	require.ErrorIs(t, err, core.ErrNegativeRowID)
}
