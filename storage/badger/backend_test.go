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
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/fitment/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *Backend {
	t.Helper()
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.DirExists(t, dir)
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	backend, err := OpenBackend(path, false)
	require.Error(t, err)
	assert.Nil(t, backend)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestOpenBackend_EmptyPath(t *testing.T) {
	_, err := OpenBackend("", false)
	assert.Error(t, err)
}

func TestBackendClose_Twice(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
	require.NoError(t, backend.Close())
}

func TestBackend_PutGet(t *testing.T) {
	backend := openMemory(t)

	require.NoError(t, backend.Put([]byte("pending:chkpt"), []byte("42")))

	var got []byte
	err := backend.Get([]byte("pending:chkpt"), func(value []byte) error {
		got = append([]byte(nil), value...)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("42"), got)

	err = backend.Get([]byte("replay:chkpt"), func([]byte) error { return nil })
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestBackend_ClosedOperations(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NoError(t, backend.Close())

	assert.ErrorIs(t, backend.Put([]byte("k"), []byte("v")), storage.ErrStorageClosed)
	assert.ErrorIs(t, backend.Get([]byte("k"), func([]byte) error { return nil }), storage.ErrStorageClosed)
	err = backend.Scan(context.Background(), []byte("k"), func(_, _ []byte) error { return nil })
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestBackend_ScanPrefixInKeyOrder(t *testing.T) {
	backend := openMemory(t)

	for _, k := range []string{"resdoc:b:2", "resdoc:a:3", "resdoc:a:1", "other", "resdoc:a:2"} {
		require.NoError(t, backend.Put([]byte(k), []byte(k)))
	}

	var keys []string
	err := backend.Scan(context.Background(), []byte("resdoc:a:"), func(key, value []byte) error {
		assert.Equal(t, key, value)
		keys = append(keys, string(key))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"resdoc:a:1", "resdoc:a:2", "resdoc:a:3"}, keys)
}

func TestBackend_ScanStops(t *testing.T) {
	backend := openMemory(t)
	require.NoError(t, backend.Put([]byte("p:1"), []byte("1")))
	require.NoError(t, backend.Put([]byte("p:2"), []byte("2")))

	boom := errors.New("boom")
	calls := 0
	err := backend.Scan(context.Background(), []byte("p:"), func(_, _ []byte) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = backend.Scan(ctx, []byte("p:"), func(_, _ []byte) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
