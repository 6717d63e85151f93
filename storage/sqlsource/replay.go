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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/poiesic/fitment/storage"
)

// replayDocument is the failure-replay input format.
type replayDocument struct {
	RemovedDocuments []replayEntry `json:"removed_documents"`
}

type replayEntry struct {
	RowID *int64 `json:"row_id"`
}

// ReadReplayFile returns the row ids listed in a failure-replay file, in file order.
func ReadReplayFile(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found", storage.ErrReplayFile, path)
		}
		return nil, err
	}

	var doc replayDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", storage.ErrReplayFile, path, err)
	}

	rowIDs := make([]int64, 0, len(doc.RemovedDocuments))
	for i, entry := range doc.RemovedDocuments {
		if entry.RowID == nil {
			return nil, fmt.Errorf("%w: %s: entry %d has no row_id", storage.ErrReplayFile, path, i)
		}
		rowIDs = append(rowIDs, *entry.RowID)
	}
	return rowIDs, nil
}

// window applies the start offset and limit to ids.
func window(ids []int64, start, limit int) []int64 {
	if start >= len(ids) {
		return nil
	}
	ids = ids[start:]
	if limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}

// after returns the ids greater than lastRowID in ascending order without
// duplicates.
func after(ids []int64, lastRowID int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > lastRowID {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
