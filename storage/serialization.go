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

package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/fitment/core"
)

// checkpointVersion prefixes every encoded checkpoint.
const checkpointVersion byte = 1

// MarshalCheckpoint encodes a checkpoint as
// version | name | last row id | updated-at (unix micros).
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	micros := checkpoint.UpdatedAt.UnixMicro()
	size := 1 +
		ord.String.Size(checkpoint.Name) +
		varint.Int64.Size(checkpoint.LastRowID) +
		varint.Int64.Size(micros)

	buf := make([]byte, size)
	buf[0] = checkpointVersion
	n := 1
	n += ord.String.Marshal(checkpoint.Name, buf[n:])
	n += varint.Int64.Marshal(checkpoint.LastRowID, buf[n:])
	varint.Int64.Marshal(micros, buf[n:])
	return buf
}

// UnmarshalCheckpoint decodes a value written by MarshalCheckpoint.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty checkpoint", ErrSerializationFailed)
	}
	if data[0] != checkpointVersion {
		return nil, fmt.Errorf("%w: unknown checkpoint version %d", ErrSerializationFailed, data[0])
	}
	n := 1

	name, m, err := ord.String.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: name: %w", ErrSerializationFailed, err)
	}
	n += m

	rowID, m, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: row id: %w", ErrSerializationFailed, err)
	}
	n += m

	micros, _, err := varint.Int64.Unmarshal(data[n:])
	if err != nil {
		return nil, fmt.Errorf("%w: updated at: %w", ErrSerializationFailed, err)
	}

	return &core.Checkpoint{
		Name:      name,
		LastRowID: rowID,
		UpdatedAt: time.UnixMicro(micros).UTC(),
	}, nil
}
