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
	"encoding/binary"
	"fmt"

	"github.com/poiesic/fitment/core"
)

const (
	resultDocPrefix  = "resdoc"
	checkpointSuffix = "chkpt"

	// resultDocSuffixLen is the big-endian row id followed by the document id.
	resultDocSuffixLen = 16
)

// makeResultDocPrefix generates the key prefix shared by every document of a run.
// Format: prefix:runID:
func makeResultDocPrefix(runID string) []byte {
	return []byte(fmt.Sprintf("%s:%s:", resultDocPrefix, runID))
}

// makeResultDocKey generates a composite key for a result document.
// Format: prefix:runID:rowID:docID
func makeResultDocKey(runID string, rowID int64, docID core.ID) []byte {
	prefix := makeResultDocPrefix(runID)
	buf := make([]byte, len(prefix)+resultDocSuffixLen)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort follows row order
	binary.BigEndian.PutUint64(buf[offset:], uint64(rowID))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(docID))
	return buf
}

// makeCheckpointKey generates a key for a named checkpoint.
func makeCheckpointKey(name string) []byte {
	return []byte(fmt.Sprintf("%s:%s", name, checkpointSuffix))
}
