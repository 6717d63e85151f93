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

package core

import (
	"fmt"
	"strconv"
)

// ValidateRecord validates a Record according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - RowID must not be negative
//
// Title is not validated: an empty title is still sent to the provider
// and yields whatever the provider returns.
func ValidateRecord(record *Record) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrEmptyRecordID)
	}

	if record.RowID < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, ErrNegativeRowID)
	}

	return nil
}

// ValidateCheckpoint validates a Checkpoint.
func ValidateCheckpoint(checkpoint *Checkpoint) error {
	if checkpoint == nil {
		return fmt.Errorf("%w: checkpoint is nil", ErrInvalidCheckpoint)
	}
	if checkpoint.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidCheckpoint)
	}
	if checkpoint.LastRowID < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCheckpoint, ErrNegativeRowID)
	}
	return nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
