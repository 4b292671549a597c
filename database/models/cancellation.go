// Copyright 2025 Blink Labs Software
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

package models

import (
	"errors"

	"github.com/blinklabs-io/vault/database/types"
)

var ErrCancellationNotFound = errors.New("cancellation record not found")

// CancellationRecord captures who withdrew a pending proposal, why, and the
// spend that was handed back to the day and week counters
type CancellationRecord struct {
	ID              uint   `gorm:"primarykey"`
	ProposalID      uint64 `gorm:"uniqueIndex;not null"`
	CancelledBy     string `gorm:"not null"`
	Reason          string
	CancelledLedger uint64       `gorm:"not null"`
	Refunded        types.Amount `gorm:"not null"`
}

func (CancellationRecord) TableName() string {
	return "cancellation"
}
