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

var ErrAuditEntryNotFound = errors.New("audit entry not found")

// AuditEntry is one link of the append-only audit hash chain
type AuditEntry struct {
	ID        uint64       `gorm:"primarykey"`
	Action    uint8        `gorm:"index;not null"`
	Actor     string       `gorm:"index;not null"`
	Target    uint64       `gorm:"not null"`
	Timestamp uint64       `gorm:"not null"`
	PrevHash  types.Uint64 `gorm:"not null"`
	Hash      types.Uint64 `gorm:"not null"`
}

func (AuditEntry) TableName() string {
	return "audit_entry"
}
