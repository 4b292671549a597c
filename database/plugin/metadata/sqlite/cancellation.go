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

package sqlite

import (
	"errors"

	"gorm.io/gorm"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

// GetCancellation returns the cancellation record for a proposal, or nil if it was not cancelled
func (d *MetadataStoreSqlite) GetCancellation(
	proposalID uint64,
	txn types.Txn,
) (*models.CancellationRecord, error) {
	var ret models.CancellationRecord
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("proposal_id = ?", proposalID).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// AddCancellation stores a cancellation record
func (d *MetadataStoreSqlite) AddCancellation(
	record *models.CancellationRecord,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(record).Error
}
