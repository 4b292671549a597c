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

// GetLastAuditEntry returns the newest audit entry, or nil if the chain is empty
func (d *MetadataStoreSqlite) GetLastAuditEntry(
	txn types.Txn,
) (*models.AuditEntry, error) {
	var ret models.AuditEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id DESC").First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetAuditEntry returns an audit entry by id, or nil if it does not exist
func (d *MetadataStoreSqlite) GetAuditEntry(
	id uint64,
	txn types.Txn,
) (*models.AuditEntry, error) {
	var ret models.AuditEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&ret, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetAuditEntries returns the entries with ids in [start, end], in id order
func (d *MetadataStoreSqlite) GetAuditEntries(
	start uint64,
	end uint64,
	txn types.Txn,
) ([]models.AuditEntry, error) {
	var ret []models.AuditEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("id >= ? AND id <= ?", start, end).
		Order("id").
		Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddAuditEntry appends an entry to the audit chain
func (d *MetadataStoreSqlite) AddAuditEntry(
	entry *models.AuditEntry,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(entry).Error
}
