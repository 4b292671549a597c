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
	"gorm.io/gorm/clause"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

// GetRole returns the role assigned to an identity, or nil if none is assigned
func (d *MetadataStoreSqlite) GetRole(
	identity string,
	txn types.Txn,
) (*models.Role, error) {
	var ret models.Role
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("identity = ?", identity).First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// SetRole assigns a role to an identity, replacing any previous assignment
func (d *MetadataStoreSqlite) SetRole(
	role *models.Role,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "identity"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(role).Error
}

// GetRecipientListEntry returns a recipient's entry on a list, or nil if it is not listed
func (d *MetadataStoreSqlite) GetRecipientListEntry(
	recipient string,
	list uint8,
	txn types.Txn,
) (*models.RecipientListEntry, error) {
	var ret models.RecipientListEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("recipient = ? AND list = ?", recipient, list).
		First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetRecipientListEntries returns all recipients on a list
func (d *MetadataStoreSqlite) GetRecipientListEntries(
	list uint8,
	txn types.Txn,
) ([]models.RecipientListEntry, error) {
	var ret []models.RecipientListEntry
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("list = ?", list).
		Order("recipient").
		Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetRecipientListEntry adds a recipient to a list. Adding an existing entry is a no-op
func (d *MetadataStoreSqlite) SetRecipientListEntry(
	entry *models.RecipientListEntry,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(entry).Error
}

// DeleteRecipientListEntry removes a recipient from a list
func (d *MetadataStoreSqlite) DeleteRecipientListEntry(
	recipient string,
	list uint8,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Where("recipient = ? AND list = ?", recipient, list).
		Delete(&models.RecipientListEntry{}).Error
}
