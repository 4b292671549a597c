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

// GetDelegation retrieves a delegation by id. Returns nil if it does not exist
func (d *MetadataStoreSqlite) GetDelegation(
	id uint64,
	txn types.Txn,
) (*models.Delegation, error) {
	var ret models.Delegation
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

// GetActiveDelegation returns the active delegation held by a delegator, or
// nil if there is none. Expiry is not considered here.
func (d *MetadataStoreSqlite) GetActiveDelegation(
	delegator string,
	txn types.Txn,
) (*models.Delegation, error) {
	var ret models.Delegation
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("delegator = ? AND active = ?", delegator, true).
		Order("id DESC").
		First(&ret); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetDelegations returns every delegation record, active or not, in id order
func (d *MetadataStoreSqlite) GetDelegations(
	txn types.Txn,
) ([]models.Delegation, error) {
	var ret []models.Delegation
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Order("id").Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetDelegation creates a delegation, or updates it when it already has an id
func (d *MetadataStoreSqlite) SetDelegation(
	delegation *models.Delegation,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Save(delegation).Error
}
