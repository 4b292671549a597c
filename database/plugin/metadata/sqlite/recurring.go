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

// GetRecurringPayment returns a recurring payment by id, or nil if it does not exist
func (d *MetadataStoreSqlite) GetRecurringPayment(
	id uint64,
	txn types.Txn,
) (*models.RecurringPayment, error) {
	var ret models.RecurringPayment
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

// GetRecurringPayments returns recurring payments in id order
func (d *MetadataStoreSqlite) GetRecurringPayments(
	activeOnly bool,
	txn types.Txn,
) ([]models.RecurringPayment, error) {
	var ret []models.RecurringPayment
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// SetRecurringPayment creates a recurring payment, or updates it when it already has an id
func (d *MetadataStoreSqlite) SetRecurringPayment(
	payment *models.RecurringPayment,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Save(payment).Error
}
