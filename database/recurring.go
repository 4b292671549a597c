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

package database

import (
	"github.com/blinklabs-io/vault/database/models"
)

func (d *Database) GetRecurringPayment(id uint64, txn *Txn) (*models.RecurringPayment, error) {
	var ret *models.RecurringPayment
	err := d.withTxn(txn, false, func(txn *Txn) error {
		tmp, err := d.Metadata().GetRecurringPayment(id, txn.Metadata())
		if err != nil {
			return err
		}
		if tmp == nil {
			return models.ErrRecurringPaymentNotFound
		}
		ret = tmp
		return nil
	})
	return ret, err
}

func (d *Database) GetRecurringPayments(activeOnly bool, txn *Txn) ([]models.RecurringPayment, error) {
	var ret []models.RecurringPayment
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetRecurringPayments(activeOnly, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetRecurringPayment(payment *models.RecurringPayment, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().SetRecurringPayment(payment, txn.Metadata())
	})
}
