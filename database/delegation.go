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

func (d *Database) GetDelegation(id uint64, txn *Txn) (*models.Delegation, error) {
	var ret *models.Delegation
	err := d.withTxn(txn, false, func(txn *Txn) error {
		tmp, err := d.Metadata().GetDelegation(id, txn.Metadata())
		if err != nil {
			return err
		}
		if tmp == nil {
			return models.ErrDelegationNotFound
		}
		ret = tmp
		return nil
	})
	return ret, err
}

// GetActiveDelegation returns the active delegation held by delegator, or
// nil when there is none. Expiry is not considered here
func (d *Database) GetActiveDelegation(delegator string, txn *Txn) (*models.Delegation, error) {
	var ret *models.Delegation
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetActiveDelegation(delegator, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) GetDelegations(txn *Txn) ([]models.Delegation, error) {
	var ret []models.Delegation
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetDelegations(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetDelegation(delegation *models.Delegation, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().SetDelegation(delegation, txn.Metadata())
	})
}
