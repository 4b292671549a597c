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

// GetRole returns the role record for an identity, or nil when none was granted
func (d *Database) GetRole(identity string, txn *Txn) (*models.Role, error) {
	var ret *models.Role
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetRole(identity, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetRole(role *models.Role, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().SetRole(role, txn.Metadata())
	})
}

// IsListed reports whether a recipient is on the given list
func (d *Database) IsListed(recipient string, list uint8, txn *Txn) (bool, error) {
	var ret bool
	err := d.withTxn(txn, false, func(txn *Txn) error {
		entry, err := d.Metadata().GetRecipientListEntry(recipient, list, txn.Metadata())
		if err != nil {
			return err
		}
		ret = entry != nil
		return nil
	})
	return ret, err
}

func (d *Database) GetRecipientListEntries(list uint8, txn *Txn) ([]models.RecipientListEntry, error) {
	var ret []models.RecipientListEntry
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetRecipientListEntries(list, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) SetRecipientListEntry(entry *models.RecipientListEntry, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().SetRecipientListEntry(entry, txn.Metadata())
	})
}

func (d *Database) DeleteRecipientListEntry(recipient string, list uint8, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().DeleteRecipientListEntry(recipient, list, txn.Metadata())
	})
}
