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

// GetLastAuditEntry returns the head of the audit chain, or nil when the chain is empty
func (d *Database) GetLastAuditEntry(txn *Txn) (*models.AuditEntry, error) {
	var ret *models.AuditEntry
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetLastAuditEntry(txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) GetAuditEntry(id uint64, txn *Txn) (*models.AuditEntry, error) {
	var ret *models.AuditEntry
	err := d.withTxn(txn, false, func(txn *Txn) error {
		tmp, err := d.Metadata().GetAuditEntry(id, txn.Metadata())
		if err != nil {
			return err
		}
		if tmp == nil {
			return models.ErrAuditEntryNotFound
		}
		ret = tmp
		return nil
	})
	return ret, err
}

// GetAuditEntries returns the entries with ids in [start, end]
func (d *Database) GetAuditEntries(start, end uint64, txn *Txn) ([]models.AuditEntry, error) {
	var ret []models.AuditEntry
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetAuditEntries(start, end, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) AddAuditEntry(entry *models.AuditEntry, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().AddAuditEntry(entry, txn.Metadata())
	})
}
