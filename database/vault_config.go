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

// GetVaultConfig returns the persisted vault configuration
func (d *Database) GetVaultConfig(txn *Txn) (*models.VaultConfig, error) {
	var ret *models.VaultConfig
	err := d.withTxn(txn, false, func(txn *Txn) error {
		tmp, err := d.Metadata().GetVaultConfig(txn.Metadata())
		if err != nil {
			return err
		}
		if tmp == nil {
			return models.ErrVaultConfigNotFound
		}
		ret = tmp
		return nil
	})
	return ret, err
}

func (d *Database) SetVaultConfig(cfg *models.VaultConfig, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().SetVaultConfig(cfg, txn.Metadata())
	})
}
