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
	"errors"

	"github.com/fxamacker/cbor/v2"

	"github.com/blinklabs-io/vault/database/types"
)

// GetVelocityHistory returns the recorded action ledgers for a signer, oldest first
func (d *Database) GetVelocityHistory(signer string, txn *Txn) ([]uint64, error) {
	var ret []uint64
	err := d.withTxn(txn, false, func(txn *Txn) error {
		data, err := d.Blob().Get(txn.Blob(), types.VelocityKey(signer))
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			return err
		}
		return cbor.Unmarshal(data, &ret)
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// SetVelocityHistory replaces the action history for a signer
func (d *Database) SetVelocityHistory(
	signer string,
	history []uint64,
	retention uint64,
	txn *Txn,
) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		key := types.VelocityKey(signer)
		if len(history) == 0 {
			err := d.Blob().Delete(txn.Blob(), key)
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			return err
		}
		data, err := cbor.Marshal(history)
		if err != nil {
			return err
		}
		return d.Blob().SetWithTTL(txn.Blob(), key, data, d.retention(retention))
	})
}
