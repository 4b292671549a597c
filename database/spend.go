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

// GetSpend returns the accumulated spend stored under a spend bucket key.
// A missing bucket has spent nothing
func (d *Database) GetSpend(key []byte, txn *Txn) (types.Amount, error) {
	var ret types.Amount
	err := d.withTxn(txn, false, func(txn *Txn) error {
		data, err := d.Blob().Get(txn.Blob(), key)
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return nil
			}
			return err
		}
		return cbor.Unmarshal(data, &ret)
	})
	if err != nil {
		return types.Amount{}, err
	}
	return ret, nil
}

// SetSpend stores the accumulated spend for a bucket. The bucket is kept for
// at least retention ledger units
func (d *Database) SetSpend(
	key []byte,
	amount types.Amount,
	retention uint64,
	txn *Txn,
) error {
	data, err := cbor.Marshal(amount)
	if err != nil {
		return err
	}
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Blob().SetWithTTL(txn.Blob(), key, data, d.retention(retention))
	})
}
