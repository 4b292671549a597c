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

// GetBalance returns the vault balance of an asset, which is zero when nothing was ever deposited
func (d *Database) GetBalance(asset string, txn *Txn) (types.Amount, error) {
	var ret types.Amount
	err := d.withTxn(txn, false, func(txn *Txn) error {
		data, err := d.Blob().Get(txn.Blob(), types.BalanceKey(asset))
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

func (d *Database) SetBalance(asset string, amount types.Amount, txn *Txn) error {
	data, err := cbor.Marshal(amount)
	if err != nil {
		return err
	}
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Blob().Set(txn.Blob(), types.BalanceKey(asset), data)
	})
}

// GetBalances returns every stored asset balance keyed by asset
func (d *Database) GetBalances(txn *Txn) (map[string]types.Amount, error) {
	ret := make(map[string]types.Amount)
	err := d.withTxn(txn, false, func(txn *Txn) error {
		prefix := []byte(types.BalanceKeyPrefix)
		iter := d.Blob().NewIterator(
			txn.Blob(),
			types.BlobIteratorOptions{Prefix: prefix},
		)
		defer iter.Close()
		for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var amount types.Amount
			if err := cbor.Unmarshal(data, &amount); err != nil {
				return err
			}
			ret[types.BalanceKeyAsset(item.Key())] = amount
		}
		return iter.Err()
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// GetAccountBalance returns the amount of an asset credited to an account by transfers
func (d *Database) GetAccountBalance(account string, asset string, txn *Txn) (types.Amount, error) {
	var ret types.Amount
	err := d.withTxn(txn, false, func(txn *Txn) error {
		data, err := d.Blob().Get(txn.Blob(), types.AccountBalanceKey(account, asset))
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

func (d *Database) SetAccountBalance(account string, asset string, amount types.Amount, txn *Txn) error {
	data, err := cbor.Marshal(amount)
	if err != nil {
		return err
	}
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Blob().Set(txn.Blob(), types.AccountBalanceKey(account, asset), data)
	})
}
