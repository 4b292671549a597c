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

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

// GetRetryState returns the retry state for a proposal
func (d *Database) GetRetryState(
	proposalID uint64,
	txn *Txn,
) (*models.RetryState, error) {
	var ret *models.RetryState
	err := d.withTxn(txn, false, func(txn *Txn) error {
		data, err := d.Blob().Get(txn.Blob(), types.RetryStateKey(proposalID))
		if err != nil {
			if errors.Is(err, types.ErrBlobKeyNotFound) {
				return models.ErrRetryStateNotFound
			}
			return err
		}
		var tmp models.RetryState
		if err := cbor.Unmarshal(data, &tmp); err != nil {
			return err
		}
		ret = &tmp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (d *Database) SetRetryState(
	proposalID uint64,
	state *models.RetryState,
	txn *Txn,
) error {
	data, err := cbor.Marshal(state)
	if err != nil {
		return err
	}
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Blob().Set(txn.Blob(), types.RetryStateKey(proposalID), data)
	})
}

// DeleteRetryState drops the retry state for a proposal. Deleting a missing state is not an error
func (d *Database) DeleteRetryState(proposalID uint64, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		err := d.Blob().Delete(txn.Blob(), types.RetryStateKey(proposalID))
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return nil
		}
		return err
	})
}
