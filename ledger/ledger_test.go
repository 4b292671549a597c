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

package ledger_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/database"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/governance"
	"github.com/blinklabs-io/vault/ledger"
)

func newTestLedger(t *testing.T, reg prometheus.Registerer) (*ledger.Ledger, *database.Database) {
	t.Helper()
	db, err := database.New(&database.Config{
		LedgerInterval: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	l, err := ledger.New(ledger.LedgerConfig{
		Database:     db,
		PromRegistry: reg,
	})
	require.NoError(t, err)
	return l, db
}

func TestNewRequiresDatabase(t *testing.T) {
	_, err := ledger.New(ledger.LedgerConfig{})
	require.Error(t, err)
}

func TestDeposit(t *testing.T) {
	reg := prometheus.NewRegistry()
	l, _ := newTestLedger(t, reg)

	balance, err := l.Deposit("native", types.NewAmount(500))
	require.NoError(t, err)
	assert.Equal(t, "500", balance.String())
	balance, err = l.Deposit("native", types.NewAmount(250))
	require.NoError(t, err)
	assert.Equal(t, "750", balance.String())

	_, err = l.Deposit("native", types.NewAmount(0))
	require.ErrorIs(t, err, ledger.ErrInvalidDeposit)

	balances, err := l.Balances()
	require.NoError(t, err)
	require.Contains(t, balances, "native")
	assert.Equal(t, "750", balances["native"].String())

	count, err := testutil.GatherAndCount(reg, "vault_ledger_deposits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTransfer(t *testing.T) {
	l, db := newTestLedger(t, nil)
	_, err := l.Deposit("native", types.NewAmount(1000))
	require.NoError(t, err)

	txn := db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		return l.Transfer(txn, "native", "carol", types.NewAmount(400))
	})
	require.NoError(t, err)

	balance, err := l.Balance(nil, "native")
	require.NoError(t, err)
	assert.Equal(t, "600", balance.String())
	credited, err := l.AccountBalance("carol", "native")
	require.NoError(t, err)
	assert.Equal(t, "400", credited.String())
}

func TestTransferInsufficientBalance(t *testing.T) {
	l, db := newTestLedger(t, nil)
	_, err := l.Deposit("native", types.NewAmount(100))
	require.NoError(t, err)

	txn := db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		return l.Transfer(txn, "native", "carol", types.NewAmount(101))
	})
	require.ErrorIs(t, err, governance.ErrInsufficientBalance)
	assert.True(t, governance.IsTransient(err))

	balance, err := l.Balance(nil, "native")
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String())
	credited, err := l.AccountBalance("carol", "native")
	require.NoError(t, err)
	assert.Equal(t, "0", credited.String())
}

func TestTransferRollback(t *testing.T) {
	l, db := newTestLedger(t, nil)
	_, err := l.Deposit("native", types.NewAmount(100))
	require.NoError(t, err)

	txn := db.Transaction(true)
	err = txn.Do(func(txn *database.Txn) error {
		if err := l.Transfer(txn, "native", "carol", types.NewAmount(60)); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	balance, err := l.Balance(nil, "native")
	require.NoError(t, err)
	assert.Equal(t, "100", balance.String(), "a failed transaction leaves the vault untouched")
}
