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

// Package ledger holds vault and recipient balances in the blob store and
// implements the value transfer side of the governance engine.
package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/vault/database"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/governance"
)

var ErrInvalidDeposit = errors.New("deposit amount must be positive")

type LedgerConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	PromRegistry prometheus.Registerer
}

// Ledger tracks the vault treasury. Transfers debit the vault balance of an
// asset and credit the recipient account in the caller's transaction
type Ledger struct {
	config  LedgerConfig
	db      *database.Database
	metrics ledgerMetrics
}

var _ governance.Ledger = (*Ledger)(nil)

func New(cfg LedgerConfig) (*Ledger, error) {
	if cfg.Database == nil {
		return nil, errors.New("ledger requires a database")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	l := &Ledger{
		config: cfg,
		db:     cfg.Database,
	}
	l.metrics.init(cfg.PromRegistry)
	return l, nil
}

// Balance returns the vault balance of asset
func (l *Ledger) Balance(txn *database.Txn, asset string) (types.Amount, error) {
	return l.db.GetBalance(asset, txn)
}

// Transfer moves amount of asset from the vault to recipient. An
// insufficient balance fails with governance.ErrInsufficientBalance and changes nothing
func (l *Ledger) Transfer(
	txn *database.Txn,
	asset string,
	recipient string,
	amount types.Amount,
) error {
	if !amount.IsPositive() {
		return fmt.Errorf("transfer amount must be positive: %s", amount)
	}
	balance, err := l.db.GetBalance(asset, txn)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf(
			"%w: have %s, need %s",
			governance.ErrInsufficientBalance,
			balance,
			amount,
		)
	}
	credited, err := l.db.GetAccountBalance(recipient, asset, txn)
	if err != nil {
		return err
	}
	if err := l.db.SetBalance(asset, balance.SubFloor(amount), txn); err != nil {
		return err
	}
	if err := l.db.SetAccountBalance(recipient, asset, credited.Add(amount), txn); err != nil {
		return err
	}
	l.config.Logger.Debug(
		"transfer recorded",
		"component", "ledger",
		"asset", asset,
		"recipient", recipient,
		"amount", amount.String(),
	)
	return nil
}

// Deposit adds funds to the vault in its own transaction and returns the new balance
func (l *Ledger) Deposit(asset string, amount types.Amount) (types.Amount, error) {
	if !amount.IsPositive() {
		return types.Amount{}, ErrInvalidDeposit
	}
	var ret types.Amount
	txn := l.db.BlobTxn(true)
	err := txn.Do(func(txn *database.Txn) error {
		balance, err := l.db.GetBalance(asset, txn)
		if err != nil {
			return err
		}
		ret = balance.Add(amount)
		return l.db.SetBalance(asset, ret, txn)
	})
	if err != nil {
		return types.Amount{}, fmt.Errorf("deposit %s: %w", asset, err)
	}
	l.metrics.deposits.WithLabelValues(asset).Inc()
	l.config.Logger.Info(
		"deposit recorded",
		"component", "ledger",
		"asset", asset,
		"amount", amount.String(),
		"balance", ret.String(),
	)
	return ret, nil
}

// AccountBalance returns the amount of asset credited to account by transfers
func (l *Ledger) AccountBalance(account string, asset string) (types.Amount, error) {
	txn := l.db.BlobTxn(false)
	defer txn.Release()
	return l.db.GetAccountBalance(account, asset, txn)
}

// Balances returns the vault balance of every asset ever deposited
func (l *Ledger) Balances() (map[string]types.Amount, error) {
	txn := l.db.BlobTxn(false)
	defer txn.Release()
	return l.db.GetBalances(txn)
}
