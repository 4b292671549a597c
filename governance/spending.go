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

package governance

import (
	"context"

	"github.com/blinklabs-io/vault/database/types"
)

const (
	// Spend buckets outlive their period so that late refunds still find them
	dayRetention  = 2 * LedgersPerDay
	weekRetention = 2 * LedgersPerWeek
)

func dayBucket(now uint64) uint64 {
	return now / LedgersPerDay
}

func weekBucket(now uint64) uint64 {
	return now / LedgersPerWeek
}

// chargeSpend adds amount to the current day and week buckets, failing if
// either limit would be exceeded. It returns the buckets that were charged
func (e *Engine) chargeSpend(
	op *operation,
	cfg *Config,
	amount types.Amount,
) (uint64, uint64, error) {
	day := dayBucket(op.now)
	week := weekBucket(op.now)
	dayKey := types.SpendDayKey(day)
	weekKey := types.SpendWeekKey(week)
	spentDay, err := e.db.GetSpend(dayKey, op.txn)
	if err != nil {
		return 0, 0, err
	}
	if spentDay.Add(amount).Cmp(cfg.DailyLimit) > 0 {
		return 0, 0, ErrExceedsDailyLimit
	}
	spentWeek, err := e.db.GetSpend(weekKey, op.txn)
	if err != nil {
		return 0, 0, err
	}
	if spentWeek.Add(amount).Cmp(cfg.WeeklyLimit) > 0 {
		return 0, 0, ErrExceedsWeeklyLimit
	}
	if err := e.db.SetSpend(dayKey, spentDay.Add(amount), dayRetention, op.txn); err != nil {
		return 0, 0, err
	}
	if err := e.db.SetSpend(weekKey, spentWeek.Add(amount), weekRetention, op.txn); err != nil {
		return 0, 0, err
	}
	op.onCommit(func() {
		e.metrics.spendReserved.Add(amountFloat(amount))
	})
	return day, week, nil
}

// refundSpend returns amount to the given buckets, flooring each at zero
func (e *Engine) refundSpend(
	op *operation,
	day uint64,
	week uint64,
	amount types.Amount,
) error {
	buckets := []struct {
		key       []byte
		retention uint64
	}{
		{types.SpendDayKey(day), dayRetention},
		{types.SpendWeekKey(week), weekRetention},
	}
	for _, bucket := range buckets {
		spent, err := e.db.GetSpend(bucket.key, op.txn)
		if err != nil {
			return err
		}
		if err := e.db.SetSpend(bucket.key, spent.SubFloor(amount), bucket.retention, op.txn); err != nil {
			return err
		}
	}
	return nil
}

// checkVelocity records an action by signer, failing if the signer already
// reached the limit inside the window [now-window, now]
func (e *Engine) checkVelocity(op *operation, cfg *Config, signer string) error {
	if cfg.Velocity.Limit == 0 {
		return nil
	}
	history, err := e.db.GetVelocityHistory(signer, op.txn)
	if err != nil {
		return err
	}
	var windowStart uint64
	if op.now > cfg.Velocity.Window {
		windowStart = op.now - cfg.Velocity.Window
	}
	recent := make([]uint64, 0, len(history)+1)
	for _, ledger := range history {
		if ledger >= windowStart {
			recent = append(recent, ledger)
		}
	}
	if len(recent) >= int(cfg.Velocity.Limit) {
		return ErrVelocityLimitExceeded
	}
	recent = append(recent, op.now)
	return e.db.SetVelocityHistory(signer, recent, velocityRetention(cfg.Velocity.Window), op.txn)
}

// velocityRetention outlives the window so an entry is never dropped by TTL
// while its ledger is still inside [now-window, now]. Pruning happens above
func velocityRetention(window uint64) uint64 {
	return saturatingAdd(window, window)
}

// DailySpent returns the amount charged against the given day bucket
func (e *Engine) DailySpent(ctx context.Context, day uint64) (types.Amount, error) {
	var ret types.Amount
	err := e.view(ctx, "daily_spent", func(op *operation) error {
		var err error
		ret, err = e.db.GetSpend(types.SpendDayKey(day), op.txn)
		return err
	})
	return ret, err
}

// WeeklySpent returns the amount charged against the given week bucket
func (e *Engine) WeeklySpent(ctx context.Context, week uint64) (types.Amount, error) {
	var ret types.Amount
	err := e.view(ctx, "weekly_spent", func(op *operation) error {
		var err error
		ret, err = e.db.GetSpend(types.SpendWeekKey(week), op.txn)
		return err
	})
	return ret, err
}

// CurrentBuckets returns the day and week buckets of the current ledger
func (e *Engine) CurrentBuckets() (uint64, uint64) {
	now := e.clock.Now()
	return dayBucket(now), weekBucket(now)
}
