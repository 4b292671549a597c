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

package governance_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/governance"
)

func scheduleRequest() governance.ScheduleRecurringRequest {
	return governance.ScheduleRecurringRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(100),
		Memo:      "payroll",
		Interval:  governance.MinRecurringInterval,
	}
}

func TestScheduleRecurringValidation(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, testConfig())

	req := scheduleRequest()
	req.Interval = governance.MinRecurringInterval - 1
	_, err := v.engine.ScheduleRecurring(ctx, req)
	require.ErrorIs(t, err, governance.ErrIntervalTooShort)

	req = scheduleRequest()
	req.Interval = math.MaxUint64
	_, err = v.engine.ScheduleRecurring(ctx, req)
	require.ErrorIs(t, err, governance.ErrLedgerOutOfRange)

	req = scheduleRequest()
	req.Proposer = "bob"
	_, err = v.engine.ScheduleRecurring(ctx, req)
	require.ErrorIs(t, err, governance.ErrInsufficientRole)

	req = scheduleRequest()
	req.Amount = amt(1001)
	_, err = v.engine.ScheduleRecurring(ctx, req)
	require.ErrorIs(t, err, governance.ErrExceedsProposalLimit)

	payments, err := v.engine.ListRecurring(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestRecurringPayment(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, testConfig())
	v.deposit(150)

	r, err := v.engine.ScheduleRecurring(ctx, scheduleRequest())
	require.NoError(t, err)
	assert.True(t, r.Active)
	assert.Equal(t, startLedger+governance.MinRecurringInterval, r.NextPayment)

	_, err = v.engine.ExecuteRecurring(ctx, "bob", r.ID)
	require.ErrorIs(t, err, governance.ErrRecurringNotDue)

	v.clock.Set(r.NextPayment)
	r, err = v.engine.ExecuteRecurring(ctx, "bob", r.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), r.PaymentCount)
	assert.Equal(t, startLedger+2*governance.MinRecurringInterval, r.NextPayment)
	assert.Equal(t, "100", v.dailySpent())
	credited, err := v.ledger.AccountBalance("dave", testAsset)
	require.NoError(t, err)
	assert.Equal(t, "100", credited.String())

	v.clock.Set(r.NextPayment)
	_, err = v.engine.ExecuteRecurring(ctx, "bob", r.ID)
	require.ErrorIs(t, err, governance.ErrInsufficientBalance)
	assert.Equal(t, "100", v.dailySpent(), "a failed payment charges nothing")

	require.ErrorIs(t, v.engine.CancelRecurring(ctx, "bob", r.ID), governance.ErrUnauthorized)
	require.NoError(t, v.engine.CancelRecurring(ctx, "alice", r.ID))
	_, err = v.engine.ExecuteRecurring(ctx, "bob", r.ID)
	require.ErrorIs(t, err, governance.ErrRecurringNotActive)
	require.ErrorIs(t, v.engine.CancelRecurring(ctx, testAdmin, r.ID), governance.ErrRecurringNotActive)

	active, err := v.engine.ListRecurring(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)
	stored, err := v.engine.GetRecurring(ctx, r.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)
	_, err = v.engine.GetRecurring(ctx, 99)
	require.ErrorIs(t, err, governance.ErrRecurringNotFound)
}

func TestRecurringRespectsDailyLimit(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.DailyLimit = amt(150)
	v := newTestVault(t, cfg)
	v.deposit(1000)
	r, err := v.engine.ScheduleRecurring(ctx, scheduleRequest())
	require.NoError(t, err)
	v.propose(100)

	v.clock.Set(r.NextPayment)
	_, err = v.engine.ExecuteRecurring(ctx, "bob", r.ID)
	require.ErrorIs(t, err, governance.ErrExceedsDailyLimit)
}
