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
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

func TestRetryBackoff(t *testing.T) {
	testDefs := []struct {
		initial  uint64
		count    uint32
		expected uint64
	}{
		{initial: 10, count: 1, expected: 10},
		{initial: 10, count: 2, expected: 20},
		{initial: 10, count: 3, expected: 40},
		{initial: 10, count: 11, expected: 10240},
		{initial: 10, count: 40, expected: 10240},
		{initial: math.MaxUint64 / 2, count: 3, expected: math.MaxUint64},
	}
	for _, testDef := range testDefs {
		assert.Equal(
			t,
			testDef.expected,
			retryBackoff(testDef.initial, testDef.count),
			"initial %d count %d",
			testDef.initial,
			testDef.count,
		)
	}
	assert.Equal(t, MaxLedger, saturatingAdd(math.MaxUint64-1, 5))
	assert.Equal(t, MaxLedger, saturatingAdd(MaxLedger-1, 1))
	assert.Equal(t, MaxLedger, saturatingAdd(MaxLedger, 0))
	assert.Equal(t, uint64(30), saturatingAdd(10, 20))
}

func TestVelocityRetention(t *testing.T) {
	for _, window := range []uint64{1, 50, LedgersPerDay} {
		// The newest entry must survive a full window after it is written
		assert.Greater(t, velocityRetention(window), window, "window %d", window)
	}
	assert.Equal(t, MaxLedger, velocityRetention(MaxLedger))
}

func TestThresholdStrategyApprovals(t *testing.T) {
	assert.Equal(t, uint32(2), FixedThreshold{Threshold: 2}.RequiredApprovals(types.NewAmount(1), 5, 0))

	pct := PercentageThreshold{Percentage: 51}
	assert.Equal(t, uint32(3), pct.RequiredApprovals(types.Amount{}, 4, 0))
	assert.Equal(t, uint32(1), PercentageThreshold{Percentage: 1}.RequiredApprovals(types.Amount{}, 3, 0))

	tiers := AmountTierThreshold{
		Base: 1,
		Tiers: []AmountTier{
			{MinAmount: types.NewAmount(100), Approvals: 2},
			{MinAmount: types.NewAmount(1000), Approvals: 3},
		},
	}
	assert.Equal(t, uint32(1), tiers.RequiredApprovals(types.NewAmount(99), 3, 0))
	assert.Equal(t, uint32(2), tiers.RequiredApprovals(types.NewAmount(100), 3, 0))
	assert.Equal(t, uint32(3), tiers.RequiredApprovals(types.NewAmount(5000), 3, 0))

	timed := TimeBasedThreshold{Initial: 3, Reduced: 1, Delay: 10}
	assert.Equal(t, uint32(3), timed.RequiredApprovals(types.Amount{}, 3, 9))
	assert.Equal(t, uint32(1), timed.RequiredApprovals(types.Amount{}, 3, 10))
}

func TestConditionsMet(t *testing.T) {
	balance := types.NewAmount(500)
	after := DateAfter(100)
	before := DateBefore(200)
	rich := BalanceAbove(types.NewAmount(500))

	assert.True(t, conditionsMet(nil, ConditionLogicAnd, balance, 0))
	assert.True(t, conditionsMet(nil, ConditionLogicOr, balance, 0))
	assert.True(t, conditionsMet([]Condition{after, before}, ConditionLogicAnd, balance, 150))
	assert.False(t, conditionsMet([]Condition{after, before}, ConditionLogicAnd, balance, 100))
	assert.False(t, conditionsMet([]Condition{after, rich}, ConditionLogicAnd, balance, 150))
	assert.True(t, conditionsMet([]Condition{after, rich}, ConditionLogicOr, balance, 150))
	assert.False(t, conditionsMet([]Condition{rich}, ConditionLogicOr, balance, 150), "balance must be strictly above")
	assert.True(t, conditionsMet([]Condition{rich}, ConditionLogicOr, types.NewAmount(501), 150))
	assert.Equal(t, "after:100", after.String())
}

func testChain(n int) []models.AuditEntry {
	ret := make([]models.AuditEntry, 0, n)
	var prev uint64
	for i := 1; i <= n; i++ {
		entry := models.AuditEntry{
			ID:        uint64(i), //nolint:gosec // test input
			Action:    uint8(AuditApproveProposal),
			Actor:     "alice",
			Target:    uint64(i),       //nolint:gosec // test input
			Timestamp: uint64(100 + i), //nolint:gosec // test input
			PrevHash:  types.Uint64(prev),
		}
		prev = AuditHash(prev, AuditApproveProposal, entry.Actor, entry.Target, entry.Timestamp)
		entry.Hash = types.Uint64(prev)
		ret = append(ret, entry)
	}
	return ret
}

func TestVerifyAuditChain(t *testing.T) {
	for _, n := range []int{1, 2, 10} {
		assert.True(t, verifyAuditChain(testChain(n), 1, uint64(n)), "untouched chain of %d", n) //nolint:gosec // test input
	}

	mutations := map[string]func(*models.AuditEntry){
		"actor":     func(e *models.AuditEntry) { e.Actor = "mallory" },
		"action":    func(e *models.AuditEntry) { e.Action = uint8(AuditExecuteProposal) },
		"target":    func(e *models.AuditEntry) { e.Target++ },
		"timestamp": func(e *models.AuditEntry) { e.Timestamp++ },
		"prev hash": func(e *models.AuditEntry) { e.PrevHash++ },
		"hash":      func(e *models.AuditEntry) { e.Hash++ },
	}
	for name, mutate := range mutations {
		for idx := range 5 {
			chain := testChain(5)
			mutate(&chain[idx])
			assert.False(t, verifyAuditChain(chain, 1, 5), "%s mutated at entry %d", name, idx+1)
		}
	}

	chain := testChain(3)
	assert.False(t, verifyAuditChain(chain[:2], 1, 3), "missing entry")
	assert.False(t, verifyAuditChain(chain, 0, 2), "ids start at 1")
	chain[1].ID = 5
	assert.False(t, verifyAuditChain(chain, 1, 3), "ids must be consecutive")
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`
signers: [alice, bob, carol]
threshold: 2
quorum: 2
spendingLimit: 1000
dailyLimit: 5000
weeklyLimit: 20000
timelockThreshold: 500
timelockDelay: 200
velocity:
  limit: 5
  window: 720
retry:
  enabled: true
  maxRetries: 3
  initialBackoff: 10
thresholdStrategy:
  kind: amount
  tiers:
    - minAmount: 800
      approvals: 3
listMode: deny
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Signers)
	assert.Equal(t, "20000", cfg.WeeklyLimit.String())
	assert.Equal(t, ListModeDeny, cfg.ListMode)
	assert.Equal(t, StrategyAmountTier, cfg.Strategy.Kind)
	assert.Equal(t, RetryPolicy{Enabled: true, MaxRetries: 3, InitialBackoff: 10}, cfg.Retry)

	// Round trip through the stored model
	restored := configFromModel(cfg.toModel(1))
	assert.Equal(t, cfg, restored)

	_, err = LoadConfig(strings.NewReader("signers: [alice]\nbogus: 1\n"))
	require.Error(t, err, "unknown fields are rejected")
}

func TestLoadThresholdConfig(t *testing.T) {
	strategy, err := LoadThresholdConfig(strings.NewReader(`
kind: time
reducedThreshold: 1
reductionDelay: 100
`))
	require.NoError(t, err)
	assert.Equal(t, StrategyTimeBased, strategy.Kind)
	assert.Equal(t, uint32(1), strategy.ReducedThreshold)
	assert.Equal(t, uint64(100), strategy.ReductionDelay)

	_, err = LoadThresholdConfig(strings.NewReader("kind: fixed\nextra: true\n"))
	require.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Signers:           []string{"alice", "bob"},
			Threshold:         1,
			SpendingLimit:     types.NewAmount(1),
			DailyLimit:        types.NewAmount(1),
			WeeklyLimit:       types.NewAmount(1),
			TimelockThreshold: types.NewAmount(1),
		}
	}
	require.NoError(t, valid().Validate())

	testDefs := []struct {
		name   string
		mutate func(*Config)
		err    error
	}{
		{"no signers", func(c *Config) { c.Signers = nil }, ErrNoSigners},
		{"empty signer", func(c *Config) { c.Signers = []string{"alice", ""} }, ErrInvalidSigner},
		{"duplicate signer", func(c *Config) { c.Signers = []string{"alice", "alice"} }, ErrDuplicateSigner},
		{"zero threshold", func(c *Config) { c.Threshold = 0 }, ErrThresholdTooLow},
		{"threshold above signers", func(c *Config) { c.Threshold = 3 }, ErrThresholdTooHigh},
		{"quorum above signers", func(c *Config) { c.Quorum = 3 }, ErrQuorumTooHigh},
		{"zero daily limit", func(c *Config) { c.DailyLimit = types.Amount{} }, ErrInvalidLimit},
		{"zero timelock threshold", func(c *Config) { c.TimelockThreshold = types.NewAmount(0) }, ErrInvalidLimit},
		{"velocity without window", func(c *Config) { c.Velocity.Limit = 1 }, ErrInvalidVelocity},
		{"retry without backoff", func(c *Config) { c.Retry = RetryPolicy{Enabled: true, MaxRetries: 1} }, ErrInvalidRetryPolicy},
		{"unknown strategy", func(c *Config) { c.Strategy.Kind = "bogus" }, ErrInvalidStrategy},
		{"expiry period out of range", func(c *Config) { c.ExpiryPeriod = math.MaxUint64 }, ErrLedgerOutOfRange},
		{"voting period out of range", func(c *Config) { c.VotingPeriod = MaxLedger + 1 }, ErrLedgerOutOfRange},
		{"timelock delay out of range", func(c *Config) { c.TimelockDelay = math.MaxUint64 }, ErrLedgerOutOfRange},
		{"velocity window out of range", func(c *Config) { c.Velocity = VelocityLimit{Limit: 1, Window: math.MaxUint64} }, ErrLedgerOutOfRange},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cfg := valid()
			testDef.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), testDef.err)
		})
	}
}
