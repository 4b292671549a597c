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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/governance"
)

func TestSetRole(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, testConfig())

	require.ErrorIs(
		t,
		v.engine.SetRole(ctx, "alice", "bob", governance.RoleAdmin),
		governance.ErrUnauthorized,
	)
	role, err := v.engine.GetRole(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, governance.RoleMember, role)

	require.NoError(t, v.engine.SetRole(ctx, testAdmin, "bob", governance.RoleTreasurer))
	role, err = v.engine.GetRole(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, governance.RoleTreasurer, role)
	_, err = v.engine.Propose(ctx, governance.ProposeRequest{
		Proposer:  "bob",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(10),
	})
	require.NoError(t, err)

	require.NoError(t, v.engine.SetRole(ctx, testAdmin, "alice", governance.RoleMember))
	_, err = v.engine.Propose(ctx, governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(10),
	})
	require.ErrorIs(t, err, governance.ErrInsufficientRole)
}

func TestSignerManagement(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Quorum = 2
	v := newTestVault(t, cfg)

	require.ErrorIs(t, v.engine.AddSigner(ctx, "alice", "erin"), governance.ErrUnauthorized)
	require.ErrorIs(t, v.engine.AddSigner(ctx, testAdmin, "bob"), governance.ErrSignerAlreadyExists)
	require.ErrorIs(t, v.engine.AddSigner(ctx, testAdmin, ""), governance.ErrInvalidSigner)
	require.ErrorIs(t, v.engine.RemoveSigner(ctx, testAdmin, "erin"), governance.ErrSignerNotFound)

	require.NoError(t, v.engine.RemoveSigner(ctx, testAdmin, "carol"))
	require.ErrorIs(
		t,
		v.engine.RemoveSigner(ctx, testAdmin, "bob"),
		governance.ErrCannotRemoveSigner,
		"one signer cannot reach a threshold of two",
	)

	require.NoError(t, v.engine.AddSigner(ctx, testAdmin, "erin"))
	current, err := v.engine.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "erin"}, current.Signers)
}

func TestConfigUpdatesRevalidate(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, testConfig())

	require.ErrorIs(t, v.engine.UpdateThreshold(ctx, testAdmin, 4), governance.ErrThresholdTooHigh)
	require.ErrorIs(t, v.engine.UpdateThreshold(ctx, testAdmin, 0), governance.ErrThresholdTooLow)
	require.ErrorIs(t, v.engine.UpdateQuorum(ctx, testAdmin, 4), governance.ErrQuorumTooHigh)
	require.ErrorIs(
		t,
		v.engine.UpdateLimits(ctx, testAdmin, amt(0), amt(1), amt(1)),
		governance.ErrInvalidLimit,
	)
	require.ErrorIs(
		t,
		v.engine.UpdateRetryPolicy(ctx, testAdmin, governance.RetryPolicy{Enabled: true}),
		governance.ErrInvalidRetryPolicy,
	)
	require.ErrorIs(
		t,
		v.engine.UpdateVelocity(ctx, testAdmin, governance.VelocityLimit{Limit: 1}),
		governance.ErrInvalidVelocity,
	)
	require.ErrorIs(t, v.engine.UpdateThreshold(ctx, "bob", 1), governance.ErrUnauthorized)

	require.NoError(t, v.engine.UpdateThreshold(ctx, testAdmin, 3))
	require.NoError(t, v.engine.UpdateQuorum(ctx, testAdmin, 3))
	require.NoError(t, v.engine.UpdateLimits(ctx, testAdmin, amt(50), amt(100), amt(200)))
	require.NoError(t, v.engine.UpdateTimelock(ctx, testAdmin, amt(40), 10))
	require.NoError(t, v.engine.UpdateVotingPeriod(ctx, testAdmin, 500))
	require.NoError(t, v.engine.UpdateVelocity(
		ctx,
		testAdmin,
		governance.VelocityLimit{Limit: 5, Window: 100},
	))
	require.NoError(t, v.engine.UpdateRetryPolicy(
		ctx,
		testAdmin,
		governance.RetryPolicy{Enabled: true, MaxRetries: 2, InitialBackoff: 7},
	))

	cfg, err := v.engine.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), cfg.Threshold)
	assert.Equal(t, uint32(3), cfg.Quorum)
	assert.Equal(t, "50", cfg.SpendingLimit.String())
	assert.Equal(t, "100", cfg.DailyLimit.String())
	assert.Equal(t, "200", cfg.WeeklyLimit.String())
	assert.Equal(t, "40", cfg.TimelockThreshold.String())
	assert.Equal(t, uint64(10), cfg.TimelockDelay)
	assert.Equal(t, uint64(500), cfg.VotingPeriod)
	assert.Equal(t, governance.VelocityLimit{Limit: 5, Window: 100}, cfg.Velocity)
	assert.Equal(t, governance.RetryPolicy{Enabled: true, MaxRetries: 2, InitialBackoff: 7}, cfg.Retry)

	// Threshold blocks signer removal after the update
	require.ErrorIs(t, v.engine.RemoveSigner(ctx, testAdmin, "carol"), governance.ErrCannotRemoveSigner)
}

func TestThresholdStrategies(t *testing.T) {
	ctx := context.Background()

	t.Run("amount tiers", func(t *testing.T) {
		cfg := testConfig()
		cfg.Threshold = 1
		cfg.Strategy = governance.ThresholdConfig{
			Kind:  governance.StrategyAmountTier,
			Tiers: []governance.AmountTier{{MinAmount: amt(400), Approvals: 3}},
		}
		v := newTestVault(t, cfg)
		small := v.propose(100)
		large := v.propose(400)
		assert.Equal(t, governance.ProposalStatusApproved, v.approve("alice", small.ID).Status)
		v.approve("alice", large.ID)
		assert.Equal(t, governance.ProposalStatusPending, v.approve("bob", large.ID).Status)
		assert.Equal(t, governance.ProposalStatusApproved, v.approve("carol", large.ID).Status)
	})

	t.Run("percentage", func(t *testing.T) {
		cfg := testConfig()
		cfg.Strategy = governance.ThresholdConfig{
			Kind:       governance.StrategyPercentage,
			Percentage: 100,
		}
		v := newTestVault(t, cfg)
		p := v.propose(100)
		v.approve("alice", p.ID)
		assert.Equal(t, governance.ProposalStatusPending, v.approve("bob", p.ID).Status)
		assert.Equal(t, governance.ProposalStatusApproved, v.approve("carol", p.ID).Status)
	})

	t.Run("time based", func(t *testing.T) {
		cfg := testConfig()
		cfg.Threshold = 3
		cfg.Strategy = governance.ThresholdConfig{
			Kind:             governance.StrategyTimeBased,
			ReducedThreshold: 1,
			ReductionDelay:   100,
		}
		v := newTestVault(t, cfg)
		p := v.propose(100)
		assert.Equal(t, governance.ProposalStatusPending, v.approve("alice", p.ID).Status)
		v.clock.Advance(100)
		assert.Equal(t, governance.ProposalStatusApproved, v.approve("bob", p.ID).Status)
	})

	t.Run("invalid", func(t *testing.T) {
		v := newTestVault(t, testConfig())
		err := v.engine.UpdateThresholdStrategy(ctx, testAdmin, governance.ThresholdConfig{
			Kind: governance.StrategyPercentage,
		})
		require.ErrorIs(t, err, governance.ErrInvalidStrategy)
	})
}
