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

func delegationConfig() *governance.Config {
	cfg := testConfig()
	cfg.Signers = []string{"alice", "bob", "carol", "dave", "erin"}
	return cfg
}

func TestDelegateValidation(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, delegationConfig())

	_, err := v.engine.Delegate(ctx, "alice", "alice", 0)
	require.ErrorIs(t, err, governance.ErrCannotDelegateToSelf)
	_, err = v.engine.Delegate(ctx, "mallory", "alice", 0)
	require.ErrorIs(t, err, governance.ErrDelegatorNotSigner)
	_, err = v.engine.Delegate(ctx, "alice", "mallory", 0)
	require.ErrorIs(t, err, governance.ErrDelegateNotSigner)
	_, err = v.engine.Delegate(ctx, "alice", "bob", startLedger)
	require.ErrorIs(t, err, governance.ErrDelegationExpired)
	_, err = v.engine.Delegate(ctx, "alice", "bob", math.MaxUint64)
	require.ErrorIs(t, err, governance.ErrLedgerOutOfRange)

	d, err := v.engine.Delegate(ctx, "alice", "bob", 0)
	require.NoError(t, err)
	assert.True(t, d.Active)
	assert.Equal(t, uint64(startLedger), d.CreatedLedger)
	_, err = v.engine.Delegate(ctx, "alice", "carol", 0)
	require.ErrorIs(t, err, governance.ErrDelegationAlreadyExists)
}

func TestDelegateMaxExpiry(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, delegationConfig())
	d, err := v.engine.Delegate(ctx, "alice", "bob", governance.MaxLedger)
	require.NoError(t, err)
	assert.Equal(t, governance.MaxLedger, d.ExpiryLedger)
	stored, err := v.engine.GetDelegation(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.MaxLedger, stored.ExpiryLedger)
}

func TestDelegateCycle(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, delegationConfig())
	_, err := v.engine.Delegate(ctx, "alice", "bob", 0)
	require.NoError(t, err)

	_, err = v.engine.Delegate(ctx, "bob", "alice", 0)
	require.ErrorIs(t, err, governance.ErrCircularDelegation)

	_, err = v.engine.Delegate(ctx, "bob", "carol", 0)
	require.NoError(t, err)
	_, err = v.engine.Delegate(ctx, "carol", "alice", 0)
	require.ErrorIs(t, err, governance.ErrCircularDelegation)

	delegations, err := v.engine.ListDelegations(ctx)
	require.NoError(t, err)
	assert.Len(t, delegations, 2, "a rejected delegation writes nothing")
}

func TestDelegationDepth(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, delegationConfig())
	_, err := v.engine.Delegate(ctx, "bob", "carol", 0)
	require.NoError(t, err)
	_, err = v.engine.Delegate(ctx, "carol", "dave", 0)
	require.NoError(t, err)

	// alice -> bob -> carol -> dave needs a third hop
	_, err = v.engine.Delegate(ctx, "alice", "bob", 0)
	require.ErrorIs(t, err, governance.ErrDelegationChainTooDeep)

	voter, err := v.engine.EffectiveVoter(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "dave", voter)

	// A chain grown from the far end is caught when it is resolved
	_, err = v.engine.Delegate(ctx, "dave", "erin", 0)
	require.NoError(t, err)
	_, err = v.engine.EffectiveVoter(ctx, "bob")
	require.ErrorIs(t, err, governance.ErrDelegationChainTooDeep)

	p := v.propose(100)
	_, err = v.engine.Approve(ctx, "bob", p.ID)
	require.ErrorIs(t, err, governance.ErrDelegationChainTooDeep)
}

func TestDelegationExpiryAndRevoke(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, delegationConfig())
	d, err := v.engine.Delegate(ctx, "alice", "bob", 200)
	require.NoError(t, err)

	voter, err := v.engine.EffectiveVoter(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "bob", voter)

	v.clock.Set(200)
	voter, err = v.engine.EffectiveVoter(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", voter, "a lapsed delegation no longer redirects votes")

	// A lapsed delegation does not block a new one
	d2, err := v.engine.Delegate(ctx, "alice", "carol", 0)
	require.NoError(t, err)
	old, err := v.engine.GetDelegation(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, old.Active)

	require.ErrorIs(t, v.engine.RevokeDelegation(ctx, "carol", d2.ID), governance.ErrUnauthorized)
	require.NoError(t, v.engine.RevokeDelegation(ctx, "alice", d2.ID))
	require.ErrorIs(t, v.engine.RevokeDelegation(ctx, "alice", d2.ID), governance.ErrDelegationNotActive)
	require.ErrorIs(t, v.engine.RevokeDelegation(ctx, "alice", 99), governance.ErrDelegationNotFound)

	voter, err = v.engine.EffectiveVoter(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", voter)

	revoked, err := v.engine.GetDelegation(ctx, d2.ID)
	require.NoError(t, err)
	assert.False(t, revoked.Active)
	assert.Equal(t, uint64(200), revoked.RevokedLedger)
}
