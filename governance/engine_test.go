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
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blinklabs-io/vault/database"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/event"
	"github.com/blinklabs-io/vault/governance"
	"github.com/blinklabs-io/vault/ledger"
)

const (
	startLedger = 100
	testAsset   = "native"
	testAdmin   = "admin"
)

// fakeLedger wraps the real ledger so tests can inject transfer failures
type fakeLedger struct {
	*ledger.Ledger
	transferErr error
}

func (f *fakeLedger) Transfer(
	txn *database.Txn,
	asset string,
	recipient string,
	amount types.Amount,
) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	return f.Ledger.Transfer(txn, asset, recipient, amount)
}

type testVault struct {
	t      *testing.T
	engine *governance.Engine
	ledger *fakeLedger
	clock  *governance.ManualClock
}

func amt(v int64) types.Amount {
	return types.NewAmount(v)
}

func testConfig() *governance.Config {
	return &governance.Config{
		Signers:           []string{"alice", "bob", "carol"},
		Threshold:         2,
		SpendingLimit:     amt(1000),
		DailyLimit:        amt(5000),
		WeeklyLimit:       amt(20000),
		TimelockThreshold: amt(500),
		TimelockDelay:     200,
	}
}

func newEngine(
	t *testing.T,
	opts ...governance.EngineOptionFunc,
) (*governance.Engine, *fakeLedger, *governance.ManualClock) {
	t.Helper()
	return newEngineWithInterval(t, time.Second, opts...)
}

// newEngineWithInterval sets the wall time per ledger used for blob TTLs
func newEngineWithInterval(
	t *testing.T,
	interval time.Duration,
	opts ...governance.EngineOptionFunc,
) (*governance.Engine, *fakeLedger, *governance.ManualClock) {
	t.Helper()
	db, err := database.New(&database.Config{
		LedgerInterval: interval,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	l, err := ledger.New(ledger.LedgerConfig{Database: db})
	require.NoError(t, err)
	fl := &fakeLedger{Ledger: l}
	clock := governance.NewManualClock(startLedger)
	opts = append(
		[]governance.EngineOptionFunc{
			governance.WithDatabase(db),
			governance.WithLedger(fl),
			governance.WithClock(clock),
		},
		opts...,
	)
	engine, err := governance.NewEngine(opts...)
	require.NoError(t, err)
	return engine, fl, clock
}

// newTestVault returns an initialized vault where alice may propose
func newTestVault(
	t *testing.T,
	cfg *governance.Config,
	opts ...governance.EngineOptionFunc,
) *testVault {
	t.Helper()
	engine, fl, clock := newEngine(t, opts...)
	ctx := context.Background()
	require.NoError(t, engine.Initialize(ctx, testAdmin, cfg))
	require.NoError(t, engine.SetRole(ctx, testAdmin, "alice", governance.RoleTreasurer))
	return &testVault{
		t:      t,
		engine: engine,
		ledger: fl,
		clock:  clock,
	}
}

func (v *testVault) propose(amount int64) *governance.Proposal {
	v.t.Helper()
	p, err := v.engine.Propose(context.Background(), governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(amount),
		Memo:      "test transfer",
	})
	require.NoError(v.t, err)
	return p
}

func (v *testVault) approve(signer string, id uint64) *governance.Proposal {
	v.t.Helper()
	p, err := v.engine.Approve(context.Background(), signer, id)
	require.NoError(v.t, err)
	return p
}

func (v *testVault) deposit(amount int64) {
	v.t.Helper()
	_, err := v.ledger.Deposit(testAsset, amt(amount))
	require.NoError(v.t, err)
}

func (v *testVault) status(id uint64) governance.ProposalStatus {
	v.t.Helper()
	p, err := v.engine.GetProposal(context.Background(), id)
	require.NoError(v.t, err)
	return p.Status
}

func (v *testVault) dailySpent() string {
	v.t.Helper()
	day, _ := v.engine.CurrentBuckets()
	spent, err := v.engine.DailySpent(context.Background(), day)
	require.NoError(v.t, err)
	return spent.String()
}

func (v *testVault) weeklySpent() string {
	v.t.Helper()
	_, week := v.engine.CurrentBuckets()
	spent, err := v.engine.WeeklySpent(context.Background(), week)
	require.NoError(v.t, err)
	return spent.String()
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, err := governance.NewEngine()
	require.Error(t, err)
	_, err = governance.NewEngine(governance.WithDatabase(&database.Database{}))
	require.Error(t, err)
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newEngine(t)

	_, err := engine.Propose(ctx, governance.ProposeRequest{
		Proposer:  testAdmin,
		Recipient: "dave",
		Amount:    amt(1),
	})
	require.ErrorIs(t, err, governance.ErrNotInitialized)
	_, err = engine.Config(ctx)
	require.ErrorIs(t, err, governance.ErrNotInitialized)

	bad := testConfig()
	bad.Threshold = 4
	require.ErrorIs(t, engine.Initialize(ctx, testAdmin, bad), governance.ErrThresholdTooHigh)

	require.NoError(t, engine.Initialize(ctx, testAdmin, testConfig()))
	require.ErrorIs(
		t,
		engine.Initialize(ctx, testAdmin, testConfig()),
		governance.ErrAlreadyInitialized,
	)

	cfg, err := engine.Config(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol"}, cfg.Signers)
	assert.Equal(t, uint32(2), cfg.Threshold)
	assert.Equal(t, "1000", cfg.SpendingLimit.String())

	role, err := engine.GetRole(ctx, testAdmin)
	require.NoError(t, err)
	assert.Equal(t, governance.RoleAdmin, role)

	head, err := engine.AuditHead(ctx)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Equal(t, governance.AuditInitialize, head.Action)
	assert.Equal(t, testAdmin, head.Actor)
}

func TestEngineEventsAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	bus := event.NewEventBus(nil, nil)
	t.Cleanup(bus.Stop)
	_, created := bus.Subscribe(event.ProposalCreatedEventType)
	_, statuses := bus.Subscribe(event.ProposalStatusEventType)

	v := newTestVault(
		t,
		testConfig(),
		governance.WithEventBus(bus),
		governance.WithPromRegistry(reg),
	)
	p := v.propose(100)
	v.approve("alice", p.ID)
	v.approve("bob", p.ID)

	select {
	case evt := <-created:
		data, ok := evt.Data.(event.ProposalCreatedEvent)
		require.True(t, ok)
		assert.Equal(t, p.ID, data.ProposalID)
		assert.Equal(t, "100", data.Amount)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive proposal created event")
	}
	select {
	case evt := <-statuses:
		data, ok := evt.Data.(event.ProposalStatusEvent)
		require.True(t, ok)
		assert.Equal(t, "approved", data.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("did not receive proposal status event")
	}

	expected := `
# HELP vault_proposals_created_total total transfer proposals created
# TYPE vault_proposals_created_total counter
vault_proposals_created_total 1
`
	require.NoError(t, testutil.GatherAndCompare(
		reg,
		strings.NewReader(expected),
		"vault_proposals_created_total",
	))
	count, err := testutil.GatherAndCount(reg, "vault_votes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only approve votes were cast")
}

func TestProposeValidation(t *testing.T) {
	tooLarge := types.AmountFromBig(new(big.Int).Lsh(big.NewInt(1), 127))
	testDefs := []struct {
		name   string
		mutate func(*governance.ProposeRequest)
		err    error
	}{
		{
			name:   "over spending limit",
			mutate: func(r *governance.ProposeRequest) { r.Amount = amt(1001) },
			err:    governance.ErrExceedsProposalLimit,
		},
		{
			name:   "zero amount",
			mutate: func(r *governance.ProposeRequest) { r.Amount = amt(0) },
			err:    governance.ErrInvalidAmount,
		},
		{
			name:   "negative amount",
			mutate: func(r *governance.ProposeRequest) { r.Amount = amt(-5) },
			err:    governance.ErrInvalidAmount,
		},
		{
			name:   "beyond 128 bits",
			mutate: func(r *governance.ProposeRequest) { r.Amount = tooLarge },
			err:    governance.ErrInvalidAmount,
		},
		{
			name:   "member cannot propose",
			mutate: func(r *governance.ProposeRequest) { r.Proposer = "bob" },
			err:    governance.ErrInsufficientRole,
		},
		{
			name: "invalid condition",
			mutate: func(r *governance.ProposeRequest) {
				r.Conditions = []governance.Condition{{Kind: 9}}
			},
			err: governance.ErrInvalidCondition,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			v := newTestVault(t, testConfig())
			req := governance.ProposeRequest{
				Proposer:  "alice",
				Recipient: "dave",
				Asset:     testAsset,
				Amount:    amt(100),
			}
			testDef.mutate(&req)
			_, err := v.engine.Propose(context.Background(), req)
			require.ErrorIs(t, err, testDef.err)

			proposals, err := v.engine.ListProposals(context.Background())
			require.NoError(t, err)
			assert.Empty(t, proposals, "a rejected proposal must not be stored")
			assert.Equal(t, "0", v.dailySpent())
			assert.Equal(t, "0", v.weeklySpent())
		})
	}
}

func TestProposeReservesSpend(t *testing.T) {
	cfg := testConfig()
	cfg.DailyLimit = amt(1500)
	v := newTestVault(t, cfg)

	p := v.propose(1000)
	assert.Equal(t, governance.ProposalStatusPending, p.Status)
	assert.Equal(t, uint64(startLedger+governance.DefaultExpiryPeriod), p.ExpiresLedger)
	assert.Equal(t, []string{"alice", "bob", "carol"}, p.SignerSnapshot)
	assert.Equal(t, "1000", v.dailySpent())
	assert.Equal(t, "1000", v.weeklySpent())

	_, err := v.engine.Propose(context.Background(), governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(600),
	})
	require.ErrorIs(t, err, governance.ErrExceedsDailyLimit)
	assert.Equal(t, "1000", v.dailySpent())

	// A new day resets the daily bucket but not the weekly one
	v.clock.Advance(governance.LedgersPerDay)
	v.propose(600)
	assert.Equal(t, "600", v.dailySpent())
	assert.Equal(t, "1600", v.weeklySpent())
}

func TestProposeWeeklyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.WeeklyLimit = amt(1500)
	v := newTestVault(t, cfg)
	v.propose(1000)
	v.clock.Advance(governance.LedgersPerDay)
	_, err := v.engine.Propose(context.Background(), governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(501),
	})
	require.ErrorIs(t, err, governance.ErrExceedsWeeklyLimit)
	assert.Equal(t, "0", v.dailySpent())
}

func TestProposeVelocity(t *testing.T) {
	cfg := testConfig()
	cfg.Velocity = governance.VelocityLimit{Limit: 2, Window: 50}
	v := newTestVault(t, cfg)
	v.propose(10)
	v.clock.Advance(10)
	v.propose(10)
	_, err := v.engine.Propose(context.Background(), governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(10),
	})
	require.ErrorIs(t, err, governance.ErrVelocityLimitExceeded)
	assert.Equal(t, "20", v.dailySpent(), "a velocity failure reserves nothing")

	// The first action leaves the window after 50 ledgers
	v.clock.Set(startLedger + 51)
	v.propose(10)
}

func TestVelocityHistoryOutlivesWindow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping wall clock test in short mode")
	}
	ctx := context.Background()
	engine, fl, clock := newEngineWithInterval(t, time.Second)
	cfg := testConfig()
	cfg.Velocity = governance.VelocityLimit{Limit: 1, Window: 2}
	require.NoError(t, engine.Initialize(ctx, testAdmin, cfg))
	require.NoError(t, engine.SetRole(ctx, testAdmin, "alice", governance.RoleTreasurer))
	v := &testVault{t: t, engine: engine, ledger: fl, clock: clock}
	v.propose(10)

	// More wall time than the window passes, but the last ledger of the
	// window still sees the earlier action
	time.Sleep(2500 * time.Millisecond)
	clock.Set(startLedger + 2)
	_, err := engine.Propose(ctx, governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     testAsset,
		Amount:    amt(10),
	})
	require.ErrorIs(t, err, governance.ErrVelocityLimitExceeded)

	clock.Set(startLedger + 3)
	v.propose(10)
}

func TestLedgerValuesSaturate(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newEngine(t)
	cfg := testConfig()
	cfg.ExpiryPeriod = math.MaxUint64
	require.ErrorIs(
		t,
		engine.Initialize(ctx, testAdmin, cfg),
		governance.ErrLedgerOutOfRange,
	)

	cfg = testConfig()
	cfg.ExpiryPeriod = governance.MaxLedger
	cfg.VotingPeriod = governance.MaxLedger
	cfg.TimelockDelay = governance.MaxLedger
	v := newTestVault(t, cfg)
	p := v.propose(501)
	assert.Equal(t, governance.MaxLedger, p.ExpiresLedger)
	assert.Equal(t, governance.MaxLedger, p.VotingDeadline)

	v.approve("alice", p.ID)
	p = v.approve("bob", p.ID)
	assert.Equal(t, governance.ProposalStatusApproved, p.Status)
	assert.Equal(t, governance.MaxLedger, p.UnlockLedger)
	stored, err := v.engine.GetProposal(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.MaxLedger, stored.UnlockLedger)
}

func TestRecipientLists(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, testConfig())
	req := governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "mallory",
		Asset:     testAsset,
		Amount:    amt(10),
	}

	require.NoError(t, v.engine.DenyRecipient(ctx, testAdmin, "mallory"))
	// Lists only apply once a mode is selected
	_, err := v.engine.Propose(ctx, req)
	require.NoError(t, err)

	require.NoError(t, v.engine.SetListMode(ctx, testAdmin, governance.ListModeDeny))
	_, err = v.engine.Propose(ctx, req)
	require.ErrorIs(t, err, governance.ErrRecipientDenied)

	require.NoError(t, v.engine.SetListMode(ctx, testAdmin, governance.ListModeAllow))
	_, err = v.engine.Propose(ctx, req)
	require.ErrorIs(t, err, governance.ErrRecipientNotAllowed)
	require.NoError(t, v.engine.AllowRecipient(ctx, testAdmin, "mallory"))
	_, err = v.engine.Propose(ctx, req)
	require.NoError(t, err)

	allowed, err := v.engine.RecipientList(ctx, governance.ListModeAllow)
	require.NoError(t, err)
	assert.Equal(t, []string{"mallory"}, allowed)
	require.NoError(t, v.engine.RemoveRecipient(ctx, testAdmin, "mallory", governance.ListModeAllow))
	_, err = v.engine.Propose(ctx, req)
	require.ErrorIs(t, err, governance.ErrRecipientNotAllowed)

	require.ErrorIs(
		t,
		v.engine.AllowRecipient(ctx, "alice", "eve"),
		governance.ErrUnauthorized,
	)
}

func TestIsNotFound(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t, testConfig())
	_, err := v.engine.GetProposal(ctx, 42)
	require.ErrorIs(t, err, governance.ErrProposalNotFound)
	assert.True(t, governance.IsNotFound(err))
	_, err = v.engine.GetCancellation(ctx, 42)
	assert.True(t, governance.IsNotFound(err))
	_, err = v.engine.AuditEntry(ctx, 42)
	assert.True(t, governance.IsNotFound(err))
	assert.False(t, governance.IsNotFound(errors.New("other")))
}
