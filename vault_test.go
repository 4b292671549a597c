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

package vault_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/blinklabs-io/vault"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/governance"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testGovernanceConfig() *governance.Config {
	return &governance.Config{
		Signers:           []string{"alice", "bob"},
		Threshold:         2,
		SpendingLimit:     types.NewAmount(1000),
		DailyLimit:        types.NewAmount(5000),
		WeeklyLimit:       types.NewAmount(20000),
		TimelockThreshold: types.NewAmount(1000000),
	}
}

func freeAddress(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestNewConfigDefaults(t *testing.T) {
	cfg := vault.NewConfig()
	n, err := vault.New(cfg)
	require.NoError(t, err)
	assert.Nil(t, n.Engine(), "engine is created by Open")
	require.NoError(t, n.Stop())
}

func TestNewRejectsStdoutTracingAlone(t *testing.T) {
	_, err := vault.New(vault.NewConfig(vault.WithTracingStdout(true)))
	require.Error(t, err)
}

func TestNodeOpenAndOperate(t *testing.T) {
	clock := governance.NewManualClock(10)
	n, err := vault.New(vault.NewConfig(vault.WithClock(clock)))
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, n.Open(ctx))
	require.NoError(t, n.Open(ctx), "open is idempotent")

	engine := n.Engine()
	require.NotNil(t, engine)
	require.NoError(t, engine.Initialize(ctx, "admin", testGovernanceConfig()))
	require.NoError(t, engine.SetRole(ctx, "admin", "alice", governance.RoleTreasurer))
	_, err = n.Ledger().Deposit("native", types.NewAmount(500))
	require.NoError(t, err)

	p, err := engine.Propose(ctx, governance.ProposeRequest{
		Proposer:  "alice",
		Recipient: "dave",
		Asset:     "native",
		Amount:    types.NewAmount(200),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(10), p.CreatedLedger)
	_, err = engine.Approve(ctx, "alice", p.ID)
	require.NoError(t, err)
	_, err = engine.Approve(ctx, "bob", p.ID)
	require.NoError(t, err)
	res, err := engine.Execute(ctx, "bob", p.ID)
	require.NoError(t, err)
	assert.Equal(t, governance.OutcomeExecuted, res.Outcome)

	balance, err := n.Ledger().AccountBalance("dave", "native")
	require.NoError(t, err)
	assert.Equal(t, "200", balance.String())

	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop(), "stop is idempotent")
}

func TestNodeRunServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	addr := freeAddress(t)
	n, err := vault.New(vault.NewConfig(
		vault.WithPrometheusRegistry(registry),
		vault.WithMetricsAddress(addr),
		vault.WithShutdownTimeout(5*time.Second),
	))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()

	client := &http.Client{
		Transport: &http.Transport{DisableKeepAlives: true},
		Timeout:   time.Second,
	}
	var body string
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		buf, err := io.ReadAll(resp.Body)
		if err != nil || resp.StatusCode != http.StatusOK {
			return false
		}
		body = string(buf)
		return true
	}, 5*time.Second, 50*time.Millisecond)
	assert.Contains(t, body, "vault_")

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("node did not shut down")
	}
}
