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
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/blinklabs-io/vault/database/types"
)

type engineMetrics struct {
	proposalsCreated prometheus.Counter
	votes            *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	executions       *prometheus.CounterVec
	retriesScheduled prometheus.Counter
	auditEntries     prometheus.Counter
	spendReserved    prometheus.Counter
}

// newEngineMetrics registers the engine metrics. A nil registry leaves them unregistered
func newEngineMetrics(promRegistry prometheus.Registerer) *engineMetrics {
	promautoFactory := promauto.With(promRegistry)
	return &engineMetrics{
		proposalsCreated: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "vault_proposals_created_total",
				Help: "total transfer proposals created",
			},
		),
		votes: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_votes_total",
				Help: "total votes recorded by kind",
			},
			[]string{"kind"},
		),
		transitions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_proposal_transitions_total",
				Help: "total proposal status transitions by new status",
			},
			[]string{"status"},
		),
		executions: promautoFactory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vault_executions_total",
				Help: "total execution attempts that returned a result, by outcome",
			},
			[]string{"outcome"},
		),
		retriesScheduled: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "vault_retries_scheduled_total",
				Help: "total execution retries scheduled after transient failures",
			},
		),
		auditEntries: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "vault_audit_entries_total",
				Help: "total audit entries appended",
			},
		),
		spendReserved: promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "vault_spend_reserved",
				Help: "total amount reserved against spending limits",
			},
		),
	}
}

func amountFloat(amount types.Amount) float64 {
	ret, _ := new(big.Float).SetInt(amount.Big()).Float64()
	return ret
}
