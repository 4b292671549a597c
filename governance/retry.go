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
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/event"
)

// retryBackoff returns initial * 2^min(count-1, 10), saturating on overflow
func retryBackoff(initial uint64, count uint32) uint64 {
	if count == 0 {
		return initial
	}
	exp := min(count-1, maxBackoffExponent)
	if initial > uint64(math.MaxUint64)>>exp {
		return math.MaxUint64
	}
	return initial << exp
}

// saturatingAdd adds ledger values, saturating at MaxLedger
func saturatingAdd(a, b uint64) uint64 {
	if a >= MaxLedger || b > MaxLedger-a {
		return MaxLedger
	}
	return a + b
}

func retryStateFromModel(m *models.RetryState) *RetryState {
	return &RetryState{
		RetryCount:        m.RetryCount,
		NextRetryLedger:   m.NextRetryLedger,
		LastAttemptLedger: m.LastAttemptLedger,
	}
}

// loadRetryState returns the retry state of a proposal, or nil if it never failed
func (e *Engine) loadRetryState(op *operation, proposalID uint64) (*models.RetryState, error) {
	state, err := e.db.GetRetryState(proposalID, op.txn)
	if err != nil {
		if errors.Is(err, models.ErrRetryStateNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return state, nil
}

// scheduleRetry records a transient execution failure and arms the next
// attempt. It fails with ErrRetriesExhausted once the count passes the
// configured maximum
func (e *Engine) scheduleRetry(
	op *operation,
	cfg *Config,
	executor string,
	proposalID uint64,
	reason error,
) (*RetryState, error) {
	state, err := e.loadRetryState(op, proposalID)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = &models.RetryState{}
	}
	state.RetryCount++
	if state.RetryCount > cfg.Retry.MaxRetries {
		return nil, fmt.Errorf("%w: last failure: %v", ErrRetriesExhausted, reason)
	}
	state.LastAttemptLedger = op.now
	state.NextRetryLedger = saturatingAdd(
		op.now,
		retryBackoff(cfg.Retry.InitialBackoff, state.RetryCount),
	)
	if err := e.db.SetRetryState(proposalID, state, op.txn); err != nil {
		return nil, err
	}
	if err := e.appendAudit(op, AuditScheduleRetry, executor, proposalID); err != nil {
		return nil, err
	}
	op.onCommit(e.metrics.retriesScheduled.Inc)
	op.publish(event.NewEvent(
		event.RetryScheduledEventType,
		event.RetryScheduledEvent{
			ProposalID:      proposalID,
			RetryCount:      state.RetryCount,
			NextRetryLedger: state.NextRetryLedger,
			Reason:          reason.Error(),
		},
	))
	return retryStateFromModel(state), nil
}
