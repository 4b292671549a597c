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
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/event"
)

type ScheduleRecurringRequest struct {
	Proposer  string
	Recipient string
	Asset     string
	Amount    types.Amount
	Memo      string
	// Interval is the number of ledgers between payments
	Interval uint64
}

func recurringAttr(id uint64) attribute.KeyValue {
	return attribute.Int64("vault.recurring_id", int64(id)) //nolint:gosec // ids fit
}

func (e *Engine) loadRecurring(op *operation, id uint64) (*models.RecurringPayment, error) {
	m, err := e.db.GetRecurringPayment(id, op.txn)
	if err != nil {
		if errors.Is(err, models.ErrRecurringPaymentNotFound) {
			return nil, ErrRecurringNotFound
		}
		return nil, err
	}
	return m, nil
}

// ScheduleRecurring registers a payment that becomes due every Interval
// ledgers, starting one interval from now
func (e *Engine) ScheduleRecurring(
	ctx context.Context,
	req ScheduleRecurringRequest,
) (*RecurringPayment, error) {
	var ret *RecurringPayment
	err := e.update(ctx, "schedule_recurring", func(op *operation) error {
		cfg, err := e.loadConfig(op)
		if err != nil {
			return err
		}
		if err := e.requireProposer(op, req.Proposer); err != nil {
			return err
		}
		if err := e.checkRecipient(op, cfg, req.Recipient); err != nil {
			return err
		}
		if !validAmount(req.Amount) {
			return ErrInvalidAmount
		}
		if req.Amount.Cmp(cfg.SpendingLimit) > 0 {
			return ErrExceedsProposalLimit
		}
		if req.Interval < MinRecurringInterval {
			return fmt.Errorf("%w: minimum is %d", ErrIntervalTooShort, MinRecurringInterval)
		}
		if req.Interval > MaxLedger {
			return fmt.Errorf("%w: recurring interval", ErrLedgerOutOfRange)
		}
		m := &models.RecurringPayment{
			Proposer:      req.Proposer,
			Recipient:     req.Recipient,
			Asset:         req.Asset,
			Amount:        req.Amount.Clone(),
			Memo:          req.Memo,
			Interval:      req.Interval,
			NextPayment:   saturatingAdd(op.now, req.Interval),
			Active:        true,
			CreatedLedger: op.now,
		}
		if err := e.db.SetRecurringPayment(m, op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditScheduleRecurring, req.Proposer, m.ID); err != nil {
			return err
		}
		ret = recurringFromModel(m)
		return nil
	}, attribute.String("vault.proposer", req.Proposer))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// ExecuteRecurring makes one due payment. The payment counts against the
// daily and weekly limits like a proposal would
func (e *Engine) ExecuteRecurring(
	ctx context.Context,
	executor string,
	id uint64,
) (*RecurringPayment, error) {
	var ret *RecurringPayment
	err := e.update(ctx, "execute_recurring", func(op *operation) error {
		cfg, err := e.loadConfig(op)
		if err != nil {
			return err
		}
		m, err := e.loadRecurring(op, id)
		if err != nil {
			return err
		}
		if !m.Active {
			return ErrRecurringNotActive
		}
		if op.now < m.NextPayment {
			return ErrRecurringNotDue
		}
		if err := e.checkRecipient(op, cfg, m.Recipient); err != nil {
			return err
		}
		if _, _, err := e.chargeSpend(op, cfg, m.Amount); err != nil {
			return err
		}
		balance, err := e.ledger.Balance(op.txn, m.Asset)
		if err != nil {
			return err
		}
		if balance.Cmp(m.Amount) < 0 {
			return ErrInsufficientBalance
		}
		if err := e.ledger.Transfer(op.txn, m.Asset, m.Recipient, m.Amount); err != nil {
			return fmt.Errorf("transfer: %w", err)
		}
		m.PaymentCount++
		m.NextPayment = saturatingAdd(m.NextPayment, m.Interval)
		if err := e.db.SetRecurringPayment(m, op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditExecuteRecurring, executor, id); err != nil {
			return err
		}
		op.publish(event.NewEvent(
			event.RecurringExecutedEventType,
			event.RecurringExecutedEvent{
				RecurringID:  id,
				PaymentCount: m.PaymentCount,
				NextPayment:  m.NextPayment,
			},
		))
		ret = recurringFromModel(m)
		return nil
	}, recurringAttr(id))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// CancelRecurring deactivates a recurring payment. Only its proposer or an admin may cancel it
func (e *Engine) CancelRecurring(ctx context.Context, canceller string, id uint64) error {
	return e.update(ctx, "cancel_recurring", func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		m, err := e.loadRecurring(op, id)
		if err != nil {
			return err
		}
		if canceller != m.Proposer {
			if err := e.requireAdmin(op, canceller); err != nil {
				return err
			}
		}
		if !m.Active {
			return ErrRecurringNotActive
		}
		m.Active = false
		if err := e.db.SetRecurringPayment(m, op.txn); err != nil {
			return err
		}
		return e.appendAudit(op, AuditCancelRecurring, canceller, id)
	}, recurringAttr(id))
}

func (e *Engine) GetRecurring(ctx context.Context, id uint64) (*RecurringPayment, error) {
	var ret *RecurringPayment
	err := e.view(ctx, "get_recurring", func(op *operation) error {
		m, err := e.loadRecurring(op, id)
		if err != nil {
			return err
		}
		ret = recurringFromModel(m)
		return nil
	})
	return ret, err
}

func (e *Engine) ListRecurring(ctx context.Context, activeOnly bool) ([]*RecurringPayment, error) {
	var ret []*RecurringPayment
	err := e.view(ctx, "list_recurring", func(op *operation) error {
		payments, err := e.db.GetRecurringPayments(activeOnly, op.txn)
		if err != nil {
			return err
		}
		for i := range payments {
			ret = append(ret, recurringFromModel(&payments[i]))
		}
		return nil
	})
	return ret, err
}
