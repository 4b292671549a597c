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

type ProposeRequest struct {
	Proposer   string
	Recipient  string
	Asset      string
	Amount     types.Amount
	Memo       string
	Conditions []Condition
	// ConditionLogic combines Conditions, defaulting to And
	ConditionLogic ConditionLogic
}

func proposalAttr(id uint64) attribute.KeyValue {
	return attribute.Int64("vault.proposal_id", int64(id)) //nolint:gosec // ids fit
}

// loadProposal returns the stored proposal and its view with votes
func (e *Engine) loadProposal(op *operation, id uint64) (*models.Proposal, *Proposal, error) {
	m, err := e.db.GetProposal(id, op.txn)
	if err != nil {
		if errors.Is(err, models.ErrProposalNotFound) {
			return nil, nil, ErrProposalNotFound
		}
		return nil, nil, err
	}
	votes, err := e.db.GetProposalVotes(id, op.txn)
	if err != nil {
		return nil, nil, err
	}
	return m, proposalFromModel(m, votes), nil
}

// transition moves a proposal to a new status and persists it
func (e *Engine) transition(
	op *operation,
	m *models.Proposal,
	p *Proposal,
	status ProposalStatus,
) error {
	m.Status = uint8(status)
	if status.Terminal() {
		m.ClosedLedger = op.now
	}
	if err := e.db.UpdateProposal(m, op.txn); err != nil {
		return err
	}
	p.Status = status
	p.UnlockLedger = m.UnlockLedger
	p.ApprovedLedger = m.ApprovedLedger
	p.ClosedLedger = m.ClosedLedger
	op.onCommit(func() {
		e.metrics.transitions.WithLabelValues(status.String()).Inc()
	})
	op.publish(newStatusEvent(m, op.now))
	e.logger.Debug(
		"proposal status changed",
		"component", "governance",
		"proposal_id", m.ID,
		"status", status.String(),
		"ledger", op.now,
	)
	return nil
}

// expire marks a lapsed proposal expired. The caller commits before reporting the expiry
func (e *Engine) expire(op *operation, m *models.Proposal, p *Proposal, actor string) error {
	if err := e.transition(op, m, p, ProposalStatusExpired); err != nil {
		return err
	}
	return e.appendAudit(op, AuditExpireProposal, actor, m.ID)
}

// checkRecipient applies the recipient list mode
func (e *Engine) checkRecipient(op *operation, cfg *Config, recipient string) error {
	switch cfg.ListMode {
	case ListModeAllow:
		listed, err := e.db.IsListed(recipient, uint8(ListModeAllow), op.txn)
		if err != nil {
			return err
		}
		if !listed {
			return ErrRecipientNotAllowed
		}
	case ListModeDeny:
		listed, err := e.db.IsListed(recipient, uint8(ListModeDeny), op.txn)
		if err != nil {
			return err
		}
		if listed {
			return ErrRecipientDenied
		}
	}
	return nil
}

// Propose creates a pending transfer proposal. The amount is reserved
// against the daily and weekly limits in the same transaction
func (e *Engine) Propose(ctx context.Context, req ProposeRequest) (*Proposal, error) {
	var ret *Proposal
	err := e.update(ctx, "propose", func(op *operation) error {
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
		if req.ConditionLogic > ConditionLogicOr {
			return fmt.Errorf("%w: unknown logic %d", ErrInvalidCondition, req.ConditionLogic)
		}
		conditions := make([]models.ProposalCondition, 0, len(req.Conditions))
		for _, c := range req.Conditions {
			if err := c.validate(); err != nil {
				return err
			}
			conditions = append(conditions, c.toModel())
		}
		if err := e.checkVelocity(op, cfg, req.Proposer); err != nil {
			return err
		}
		day, week, err := e.chargeSpend(op, cfg, req.Amount)
		if err != nil {
			return err
		}
		m := &models.Proposal{
			Proposer:       req.Proposer,
			Recipient:      req.Recipient,
			Asset:          req.Asset,
			Amount:         req.Amount.Clone(),
			Memo:           req.Memo,
			Status:         uint8(ProposalStatusPending),
			CreatedLedger:  op.now,
			ExpiresLedger:  saturatingAdd(op.now, cfg.expiryPeriod()),
			SignerSnapshot: cfg.Signers,
			Conditions:     conditions,
			ConditionLogic: uint8(req.ConditionLogic),
			ReservedDay:    day,
			ReservedWeek:   week,
		}
		if cfg.VotingPeriod > 0 {
			m.VotingDeadline = saturatingAdd(op.now, cfg.VotingPeriod)
		}
		if err := e.db.CreateProposal(m, op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditProposeTransfer, req.Proposer, m.ID); err != nil {
			return err
		}
		op.onCommit(e.metrics.proposalsCreated.Inc)
		op.publish(event.NewEvent(
			event.ProposalCreatedEventType,
			event.ProposalCreatedEvent{
				ProposalID: m.ID,
				Proposer:   m.Proposer,
				Recipient:  m.Recipient,
				Asset:      m.Asset,
				Amount:     m.Amount.String(),
				Ledger:     op.now,
			},
		))
		ret = proposalFromModel(m, nil)
		return nil
	}, attribute.String("vault.proposer", req.Proposer))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Approve records an approval by signer's effective voter
func (e *Engine) Approve(ctx context.Context, signer string, id uint64) (*Proposal, error) {
	return e.vote(ctx, signer, id, VoteApprove)
}

// Abstain records an abstention, which counts toward quorum but never toward the threshold
func (e *Engine) Abstain(ctx context.Context, signer string, id uint64) (*Proposal, error) {
	return e.vote(ctx, signer, id, VoteAbstain)
}

func (e *Engine) vote(
	ctx context.Context,
	signer string,
	id uint64,
	kind VoteKind,
) (*Proposal, error) {
	var ret *Proposal
	err := e.update(ctx, kind.String(), func(op *operation) error {
		cfg, err := e.loadConfig(op)
		if err != nil {
			return err
		}
		m, p, err := e.loadProposal(op, id)
		if err != nil {
			return err
		}
		// Voting rights are frozen when the proposal is created
		if !p.inSnapshot(signer) {
			return ErrNotASigner
		}
		if p.Status != ProposalStatusPending {
			return ErrProposalNotPending
		}
		if op.now > m.ExpiresLedger {
			if err := e.expire(op, m, p, signer); err != nil {
				return err
			}
			return commitThenFail(ErrProposalExpired)
		}
		if m.VotingDeadline > 0 && op.now > m.VotingDeadline {
			if err := e.transition(op, m, p, ProposalStatusRejected); err != nil {
				return err
			}
			if err := e.appendAudit(op, AuditRejectProposal, signer, id); err != nil {
				return err
			}
			return commitThenFail(ErrVotingDeadlinePassed)
		}
		voter, err := e.resolveVoter(op, signer)
		if err != nil {
			return err
		}
		if p.hasVoted(voter) {
			return ErrAlreadyVoted
		}
		if err := e.db.AddProposalVote(&models.ProposalVote{
			ProposalID: id,
			Voter:      voter,
			Signer:     signer,
			Kind:       uint8(kind),
			CastLedger: op.now,
		}, op.txn); err != nil {
			return err
		}
		action := AuditApproveProposal
		if kind == VoteApprove {
			p.Approvals = append(p.Approvals, voter)
		} else {
			p.Abstentions = append(p.Abstentions, voter)
			action = AuditAbstainProposal
		}
		if err := e.appendAudit(op, action, signer, id); err != nil {
			return err
		}
		op.onCommit(func() {
			e.metrics.votes.WithLabelValues(kind.String()).Inc()
		})
		op.publish(event.NewEvent(
			event.VoteCastEventType,
			event.VoteCastEvent{
				ProposalID: id,
				Signer:     signer,
				Voter:      voter,
				Kind:       kind.String(),
				Ledger:     op.now,
			},
		))
		if err := e.evaluate(op, cfg, m, p); err != nil {
			return err
		}
		ret = p
		return nil
	},
		proposalAttr(id),
		attribute.String("vault.signer", signer),
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// evaluate approves a pending proposal once both the threshold and the quorum hold
func (e *Engine) evaluate(op *operation, cfg *Config, m *models.Proposal, p *Proposal) error {
	required := cfg.thresholdStrategy().RequiredApprovals(
		m.Amount,
		len(m.SignerSnapshot),
		op.now-m.CreatedLedger,
	)
	required = max(required, 1)
	approvals := uint64(len(p.Approvals))
	votes := approvals + uint64(len(p.Abstentions))
	if approvals < uint64(required) {
		return nil
	}
	if cfg.Quorum > 0 && votes < uint64(cfg.Quorum) {
		return nil
	}
	m.ApprovedLedger = op.now
	m.UnlockLedger = 0
	if m.Amount.Cmp(cfg.TimelockThreshold) >= 0 {
		m.UnlockLedger = saturatingAdd(op.now, cfg.TimelockDelay)
	}
	return e.transition(op, m, p, ProposalStatusApproved)
}

// authorizeClose allows the admin or the original proposer
func (e *Engine) authorizeClose(op *operation, caller string, m *models.Proposal) error {
	if caller == m.Proposer {
		return nil
	}
	return e.requireAdmin(op, caller)
}

// Reject closes a pending proposal. Reserved spend is not refunded
func (e *Engine) Reject(ctx context.Context, rejector string, id uint64) (*Proposal, error) {
	var ret *Proposal
	err := e.update(ctx, "reject", func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		m, p, err := e.loadProposal(op, id)
		if err != nil {
			return err
		}
		if err := e.authorizeClose(op, rejector, m); err != nil {
			return err
		}
		if p.Status != ProposalStatusPending {
			return ErrProposalNotPending
		}
		if err := e.transition(op, m, p, ProposalStatusRejected); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditRejectProposal, rejector, id); err != nil {
			return err
		}
		ret = p
		return nil
	}, proposalAttr(id))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Cancel withdraws a pending proposal and refunds its reserved spend
func (e *Engine) Cancel(
	ctx context.Context,
	canceller string,
	id uint64,
	reason string,
) (*Cancellation, error) {
	var ret *Cancellation
	err := e.update(ctx, "cancel", func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		m, p, err := e.loadProposal(op, id)
		if err != nil {
			return err
		}
		if err := e.authorizeClose(op, canceller, m); err != nil {
			return err
		}
		if p.Status != ProposalStatusPending {
			return ErrProposalNotPending
		}
		if err := e.refundSpend(op, m.ReservedDay, m.ReservedWeek, m.Amount); err != nil {
			return err
		}
		record := &models.CancellationRecord{
			ProposalID:      id,
			CancelledBy:     canceller,
			Reason:          reason,
			CancelledLedger: op.now,
			Refunded:        m.Amount.Clone(),
		}
		if err := e.db.AddCancellation(record, op.txn); err != nil {
			return err
		}
		if err := e.transition(op, m, p, ProposalStatusCancelled); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditCancelProposal, canceller, id); err != nil {
			return err
		}
		ret = cancellationFromModel(record)
		return nil
	}, proposalAttr(id))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func cancellationFromModel(m *models.CancellationRecord) *Cancellation {
	return &Cancellation{
		ProposalID:      m.ProposalID,
		CancelledBy:     m.CancelledBy,
		Reason:          m.Reason,
		CancelledLedger: m.CancelledLedger,
		Refunded:        m.Refunded.Clone(),
	}
}

// Execute transfers the funds of an approved proposal. A transient failure
// with retries enabled is not an error: the result reports
// OutcomeRetryScheduled and the proposal stays approved
func (e *Engine) Execute(ctx context.Context, executor string, id uint64) (*ExecutionResult, error) {
	var ret *ExecutionResult
	err := e.update(ctx, "execute", func(op *operation) error {
		cfg, err := e.loadConfig(op)
		if err != nil {
			return err
		}
		ret, err = e.executeProposal(op, cfg, executor, id)
		return err
	}, proposalAttr(id))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// RetryExecution re-attempts a proposal whose execution failed transiently.
// Backoff is enforced by the execution itself
func (e *Engine) RetryExecution(ctx context.Context, executor string, id uint64) (*ExecutionResult, error) {
	var ret *ExecutionResult
	err := e.update(ctx, "retry_execution", func(op *operation) error {
		cfg, err := e.loadConfig(op)
		if err != nil {
			return err
		}
		if !cfg.Retry.Enabled {
			return ErrRetryDisabled
		}
		state, err := e.loadRetryState(op, id)
		if err != nil {
			return err
		}
		// An exhausted attempt rolls back, so the stored count only passes
		// the maximum after max_retries is lowered
		if state != nil && state.RetryCount > cfg.Retry.MaxRetries {
			return ErrRetriesExhausted
		}
		ret, err = e.executeProposal(op, cfg, executor, id)
		return err
	}, proposalAttr(id))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (e *Engine) executeProposal(
	op *operation,
	cfg *Config,
	executor string,
	id uint64,
) (*ExecutionResult, error) {
	m, p, err := e.loadProposal(op, id)
	if err != nil {
		return nil, err
	}
	switch p.Status {
	case ProposalStatusApproved:
	case ProposalStatusExecuted:
		return nil, ErrProposalAlreadyExecuted
	default:
		return nil, ErrProposalNotApproved
	}
	if op.now > m.ExpiresLedger {
		if err := e.expire(op, m, p, executor); err != nil {
			return nil, err
		}
		return nil, commitThenFail(ErrProposalExpired)
	}
	if m.UnlockLedger > 0 && op.now < m.UnlockLedger {
		return nil, ErrTimelockNotExpired
	}
	state, err := e.loadRetryState(op, id)
	if err != nil {
		return nil, err
	}
	if state != nil && op.now < state.NextRetryLedger {
		return nil, ErrRetryBackoffNotElapsed
	}
	// Transient failures either schedule a retry or fail the call
	onTransient := func(failure error) (*ExecutionResult, error) {
		if !cfg.Retry.Enabled {
			return nil, failure
		}
		retry, err := e.scheduleRetry(op, cfg, executor, id, failure)
		if err != nil {
			return nil, err
		}
		op.onCommit(func() {
			e.metrics.executions.WithLabelValues(OutcomeRetryScheduled.String()).Inc()
		})
		e.logger.Info(
			"execution retry scheduled",
			"component", "governance",
			"proposal_id", id,
			"retry_count", retry.RetryCount,
			"next_retry_ledger", retry.NextRetryLedger,
			"reason", failure.Error(),
		)
		return &ExecutionResult{
			Outcome:  OutcomeRetryScheduled,
			Proposal: p,
			Retry:    retry,
			Reason:   failure,
		}, nil
	}
	balance, err := e.ledger.Balance(op.txn, m.Asset)
	if err != nil {
		return nil, err
	}
	if !conditionsMet(p.Conditions, p.ConditionLogic, balance, op.now) {
		return onTransient(ErrConditionsNotMet)
	}
	if balance.Cmp(m.Amount) < 0 {
		return onTransient(ErrInsufficientBalance)
	}
	if err := e.ledger.Transfer(op.txn, m.Asset, m.Recipient, m.Amount); err != nil {
		if IsTransient(err) {
			return onTransient(err)
		}
		return nil, fmt.Errorf("transfer: %w", err)
	}
	if err := e.transition(op, m, p, ProposalStatusExecuted); err != nil {
		return nil, err
	}
	if state != nil {
		if err := e.db.DeleteRetryState(id, op.txn); err != nil {
			return nil, err
		}
	}
	if err := e.appendAudit(op, AuditExecuteProposal, executor, id); err != nil {
		return nil, err
	}
	op.onCommit(func() {
		e.metrics.executions.WithLabelValues(OutcomeExecuted.String()).Inc()
	})
	op.publish(event.NewEvent(
		event.ProposalExecutedEventType,
		event.ProposalExecutedEvent{
			ProposalID: id,
			Executor:   executor,
			Recipient:  m.Recipient,
			Asset:      m.Asset,
			Amount:     m.Amount.String(),
			Ledger:     op.now,
		},
	))
	return &ExecutionResult{
		Outcome:  OutcomeExecuted,
		Proposal: p,
	}, nil
}

// MarkExpired moves a lapsed pending or approved proposal to expired
func (e *Engine) MarkExpired(ctx context.Context, caller string, id uint64) (*Proposal, error) {
	var ret *Proposal
	err := e.update(ctx, "mark_expired", func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		m, p, err := e.loadProposal(op, id)
		if err != nil {
			return err
		}
		if p.Status.Terminal() {
			return ErrProposalNotActive
		}
		if op.now <= m.ExpiresLedger {
			return ErrProposalNotExpired
		}
		if err := e.expire(op, m, p, caller); err != nil {
			return err
		}
		ret = p
		return nil
	}, proposalAttr(id))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (e *Engine) GetProposal(ctx context.Context, id uint64) (*Proposal, error) {
	var ret *Proposal
	err := e.view(ctx, "get_proposal", func(op *operation) error {
		var err error
		_, ret, err = e.loadProposal(op, id)
		return err
	})
	return ret, err
}

// ListProposals returns proposals in id order, filtered to the given statuses when any are given
func (e *Engine) ListProposals(ctx context.Context, statuses ...ProposalStatus) ([]*Proposal, error) {
	var ret []*Proposal
	err := e.view(ctx, "list_proposals", func(op *operation) error {
		filter := make([]uint8, 0, len(statuses))
		for _, status := range statuses {
			filter = append(filter, uint8(status))
		}
		proposals, err := e.db.GetProposals(filter, op.txn)
		if err != nil {
			return err
		}
		for i := range proposals {
			votes, err := e.db.GetProposalVotes(proposals[i].ID, op.txn)
			if err != nil {
				return err
			}
			ret = append(ret, proposalFromModel(&proposals[i], votes))
		}
		return nil
	})
	return ret, err
}

func (e *Engine) GetCancellation(ctx context.Context, proposalID uint64) (*Cancellation, error) {
	var ret *Cancellation
	err := e.view(ctx, "get_cancellation", func(op *operation) error {
		m, err := e.db.GetCancellation(proposalID, op.txn)
		if err != nil {
			return err
		}
		ret = cancellationFromModel(m)
		return nil
	})
	return ret, err
}

// GetRetryState returns the retry schedule of a proposal, or nil if it never failed transiently
func (e *Engine) GetRetryState(ctx context.Context, proposalID uint64) (*RetryState, error) {
	var ret *RetryState
	err := e.view(ctx, "get_retry_state", func(op *operation) error {
		state, err := e.loadRetryState(op, proposalID)
		if err != nil || state == nil {
			return err
		}
		ret = retryStateFromModel(state)
		return nil
	})
	return ret, err
}
