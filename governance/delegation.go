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
)

// activeDelegation returns the delegation that redirects delegator's vote at
// the current ledger, or nil when votes stay with delegator
func (e *Engine) activeDelegation(op *operation, delegator string) (*Delegation, error) {
	m, err := e.db.GetActiveDelegation(delegator, op.txn)
	if err != nil || m == nil {
		return nil, err
	}
	d := delegationFromModel(m)
	if !d.effective(op.now) {
		return nil, nil
	}
	return d, nil
}

// resolveVoter follows delegations from signer to the effective voter.
// Reaching MaxDelegationDepth is an error, never a silent stop
func (e *Engine) resolveVoter(op *operation, signer string) (string, error) {
	current := signer
	for depth := 0; ; depth++ {
		if depth >= MaxDelegationDepth {
			return "", ErrDelegationChainTooDeep
		}
		d, err := e.activeDelegation(op, current)
		if err != nil {
			return "", err
		}
		if d == nil {
			return current, nil
		}
		current = d.Delegate
	}
}

// checkDelegationChain walks forward from delegate as resolution of
// delegator would after the new delegation exists. It fails if the walk
// returns to delegator or does not finish inside the depth bound
func (e *Engine) checkDelegationChain(op *operation, delegator, delegate string) error {
	current := delegate
	for depth := 1; ; depth++ {
		if depth >= MaxDelegationDepth {
			return ErrDelegationChainTooDeep
		}
		d, err := e.activeDelegation(op, current)
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		if d.Delegate == delegator {
			return ErrCircularDelegation
		}
		current = d.Delegate
	}
}

// Delegate lets delegator's vote be cast by delegate. An expiry of zero never expires
func (e *Engine) Delegate(
	ctx context.Context,
	delegator string,
	delegate string,
	expiry uint64,
) (*Delegation, error) {
	var ret *Delegation
	err := e.update(ctx, "delegate", func(op *operation) error {
		cfg, err := e.loadConfig(op)
		if err != nil {
			return err
		}
		if delegator == delegate {
			return ErrCannotDelegateToSelf
		}
		if !cfg.isSigner(delegator) {
			return ErrDelegatorNotSigner
		}
		if !cfg.isSigner(delegate) {
			return ErrDelegateNotSigner
		}
		existing, err := e.db.GetActiveDelegation(delegator, op.txn)
		if err != nil {
			return err
		}
		if existing != nil {
			if delegationFromModel(existing).effective(op.now) {
				return ErrDelegationAlreadyExists
			}
			// Lapsed delegations are closed so at most one stays active
			existing.Active = false
			existing.RevokedLedger = op.now
			if err := e.db.SetDelegation(existing, op.txn); err != nil {
				return err
			}
		}
		if err := e.checkDelegationChain(op, delegator, delegate); err != nil {
			return err
		}
		if expiry != 0 && expiry <= op.now {
			return ErrDelegationExpired
		}
		if expiry > MaxLedger {
			return fmt.Errorf("%w: delegation expiry", ErrLedgerOutOfRange)
		}
		m := &models.Delegation{
			Delegator:     delegator,
			Delegate:      delegate,
			ExpiryLedger:  expiry,
			Active:        true,
			CreatedLedger: op.now,
		}
		if err := e.db.SetDelegation(m, op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditCreateDelegation, delegator, m.ID); err != nil {
			return err
		}
		op.publish(newDelegationEvent(m, op.now))
		ret = delegationFromModel(m)
		return nil
	},
		attribute.String("vault.delegator", delegator),
		attribute.String("vault.delegate", delegate),
	)
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// RevokeDelegation deactivates a delegation. Only its delegator may revoke it
// and the record is kept
func (e *Engine) RevokeDelegation(ctx context.Context, delegator string, id uint64) error {
	return e.update(ctx, "revoke_delegation", func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		m, err := e.db.GetDelegation(id, op.txn)
		if err != nil {
			if errors.Is(err, models.ErrDelegationNotFound) {
				return ErrDelegationNotFound
			}
			return err
		}
		if m.Delegator != delegator {
			return ErrUnauthorized
		}
		if !m.Active {
			return ErrDelegationNotActive
		}
		m.Active = false
		m.RevokedLedger = op.now
		if err := e.db.SetDelegation(m, op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditRevokeDelegation, delegator, id); err != nil {
			return err
		}
		op.publish(newDelegationEvent(m, op.now))
		return nil
	}, attribute.Int64("vault.delegation_id", int64(id))) //nolint:gosec // ids fit
}

// EffectiveVoter resolves the identity that votes for signer
func (e *Engine) EffectiveVoter(ctx context.Context, signer string) (string, error) {
	var ret string
	err := e.view(ctx, "effective_voter", func(op *operation) error {
		var err error
		ret, err = e.resolveVoter(op, signer)
		return err
	})
	return ret, err
}

func (e *Engine) GetDelegation(ctx context.Context, id uint64) (*Delegation, error) {
	var ret *Delegation
	err := e.view(ctx, "get_delegation", func(op *operation) error {
		m, err := e.db.GetDelegation(id, op.txn)
		if err != nil {
			if errors.Is(err, models.ErrDelegationNotFound) {
				return ErrDelegationNotFound
			}
			return err
		}
		ret = delegationFromModel(m)
		return nil
	})
	return ret, err
}

func (e *Engine) ListDelegations(ctx context.Context) ([]*Delegation, error) {
	var ret []*Delegation
	err := e.view(ctx, "list_delegations", func(op *operation) error {
		delegations, err := e.db.GetDelegations(op.txn)
		if err != nil {
			return err
		}
		for i := range delegations {
			ret = append(ret, delegationFromModel(&delegations[i]))
		}
		return nil
	})
	return ret, err
}
