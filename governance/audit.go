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
	"encoding/binary"
	"errors"

	"github.com/cespare/xxhash/v2"

	"github.com/blinklabs-io/vault/database"
	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

type AuditAction uint8

const (
	AuditInitialize AuditAction = iota
	AuditProposeTransfer
	AuditApproveProposal
	AuditExecuteProposal
	AuditRejectProposal
	AuditSetRole
	AuditAddSigner
	AuditRemoveSigner
	AuditUpdateLimits
	AuditUpdateThreshold
	AuditAbstainProposal
	AuditCancelProposal
	AuditExpireProposal
	AuditUpdateQuorum
	AuditUpdateConfig
	AuditCreateDelegation
	AuditRevokeDelegation
	AuditScheduleRetry
	AuditUpdateRecipients
	AuditScheduleRecurring
	AuditExecuteRecurring
	AuditCancelRecurring
)

var auditActionNames = []string{
	"initialize",
	"propose_transfer",
	"approve_proposal",
	"execute_proposal",
	"reject_proposal",
	"set_role",
	"add_signer",
	"remove_signer",
	"update_limits",
	"update_threshold",
	"abstain_proposal",
	"cancel_proposal",
	"expire_proposal",
	"update_quorum",
	"update_config",
	"create_delegation",
	"revoke_delegation",
	"schedule_retry",
	"update_recipients",
	"schedule_recurring",
	"execute_recurring",
	"cancel_recurring",
}

func (a AuditAction) String() string {
	if int(a) < len(auditActionNames) {
		return auditActionNames[a]
	}
	return "unknown"
}

type AuditEntry struct {
	ID        uint64
	Action    AuditAction
	Actor     string
	Target    uint64
	Timestamp uint64
	PrevHash  uint64
	Hash      uint64
}

func auditEntryFromModel(m *models.AuditEntry) *AuditEntry {
	return &AuditEntry{
		ID:        m.ID,
		Action:    AuditAction(m.Action),
		Actor:     m.Actor,
		Target:    m.Target,
		Timestamp: m.Timestamp,
		PrevHash:  uint64(m.PrevHash),
		Hash:      uint64(m.Hash),
	}
}

// AuditHash mixes an entry's fields with the previous hash. Every field is
// fixed width or length prefixed, so distinct entries cannot share an encoding
func AuditHash(
	prevHash uint64,
	action AuditAction,
	actor string,
	target uint64,
	timestamp uint64,
) uint64 {
	buf := make([]byte, 0, 8+1+8+len(actor)+8+8)
	buf = binary.BigEndian.AppendUint64(buf, prevHash)
	buf = append(buf, byte(action))
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(actor)))
	buf = append(buf, actor...)
	buf = binary.BigEndian.AppendUint64(buf, target)
	buf = binary.BigEndian.AppendUint64(buf, timestamp)
	return xxhash.Sum64(buf)
}

// computeHash recomputes the entry hash from its fields
func (a *AuditEntry) computeHash() uint64 {
	return AuditHash(a.PrevHash, a.Action, a.Actor, a.Target, a.Timestamp)
}

// appendAudit links a new entry to the head of the chain
func (e *Engine) appendAudit(
	op *operation,
	action AuditAction,
	actor string,
	target uint64,
) error {
	last, err := e.db.GetLastAuditEntry(op.txn)
	if err != nil {
		return err
	}
	var prevHash uint64
	if last != nil {
		prevHash = uint64(last.Hash)
	}
	entry := &models.AuditEntry{
		Action:    uint8(action),
		Actor:     actor,
		Target:    target,
		Timestamp: op.now,
		PrevHash:  types.Uint64(prevHash),
		Hash:      types.Uint64(AuditHash(prevHash, action, actor, target, op.now)),
	}
	if err := e.db.AddAuditEntry(entry, op.txn); err != nil {
		return err
	}
	op.onCommit(e.metrics.auditEntries.Inc)
	op.publish(newAuditAppendedEvent(entry))
	return nil
}

// verifyAuditChain checks the entries with ids in [start, end]. Each hash
// must match its fields and each entry after start must link to the one before it
func verifyAuditChain(entries []models.AuditEntry, start, end uint64) bool {
	if start == 0 || end < start || uint64(len(entries)) != end-start+1 {
		return false
	}
	var prev *AuditEntry
	for i := range entries {
		entry := auditEntryFromModel(&entries[i])
		if entry.ID != start+uint64(i) {
			return false
		}
		if entry.computeHash() != entry.Hash {
			return false
		}
		if prev != nil && entry.PrevHash != prev.Hash {
			return false
		}
		prev = entry
	}
	return true
}

// verifyAudit loads and checks a range of the audit chain
func (e *Engine) verifyAudit(txn *database.Txn, start, end uint64) (bool, error) {
	if start == 0 || end < start {
		return false, nil
	}
	entries, err := e.db.GetAuditEntries(start, end, txn)
	if err != nil {
		return false, err
	}
	return verifyAuditChain(entries, start, end), nil
}

func (e *Engine) AuditEntry(ctx context.Context, id uint64) (*AuditEntry, error) {
	var ret *AuditEntry
	err := e.view(ctx, "audit_entry", func(op *operation) error {
		m, err := e.db.GetAuditEntry(id, op.txn)
		if err != nil {
			return err
		}
		ret = auditEntryFromModel(m)
		return nil
	})
	return ret, err
}

// ListAudit returns the entries with ids in [start, end]. An end of zero means the head of the chain
func (e *Engine) ListAudit(ctx context.Context, start, end uint64) ([]*AuditEntry, error) {
	var ret []*AuditEntry
	err := e.view(ctx, "list_audit", func(op *operation) error {
		if end == 0 {
			last, err := e.db.GetLastAuditEntry(op.txn)
			if err != nil || last == nil {
				return err
			}
			end = last.ID
		}
		entries, err := e.db.GetAuditEntries(start, end, op.txn)
		if err != nil {
			return err
		}
		for i := range entries {
			ret = append(ret, auditEntryFromModel(&entries[i]))
		}
		return nil
	})
	return ret, err
}

// VerifyAudit reports whether the chain between start and end is intact
func (e *Engine) VerifyAudit(ctx context.Context, start, end uint64) (bool, error) {
	var ret bool
	err := e.view(ctx, "verify_audit", func(op *operation) error {
		var err error
		ret, err = e.verifyAudit(op.txn, start, end)
		return err
	})
	return ret, err
}

// AuditHead returns the newest audit entry, or nil for an empty chain
func (e *Engine) AuditHead(ctx context.Context) (*AuditEntry, error) {
	var ret *AuditEntry
	err := e.view(ctx, "audit_head", func(op *operation) error {
		last, err := e.db.GetLastAuditEntry(op.txn)
		if err != nil || last == nil {
			return err
		}
		ret = auditEntryFromModel(last)
		return nil
	})
	return ret, err
}

// IsNotFound reports whether err means a requested record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProposalNotFound) ||
		errors.Is(err, ErrDelegationNotFound) ||
		errors.Is(err, ErrRecurringNotFound) ||
		errors.Is(err, models.ErrAuditEntryNotFound) ||
		errors.Is(err, models.ErrCancellationNotFound)
}
