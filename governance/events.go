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
	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/event"
)

func newAuditAppendedEvent(entry *models.AuditEntry) event.Event {
	return event.NewEvent(
		event.AuditAppendedEventType,
		event.AuditAppendedEvent{
			EntryID: entry.ID,
			Action:  AuditAction(entry.Action).String(),
			Actor:   entry.Actor,
			Hash:    uint64(entry.Hash),
		},
	)
}

func newStatusEvent(p *models.Proposal, now uint64) event.Event {
	return event.NewEvent(
		event.ProposalStatusEventType,
		event.ProposalStatusEvent{
			ProposalID: p.ID,
			Status:     ProposalStatus(p.Status).String(),
			Ledger:     now,
		},
	)
}

func newConfigUpdatedEvent(actor string, field string, now uint64) event.Event {
	return event.NewEvent(
		event.ConfigUpdatedEventType,
		event.ConfigUpdatedEvent{
			Actor:  actor,
			Field:  field,
			Ledger: now,
		},
	)
}

func newDelegationEvent(d *models.Delegation, now uint64) event.Event {
	return event.NewEvent(
		event.DelegationChangedEventType,
		event.DelegationChangedEvent{
			DelegationID: d.ID,
			Delegator:    d.Delegator,
			Delegate:     d.Delegate,
			Active:       d.Active,
			Ledger:       now,
		},
	)
}
