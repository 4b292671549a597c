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

package event

// Governance event types published by the engine after a committed operation
const (
	VaultInitializedEventType  = EventType("vault.initialized")
	ConfigUpdatedEventType     = EventType("vault.config_updated")
	ProposalCreatedEventType   = EventType("proposal.created")
	VoteCastEventType          = EventType("proposal.vote_cast")
	ProposalStatusEventType    = EventType("proposal.status")
	ProposalExecutedEventType  = EventType("proposal.executed")
	RetryScheduledEventType    = EventType("proposal.retry_scheduled")
	DelegationChangedEventType = EventType("delegation.changed")
	RecurringExecutedEventType = EventType("recurring.executed")
	AuditAppendedEventType     = EventType("audit.appended")
)

type VaultInitializedEvent struct {
	Admin   string
	Signers []string
	Ledger  uint64
}

// ConfigUpdatedEvent names the configuration area that changed, such as "signers" or "limits"
type ConfigUpdatedEvent struct {
	Actor  string
	Field  string
	Ledger uint64
}

type ProposalCreatedEvent struct {
	ProposalID uint64
	Proposer   string
	Recipient  string
	Asset      string
	Amount     string
	Ledger     uint64
}

type VoteCastEvent struct {
	ProposalID uint64
	Signer     string
	// Voter is the effective voter after delegation
	Voter  string
	Kind   string
	Ledger uint64
}

type ProposalStatusEvent struct {
	ProposalID uint64
	Status     string
	Ledger     uint64
}

type ProposalExecutedEvent struct {
	ProposalID uint64
	Executor   string
	Recipient  string
	Asset      string
	Amount     string
	Ledger     uint64
}

type RetryScheduledEvent struct {
	ProposalID      uint64
	RetryCount      uint32
	NextRetryLedger uint64
	Reason          string
}

type DelegationChangedEvent struct {
	DelegationID uint64
	Delegator    string
	Delegate     string
	Active       bool
	Ledger       uint64
}

type RecurringExecutedEvent struct {
	RecurringID  uint64
	PaymentCount uint32
	NextPayment  uint64
}

type AuditAppendedEvent struct {
	EntryID uint64
	Action  string
	Actor   string
	Hash    uint64
}
