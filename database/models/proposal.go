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

package models

import (
	"errors"

	"github.com/blinklabs-io/vault/database/types"
)

var ErrProposalNotFound = errors.New("proposal not found")

// ProposalCondition is a single execution precondition attached to a proposal
type ProposalCondition struct {
	Kind   uint8        `json:"kind"`
	Amount types.Amount `json:"amount"`
	Ledger uint64       `json:"ledger,omitempty"`
}

// Proposal represents a transfer request moving through the approval lifecycle
type Proposal struct {
	ID             uint64       `gorm:"primarykey"`
	Proposer       string       `gorm:"index;not null"`
	Recipient      string       `gorm:"index;not null"`
	Asset          string       `gorm:"not null"`
	Amount         types.Amount `gorm:"not null"`
	Memo           string
	Status         uint8  `gorm:"index;not null"`
	CreatedLedger  uint64 `gorm:"not null"`
	ExpiresLedger  uint64 `gorm:"index;not null"`
	VotingDeadline uint64
	UnlockLedger   uint64
	ApprovedLedger uint64
	ClosedLedger   uint64
	SignerSnapshot []string            `gorm:"serializer:json;not null"`
	Conditions     []ProposalCondition `gorm:"serializer:json"`
	ConditionLogic uint8
	ReservedDay    uint64
	ReservedWeek   uint64
}

func (Proposal) TableName() string {
	return "proposal"
}

// ProposalVote is a single approval or abstention. The unique index on
// (proposal_id, voter) keeps approvals and abstentions disjoint per voter.
type ProposalVote struct {
	ID         uint64 `gorm:"primarykey"`
	ProposalID uint64 `gorm:"uniqueIndex:idx_proposal_vote_voter,priority:1;not null"`
	Voter      string `gorm:"uniqueIndex:idx_proposal_vote_voter,priority:2;not null"`
	Signer     string `gorm:"not null"`
	Kind       uint8  `gorm:"not null"`
	CastLedger uint64 `gorm:"not null"`
}

func (ProposalVote) TableName() string {
	return "proposal_vote"
}
