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
	"fmt"
	"math"
	"strings"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

const (
	// MaxDelegationDepth bounds delegation chain resolution
	MaxDelegationDepth = 3
	// LedgersPerDay assumes 5 second ledgers
	LedgersPerDay  uint64 = 17_280
	LedgersPerWeek uint64 = 7 * LedgersPerDay
	// DefaultExpiryPeriod is the proposal lifetime when the config does not set one
	DefaultExpiryPeriod  uint64 = LedgersPerWeek
	MinRecurringInterval uint64 = 720
	// MaxLedger is the largest ledger value the metadata store can hold.
	// Ledger arithmetic saturates here
	MaxLedger uint64 = math.MaxInt64
	// maxBackoffExponent caps retry backoff growth
	maxBackoffExponent = 10
)

type ProposalStatus uint8

const (
	ProposalStatusPending ProposalStatus = iota
	ProposalStatusApproved
	ProposalStatusExecuted
	ProposalStatusRejected
	ProposalStatusExpired
	ProposalStatusCancelled
)

var proposalStatusNames = map[ProposalStatus]string{
	ProposalStatusPending:   "pending",
	ProposalStatusApproved:  "approved",
	ProposalStatusExecuted:  "executed",
	ProposalStatusRejected:  "rejected",
	ProposalStatusExpired:   "expired",
	ProposalStatusCancelled: "cancelled",
}

func (s ProposalStatus) String() string {
	if name, ok := proposalStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

// Terminal reports whether no further transitions are possible
func (s ProposalStatus) Terminal() bool {
	return s != ProposalStatusPending && s != ProposalStatusApproved
}

func ParseProposalStatus(s string) (ProposalStatus, error) {
	for status, name := range proposalStatusNames {
		if strings.EqualFold(s, name) {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown proposal status %q", s)
}

type VoteKind uint8

const (
	VoteApprove VoteKind = iota + 1
	VoteAbstain
)

func (k VoteKind) String() string {
	switch k {
	case VoteApprove:
		return "approve"
	case VoteAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

type Role uint8

const (
	RoleMember Role = iota
	RoleTreasurer
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleMember:
		return "member"
	case RoleTreasurer:
		return "treasurer"
	case RoleAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

func ParseRole(s string) (Role, error) {
	for _, r := range []Role{RoleMember, RoleTreasurer, RoleAdmin} {
		if strings.EqualFold(s, r.String()) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// ListMode selects how the recipient lists gate proposals
type ListMode uint8

const (
	ListModeDisabled ListMode = iota
	ListModeAllow
	ListModeDeny
)

func (m ListMode) String() string {
	switch m {
	case ListModeDisabled:
		return "disabled"
	case ListModeAllow:
		return "allow"
	case ListModeDeny:
		return "deny"
	default:
		return "unknown"
	}
}

func ParseListMode(s string) (ListMode, error) {
	for _, m := range []ListMode{ListModeDisabled, ListModeAllow, ListModeDeny} {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown list mode %q", s)
}

func (m ListMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *ListMode) UnmarshalText(data []byte) error {
	tmp, err := ParseListMode(string(data))
	if err != nil {
		return err
	}
	*m = tmp
	return nil
}

// Proposal is a transfer proposal together with its recorded votes
type Proposal struct {
	ID             uint64
	Proposer       string
	Recipient      string
	Asset          string
	Amount         types.Amount
	Memo           string
	Status         ProposalStatus
	Approvals      []string
	Abstentions    []string
	SignerSnapshot []string
	Conditions     []Condition
	ConditionLogic ConditionLogic
	CreatedLedger  uint64
	ExpiresLedger  uint64
	VotingDeadline uint64
	UnlockLedger   uint64
	ApprovedLedger uint64
	ClosedLedger   uint64
}

func proposalFromModel(m *models.Proposal, votes []models.ProposalVote) *Proposal {
	ret := &Proposal{
		ID:             m.ID,
		Proposer:       m.Proposer,
		Recipient:      m.Recipient,
		Asset:          m.Asset,
		Amount:         m.Amount.Clone(),
		Memo:           m.Memo,
		Status:         ProposalStatus(m.Status),
		SignerSnapshot: m.SignerSnapshot,
		ConditionLogic: ConditionLogic(m.ConditionLogic),
		CreatedLedger:  m.CreatedLedger,
		ExpiresLedger:  m.ExpiresLedger,
		VotingDeadline: m.VotingDeadline,
		UnlockLedger:   m.UnlockLedger,
		ApprovedLedger: m.ApprovedLedger,
		ClosedLedger:   m.ClosedLedger,
	}
	for _, c := range m.Conditions {
		ret.Conditions = append(ret.Conditions, conditionFromModel(c))
	}
	for _, vote := range votes {
		switch VoteKind(vote.Kind) {
		case VoteApprove:
			ret.Approvals = append(ret.Approvals, vote.Voter)
		case VoteAbstain:
			ret.Abstentions = append(ret.Abstentions, vote.Voter)
		}
	}
	return ret
}

// hasVoted reports whether voter appears among approvals or abstentions
func (p *Proposal) hasVoted(voter string) bool {
	for _, v := range p.Approvals {
		if v == voter {
			return true
		}
	}
	for _, v := range p.Abstentions {
		if v == voter {
			return true
		}
	}
	return false
}

func (p *Proposal) inSnapshot(signer string) bool {
	for _, s := range p.SignerSnapshot {
		if s == signer {
			return true
		}
	}
	return false
}

type Delegation struct {
	ID            uint64
	Delegator     string
	Delegate      string
	ExpiryLedger  uint64
	Active        bool
	CreatedLedger uint64
	RevokedLedger uint64
}

func delegationFromModel(m *models.Delegation) *Delegation {
	return &Delegation{
		ID:            m.ID,
		Delegator:     m.Delegator,
		Delegate:      m.Delegate,
		ExpiryLedger:  m.ExpiryLedger,
		Active:        m.Active,
		CreatedLedger: m.CreatedLedger,
		RevokedLedger: m.RevokedLedger,
	}
}

// effective reports whether the delegation redirects votes at ledger now
func (d *Delegation) effective(now uint64) bool {
	return d.Active && (d.ExpiryLedger == 0 || now < d.ExpiryLedger)
}

type RetryState struct {
	RetryCount        uint32
	NextRetryLedger   uint64
	LastAttemptLedger uint64
}

type Cancellation struct {
	ProposalID      uint64
	CancelledBy     string
	Reason          string
	CancelledLedger uint64
	Refunded        types.Amount
}

type RecurringPayment struct {
	ID            uint64
	Proposer      string
	Recipient     string
	Asset         string
	Amount        types.Amount
	Memo          string
	Interval      uint64
	NextPayment   uint64
	PaymentCount  uint32
	Active        bool
	CreatedLedger uint64
}

func recurringFromModel(m *models.RecurringPayment) *RecurringPayment {
	return &RecurringPayment{
		ID:            m.ID,
		Proposer:      m.Proposer,
		Recipient:     m.Recipient,
		Asset:         m.Asset,
		Amount:        m.Amount.Clone(),
		Memo:          m.Memo,
		Interval:      m.Interval,
		NextPayment:   m.NextPayment,
		PaymentCount:  m.PaymentCount,
		Active:        m.Active,
		CreatedLedger: m.CreatedLedger,
	}
}

// ExecutionOutcome distinguishes a completed transfer from a scheduled retry
type ExecutionOutcome uint8

const (
	OutcomeExecuted ExecutionOutcome = iota + 1
	OutcomeRetryScheduled
)

func (o ExecutionOutcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeRetryScheduled:
		return "retry_scheduled"
	default:
		return "unknown"
	}
}

// ExecutionResult is returned by a successful Execute call. When Outcome is
// OutcomeRetryScheduled the transfer did not happen: Reason holds the
// transient failure and Retry the updated schedule
type ExecutionResult struct {
	Outcome  ExecutionOutcome
	Proposal *Proposal
	Retry    *RetryState
	Reason   error
}
