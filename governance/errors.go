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

import "errors"

// Initialization
var (
	ErrAlreadyInitialized = errors.New("vault already initialized")
	ErrNotInitialized     = errors.New("vault not initialized")
	ErrNoSigners          = errors.New("signer set is empty")
	ErrInvalidSigner      = errors.New("signer identity is empty")
	ErrDuplicateSigner    = errors.New("duplicate signer")
	ErrThresholdTooLow    = errors.New("threshold must be at least 1")
	ErrThresholdTooHigh   = errors.New("threshold exceeds signer count")
	ErrQuorumTooHigh      = errors.New("quorum exceeds signer count")
	ErrInvalidLimit       = errors.New("limit must be positive")
	ErrInvalidStrategy    = errors.New("invalid threshold strategy")
	ErrInvalidVelocity    = errors.New("invalid velocity limit")
	ErrInvalidRetryPolicy = errors.New("invalid retry policy")
	ErrLedgerOutOfRange   = errors.New("ledger value out of range")
)

// Authorization
var (
	ErrUnauthorized     = errors.New("caller not authorized")
	ErrNotASigner       = errors.New("not a signer")
	ErrInsufficientRole = errors.New("insufficient role")
)

// Proposal state
var (
	ErrProposalNotFound        = errors.New("proposal not found")
	ErrProposalNotPending      = errors.New("proposal not pending")
	ErrProposalNotApproved     = errors.New("proposal not approved")
	ErrProposalAlreadyExecuted = errors.New("proposal already executed")
	ErrProposalNotActive       = errors.New("proposal is in a terminal state")
	ErrAlreadyVoted            = errors.New("effective voter already voted")
	ErrProposalExpired         = errors.New("proposal expired")
	ErrProposalNotExpired      = errors.New("proposal not expired")
	ErrVotingDeadlinePassed    = errors.New("voting deadline passed")
	ErrInvalidCondition        = errors.New("invalid execution condition")
)

// Limits
var (
	ErrInvalidAmount         = errors.New("amount must be positive and at most 2^127-1")
	ErrExceedsProposalLimit  = errors.New("amount exceeds per-proposal limit")
	ErrExceedsDailyLimit     = errors.New("amount exceeds daily limit")
	ErrExceedsWeeklyLimit    = errors.New("amount exceeds weekly limit")
	ErrVelocityLimitExceeded = errors.New("velocity limit exceeded")
	ErrRecipientNotAllowed   = errors.New("recipient not on allow list")
	ErrRecipientDenied       = errors.New("recipient on deny list")
	ErrSignerAlreadyExists   = errors.New("signer already exists")
	ErrSignerNotFound        = errors.New("signer not found")
	ErrCannotRemoveSigner    = errors.New("removing signer would make threshold or quorum unreachable")
)

// Delegation
var (
	ErrDelegatorNotSigner      = errors.New("delegator is not a signer")
	ErrDelegateNotSigner       = errors.New("delegate is not a signer")
	ErrCannotDelegateToSelf    = errors.New("cannot delegate to self")
	ErrDelegationAlreadyExists = errors.New("delegator already has an active delegation")
	ErrCircularDelegation      = errors.New("delegation would create a cycle")
	ErrDelegationChainTooDeep  = errors.New("delegation chain too deep")
	ErrDelegationExpired       = errors.New("delegation expiry is not in the future")
	ErrDelegationNotFound      = errors.New("delegation not found")
	ErrDelegationNotActive     = errors.New("delegation not active")
)

// Timelock and execution
var (
	ErrTimelockNotExpired  = errors.New("time-lock not elapsed")
	ErrInsufficientBalance = errors.New("insufficient vault balance")
	ErrConditionsNotMet    = errors.New("execution conditions not met")
)

// Retry
var (
	ErrRetriesExhausted       = errors.New("execution retries exhausted")
	ErrRetryBackoffNotElapsed = errors.New("retry backoff not elapsed")
	ErrRetryDisabled          = errors.New("execution retry disabled")
)

// Recurring payments
var (
	ErrRecurringNotFound  = errors.New("recurring payment not found")
	ErrRecurringNotActive = errors.New("recurring payment not active")
	ErrRecurringNotDue    = errors.New("recurring payment not due")
	ErrIntervalTooShort   = errors.New("recurring interval too short")
)

// IsTransient reports whether an execution failure may succeed later
// without operator intervention. Only these failures are retried
func IsTransient(err error) bool {
	return errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrConditionsNotMet)
}
