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

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

type ConditionKind uint8

const (
	// ConditionBalanceAbove holds while the vault balance of the proposal asset exceeds Amount
	ConditionBalanceAbove ConditionKind = iota + 1
	// ConditionDateAfter holds once the current ledger is past Ledger
	ConditionDateAfter
	// ConditionDateBefore holds while the current ledger is before Ledger
	ConditionDateBefore
)

type ConditionLogic uint8

const (
	ConditionLogicAnd ConditionLogic = iota
	ConditionLogicOr
)

// Condition gates execution of an approved proposal
type Condition struct {
	Kind   ConditionKind
	Amount types.Amount
	Ledger uint64
}

func BalanceAbove(amount types.Amount) Condition {
	return Condition{Kind: ConditionBalanceAbove, Amount: amount}
}

func DateAfter(ledger uint64) Condition {
	return Condition{Kind: ConditionDateAfter, Ledger: ledger}
}

func DateBefore(ledger uint64) Condition {
	return Condition{Kind: ConditionDateBefore, Ledger: ledger}
}

func (c Condition) String() string {
	switch c.Kind {
	case ConditionBalanceAbove:
		return "balance>" + c.Amount.String()
	case ConditionDateAfter:
		return fmt.Sprintf("after:%d", c.Ledger)
	case ConditionDateBefore:
		return fmt.Sprintf("before:%d", c.Ledger)
	default:
		return "unknown"
	}
}

func (c Condition) validate() error {
	switch c.Kind {
	case ConditionBalanceAbove:
		if c.Amount.Big().Sign() < 0 {
			return fmt.Errorf("%w: negative balance", ErrInvalidCondition)
		}
	case ConditionDateAfter, ConditionDateBefore:
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidCondition, c.Kind)
	}
	return nil
}

func (c Condition) holds(balance types.Amount, now uint64) bool {
	switch c.Kind {
	case ConditionBalanceAbove:
		return balance.Cmp(c.Amount) > 0
	case ConditionDateAfter:
		return now > c.Ledger
	case ConditionDateBefore:
		return now < c.Ledger
	default:
		return false
	}
}

// conditionsMet evaluates conditions with the given logic. An empty set always holds
func conditionsMet(
	conditions []Condition,
	logic ConditionLogic,
	balance types.Amount,
	now uint64,
) bool {
	if len(conditions) == 0 {
		return true
	}
	for _, c := range conditions {
		ok := c.holds(balance, now)
		if logic == ConditionLogicOr && ok {
			return true
		}
		if logic == ConditionLogicAnd && !ok {
			return false
		}
	}
	return logic == ConditionLogicAnd
}

func conditionFromModel(m models.ProposalCondition) Condition {
	return Condition{
		Kind:   ConditionKind(m.Kind),
		Amount: m.Amount.Clone(),
		Ledger: m.Ledger,
	}
}

func (c Condition) toModel() models.ProposalCondition {
	return models.ProposalCondition{
		Kind:   uint8(c.Kind),
		Amount: c.Amount.Clone(),
		Ledger: c.Ledger,
	}
}
