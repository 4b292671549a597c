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

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/governance"
	"gopkg.in/yaml.v3"
)

func parseID(arg string) (uint64, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", arg, err)
	}
	return id, nil
}

func parseAmount(arg string) (types.Amount, error) {
	amount, err := types.ParseAmount(arg)
	if err != nil {
		return types.Amount{}, fmt.Errorf("invalid amount %q: %w", arg, err)
	}
	return amount, nil
}

func printProposal(w io.Writer, p *governance.Proposal) {
	fmt.Fprintf(w, "Proposal:         %d\n", p.ID)
	fmt.Fprintf(w, "Status:           %s\n", p.Status)
	fmt.Fprintf(w, "Proposer:         %s\n", p.Proposer)
	fmt.Fprintf(w, "Recipient:        %s\n", p.Recipient)
	fmt.Fprintf(w, "Amount:           %s %s\n", p.Amount, p.Asset)
	if p.Memo != "" {
		fmt.Fprintf(w, "Memo:             %s\n", p.Memo)
	}
	fmt.Fprintf(w, "Approvals:        %s\n", strings.Join(p.Approvals, ", "))
	if len(p.Abstentions) > 0 {
		fmt.Fprintf(w, "Abstentions:      %s\n", strings.Join(p.Abstentions, ", "))
	}
	fmt.Fprintf(w, "Signers:          %s\n", strings.Join(p.SignerSnapshot, ", "))
	if len(p.Conditions) > 0 {
		conds := make([]string, 0, len(p.Conditions))
		for _, c := range p.Conditions {
			conds = append(conds, c.String())
		}
		logic := "and"
		if p.ConditionLogic == governance.ConditionLogicOr {
			logic = "or"
		}
		fmt.Fprintf(w, "Conditions (%s): %s\n", logic, strings.Join(conds, ", "))
	}
	fmt.Fprintf(w, "Created:          %d\n", p.CreatedLedger)
	fmt.Fprintf(w, "Expires:          %d\n", p.ExpiresLedger)
	if p.VotingDeadline > 0 {
		fmt.Fprintf(w, "Voting deadline:  %d\n", p.VotingDeadline)
	}
	if p.UnlockLedger > 0 {
		fmt.Fprintf(w, "Unlocks:          %d\n", p.UnlockLedger)
	}
	if p.ClosedLedger > 0 {
		fmt.Fprintf(w, "Closed:           %d\n", p.ClosedLedger)
	}
}

func printProposalLine(w io.Writer, p *governance.Proposal) {
	fmt.Fprintf(
		w,
		"%d\t%s\t%s\t%s %s\t%d approvals\n",
		p.ID,
		p.Status,
		p.Recipient,
		p.Amount,
		p.Asset,
		len(p.Approvals),
	)
}

func printExecution(w io.Writer, res *governance.ExecutionResult) {
	switch res.Outcome {
	case governance.OutcomeRetryScheduled:
		fmt.Fprintf(
			w,
			"Execution of proposal %d deferred: %v\nRetry %d scheduled at ledger %d\n",
			res.Proposal.ID,
			res.Reason,
			res.Retry.RetryCount,
			res.Retry.NextRetryLedger,
		)
	default:
		fmt.Fprintf(w, "Proposal %d executed\n", res.Proposal.ID)
	}
}

func printDelegation(w io.Writer, d *governance.Delegation) {
	expiry := "never"
	if d.ExpiryLedger > 0 {
		expiry = strconv.FormatUint(d.ExpiryLedger, 10)
	}
	fmt.Fprintf(
		w,
		"%d\t%s -> %s\tactive=%t\texpires=%s\n",
		d.ID,
		d.Delegator,
		d.Delegate,
		d.Active,
		expiry,
	)
}

func printRecurring(w io.Writer, r *governance.RecurringPayment) {
	fmt.Fprintf(
		w,
		"%d\t%s\t%s %s\tevery %d\tnext=%d\tpaid=%d\tactive=%t\n",
		r.ID,
		r.Recipient,
		r.Amount,
		r.Asset,
		r.Interval,
		r.NextPayment,
		r.PaymentCount,
		r.Active,
	)
}

func printAuditEntry(w io.Writer, entry *governance.AuditEntry) {
	fmt.Fprintf(
		w,
		"%d\t%d\t%s\t%s\t%d\t%016x\n",
		entry.ID,
		entry.Timestamp,
		entry.Action,
		entry.Actor,
		entry.Target,
		entry.Hash,
	)
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
