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
	"context"
	"fmt"

	"github.com/blinklabs-io/vault"
	"github.com/blinklabs-io/vault/governance"
	"github.com/spf13/cobra"
)

func proposeCommand() *cobra.Command {
	var memo, logic string
	var balanceAbove string
	var after, before uint64
	cmd := &cobra.Command{
		Use:   "propose <recipient> <asset> <amount>",
		Short: "Create a transfer proposal",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposer, err := caller()
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			req := governance.ProposeRequest{
				Proposer:  proposer,
				Recipient: args[0],
				Asset:     args[1],
				Amount:    amount,
				Memo:      memo,
			}
			switch logic {
			case "and":
				req.ConditionLogic = governance.ConditionLogicAnd
			case "or":
				req.ConditionLogic = governance.ConditionLogicOr
			default:
				return fmt.Errorf("unknown condition logic %q", logic)
			}
			if balanceAbove != "" {
				minBalance, err := parseAmount(balanceAbove)
				if err != nil {
					return err
				}
				req.Conditions = append(req.Conditions, governance.BalanceAbove(minBalance))
			}
			if after > 0 {
				req.Conditions = append(req.Conditions, governance.DateAfter(after))
			}
			if before > 0 {
				req.Conditions = append(req.Conditions, governance.DateBefore(before))
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				p, err := n.Engine().Propose(ctx, req)
				if err != nil {
					return err
				}
				printProposal(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&memo, "memo", "", "free form note")
	cmd.Flags().StringVar(&balanceAbove, "balance-above", "", "only execute while the vault balance exceeds this amount")
	cmd.Flags().Uint64Var(&after, "after", 0, "only execute after this ledger")
	cmd.Flags().Uint64Var(&before, "before", 0, "only execute before this ledger")
	cmd.Flags().StringVar(&logic, "logic", "and", "how conditions combine: and, or")
	return cmd
}

// proposalVoteCommand builds the commands that take a caller and a proposal id
func proposalVoteCommand(
	use string,
	short string,
	fn func(e *governance.Engine, ctx context.Context, caller string, id uint64) (*governance.Proposal, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <proposal-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				p, err := fn(n.Engine(), ctx, signer, id)
				if err != nil {
					return err
				}
				printProposal(cmd.OutOrStdout(), p)
				return nil
			})
		},
	}
}

func approveCommand() *cobra.Command {
	return proposalVoteCommand("approve", "Approve a pending proposal", (*governance.Engine).Approve)
}

func abstainCommand() *cobra.Command {
	return proposalVoteCommand("abstain", "Abstain on a pending proposal", (*governance.Engine).Abstain)
}

func rejectCommand() *cobra.Command {
	return proposalVoteCommand("reject", "Reject a pending proposal", (*governance.Engine).Reject)
}

func expireCommand() *cobra.Command {
	return proposalVoteCommand("expire", "Mark a proposal past its expiry as expired", (*governance.Engine).MarkExpired)
}

func cancelCommand() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "cancel <proposal-id>",
		Short: "Cancel a pending proposal and refund its reserved spend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canceller, err := caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				c, err := n.Engine().Cancel(ctx, canceller, id, reason)
				if err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"Proposal %d cancelled at ledger %d, refunded %s\n",
					c.ProposalID,
					c.CancelledLedger,
					c.Refunded,
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "reason for the cancellation")
	return cmd
}

func executionCommand(
	use string,
	short string,
	fn func(e *governance.Engine, ctx context.Context, caller string, id uint64) (*governance.ExecutionResult, error),
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <proposal-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			executor, err := caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				res, err := fn(n.Engine(), ctx, executor, id)
				if err != nil {
					return err
				}
				printExecution(cmd.OutOrStdout(), res)
				return nil
			})
		},
	}
}

func executeCommand() *cobra.Command {
	return executionCommand("execute", "Execute an approved proposal", (*governance.Engine).Execute)
}

func retryCommand() *cobra.Command {
	return executionCommand("retry", "Retry a deferred execution", (*governance.Engine).RetryExecution)
}

func proposalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proposal",
		Short: "Inspect proposals",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <proposal-id>",
			Short: "Show a proposal",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
					p, err := n.Engine().GetProposal(ctx, id)
					if err != nil {
						return err
					}
					out := cmd.OutOrStdout()
					printProposal(out, p)
					retry, err := n.Engine().GetRetryState(ctx, id)
					if err != nil {
						return err
					}
					if retry != nil {
						fmt.Fprintf(out, "Retries:          %d (next at %d)\n", retry.RetryCount, retry.NextRetryLedger)
					}
					if p.Status == governance.ProposalStatusCancelled {
						c, err := n.Engine().GetCancellation(ctx, id)
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "Cancelled by:     %s (%s)\n", c.CancelledBy, c.Reason)
					}
					return nil
				})
			},
		},
		proposalListCommand(),
	)
	return cmd
}

func proposalListCommand() *cobra.Command {
	var statusNames []string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List proposals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]governance.ProposalStatus, 0, len(statusNames))
			for _, name := range statusNames {
				status, err := governance.ParseProposalStatus(name)
				if err != nil {
					return err
				}
				statuses = append(statuses, status)
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				proposals, err := n.Engine().ListProposals(ctx, statuses...)
				if err != nil {
					return err
				}
				for _, p := range proposals {
					printProposalLine(cmd.OutOrStdout(), p)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statusNames, "status", nil, "only list proposals with these statuses")
	return cmd
}
