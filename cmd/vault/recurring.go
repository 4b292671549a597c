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

func recurringCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring payments",
	}
	var memo string
	scheduleCmd := &cobra.Command{
		Use:   "schedule <recipient> <asset> <amount> <interval>",
		Short: "Schedule a payment repeating every interval ledgers",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposer, err := caller()
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			interval, err := parseID(args[3])
			if err != nil {
				return err
			}
			req := governance.ScheduleRecurringRequest{
				Proposer:  proposer,
				Recipient: args[0],
				Asset:     args[1],
				Amount:    amount,
				Memo:      memo,
				Interval:  interval,
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				r, err := n.Engine().ScheduleRecurring(ctx, req)
				if err != nil {
					return err
				}
				printRecurring(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}
	scheduleCmd.Flags().StringVar(&memo, "memo", "", "free form note")
	executeCmd := &cobra.Command{
		Use:   "execute <recurring-id>",
		Short: "Make a due recurring payment",
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
				r, err := n.Engine().ExecuteRecurring(ctx, executor, id)
				if err != nil {
					return err
				}
				printRecurring(cmd.OutOrStdout(), r)
				return nil
			})
		},
	}
	cancelCmd := &cobra.Command{
		Use:   "cancel <recurring-id>",
		Short: "Stop a recurring payment",
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
				if err := n.Engine().CancelRecurring(ctx, canceller, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recurring payment %d cancelled\n", id)
				return nil
			})
		},
	}
	var activeOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				payments, err := n.Engine().ListRecurring(ctx, activeOnly)
				if err != nil {
					return err
				}
				for _, r := range payments {
					printRecurring(cmd.OutOrStdout(), r)
				}
				return nil
			})
		},
	}
	listCmd.Flags().BoolVar(&activeOnly, "active", false, "only list active payments")
	cmd.AddCommand(scheduleCmd, executeCmd, cancelCmd, listCmd)
	return cmd
}
