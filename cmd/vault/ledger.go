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
	"sort"

	"github.com/blinklabs-io/vault"
	"github.com/spf13/cobra"
)

func depositCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <asset> <amount>",
		Short: "Credit the vault with funds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				balance, err := n.Ledger().Deposit(args[0], amount)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", balance, args[0])
				return nil
			})
		},
	}
}

func balanceCommand() *cobra.Command {
	var account string
	cmd := &cobra.Command{
		Use:   "balance [asset]",
		Short: "Show vault balances, or the balance of a recipient account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				out := cmd.OutOrStdout()
				if account != "" {
					if len(args) == 0 {
						return fmt.Errorf("an asset is required with --account")
					}
					balance, err := n.Ledger().AccountBalance(account, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "%s %s\n", balance, args[0])
					return nil
				}
				balances, err := n.Ledger().Balances()
				if err != nil {
					return err
				}
				assets := make([]string, 0, len(balances))
				for asset := range balances {
					if len(args) > 0 && asset != args[0] {
						continue
					}
					assets = append(assets, asset)
				}
				sort.Strings(assets)
				for _, asset := range assets {
					fmt.Fprintf(out, "%s %s\n", balances[asset], asset)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&account, "account", "", "show the balance received by this recipient")
	return cmd
}

func spentCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "spent",
		Short: "Show the amount charged against the current daily and weekly limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				day, week := n.Engine().CurrentBuckets()
				daily, err := n.Engine().DailySpent(ctx, day)
				if err != nil {
					return err
				}
				weekly, err := n.Engine().WeeklySpent(ctx, week)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Ledger: %d\n", n.Engine().Now())
				fmt.Fprintf(out, "Day %d:  %s\n", day, daily)
				fmt.Fprintf(out, "Week %d: %s\n", week, weekly)
				return nil
			})
		},
	}
}
