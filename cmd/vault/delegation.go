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
	"github.com/spf13/cobra"
)

func delegateCommand() *cobra.Command {
	var expiry uint64
	cmd := &cobra.Command{
		Use:   "delegate <delegate>",
		Short: "Delegate your voting power to another signer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delegator, err := caller()
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				d, err := n.Engine().Delegate(ctx, delegator, args[0], expiry)
				if err != nil {
					return err
				}
				printDelegation(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
	cmd.Flags().Uint64Var(&expiry, "expiry", 0, "ledger at which the delegation lapses, 0 for none")
	return cmd
}

func revokeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <delegation-id>",
		Short: "Revoke one of your delegations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			delegator, err := caller()
			if err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				if err := n.Engine().RevokeDelegation(ctx, delegator, id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Delegation %d revoked\n", id)
				return nil
			})
		},
	}
}

func effectiveVoterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "effective-voter <signer>",
		Short: "Show who casts the vote of a signer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				voter, err := n.Engine().EffectiveVoter(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), voter)
				return nil
			})
		},
	}
}

func delegationCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delegation",
		Short: "Inspect delegations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <delegation-id>",
			Short: "Show a delegation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
					d, err := n.Engine().GetDelegation(ctx, id)
					if err != nil {
						return err
					}
					printDelegation(cmd.OutOrStdout(), d)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List delegations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
					delegations, err := n.Engine().ListDelegations(ctx)
					if err != nil {
						return err
					}
					for _, d := range delegations {
						printDelegation(cmd.OutOrStdout(), d)
					}
					return nil
				})
			},
		},
	)
	return cmd
}
