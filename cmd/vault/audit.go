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
	"errors"
	"fmt"

	"github.com/blinklabs-io/vault"
	"github.com/spf13/cobra"
)

var errAuditChainBroken = errors.New("audit chain verification failed")

func auditCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	var start, end uint64
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				entries, err := n.Engine().ListAudit(ctx, start, end)
				if err != nil {
					return err
				}
				for _, entry := range entries {
					printAuditEntry(cmd.OutOrStdout(), entry)
				}
				return nil
			})
		},
	}
	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the audit hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				ok, err := n.Engine().VerifyAudit(ctx, start, end)
				if err != nil {
					return err
				}
				if !ok {
					return errAuditChainBroken
				}
				fmt.Fprintln(cmd.OutOrStdout(), "audit chain verified")
				return nil
			})
		},
	}
	for _, c := range []*cobra.Command{listCmd, verifyCmd} {
		c.Flags().Uint64Var(&start, "start", 1, "first entry id")
		c.Flags().Uint64Var(&end, "end", 0, "last entry id, 0 for the latest")
	}
	headCmd := &cobra.Command{
		Use:   "head",
		Short: "Show the latest audit entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				entry, err := n.Engine().AuditHead(ctx)
				if err != nil {
					return err
				}
				if entry == nil {
					fmt.Fprintln(cmd.OutOrStdout(), "audit trail is empty")
					return nil
				}
				printAuditEntry(cmd.OutOrStdout(), entry)
				return nil
			})
		},
	}
	showCmd := &cobra.Command{
		Use:   "show <entry-id>",
		Short: "Show one audit entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				entry, err := n.Engine().AuditEntry(ctx, id)
				if err != nil {
					return err
				}
				printAuditEntry(cmd.OutOrStdout(), entry)
				return nil
			})
		},
	}
	cmd.AddCommand(listCmd, verifyCmd, headCmd, showCmd)
	return cmd
}
