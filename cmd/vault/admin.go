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
	"os"
	"strconv"

	"github.com/blinklabs-io/vault"
	"github.com/blinklabs-io/vault/governance"
	"github.com/blinklabs-io/vault/internal/config"
	"github.com/spf13/cobra"
)

func loadVaultConfig(path string) (*governance.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vault config: %w", err)
	}
	defer f.Close()
	return governance.LoadConfig(f)
}

func initCommand() *cobra.Command {
	var vaultConfig string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the vault, making the caller its admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := caller()
			if err != nil {
				return err
			}
			if vaultConfig == "" {
				if cfg := config.FromContext(cmd.Context()); cfg != nil {
					vaultConfig = cfg.VaultConfig
				}
			}
			if vaultConfig == "" {
				return errors.New("no vault config given, use --vault-config")
			}
			govCfg, err := loadVaultConfig(vaultConfig)
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				if err := n.Engine().Initialize(ctx, admin, govCfg); err != nil {
					return err
				}
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"Vault initialized with %d signers, admin %s\n",
					len(govCfg.Signers),
					admin,
				)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&vaultConfig, "vault-config", "", "path to the governance configuration YAML")
	return cmd
}

func configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the vault configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				cfg, err := n.Engine().Config(ctx)
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), cfg)
			})
		},
	}
	return cmd
}

// adminCommand builds a command that runs a configuration change as the caller
func adminCommand(
	use string,
	short string,
	nargs int,
	fn func(ctx context.Context, e *governance.Engine, admin string, args []string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := caller()
			if err != nil {
				return err
			}
			return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
				if err := fn(ctx, n.Engine(), admin, args); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ok")
				return nil
			})
		},
	}
}

func parseUint32(arg string) (uint32, error) {
	v, err := strconv.ParseUint(arg, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", arg, err)
	}
	return uint32(v), nil
}

func signerCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signer",
		Short: "Manage the signer set",
	}
	cmd.AddCommand(
		adminCommand("add <signer>", "Add a signer", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				return e.AddSigner(ctx, admin, args[0])
			},
		),
		adminCommand("remove <signer>", "Remove a signer", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				return e.RemoveSigner(ctx, admin, args[0])
			},
		),
	)
	return cmd
}

func roleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles",
	}
	cmd.AddCommand(
		adminCommand("set <identity> <role>", "Grant a role (member, treasurer, admin)", 2,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				role, err := governance.ParseRole(args[1])
				if err != nil {
					return err
				}
				return e.SetRole(ctx, admin, args[0], role)
			},
		),
		&cobra.Command{
			Use:   "get <identity>",
			Short: "Show the role of an identity",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
					role, err := n.Engine().GetRole(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), role)
					return nil
				})
			},
		},
	)
	return cmd
}

func limitsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Manage spending limits",
	}
	cmd.AddCommand(
		adminCommand("set <per-proposal> <daily> <weekly>", "Set the spending limits", 3,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				spending, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				daily, err := parseAmount(args[1])
				if err != nil {
					return err
				}
				weekly, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				return e.UpdateLimits(ctx, admin, spending, daily, weekly)
			},
		),
	)
	return cmd
}

func thresholdCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold",
		Short: "Manage the approval threshold",
	}
	cmd.AddCommand(
		adminCommand("set <approvals>", "Set the base approval threshold", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				threshold, err := parseUint32(args[0])
				if err != nil {
					return err
				}
				return e.UpdateThreshold(ctx, admin, threshold)
			},
		),
		adminCommand("strategy <file>", "Set the threshold strategy from a YAML file", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				strategy, err := governance.LoadThresholdConfig(f)
				if err != nil {
					return err
				}
				return e.UpdateThresholdStrategy(ctx, admin, *strategy)
			},
		),
	)
	return cmd
}

func quorumCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quorum",
		Short: "Manage the participation quorum",
	}
	cmd.AddCommand(
		adminCommand("set <voters>", "Set the minimum number of voters, 0 to disable", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				quorum, err := parseUint32(args[0])
				if err != nil {
					return err
				}
				return e.UpdateQuorum(ctx, admin, quorum)
			},
		),
	)
	return cmd
}

func timelockCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timelock",
		Short: "Manage the time-lock for large transfers",
	}
	cmd.AddCommand(
		adminCommand("set <amount-threshold> <delay>", "Set the time-lock threshold and delay in ledgers", 2,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				threshold, err := parseAmount(args[0])
				if err != nil {
					return err
				}
				delay, err := parseID(args[1])
				if err != nil {
					return err
				}
				return e.UpdateTimelock(ctx, admin, threshold, delay)
			},
		),
	)
	return cmd
}

func velocityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "velocity",
		Short: "Manage the proposal rate limit",
	}
	cmd.AddCommand(
		adminCommand("set <limit> <window>", "Allow limit proposals per signer in window ledgers, limit 0 disables", 2,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				limit, err := parseUint32(args[0])
				if err != nil {
					return err
				}
				window, err := parseID(args[1])
				if err != nil {
					return err
				}
				return e.UpdateVelocity(ctx, admin, governance.VelocityLimit{Limit: limit, Window: window})
			},
		),
	)
	return cmd
}

func retryPolicyCommand() *cobra.Command {
	var disabled bool
	setCmd := adminCommand("set <max-retries> <initial-backoff>", "Set the execution retry policy", 2,
		func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
			maxRetries, err := parseUint32(args[0])
			if err != nil {
				return err
			}
			backoff, err := parseID(args[1])
			if err != nil {
				return err
			}
			return e.UpdateRetryPolicy(ctx, admin, governance.RetryPolicy{
				Enabled:        !disabled,
				MaxRetries:     maxRetries,
				InitialBackoff: backoff,
			})
		},
	)
	setCmd.Flags().BoolVar(&disabled, "disabled", false, "disable automatic retries")
	cmd := &cobra.Command{
		Use:   "retry-policy",
		Short: "Manage execution retries",
	}
	cmd.AddCommand(setCmd)
	return cmd
}

func votingPeriodCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voting-period",
		Short: "Manage the voting deadline for new proposals",
	}
	cmd.AddCommand(
		adminCommand("set <ledgers>", "Set the voting period, 0 to disable", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				period, err := parseID(args[0])
				if err != nil {
					return err
				}
				return e.UpdateVotingPeriod(ctx, admin, period)
			},
		),
	)
	return cmd
}

func recipientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipients",
		Short: "Manage recipient allow and deny lists",
	}
	cmd.AddCommand(
		adminCommand("mode <disabled|allow|deny>", "Select which list gates proposals", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				mode, err := governance.ParseListMode(args[0])
				if err != nil {
					return err
				}
				return e.SetListMode(ctx, admin, mode)
			},
		),
		adminCommand("allow <recipient>", "Add a recipient to the allow list", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				return e.AllowRecipient(ctx, admin, args[0])
			},
		),
		adminCommand("deny <recipient>", "Add a recipient to the deny list", 1,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				return e.DenyRecipient(ctx, admin, args[0])
			},
		),
		adminCommand("remove <allow|deny> <recipient>", "Remove a recipient from a list", 2,
			func(ctx context.Context, e *governance.Engine, admin string, args []string) error {
				list, err := governance.ParseListMode(args[0])
				if err != nil {
					return err
				}
				return e.RemoveRecipient(ctx, admin, args[1], list)
			},
		),
		&cobra.Command{
			Use:   "list <allow|deny>",
			Short: "Show a recipient list",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := governance.ParseListMode(args[0])
				if err != nil {
					return err
				}
				return withNode(cmd, func(ctx context.Context, n *vault.Node) error {
					recipients, err := n.Engine().RecipientList(ctx, list)
					if err != nil {
						return err
					}
					for _, r := range recipients {
						fmt.Fprintln(cmd.OutOrStdout(), r)
					}
					return nil
				})
			},
		},
	)
	return cmd
}
