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
	"context"
	"errors"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel/attribute"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/event"
)

// Initialize stores the vault configuration and grants admin the admin role.
// It succeeds only once
func (e *Engine) Initialize(ctx context.Context, admin string, cfg *Config) error {
	return e.update(ctx, "initialize", func(op *operation) error {
		_, err := e.db.GetVaultConfig(op.txn)
		if err == nil {
			return ErrAlreadyInitialized
		}
		if !errors.Is(err, models.ErrVaultConfigNotFound) {
			return err
		}
		if admin == "" {
			return ErrInvalidSigner
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := e.db.SetVaultConfig(cfg.toModel(op.now), op.txn); err != nil {
			return err
		}
		if err := e.db.SetRole(&models.Role{Identity: admin, Role: uint8(RoleAdmin)}, op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, AuditInitialize, admin, 0); err != nil {
			return err
		}
		op.publish(event.NewEvent(
			event.VaultInitializedEventType,
			event.VaultInitializedEvent{
				Admin:   admin,
				Signers: slices.Clone(cfg.Signers),
				Ledger:  op.now,
			},
		))
		e.logger.Info(
			"vault initialized",
			"component", "governance",
			"admin", admin,
			"signers", len(cfg.Signers),
			"threshold", cfg.Threshold,
		)
		return nil
	}, attribute.String("vault.admin", admin))
}

// Config returns the current vault configuration
func (e *Engine) Config(ctx context.Context) (*Config, error) {
	var ret *Config
	err := e.view(ctx, "config", func(op *operation) error {
		var err error
		ret, err = e.loadConfig(op)
		return err
	})
	return ret, err
}

// updateConfig applies an admin-only mutation to a copy of the configuration.
// The copy is validated as a whole before it replaces the stored one
func (e *Engine) updateConfig(
	ctx context.Context,
	name string,
	admin string,
	action AuditAction,
	mutate func(*Config) error,
) error {
	return e.update(ctx, name, func(op *operation) error {
		stored, err := e.db.GetVaultConfig(op.txn)
		if err != nil {
			if errors.Is(err, models.ErrVaultConfigNotFound) {
				return ErrNotInitialized
			}
			return err
		}
		if err := e.requireAdmin(op, admin); err != nil {
			return err
		}
		next := configFromModel(stored)
		if err := mutate(next); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}
		if err := e.db.SetVaultConfig(next.toModel(stored.InitializedLedger), op.txn); err != nil {
			return err
		}
		if err := e.appendAudit(op, action, admin, 0); err != nil {
			return err
		}
		op.publish(newConfigUpdatedEvent(admin, name, op.now))
		return nil
	}, attribute.String("vault.admin", admin))
}

func (e *Engine) AddSigner(ctx context.Context, admin string, signer string) error {
	return e.updateConfig(ctx, "add_signer", admin, AuditAddSigner, func(cfg *Config) error {
		if signer == "" {
			return ErrInvalidSigner
		}
		if cfg.isSigner(signer) {
			return ErrSignerAlreadyExists
		}
		cfg.Signers = append(cfg.Signers, signer)
		return nil
	})
}

// RemoveSigner fails if the remaining signers could no longer reach the threshold or quorum
func (e *Engine) RemoveSigner(ctx context.Context, admin string, signer string) error {
	return e.updateConfig(ctx, "remove_signer", admin, AuditRemoveSigner, func(cfg *Config) error {
		idx := slices.Index(cfg.Signers, signer)
		if idx < 0 {
			return ErrSignerNotFound
		}
		remaining := len(cfg.Signers) - 1
		if remaining < int(cfg.Threshold) || remaining < int(cfg.Quorum) {
			return ErrCannotRemoveSigner
		}
		cfg.Signers = slices.Delete(cfg.Signers, idx, idx+1)
		return nil
	})
}

func (e *Engine) UpdateLimits(
	ctx context.Context,
	admin string,
	spending types.Amount,
	daily types.Amount,
	weekly types.Amount,
) error {
	return e.updateConfig(ctx, "update_limits", admin, AuditUpdateLimits, func(cfg *Config) error {
		cfg.SpendingLimit = spending.Clone()
		cfg.DailyLimit = daily.Clone()
		cfg.WeeklyLimit = weekly.Clone()
		return nil
	})
}

func (e *Engine) UpdateThreshold(ctx context.Context, admin string, threshold uint32) error {
	return e.updateConfig(ctx, "update_threshold", admin, AuditUpdateThreshold, func(cfg *Config) error {
		cfg.Threshold = threshold
		return nil
	})
}

// UpdateThresholdStrategy replaces the strategy that computes required approvals
func (e *Engine) UpdateThresholdStrategy(ctx context.Context, admin string, strategy ThresholdConfig) error {
	return e.updateConfig(ctx, "update_threshold_strategy", admin, AuditUpdateThreshold, func(cfg *Config) error {
		cfg.Strategy = strategy
		return nil
	})
}

// UpdateQuorum sets the minimum number of votes. Zero disables the quorum
func (e *Engine) UpdateQuorum(ctx context.Context, admin string, quorum uint32) error {
	return e.updateConfig(ctx, "update_quorum", admin, AuditUpdateQuorum, func(cfg *Config) error {
		cfg.Quorum = quorum
		return nil
	})
}

func (e *Engine) UpdateRetryPolicy(ctx context.Context, admin string, policy RetryPolicy) error {
	return e.updateConfig(ctx, "update_retry_policy", admin, AuditUpdateConfig, func(cfg *Config) error {
		cfg.Retry = policy
		return nil
	})
}

func (e *Engine) UpdateVelocity(ctx context.Context, admin string, velocity VelocityLimit) error {
	return e.updateConfig(ctx, "update_velocity", admin, AuditUpdateConfig, func(cfg *Config) error {
		cfg.Velocity = velocity
		return nil
	})
}

func (e *Engine) UpdateTimelock(
	ctx context.Context,
	admin string,
	threshold types.Amount,
	delay uint64,
) error {
	return e.updateConfig(ctx, "update_timelock", admin, AuditUpdateConfig, func(cfg *Config) error {
		cfg.TimelockThreshold = threshold.Clone()
		cfg.TimelockDelay = delay
		return nil
	})
}

// UpdateVotingPeriod sets the voting deadline applied to new proposals. Zero disables it
func (e *Engine) UpdateVotingPeriod(ctx context.Context, admin string, period uint64) error {
	return e.updateConfig(ctx, "update_voting_period", admin, AuditUpdateConfig, func(cfg *Config) error {
		cfg.VotingPeriod = period
		return nil
	})
}

func (e *Engine) SetListMode(ctx context.Context, admin string, mode ListMode) error {
	return e.updateConfig(ctx, "set_list_mode", admin, AuditUpdateRecipients, func(cfg *Config) error {
		if mode > ListModeDeny {
			return fmt.Errorf("unknown list mode %d", mode)
		}
		cfg.ListMode = mode
		return nil
	})
}

// SetRole grants a role to identity. Only an admin may change roles
func (e *Engine) SetRole(ctx context.Context, admin string, identity string, role Role) error {
	return e.update(ctx, "set_role", func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		if err := e.requireAdmin(op, admin); err != nil {
			return err
		}
		if identity == "" {
			return ErrInvalidSigner
		}
		if role > RoleAdmin {
			return fmt.Errorf("unknown role %d", role)
		}
		if err := e.db.SetRole(&models.Role{Identity: identity, Role: uint8(role)}, op.txn); err != nil {
			return err
		}
		return e.appendAudit(op, AuditSetRole, admin, 0)
	},
		attribute.String("vault.admin", admin),
		attribute.String("vault.identity", identity),
	)
}

// GetRole returns the role of identity, which is RoleMember unless granted otherwise
func (e *Engine) GetRole(ctx context.Context, identity string) (Role, error) {
	var ret Role
	err := e.view(ctx, "get_role", func(op *operation) error {
		var err error
		ret, err = e.roleOf(op, identity)
		return err
	})
	return ret, err
}

func (e *Engine) AllowRecipient(ctx context.Context, admin string, recipient string) error {
	return e.updateRecipient(ctx, "allow_recipient", admin, recipient, ListModeAllow, true)
}

func (e *Engine) DenyRecipient(ctx context.Context, admin string, recipient string) error {
	return e.updateRecipient(ctx, "deny_recipient", admin, recipient, ListModeDeny, true)
}

// RemoveRecipient takes a recipient off the given list. Removing an unlisted recipient is not an error
func (e *Engine) RemoveRecipient(
	ctx context.Context,
	admin string,
	recipient string,
	list ListMode,
) error {
	return e.updateRecipient(ctx, "remove_recipient", admin, recipient, list, false)
}

func (e *Engine) updateRecipient(
	ctx context.Context,
	name string,
	admin string,
	recipient string,
	list ListMode,
	add bool,
) error {
	return e.update(ctx, name, func(op *operation) error {
		if _, err := e.loadConfig(op); err != nil {
			return err
		}
		if err := e.requireAdmin(op, admin); err != nil {
			return err
		}
		if list != ListModeAllow && list != ListModeDeny {
			return fmt.Errorf("no recipient list for mode %s", list)
		}
		if recipient == "" {
			return errors.New("recipient identity is empty")
		}
		var err error
		if add {
			err = e.db.SetRecipientListEntry(&models.RecipientListEntry{
				Recipient:   recipient,
				List:        uint8(list),
				AddedLedger: op.now,
			}, op.txn)
		} else {
			err = e.db.DeleteRecipientListEntry(recipient, uint8(list), op.txn)
		}
		if err != nil {
			return err
		}
		return e.appendAudit(op, AuditUpdateRecipients, admin, 0)
	}, attribute.String("vault.recipient", recipient))
}

// RecipientList returns the recipients on the given list
func (e *Engine) RecipientList(ctx context.Context, list ListMode) ([]string, error) {
	var ret []string
	err := e.view(ctx, "recipient_list", func(op *operation) error {
		entries, err := e.db.GetRecipientListEntries(uint8(list), op.txn)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			ret = append(ret, entry.Recipient)
		}
		return nil
	})
	return ret, err
}
