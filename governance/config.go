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
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

type VelocityLimit struct {
	// Limit is the maximum proposals per signer inside Window. Zero disables the check
	Limit  uint32 `yaml:"limit"  json:"limit"`
	Window uint64 `yaml:"window" json:"window"`
}

type RetryPolicy struct {
	Enabled        bool   `yaml:"enabled"        json:"enabled"`
	MaxRetries     uint32 `yaml:"maxRetries"     json:"maxRetries"`
	InitialBackoff uint64 `yaml:"initialBackoff" json:"initialBackoff"`
}

// Config holds the vault-wide governance parameters
type Config struct {
	Signers           []string        `yaml:"signers"           json:"signers"`
	Threshold         uint32          `yaml:"threshold"         json:"threshold"`
	Quorum            uint32          `yaml:"quorum"            json:"quorum"`
	SpendingLimit     types.Amount    `yaml:"spendingLimit"     json:"spendingLimit"`
	DailyLimit        types.Amount    `yaml:"dailyLimit"        json:"dailyLimit"`
	WeeklyLimit       types.Amount    `yaml:"weeklyLimit"       json:"weeklyLimit"`
	TimelockThreshold types.Amount    `yaml:"timelockThreshold" json:"timelockThreshold"`
	TimelockDelay     uint64          `yaml:"timelockDelay"     json:"timelockDelay"`
	Velocity          VelocityLimit   `yaml:"velocity"          json:"velocity"`
	Retry             RetryPolicy     `yaml:"retry"             json:"retry"`
	Strategy          ThresholdConfig `yaml:"thresholdStrategy" json:"thresholdStrategy"`
	// VotingPeriod, when set, rejects proposals still pending this many ledgers after creation
	VotingPeriod uint64 `yaml:"votingPeriod" json:"votingPeriod"`
	// ExpiryPeriod overrides DefaultExpiryPeriod
	ExpiryPeriod uint64   `yaml:"expiryPeriod" json:"expiryPeriod"`
	ListMode     ListMode `yaml:"listMode"     json:"listMode"`
}

// LoadConfig reads a vault configuration from YAML. Unknown fields are rejected
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode vault config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration against its own signer set
func (c *Config) Validate() error {
	if len(c.Signers) == 0 {
		return ErrNoSigners
	}
	seen := make(map[string]struct{}, len(c.Signers))
	for _, signer := range c.Signers {
		if signer == "" {
			return ErrInvalidSigner
		}
		if _, ok := seen[signer]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSigner, signer)
		}
		seen[signer] = struct{}{}
	}
	signerCount := len(c.Signers)
	if c.Threshold < 1 {
		return ErrThresholdTooLow
	}
	if int(c.Threshold) > signerCount {
		return ErrThresholdTooHigh
	}
	if int(c.Quorum) > signerCount {
		return ErrQuorumTooHigh
	}
	limits := []struct {
		name  string
		value types.Amount
	}{
		{"spending limit", c.SpendingLimit},
		{"daily limit", c.DailyLimit},
		{"weekly limit", c.WeeklyLimit},
		{"timelock threshold", c.TimelockThreshold},
	}
	for _, limit := range limits {
		if !validAmount(limit.value) {
			return fmt.Errorf("%w: %s", ErrInvalidLimit, limit.name)
		}
	}
	if c.Velocity.Limit > 0 && c.Velocity.Window == 0 {
		return fmt.Errorf("%w: window must be positive", ErrInvalidVelocity)
	}
	if c.Retry.Enabled && (c.Retry.MaxRetries == 0 || c.Retry.InitialBackoff == 0) {
		return fmt.Errorf(
			"%w: max retries and initial backoff must be positive",
			ErrInvalidRetryPolicy,
		)
	}
	ledgerFields := []struct {
		name  string
		value uint64
	}{
		{"timelock delay", c.TimelockDelay},
		{"velocity window", c.Velocity.Window},
		{"initial backoff", c.Retry.InitialBackoff},
		{"reduction delay", c.Strategy.ReductionDelay},
		{"voting period", c.VotingPeriod},
		{"expiry period", c.ExpiryPeriod},
	}
	for _, field := range ledgerFields {
		if field.value > MaxLedger {
			return fmt.Errorf("%w: %s", ErrLedgerOutOfRange, field.name)
		}
	}
	if c.ListMode > ListModeDeny {
		return fmt.Errorf("unknown list mode %d", c.ListMode)
	}
	return c.Strategy.validate(c.Threshold, signerCount)
}

// Clone returns a deep copy, so mutations can be validated before they are stored
func (c *Config) Clone() *Config {
	ret := *c
	ret.Signers = slices.Clone(c.Signers)
	ret.SpendingLimit = c.SpendingLimit.Clone()
	ret.DailyLimit = c.DailyLimit.Clone()
	ret.WeeklyLimit = c.WeeklyLimit.Clone()
	ret.TimelockThreshold = c.TimelockThreshold.Clone()
	ret.Strategy.Tiers = make([]AmountTier, 0, len(c.Strategy.Tiers))
	for _, tier := range c.Strategy.Tiers {
		ret.Strategy.Tiers = append(ret.Strategy.Tiers, AmountTier{
			MinAmount: tier.MinAmount.Clone(),
			Approvals: tier.Approvals,
		})
	}
	return &ret
}

func (c *Config) expiryPeriod() uint64 {
	if c.ExpiryPeriod == 0 {
		return DefaultExpiryPeriod
	}
	return c.ExpiryPeriod
}

func (c *Config) isSigner(identity string) bool {
	return slices.Contains(c.Signers, identity)
}

func (c *Config) toModel(initializedLedger uint64) *models.VaultConfig {
	ret := &models.VaultConfig{
		Signers:              slices.Clone(c.Signers),
		Threshold:            c.Threshold,
		Quorum:               c.Quorum,
		SpendingLimit:        c.SpendingLimit.Clone(),
		DailyLimit:           c.DailyLimit.Clone(),
		WeeklyLimit:          c.WeeklyLimit.Clone(),
		TimelockThreshold:    c.TimelockThreshold.Clone(),
		TimelockDelay:        c.TimelockDelay,
		VelocityLimit:        c.Velocity.Limit,
		VelocityWindow:       c.Velocity.Window,
		RetryEnabled:         c.Retry.Enabled,
		MaxRetries:           c.Retry.MaxRetries,
		InitialBackoff:       c.Retry.InitialBackoff,
		ThresholdStrategy:    string(c.Strategy.Kind),
		ThresholdPercentage:  c.Strategy.Percentage,
		TimeReducedThreshold: c.Strategy.ReducedThreshold,
		TimeReductionDelay:   c.Strategy.ReductionDelay,
		VotingPeriod:         c.VotingPeriod,
		ExpiryPeriod:         c.ExpiryPeriod,
		ListMode:             uint8(c.ListMode),
		InitializedLedger:    initializedLedger,
	}
	for _, tier := range c.Strategy.Tiers {
		ret.AmountTiers = append(ret.AmountTiers, models.AmountTier{
			MinAmount: tier.MinAmount.Clone(),
			Approvals: tier.Approvals,
		})
	}
	return ret
}

func configFromModel(m *models.VaultConfig) *Config {
	ret := &Config{
		Signers:           slices.Clone(m.Signers),
		Threshold:         m.Threshold,
		Quorum:            m.Quorum,
		SpendingLimit:     m.SpendingLimit.Clone(),
		DailyLimit:        m.DailyLimit.Clone(),
		WeeklyLimit:       m.WeeklyLimit.Clone(),
		TimelockThreshold: m.TimelockThreshold.Clone(),
		TimelockDelay:     m.TimelockDelay,
		Velocity: VelocityLimit{
			Limit:  m.VelocityLimit,
			Window: m.VelocityWindow,
		},
		Retry: RetryPolicy{
			Enabled:        m.RetryEnabled,
			MaxRetries:     m.MaxRetries,
			InitialBackoff: m.InitialBackoff,
		},
		Strategy: ThresholdConfig{
			Kind:             StrategyKind(m.ThresholdStrategy),
			Percentage:       m.ThresholdPercentage,
			ReducedThreshold: m.TimeReducedThreshold,
			ReductionDelay:   m.TimeReductionDelay,
		},
		VotingPeriod: m.VotingPeriod,
		ExpiryPeriod: m.ExpiryPeriod,
		ListMode:     ListMode(m.ListMode),
	}
	for _, tier := range m.AmountTiers {
		ret.Strategy.Tiers = append(ret.Strategy.Tiers, AmountTier{
			MinAmount: tier.MinAmount.Clone(),
			Approvals: tier.Approvals,
		})
	}
	return ret
}

// validAmount reports whether an amount is positive and fits a signed 128-bit integer
func validAmount(amount types.Amount) bool {
	return amount.IsPositive() && amount.Big().Cmp(types.MaxAmount) <= 0
}
