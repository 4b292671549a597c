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

	"github.com/blinklabs-io/vault/database/types"
	"gopkg.in/yaml.v3"
)

type StrategyKind string

const (
	StrategyFixed      StrategyKind = "fixed"
	StrategyPercentage StrategyKind = "percentage"
	StrategyAmountTier StrategyKind = "amount"
	StrategyTimeBased  StrategyKind = "time"
)

type AmountTier struct {
	MinAmount types.Amount `yaml:"minAmount" json:"minAmount"`
	Approvals uint32       `yaml:"approvals" json:"approvals"`
}

// ThresholdConfig selects how many approvals a proposal needs. The vault
// threshold is used directly by the fixed strategy and as the starting
// point of the amount and time strategies
type ThresholdConfig struct {
	Kind       StrategyKind `yaml:"kind"       json:"kind"`
	Percentage uint32       `yaml:"percentage" json:"percentage,omitempty"`
	// Tiers must be sorted by ascending MinAmount
	Tiers            []AmountTier `yaml:"tiers"            json:"tiers,omitempty"`
	ReducedThreshold uint32       `yaml:"reducedThreshold" json:"reducedThreshold,omitempty"`
	ReductionDelay   uint64       `yaml:"reductionDelay"   json:"reductionDelay,omitempty"`
}

// LoadThresholdConfig reads a threshold strategy from YAML
func LoadThresholdConfig(r io.Reader) (*ThresholdConfig, error) {
	var cfg ThresholdConfig
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode threshold strategy: %w", err)
	}
	return &cfg, nil
}

// ThresholdStrategy computes the approvals required for a proposal
type ThresholdStrategy interface {
	// RequiredApprovals takes the proposal amount, the size of its signer
	// snapshot and the ledgers elapsed since it was created
	RequiredApprovals(amount types.Amount, signerCount int, elapsed uint64) uint32
}

type FixedThreshold struct {
	Threshold uint32
}

func (s FixedThreshold) RequiredApprovals(types.Amount, int, uint64) uint32 {
	return s.Threshold
}

// PercentageThreshold requires a share of the signer snapshot, rounded up
type PercentageThreshold struct {
	Percentage uint32
}

func (s PercentageThreshold) RequiredApprovals(_ types.Amount, signerCount int, _ uint64) uint32 {
	required := (uint64(signerCount)*uint64(s.Percentage) + 99) / 100 //nolint:gosec // signerCount is a slice length
	if required < 1 {
		required = 1
	}
	return uint32(required) //nolint:gosec // bounded by signerCount
}

// AmountTierThreshold uses the approvals of the highest tier the amount reaches
type AmountTierThreshold struct {
	Base  uint32
	Tiers []AmountTier
}

func (s AmountTierThreshold) RequiredApprovals(amount types.Amount, _ int, _ uint64) uint32 {
	ret := s.Base
	for _, tier := range s.Tiers {
		if amount.Cmp(tier.MinAmount) >= 0 {
			ret = tier.Approvals
		}
	}
	return ret
}

// TimeBasedThreshold lowers the requirement once a proposal has been open
// for Delay ledgers. It is evaluated when votes are cast, so a proposal that
// receives no further votes after the delay does not become approved
type TimeBasedThreshold struct {
	Initial uint32
	Reduced uint32
	Delay   uint64
}

func (s TimeBasedThreshold) RequiredApprovals(_ types.Amount, _ int, elapsed uint64) uint32 {
	if elapsed >= s.Delay {
		return s.Reduced
	}
	return s.Initial
}

// Strategy returns the configured threshold strategy
func (c *Config) thresholdStrategy() ThresholdStrategy {
	switch c.Strategy.Kind {
	case StrategyPercentage:
		return PercentageThreshold{Percentage: c.Strategy.Percentage}
	case StrategyAmountTier:
		return AmountTierThreshold{Base: c.Threshold, Tiers: c.Strategy.Tiers}
	case StrategyTimeBased:
		return TimeBasedThreshold{
			Initial: c.Threshold,
			Reduced: c.Strategy.ReducedThreshold,
			Delay:   c.Strategy.ReductionDelay,
		}
	default:
		return FixedThreshold{Threshold: c.Threshold}
	}
}

func (t *ThresholdConfig) validate(threshold uint32, signerCount int) error {
	switch t.Kind {
	case "", StrategyFixed:
		return nil
	case StrategyPercentage:
		if t.Percentage < 1 || t.Percentage > 100 {
			return fmt.Errorf("%w: percentage must be between 1 and 100", ErrInvalidStrategy)
		}
	case StrategyAmountTier:
		if len(t.Tiers) == 0 {
			return fmt.Errorf("%w: no amount tiers", ErrInvalidStrategy)
		}
		for i, tier := range t.Tiers {
			if !validAmount(tier.MinAmount) {
				return fmt.Errorf("%w: tier %d amount must be positive", ErrInvalidStrategy, i)
			}
			if tier.Approvals < 1 || int(tier.Approvals) > signerCount {
				return fmt.Errorf("%w: tier %d approvals out of range", ErrInvalidStrategy, i)
			}
			if i > 0 && tier.MinAmount.Cmp(t.Tiers[i-1].MinAmount) <= 0 {
				return fmt.Errorf("%w: tiers must be sorted by ascending amount", ErrInvalidStrategy)
			}
		}
	case StrategyTimeBased:
		if t.ReducedThreshold < 1 || t.ReducedThreshold > threshold {
			return fmt.Errorf(
				"%w: reduced threshold must be between 1 and the threshold",
				ErrInvalidStrategy,
			)
		}
		if t.ReductionDelay == 0 {
			return fmt.Errorf("%w: reduction delay must be positive", ErrInvalidStrategy)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStrategy, t.Kind)
	}
	return nil
}
