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

package models

import (
	"errors"

	"github.com/blinklabs-io/vault/database/types"
)

var ErrVaultConfigNotFound = errors.New("vault config not found")

// AmountTier maps a minimum proposal amount to a required approval count
type AmountTier struct {
	MinAmount types.Amount `json:"minAmount"`
	Approvals uint32       `json:"approvals"`
}

// VaultConfig holds the persisted vault-wide governance parameters.
// There is exactly one row once the vault has been initialized.
type VaultConfig struct {
	ID                   uint         `gorm:"primarykey"`
	Signers              []string     `gorm:"serializer:json;not null"`
	Threshold            uint32       `gorm:"not null"`
	Quorum               uint32       `gorm:"not null"`
	SpendingLimit        types.Amount `gorm:"not null"`
	DailyLimit           types.Amount `gorm:"not null"`
	WeeklyLimit          types.Amount `gorm:"not null"`
	TimelockThreshold    types.Amount `gorm:"not null"`
	TimelockDelay        uint64
	VelocityLimit        uint32
	VelocityWindow       uint64
	RetryEnabled         bool
	MaxRetries           uint32
	InitialBackoff       uint64
	ThresholdStrategy    string `gorm:"size:32;not null"`
	ThresholdPercentage  uint32
	AmountTiers          []AmountTier `gorm:"serializer:json"`
	TimeReducedThreshold uint32
	TimeReductionDelay   uint64
	VotingPeriod         uint64
	ExpiryPeriod         uint64
	ListMode             uint8
	InitializedLedger    uint64
}

func (VaultConfig) TableName() string {
	return "vault_config"
}
