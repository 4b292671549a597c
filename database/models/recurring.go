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

var ErrRecurringPaymentNotFound = errors.New("recurring payment not found")

// RecurringPayment is a standing transfer that can be executed once per interval
type RecurringPayment struct {
	ID            uint64       `gorm:"primarykey"`
	Proposer      string       `gorm:"index;not null"`
	Recipient     string       `gorm:"not null"`
	Asset         string       `gorm:"not null"`
	Amount        types.Amount `gorm:"not null"`
	Memo          string
	Interval      uint64 `gorm:"not null"`
	NextPayment   uint64 `gorm:"index;not null"`
	PaymentCount  uint32
	Active        bool   `gorm:"index"`
	CreatedLedger uint64 `gorm:"not null"`
}

func (RecurringPayment) TableName() string {
	return "recurring_payment"
}
