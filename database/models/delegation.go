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

import "errors"

var ErrDelegationNotFound = errors.New("delegation not found")

// Delegation lets a delegator's vote be cast by the delegate. Revoked and
// superseded delegations are kept with Active unset.
type Delegation struct {
	ID            uint64 `gorm:"primarykey"`
	Delegator     string `gorm:"index;not null"`
	Delegate      string `gorm:"index;not null"`
	ExpiryLedger  uint64
	Active        bool   `gorm:"index"`
	CreatedLedger uint64 `gorm:"not null"`
	RevokedLedger uint64
}

func (Delegation) TableName() string {
	return "delegation"
}
