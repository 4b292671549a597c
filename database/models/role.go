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

// Role assigns a vault role to an identity. Identities without a row hold
// the default member role.
type Role struct {
	ID       uint   `gorm:"primarykey"`
	Identity string `gorm:"uniqueIndex;not null"`
	Role     uint8  `gorm:"not null"`
}

func (Role) TableName() string {
	return "role"
}

// RecipientListEntry records a recipient on the allow list or the deny list
type RecipientListEntry struct {
	ID          uint   `gorm:"primarykey"`
	Recipient   string `gorm:"uniqueIndex:idx_recipient_list,priority:1;not null"`
	List        uint8  `gorm:"uniqueIndex:idx_recipient_list,priority:2;not null"`
	AddedLedger uint64
}

func (RecipientListEntry) TableName() string {
	return "recipient_list"
}
