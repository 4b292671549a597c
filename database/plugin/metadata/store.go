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

package metadata

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/plugin"
	"github.com/blinklabs-io/vault/database/types"
)

// MetadataStore holds the long-lived vault records. Getters return nil
// without an error when a record does not exist.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Configuration
	GetVaultConfig(types.Txn) (*models.VaultConfig, error)
	SetVaultConfig(*models.VaultConfig, types.Txn) error

	// Proposals
	GetProposal(
		uint64, // id
		types.Txn,
	) (*models.Proposal, error)
	GetProposals(
		[]uint8, // statuses, empty for all
		types.Txn,
	) ([]models.Proposal, error)
	CreateProposal(*models.Proposal, types.Txn) error
	UpdateProposal(*models.Proposal, types.Txn) error
	GetProposalVotes(
		uint64, // proposal id
		types.Txn,
	) ([]models.ProposalVote, error)
	AddProposalVote(*models.ProposalVote, types.Txn) error
	GetCancellation(
		uint64, // proposal id
		types.Txn,
	) (*models.CancellationRecord, error)
	AddCancellation(*models.CancellationRecord, types.Txn) error

	// Delegations
	GetDelegation(
		uint64, // id
		types.Txn,
	) (*models.Delegation, error)
	GetActiveDelegation(
		string, // delegator
		types.Txn,
	) (*models.Delegation, error)
	GetDelegations(types.Txn) ([]models.Delegation, error)
	SetDelegation(*models.Delegation, types.Txn) error

	// Roles and recipient lists
	GetRole(
		string, // identity
		types.Txn,
	) (*models.Role, error)
	SetRole(*models.Role, types.Txn) error
	GetRecipientListEntry(
		string, // recipient
		uint8, // list
		types.Txn,
	) (*models.RecipientListEntry, error)
	GetRecipientListEntries(
		uint8, // list
		types.Txn,
	) ([]models.RecipientListEntry, error)
	SetRecipientListEntry(*models.RecipientListEntry, types.Txn) error
	DeleteRecipientListEntry(
		string, // recipient
		uint8, // list
		types.Txn,
	) error

	// Audit chain
	GetLastAuditEntry(types.Txn) (*models.AuditEntry, error)
	GetAuditEntry(
		uint64, // id
		types.Txn,
	) (*models.AuditEntry, error)
	GetAuditEntries(
		uint64, // start id
		uint64, // end id
		types.Txn,
	) ([]models.AuditEntry, error)
	AddAuditEntry(*models.AuditEntry, types.Txn) error

	// Recurring payments
	GetRecurringPayment(
		uint64, // id
		types.Txn,
	) (*models.RecurringPayment, error)
	GetRecurringPayments(
		bool, // active only
		types.Txn,
	) ([]models.RecurringPayment, error)
	SetRecurringPayment(*models.RecurringPayment, types.Txn) error
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}
