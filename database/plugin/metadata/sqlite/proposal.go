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

package sqlite

import (
	"errors"

	"gorm.io/gorm"

	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
)

// GetProposal retrieves a proposal by id. Returns nil if it does not exist
func (d *MetadataStoreSqlite) GetProposal(
	id uint64,
	txn types.Txn,
) (*models.Proposal, error) {
	var ret models.Proposal
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.First(&ret, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// GetProposals returns proposals in id order, optionally restricted to the given statuses
func (d *MetadataStoreSqlite) GetProposals(
	statuses []uint8,
	txn types.Txn,
) ([]models.Proposal, error) {
	var ret []models.Proposal
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if len(statuses) > 0 {
		// []uint8 would be bound as a single blob, so widen it first
		tmpStatuses := make([]int, 0, len(statuses))
		for _, status := range statuses {
			tmpStatuses = append(tmpStatuses, int(status))
		}
		query = query.Where("status IN ?", tmpStatuses)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// CreateProposal inserts a new proposal and assigns its id
func (d *MetadataStoreSqlite) CreateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(proposal).Error
}

// UpdateProposal saves all fields of an existing proposal
func (d *MetadataStoreSqlite) UpdateProposal(
	proposal *models.Proposal,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Save(proposal).Error
}

// GetProposalVotes returns the votes cast on a proposal in the order they were recorded
func (d *MetadataStoreSqlite) GetProposalVotes(
	proposalID uint64,
	txn types.Txn,
) ([]models.ProposalVote, error) {
	var ret []models.ProposalVote
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	if result := db.Where("proposal_id = ?", proposalID).
		Order("id").
		Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

// AddProposalVote records a vote. A second vote by the same voter on the
// same proposal violates the unique index and fails
func (d *MetadataStoreSqlite) AddProposalVote(
	vote *models.ProposalVote,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(vote).Error
}
