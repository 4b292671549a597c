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

package database

import (
	"github.com/blinklabs-io/vault/database/models"
)

func (d *Database) GetProposal(id uint64, txn *Txn) (*models.Proposal, error) {
	var ret *models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		tmp, err := d.Metadata().GetProposal(id, txn.Metadata())
		if err != nil {
			return err
		}
		if tmp == nil {
			return models.ErrProposalNotFound
		}
		ret = tmp
		return nil
	})
	return ret, err
}

// GetProposals returns proposals with any of the given statuses, or all proposals when none are given
func (d *Database) GetProposals(statuses []uint8, txn *Txn) ([]models.Proposal, error) {
	var ret []models.Proposal
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetProposals(statuses, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) CreateProposal(proposal *models.Proposal, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().CreateProposal(proposal, txn.Metadata())
	})
}

func (d *Database) UpdateProposal(proposal *models.Proposal, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().UpdateProposal(proposal, txn.Metadata())
	})
}

// GetProposalVotes returns the votes recorded for a proposal in the order they were cast
func (d *Database) GetProposalVotes(proposalID uint64, txn *Txn) ([]models.ProposalVote, error) {
	var ret []models.ProposalVote
	err := d.withTxn(txn, false, func(txn *Txn) error {
		var err error
		ret, err = d.Metadata().GetProposalVotes(proposalID, txn.Metadata())
		return err
	})
	return ret, err
}

func (d *Database) AddProposalVote(vote *models.ProposalVote, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().AddProposalVote(vote, txn.Metadata())
	})
}

func (d *Database) GetCancellation(proposalID uint64, txn *Txn) (*models.CancellationRecord, error) {
	var ret *models.CancellationRecord
	err := d.withTxn(txn, false, func(txn *Txn) error {
		tmp, err := d.Metadata().GetCancellation(proposalID, txn.Metadata())
		if err != nil {
			return err
		}
		if tmp == nil {
			return models.ErrCancellationNotFound
		}
		ret = tmp
		return nil
	})
	return ret, err
}

func (d *Database) AddCancellation(record *models.CancellationRecord, txn *Txn) error {
	return d.withTxn(txn, true, func(txn *Txn) error {
		return d.Metadata().AddCancellation(record, txn.Metadata())
	})
}
