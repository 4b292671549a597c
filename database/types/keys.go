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

package types

import (
	"encoding/binary"
	"slices"
)

const (
	SpendDayKeyPrefix   = "sd"
	SpendWeekKeyPrefix  = "sw"
	VelocityKeyPrefix   = "vh"
	RetryStateKeyPrefix = "rs"
	BalanceKeyPrefix    = "bl"
	AccountKeyPrefix    = "ab"
)

func Uint64ToBytes(input uint64) []byte {
	ret := make([]byte, 8)
	binary.BigEndian.PutUint64(ret, input)
	return ret
}

// SpendDayKey returns the blob key of the spend counter for a day bucket
func SpendDayKey(day uint64) []byte {
	return slices.Concat([]byte(SpendDayKeyPrefix), Uint64ToBytes(day))
}

// SpendWeekKey returns the blob key of the spend counter for a week bucket
func SpendWeekKey(week uint64) []byte {
	return slices.Concat([]byte(SpendWeekKeyPrefix), Uint64ToBytes(week))
}

func VelocityKey(signer string) []byte {
	return slices.Concat([]byte(VelocityKeyPrefix), []byte(signer))
}

func RetryStateKey(proposalID uint64) []byte {
	return slices.Concat([]byte(RetryStateKeyPrefix), Uint64ToBytes(proposalID))
}

func BalanceKey(asset string) []byte {
	return slices.Concat([]byte(BalanceKeyPrefix), []byte(asset))
}

// BalanceKeyAsset extracts the asset identifier from a balance key
func BalanceKeyAsset(key []byte) string {
	if len(key) < len(BalanceKeyPrefix) {
		return ""
	}
	return string(key[len(BalanceKeyPrefix):])
}

// AccountBalanceKey returns the blob key of a recipient's balance of an
// asset. The account is length prefixed so distinct pairs never collide
func AccountBalanceKey(account string, asset string) []byte {
	size := make([]byte, 2)
	binary.BigEndian.PutUint16(size, uint16(len(account))) //nolint:gosec // identities are short
	return slices.Concat([]byte(AccountKeyPrefix), size, []byte(account), []byte(asset))
}
