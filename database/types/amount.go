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
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// MaxAmount is the largest value representable as a signed 128-bit integer
var MaxAmount = new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 127),
	big.NewInt(1),
)

// Amount is an arbitrary precision integer used for asset quantities. It is
// stored as a decimal string in the metadata store and as a CBOR bignum in
// the blob store. The zero value is a valid zero amount.
//
//nolint:recvcheck
type Amount struct {
	*big.Int
}

func NewAmount(v int64) Amount {
	return Amount{Int: big.NewInt(v)}
}

func AmountFromBig(v *big.Int) Amount {
	if v == nil {
		return Amount{Int: new(big.Int)}
	}
	return Amount{Int: new(big.Int).Set(v)}
}

// ParseAmount parses a base-10 integer string
func ParseAmount(s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("invalid amount: %q", s)
	}
	return Amount{Int: v}, nil
}

// Big returns the underlying value, never nil
func (a Amount) Big() *big.Int {
	if a.Int == nil {
		return new(big.Int)
	}
	return a.Int
}

// Clone returns a deep copy
func (a Amount) Clone() Amount {
	return AmountFromBig(a.Big())
}

func (a Amount) String() string {
	return a.Big().String()
}

// Cmp compares a and b and returns -1, 0 or +1
func (a Amount) Cmp(b Amount) int {
	return a.Big().Cmp(b.Big())
}

// IsPositive reports whether the amount is strictly greater than zero
func (a Amount) IsPositive() bool {
	return a.Big().Sign() > 0
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	return Amount{Int: new(big.Int).Add(a.Big(), b.Big())}
}

// SubFloor returns a - b, floored at zero
func (a Amount) SubFloor(b Amount) Amount {
	ret := new(big.Int).Sub(a.Big(), b.Big())
	if ret.Sign() < 0 {
		ret.SetInt64(0)
	}
	return Amount{Int: ret}
}

// GormDataType tells gorm to use a text column
func (Amount) GormDataType() string {
	return "text"
}

func (a Amount) Value() (driver.Value, error) {
	return a.Big().String(), nil
}

func (a *Amount) Scan(val any) error {
	var s string
	switch v := val.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case int64:
		a.Int = big.NewInt(v)
		return nil
	case nil:
		a.Int = new(big.Int)
		return nil
	default:
		return fmt.Errorf(
			"value was not expected type, wanted string, got %T",
			val,
		)
	}
	if s == "" {
		a.Int = new(big.Int)
		return nil
	}
	tmp, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("failed to set big.Int value from string: %s", s)
	}
	a.Int = tmp
	return nil
}

func (a Amount) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(a.Big())
}

func (a *Amount) UnmarshalCBOR(data []byte) error {
	tmp := new(big.Int)
	if err := cbor.Unmarshal(data, tmp); err != nil {
		return err
	}
	a.Int = tmp
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Big().String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Accept bare JSON numbers as well
		s = string(data)
	}
	tmp, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	tmp, err := ParseAmount(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = tmp
	return nil
}

func (a Amount) MarshalYAML() (any, error) {
	return a.Big().String(), nil
}
