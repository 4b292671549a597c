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
	"sync"
	"time"
)

// Clock supplies the current ledger, a monotonically increasing integer
// used for all expiry, time-lock and window arithmetic
type Clock interface {
	Now() uint64
}

// SystemClock derives the ledger from wall time elapsed since Genesis
type SystemClock struct {
	Genesis  time.Time
	Interval time.Duration
}

func (c SystemClock) Now() uint64 {
	if c.Interval <= 0 {
		return 0
	}
	elapsed := time.Since(c.Genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.Interval) //nolint:gosec // elapsed is non-negative
}

// ManualClock is a Clock whose ledger only moves when told to
type ManualClock struct {
	mu     sync.Mutex
	ledger uint64
}

func NewManualClock(ledger uint64) *ManualClock {
	return &ManualClock{ledger: ledger}
}

func (c *ManualClock) Now() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger
}

func (c *ManualClock) Set(ledger uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger = ledger
}

func (c *ManualClock) Advance(ledgers uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ledger += ledgers
}
