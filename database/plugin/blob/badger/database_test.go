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

package badger_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/blinklabs-io/vault/database/plugin/blob/badger"
	"github.com/blinklabs-io/vault/database/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestStore(t *testing.T, opts ...badger.BlobStoreBadgerOptionFunc) *badger.BlobStoreBadger {
	t.Helper()
	store, err := badger.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func TestBlobStoreGetSetDelete(t *testing.T) {
	store := newTestStore(t)
	key := types.SpendDayKey(12)

	txn := store.NewTransaction(true)
	_, err := store.Get(txn, key)
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.NoError(t, store.Set(txn, key, []byte{0x01}))
	// A transaction reads its own writes
	val, err := store.Get(txn, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, val)
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(true)
	require.NoError(t, store.Delete(txn, key))
	require.NoError(t, txn.Rollback())

	// Rolled back delete leaves the value in place
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err = store.Get(txn, key)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, val)
}

func TestBlobStoreTxnValidation(t *testing.T) {
	store := newTestStore(t)
	other := newTestStore(t)

	_, err := store.Get(nil, []byte("x"))
	require.ErrorIs(t, err, types.ErrNilTxn)

	otherTxn := other.NewTransaction(false)
	defer otherTxn.Rollback() //nolint:errcheck
	_, err = store.Get(otherTxn, []byte("x"))
	require.Error(t, err)

	txn := store.NewTransaction(true)
	require.NoError(t, txn.Commit())
	require.ErrorIs(t, store.Set(txn, []byte("x"), []byte("y")), types.ErrTxnFinished)
	// Finishing twice is harmless
	require.NoError(t, txn.Commit())
	require.NoError(t, txn.Rollback())
}

func TestBlobStoreTTL(t *testing.T) {
	store := newTestStore(t)
	key := types.VelocityKey("alice")

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetWithTTL(txn, key, []byte("v"), time.Second))
	require.NoError(t, txn.Commit())

	require.Eventually(
		t,
		func() bool {
			txn := store.NewTransaction(false)
			defer txn.Rollback() //nolint:errcheck
			_, err := store.Get(txn, key)
			return err != nil
		},
		5*time.Second,
		100*time.Millisecond,
		"key with TTL should expire",
	)
}

func TestBlobStoreIterator(t *testing.T) {
	store := newTestStore(t)
	txn := store.NewTransaction(true)
	for _, asset := range []string{"native", "usdc", "eurc"} {
		require.NoError(t, store.Set(txn, types.BalanceKey(asset), []byte(asset)))
	}
	require.NoError(t, store.Set(txn, types.SpendDayKey(1), []byte("other")))
	require.NoError(t, txn.Commit())

	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	prefix := []byte(types.BalanceKeyPrefix)
	iter := store.NewIterator(txn, types.BlobIteratorOptions{Prefix: prefix})
	defer iter.Close()
	var assets []string
	for iter.Rewind(); iter.ValidForPrefix(prefix); iter.Next() {
		assets = append(assets, types.BalanceKeyAsset(iter.Item().Key()))
	}
	require.NoError(t, iter.Err())
	assert.Equal(t, []string{"eurc", "native", "usdc"}, assets)
}

func TestBlobStoreCommitTimestamp(t *testing.T) {
	store := newTestStore(t, badger.WithPromRegistry(prometheus.NewRegistry()))
	ts, err := store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(0), ts)

	txn := store.NewTransaction(true)
	require.NoError(t, store.SetCommitTimestamp(1700000000123, txn))
	require.NoError(t, txn.Commit())

	ts, err = store.GetCommitTimestamp()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000123), ts)
}

func TestBlobStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	store, err := badger.New(badger.WithDataDir(dir), badger.WithGc(true))
	require.NoError(t, err)
	txn := store.NewTransaction(true)
	require.NoError(t, store.Set(txn, types.BalanceKey("native"), []byte{0x2a}))
	require.NoError(t, txn.Commit())
	require.NoError(t, store.Close())

	store = newTestStore(t, badger.WithDataDir(dir))
	txn = store.NewTransaction(false)
	defer txn.Rollback() //nolint:errcheck
	val, err := store.Get(txn, types.BalanceKey("native"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a}, val)
}
