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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/vault/database/plugin"
	"github.com/blinklabs-io/vault/database/plugin/blob"
	"github.com/blinklabs-io/vault/database/plugin/metadata"

	// Register the built-in storage plugins
	_ "github.com/blinklabs-io/vault/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/vault/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	BlobPlugin     string
	MetadataPlugin string
	// DataDir is the storage directory. An empty value keeps everything in memory
	DataDir string
	// LedgerInterval is the wall time of one ledger unit, used to turn
	// retention periods into blob TTLs. Zero disables TTLs
	LedgerInterval time.Duration
}

// Database coordinates the blob store (short-lived keyed state) and the
// metadata store (long-lived vault records)
type Database struct {
	logger         *slog.Logger
	blob           blob.BlobStore
	metadata       metadata.MetadataStore
	dataDir        string
	ledgerInterval time.Duration
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new database transaction and returns a handle to it
func (d *Database) Transaction(readWrite bool) *Txn {
	return NewTxn(d, readWrite)
}

// BlobTxn starts a transaction that only touches the blob store
func (d *Database) BlobTxn(readWrite bool) *Txn {
	return NewBlobOnlyTxn(d, readWrite)
}

// MetadataTxn starts a transaction that only touches the metadata store
func (d *Database) MetadataTxn(readWrite bool) *Txn {
	return NewMetadataOnlyTxn(d, readWrite)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// retention converts a period in ledger units to a blob TTL
func (d *Database) retention(ledgers uint64) time.Duration {
	if ledgers == 0 || d.ledgerInterval <= 0 {
		return 0
	}
	if ledgers > uint64(math.MaxInt64/d.ledgerInterval) {
		// Too long to express, keep it forever
		return 0
	}
	return time.Duration(ledgers) * d.ledgerInterval //nolint:gosec // bounds checked above
}

// New creates a new database instance from the configured storage plugins
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	logger := config.Logger
	if logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	blobPlugin := config.BlobPlugin
	if blobPlugin == "" {
		blobPlugin = DefaultBlobPlugin
	}
	metadataPlugin := config.MetadataPlugin
	if metadataPlugin == "" {
		metadataPlugin = DefaultMetadataPlugin
	}
	plugin.SetLogger(logger)
	plugin.SetPromRegistry(config.PromRegistry)
	if err := plugin.SetPluginOption(plugin.PluginTypeMetadata, metadataPlugin, "data-dir", config.DataDir); err != nil {
		return nil, err
	}
	if err := plugin.SetPluginOption(plugin.PluginTypeBlob, blobPlugin, "data-dir", config.DataDir); err != nil {
		return nil, err
	}
	metadataDb, err := metadata.New(metadataPlugin)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	blobDb, err := blob.New(blobPlugin)
	if err != nil {
		_ = metadataDb.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	db := &Database{
		logger:         logger,
		blob:           blobDb,
		metadata:       metadataDb,
		dataDir:        config.DataDir,
		ledgerInterval: config.LedgerInterval,
	}
	if err := db.checkCommitTimestamp(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}
