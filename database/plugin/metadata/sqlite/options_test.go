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
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := &MetadataStoreSqlite{}
	for _, opt := range []SqliteOptionFunc{
		WithDataDir("/tmp/test"),
		WithLogger(logger),
		WithPromRegistry(reg),
		WithMaxConnections(10),
	} {
		opt(m)
	}
	assert.Equal(t, "/tmp/test", m.dataDir)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, prometheus.Registerer(reg), m.promRegistry)
	assert.Equal(t, 10, m.maxConnections)
}

func TestMaxConnectionsApplied(t *testing.T) {
	tests := []struct {
		name     string
		dataDir  string
		maxConns int
		expected int
	}{
		{"in-memory is always single", "", 8, 1},
		{"on-disk default", "disk", 0, DefaultMaxConnections},
		{"on-disk configured", "disk", 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := tt.dataDir
			if dataDir != "" {
				dataDir = filepath.Join(t.TempDir(), dataDir)
			}
			m, err := NewWithOptions(
				WithDataDir(dataDir),
				WithMaxConnections(tt.maxConns),
			)
			require.NoError(t, err)
			defer m.Close()
			sqlDb, err := m.db.DB()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, sqlDb.Stats().MaxOpenConnections)
		})
	}
}
