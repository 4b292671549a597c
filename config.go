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

package vault

import (
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/vault/governance"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry   prometheus.Registerer
	logger         *slog.Logger
	clock          governance.Clock
	genesis        time.Time
	dataDir        string
	blobPlugin     string
	metadataPlugin string
	metricsAddress string
	ledgerInterval time.Duration
	tracing        bool
	tracingStdout  bool
	// shutdownTimeout bounds the graceful shutdown (0 = use default)
	shutdownTimeout time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the vault config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new vault config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:         slog.New(slog.NewJSONHandler(io.Discard, nil)),
		ledgerInterval: governance.DefaultLedgerInterval,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ledgerClock returns the configured clock, or one derived from genesis
func (c *Config) ledgerClock() governance.Clock {
	if c.clock != nil {
		return c.clock
	}
	return governance.SystemClock{
		Genesis:  c.genesis,
		Interval: c.ledgerInterval,
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This will be used for all vault logging
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. Metrics are only registered when one is given
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithMetricsAddress specifies the listen address for the prometheus metrics endpoint. An empty value disables it
func WithMetricsAddress(address string) ConfigOptionFunc {
	return func(c *Config) {
		c.metricsAddress = address
	}
}

// WithGenesis specifies the wall time of ledger 0
func WithGenesis(genesis time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.genesis = genesis
	}
}

// WithLedgerInterval specifies the wall time covered by one ledger
func WithLedgerInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		if interval > 0 {
			c.ledgerInterval = interval
		}
	}
}

// WithClock overrides the genesis based ledger clock
func WithClock(clock governance.Clock) ConfigOptionFunc {
	return func(c *Config) {
		c.clock = clock
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) OTLP collector
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
