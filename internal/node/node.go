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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/blinklabs-io/vault"
	"github.com/blinklabs-io/vault/internal/config"
	"github.com/prometheus/client_golang/prometheus"
)

// NodeConfig converts the loaded configuration into vault options
func NodeConfig(
	cfg *config.Config,
	logger *slog.Logger,
	registry prometheus.Registerer,
) (vault.Config, error) {
	genesis, err := cfg.GenesisTime()
	if err != nil {
		return vault.Config{}, err
	}
	ledgerInterval, err := cfg.LedgerIntervalDuration()
	if err != nil {
		return vault.Config{}, err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return vault.Config{}, err
	}
	return vault.NewConfig(
		vault.WithLogger(logger),
		vault.WithDatabasePath(cfg.DatabasePath),
		vault.WithBlobPlugin(cfg.BlobPlugin),
		vault.WithMetadataPlugin(cfg.MetadataPlugin),
		vault.WithGenesis(genesis),
		vault.WithLedgerInterval(ledgerInterval),
		vault.WithShutdownTimeout(shutdownTimeout),
		vault.WithPrometheusRegistry(registry),
		vault.WithTracing(cfg.Tracing),
		vault.WithTracingStdout(cfg.TracingStdout),
	), nil
}

// Open creates and opens a node for one-shot commands. Metrics are not
// registered or served
func Open(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
) (*vault.Node, error) {
	nodeCfg, err := NodeConfig(cfg, logger, nil)
	if err != nil {
		return nil, err
	}
	n, err := vault.New(nodeCfg)
	if err != nil {
		return nil, err
	}
	if err := n.Open(ctx); err != nil {
		_ = n.Stop()
		return nil, err
	}
	return n, nil
}

// Run serves the vault until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	nodeCfg, err := NodeConfig(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	vault.WithMetricsAddress(cfg.MetricsAddress())(&nodeCfg)
	n, err := vault.New(nodeCfg)
	if err != nil {
		return err
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()
	return n.Run(signalCtx)
}
