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

// Package vault assembles the treasury governance engine, its ledger and
// storage into a runnable node
package vault

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/vault/database"
	"github.com/blinklabs-io/vault/event"
	"github.com/blinklabs-io/vault/governance"
	"github.com/blinklabs-io/vault/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
)

const defaultShutdownTimeout = 30 * time.Second

var loggedEventTypes = []event.EventType{
	event.VaultInitializedEventType,
	event.ConfigUpdatedEventType,
	event.ProposalCreatedEventType,
	event.VoteCastEventType,
	event.ProposalStatusEventType,
	event.ProposalExecutedEventType,
	event.RetryScheduledEventType,
	event.DelegationChangedEventType,
	event.RecurringExecutedEventType,
}

type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	ledger        *ledger.Ledger
	engine        *governance.Engine
	metricsServer *http.Server
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	openMu        sync.Mutex
	opened        bool
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if cfg.logger == nil {
		cfg.logger = NewConfig().logger
	}
	if cfg.ledgerInterval <= 0 {
		cfg.ledgerInterval = governance.DefaultLedgerInterval
	}
	if cfg.tracingStdout && !cfg.tracing {
		return nil, errors.New("invalid configuration: stdout tracing requires tracing to be enabled")
	}
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	return n, nil
}

// Engine returns the governance engine. It is nil until Open succeeds
func (n *Node) Engine() *governance.Engine {
	return n.engine
}

// Ledger returns the vault ledger. It is nil until Open succeeds
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Open sets up tracing, storage, the ledger and the governance engine.
// Calling it more than once is a no-op
func (n *Node) Open(ctx context.Context) error {
	n.openMu.Lock()
	defer n.openMu.Unlock()
	if n.opened {
		return nil
	}
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(ctx); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		LedgerInterval: n.config.ledgerInterval,
	})
	if err != nil {
		var dbErr database.CommitTimestampError
		if !errors.As(err, &dbErr) {
			return fmt.Errorf("failed to open database: %w", err)
		}
		// Governance records live in the metadata store, so a stale blob
		// store only loses short lived state
		n.config.logger.Warn(
			"database commit timestamps differ",
			"component", "vault",
			"error", err,
		)
	}
	if db == nil {
		return errors.New("empty database returned")
	}
	n.db = db
	n.shutdownFuncs = append(
		n.shutdownFuncs,
		func(context.Context) error {
			return n.db.Close()
		},
	)
	// Load ledger
	l, err := ledger.New(ledger.LedgerConfig{
		Logger:       n.config.logger,
		Database:     n.db,
		PromRegistry: n.config.promRegistry,
	})
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}
	n.ledger = l
	// Load governance engine
	engine, err := governance.NewEngine(
		governance.WithDatabase(n.db),
		governance.WithLedger(n.ledger),
		governance.WithClock(n.config.ledgerClock()),
		governance.WithEventBus(n.eventBus),
		governance.WithLogger(n.config.logger),
		governance.WithPromRegistry(n.config.promRegistry),
		governance.WithTracerProvider(otel.GetTracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to load governance engine: %w", err)
	}
	n.engine = engine
	for _, eventType := range loggedEventTypes {
		n.eventBus.SubscribeFunc(eventType, n.logEvent)
	}
	n.opened = true
	return nil
}

func (n *Node) logEvent(evt event.Event) {
	n.config.logger.Debug(
		"governance event",
		"component", "vault",
		"type", string(evt.Type),
		"data", fmt.Sprintf("%+v", evt.Data),
	)
}

// Run opens the node and serves metrics until ctx is done or Stop is called
func (n *Node) Run(ctx context.Context) error {
	if err := n.Open(ctx); err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	if n.config.metricsAddress != "" {
		n.metricsServer = &http.Server{
			Addr:              n.config.metricsAddress,
			Handler:           n.metricsHandler(),
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		server := n.metricsServer
		n.config.logger.Info(
			"serving prometheus metrics on "+server.Addr,
			"component", "vault",
		)
		g.Go(func() error {
			if err := server.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		select {
		case <-n.done:
			return nil
		case <-gctx.Done():
		}
		n.config.logger.Info(
			"shutting down",
			"component", "vault",
		)
		return n.Stop()
	})
	return g.Wait()
}

func (n *Node) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	if gatherer, ok := n.config.promRegistry.(prometheus.Gatherer); ok {
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("/metrics", promhttp.Handler())
	}
	return mux
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	shutdownTimeout := defaultShutdownTimeout
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping new work")

	if n.metricsServer != nil {
		if stopErr := n.metricsServer.Shutdown(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("metrics server shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop event delivery
	n.config.logger.Debug("shutdown phase 2: stopping event delivery")

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Cleanup resources in reverse order
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	for i := len(n.shutdownFuncs) - 1; i >= 0; i-- {
		if fnErr := n.shutdownFuncs[i](ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}
