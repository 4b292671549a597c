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
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/blinklabs-io/vault/database"
	"github.com/blinklabs-io/vault/database/models"
	"github.com/blinklabs-io/vault/database/types"
	"github.com/blinklabs-io/vault/event"
)

const (
	tracerName = "github.com/blinklabs-io/vault/governance"
	// DefaultLedgerInterval is the wall time of one ledger unit
	DefaultLedgerInterval = 5 * time.Second
)

// Ledger is the value transfer collaborator. Both calls run inside the
// engine transaction so a failed operation also discards ledger changes
type Ledger interface {
	Balance(txn *database.Txn, asset string) (types.Amount, error)
	// Transfer moves amount of asset from the vault to recipient. It fails
	// without side effects when the vault balance is insufficient
	Transfer(txn *database.Txn, asset string, recipient string, amount types.Amount) error
}

// Engine runs the vault governance operations. Operations are serialized
// and each one commits or rolls back as a whole
type Engine struct {
	db             *database.Database
	ledger         Ledger
	clock          Clock
	eventBus       *event.EventBus
	logger         *slog.Logger
	promRegistry   prometheus.Registerer
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer
	metrics        *engineMetrics
	mu             sync.RWMutex
}

type EngineOptionFunc func(*Engine)

func WithDatabase(db *database.Database) EngineOptionFunc {
	return func(e *Engine) {
		e.db = db
	}
}

func WithLedger(ledger Ledger) EngineOptionFunc {
	return func(e *Engine) {
		e.ledger = ledger
	}
}

func WithClock(clock Clock) EngineOptionFunc {
	return func(e *Engine) {
		e.clock = clock
	}
}

func WithEventBus(eventBus *event.EventBus) EngineOptionFunc {
	return func(e *Engine) {
		e.eventBus = eventBus
	}
}

func WithLogger(logger *slog.Logger) EngineOptionFunc {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithPromRegistry(registry prometheus.Registerer) EngineOptionFunc {
	return func(e *Engine) {
		e.promRegistry = registry
	}
}

func WithTracerProvider(provider trace.TracerProvider) EngineOptionFunc {
	return func(e *Engine) {
		e.tracerProvider = provider
	}
}

func NewEngine(opts ...EngineOptionFunc) (*Engine, error) {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.db == nil {
		return nil, errors.New("governance engine requires a database")
	}
	if e.ledger == nil {
		return nil, errors.New("governance engine requires a ledger")
	}
	if e.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		e.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if e.clock == nil {
		e.clock = SystemClock{
			Genesis:  time.Unix(0, 0),
			Interval: DefaultLedgerInterval,
		}
	}
	if e.tracerProvider == nil {
		e.tracerProvider = otel.GetTracerProvider()
	}
	e.tracer = e.tracerProvider.Tracer(tracerName)
	e.metrics = newEngineMetrics(e.promRegistry)
	return e, nil
}

// Now returns the current ledger
func (e *Engine) Now() uint64 {
	return e.clock.Now()
}

// operation carries the state of a single engine call. Events and metric
// updates are held back until the transaction commits
type operation struct {
	txn         *database.Txn
	events      []event.Event
	commitHooks []func()
	now         uint64
}

func (o *operation) publish(evt event.Event) {
	o.events = append(o.events, evt)
}

func (o *operation) onCommit(fn func()) {
	o.commitHooks = append(o.commitHooks, fn)
}

// committedError marks an error that is returned only after the
// operation's changes have been committed
type committedError struct {
	err error
}

func (c *committedError) Error() string {
	return c.err.Error()
}

func (c *committedError) Unwrap() error {
	return c.err
}

func commitThenFail(err error) error {
	return &committedError{err: err}
}

// update runs fn in a read-write transaction
func (e *Engine) update(
	ctx context.Context,
	name string,
	fn func(*operation) error,
	attrs ...attribute.KeyValue,
) error {
	_, span := e.tracer.Start(
		ctx,
		"governance."+name,
		trace.WithAttributes(attrs...),
	)
	defer span.End()
	e.mu.Lock()
	defer e.mu.Unlock()
	op := &operation{
		txn: e.db.Transaction(true),
		now: e.clock.Now(),
	}
	span.SetAttributes(attribute.Int64("vault.ledger", int64(op.now))) //nolint:gosec // ledger fits
	var deferredErr error
	err := op.txn.Do(func(*database.Txn) error {
		err := fn(op)
		var cErr *committedError
		if errors.As(err, &cErr) {
			deferredErr = cErr.err
			return nil
		}
		return err
	})
	if err == nil {
		for _, hook := range op.commitHooks {
			hook()
		}
		e.publishEvents(op.events)
		err = deferredErr
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Debug(
			"operation failed",
			"component", "governance",
			"operation", name,
			"ledger", op.now,
			"error", err,
		)
	}
	return err
}

// view runs fn in a read-only transaction
func (e *Engine) view(
	ctx context.Context,
	name string,
	fn func(*operation) error,
) error {
	_, span := e.tracer.Start(ctx, "governance."+name)
	defer span.End()
	e.mu.RLock()
	defer e.mu.RUnlock()
	op := &operation{
		txn: e.db.Transaction(false),
		now: e.clock.Now(),
	}
	defer op.txn.Release()
	if err := fn(op); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (e *Engine) publishEvents(events []event.Event) {
	if e.eventBus == nil {
		return
	}
	for _, evt := range events {
		e.eventBus.PublishAsync(evt.Type, evt)
	}
}

func (e *Engine) loadConfig(op *operation) (*Config, error) {
	m, err := e.db.GetVaultConfig(op.txn)
	if err != nil {
		if errors.Is(err, models.ErrVaultConfigNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	return configFromModel(m), nil
}

func (e *Engine) roleOf(op *operation, identity string) (Role, error) {
	role, err := e.db.GetRole(identity, op.txn)
	if err != nil {
		return RoleMember, err
	}
	if role == nil {
		return RoleMember, nil
	}
	return Role(role.Role), nil
}

// requireAdmin fails with ErrUnauthorized unless identity holds the admin role
func (e *Engine) requireAdmin(op *operation, identity string) error {
	role, err := e.roleOf(op, identity)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return ErrUnauthorized
	}
	return nil
}

// requireProposer fails with ErrInsufficientRole unless identity may create proposals
func (e *Engine) requireProposer(op *operation, identity string) error {
	role, err := e.roleOf(op, identity)
	if err != nil {
		return err
	}
	if role != RoleTreasurer && role != RoleAdmin {
		return ErrInsufficientRole
	}
	return nil
}
