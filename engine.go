// Copyright 2020-2021 Dolthub, Inc.
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

// Package fusionql is the code-generated query execution engine: it
// compiles physical plan trees into specialized routines, caches them by
// structural plan equality, and drives them inside a transaction.
package fusionql

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fusionql/fusionql/cache"
	"github.com/fusionql/fusionql/compile"
	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// Engine owns the compiled-query cache and the execute entry point.
// Safe for concurrent use; per-invocation state lives entirely in the
// query-state record each Execute call allocates.
type Engine struct {
	cfg   Config
	cache *cache.Cache
	log   *zap.Logger
}

// New builds an engine.
func New(opts ...Option) *Engine {
	cfg := buildConfig(opts)
	return &Engine{
		cfg:   cfg,
		cache: cache.New(cfg.CacheCapacity),
		log:   cfg.Logger,
	}
}

// Cache exposes the compiled-query cache for invalidation and tests.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// InvalidateTable purges every cached plan referencing the table. Must be
// called when a table is altered or dropped: compiled code has column
// offsets baked in and cannot detect staleness at execute time.
func (e *Engine) InvalidateTable(oid uint64) {
	n := e.cache.InvalidateTable(oid)
	e.log.Debug("cache invalidation", zap.Uint64("table", oid), zap.Int("purged", n))
}

// CompileStats reports where one compile's time went, split by phase, and
// whether the cache served it.
type CompileStats struct {
	QueryID  uuid.UUID
	CacheHit bool
	// SetupTime covers plan binding, before IR generation proper.
	SetupTime time.Duration
	// IRGenTime covers compile.Compile as a whole: lowering the plan to the
	// fused pipelines and finalizing the state layout and entry points.
	IRGenTime time.Duration
	// JITTime is always zero: closure compilation has no separate JIT
	// phase.
	JITTime time.Duration
}

// Result is the tagged outcome of Execute.
type Result struct {
	ProcessedRows int64
}

// Compile resolves a plan to a compiled query, consulting the cache
// first. paramTypes is the plan's parameter schema; cons shapes
// compilation (slot registration, parallel opt-in) for a cache miss.
func (e *Engine) Compile(p plan.Plan, paramTypes []value.LogicalType, cons consumer.Consumer, stats *CompileStats) (*compile.CompiledQuery, error) {
	if stats != nil {
		*stats = CompileStats{QueryID: uuid.New()}
	}
	if q, ok := e.cache.Find(p); ok {
		if stats != nil {
			stats.CacheHit = true
		}
		e.log.Debug("plan cache hit", zap.String("plan", p.String()))
		return q, nil
	}
	start := time.Now()
	// Binding is the setup phase; Compile's own PerformBinding call is a
	// no-op afterwards.
	if err := plan.PerformBinding(p); err != nil {
		return nil, err
	}
	bound := time.Now()
	q, err := compile.Compile(p, paramTypes, cons)
	if err != nil {
		return nil, err
	}
	if stats != nil {
		stats.SetupTime = bound.Sub(start)
		// Closure compilation lowers and finalizes in one walk; there is
		// no separate JIT phase to charge, so its bucket stays zero.
		stats.IRGenTime = time.Since(bound)
	}
	e.cache.Add(p, q)
	e.log.Debug("plan compiled",
		zap.String("plan", p.String()),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("cache_size", e.cache.Size()))
	return q, nil
}

// Execute runs a plan inside txn: resolve the compiled query, allocate
// and bind the state record, then init / run / teardown with teardown
// guaranteed on every exit path.
func (e *Engine) Execute(p plan.Plan, txn *storage.Txn, params []value.Value, cons consumer.Consumer, stats *CompileStats) (Result, error) {
	if txn == nil || txn.Status() != storage.TxnActive {
		return Result{}, fqerrors.ErrTransactionAbort.New("execute outside an active transaction")
	}
	paramTypes := make([]value.LogicalType, len(params))
	for i, v := range params {
		paramTypes[i] = v.Type
	}
	q, err := e.Compile(p, paramTypes, cons, stats)
	if err != nil {
		return Result{}, err
	}

	qs := q.NewQueryState()
	q.BindTxn(qs, txn)
	q.BindConsumer(qs, cons)
	if err := q.BindParams(qs, params); err != nil {
		return Result{}, err
	}

	// Teardown must run under any termination path, including panics
	// escaping a pipeline.
	defer func() {
		if r := recover(); r != nil {
			q.Teardown(qs)
			panic(r)
		}
	}()
	if err := q.Init(qs); err != nil {
		q.Teardown(qs)
		return Result{}, err
	}
	if err := q.Run(qs); err != nil {
		q.Teardown(qs)
		e.log.Warn("query failed", zap.String("plan", p.String()), zap.Error(err))
		return Result{}, err
	}
	q.Teardown(qs)
	return Result{ProcessedRows: q.NumProcessed(qs)}, nil
}

// ExecuteString is a convenience for logs and demos: run and render the
// outcome as a one-line summary.
func (e *Engine) ExecuteString(p plan.Plan, txn *storage.Txn, params []value.Value, cons consumer.Consumer) string {
	res, err := e.Execute(p, txn, params, cons, nil)
	if err != nil {
		return fmt.Sprintf("FAILURE: %v", err)
	}
	return fmt.Sprintf("SUCCESS: %d rows", res.ProcessedRows)
}
