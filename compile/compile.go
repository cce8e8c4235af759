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

// Package compile turns a bound plan tree into a compiled query: three
// entry points (init, the pipelines, teardown) over a frozen query-state
// record. The walk is push-model: each operator's Produce emits the loop
// driving its child, and a child's rows reach the parent through a
// ConsumeFn fused directly into that loop. Pipeline boundaries (order-by,
// aggregation, hash build) register auxiliary producers that run before
// the main pipeline.
package compile

import (
	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// ConsumeFn processes one row produced by the operator below it, inline
// in the producing loop.
type ConsumeFn func(qs *runtime.QueryState, row *value.Row) error

// ProduceFn drives one pipeline to completion.
type ProduceFn func(qs *runtime.QueryState) error

// Pipeline is one fused loop. The main pipeline has id 0; auxiliary
// producers (build sides) get increasing ids and run first, in
// registration order, which is dependency order because children register
// before their parents.
type Pipeline struct {
	ID      int
	produce ProduceFn
}

// Context carries compilation-wide state: the slot builder, the
// parameter schema, registered pipelines, and the init/teardown closure
// lists translators append to.
type Context struct {
	sb         *runtime.StateBuilder
	paramTypes []value.LogicalType
	cons       consumer.Consumer

	txnSlot          runtime.SlotID
	numProcessedSlot runtime.SlotID
	consumerSlot     runtime.SlotID

	pipelines      []*Pipeline
	nextPipelineID int

	inits     []func(qs *runtime.QueryState) error
	teardowns []func(qs *runtime.QueryState)

	// parallel is true while compiling a pipeline whose operators all
	// tolerate concurrent Consume calls; scans partition tile groups
	// across workers when it holds.
	parallel bool

	// aggTermAttrs resolves AggregateRef expressions while compiling an
	// aggregate's HAVING clause.
	aggTermAttrs []value.AttributeInfo
}

// DeclareAuxProducer registers a pipeline-boundary producer compiled from
// a child subtree. It runs before any later-registered producer and
// before the main pipeline.
func (cc *Context) DeclareAuxProducer(fn ProduceFn) {
	cc.nextPipelineID++
	cc.pipelines = append(cc.pipelines, &Pipeline{ID: cc.nextPipelineID, produce: fn})
}

// AddInit appends an init closure run by CompiledQuery.Init.
func (cc *Context) AddInit(fn func(qs *runtime.QueryState) error) { cc.inits = append(cc.inits, fn) }

// AddTeardown appends a teardown closure. Teardowns never raise and must
// be idempotent; CompiledQuery.Teardown runs them on every exit path.
func (cc *Context) AddTeardown(fn func(qs *runtime.QueryState)) {
	cc.teardowns = append(cc.teardowns, fn)
}

// serialChild compiles a child pipeline with parallelism off, restoring
// the flag afterwards. Boundary operators whose merge step is not wired
// for concurrency use it.
func (cc *Context) serialChild(fn func() error) error {
	saved := cc.parallel
	cc.parallel = false
	err := fn()
	cc.parallel = saved
	return err
}

// CompiledQuery is the result of compiling one plan: callable any number
// of times, each invocation against its own query-state record.
type CompiledQuery struct {
	plan       plan.Plan
	desc       *runtime.StateDesc
	paramTypes []value.LogicalType
	cons       consumer.Consumer

	inits     []func(qs *runtime.QueryState) error
	pipelines []*Pipeline
	main      ProduceFn
	teardowns []func(qs *runtime.QueryState)

	txnSlot          runtime.SlotID
	numProcessedSlot runtime.SlotID
	consumerSlot     runtime.SlotID
}

// Compile translates a plan into a compiled query. The plan may already
// be bound: binding is idempotent, and Compile installs any attribute
// bindings that are still missing. paramTypes is the query's parameter
// schema.
//
// cons participates in compilation (Prepare registers its slots; its
// parallel-exec opt-in shapes the generated loops), but the instance
// actually consuming rows is resolved per invocation through BindConsumer,
// which is what lets a cached compiled query serve many executions.
func Compile(p plan.Plan, paramTypes []value.LogicalType, cons consumer.Consumer) (*CompiledQuery, error) {
	if err := plan.PerformBinding(p); err != nil {
		return nil, err
	}
	cc := &Context{
		sb:         runtime.NewStateBuilder(len(paramTypes)),
		paramTypes: paramTypes,
		cons:       cons,
		parallel:   cons.SupportsParallelExec(),
	}
	cc.txnSlot = cc.sb.RegisterSlot("txn", runtime.SlotPointer, runtime.ScopeQuery)
	cc.numProcessedSlot = cc.sb.RegisterSlot("num_processed", runtime.SlotCounter, runtime.ScopeQuery)
	cc.consumerSlot = cc.sb.RegisterSlot("consumer", runtime.SlotPointer, runtime.ScopeQuery)
	cons.Prepare(cc.sb)

	consumerSlot := cc.consumerSlot
	numProcessed := cc.numProcessedSlot
	rootConsume := func(qs *runtime.QueryState, row *value.Row) error {
		qs.Counter(numProcessed).Add(1)
		return qs.LoadPtr(consumerSlot).(consumer.Consumer).Consume(qs, row)
	}
	main, err := cc.produce(p, rootConsume)
	if err != nil {
		return nil, err
	}

	return &CompiledQuery{
		plan:             p,
		desc:             cc.sb.Freeze(),
		paramTypes:       paramTypes,
		cons:             cons,
		inits:            cc.inits,
		pipelines:        cc.pipelines,
		main:             main,
		teardowns:        cc.teardowns,
		txnSlot:          cc.txnSlot,
		numProcessedSlot: cc.numProcessedSlot,
		consumerSlot:     cc.consumerSlot,
	}, nil
}

// produce dispatches on the operator kind. Every translator lives in its
// own file; unsupported kinds are refused here, before any state is
// registered for them.
func (cc *Context) produce(p plan.Plan, consume ConsumeFn) (ProduceFn, error) {
	switch n := p.(type) {
	case *plan.SeqScan:
		return cc.produceSeqScan(n, consume)
	case *plan.IndexScan:
		return cc.produceIndexScan(n, consume)
	case *plan.Projection:
		return cc.produceProjection(n, consume)
	case *plan.Limit:
		return cc.produceLimit(n, consume)
	case *plan.OrderBy:
		return cc.produceOrderBy(n, consume, 0)
	case *plan.Aggregate:
		return cc.produceAggregate(n, consume)
	case *plan.HashJoin:
		return cc.produceHashJoin(n, consume)
	case *plan.NestedLoopJoin:
		return cc.produceNestedLoopJoin(n, consume)
	case *plan.Insert:
		return cc.produceInsert(n)
	case *plan.Update:
		return cc.produceUpdate(n)
	case *plan.Delete:
		return cc.produceDelete(n)
	case *plan.CsvScan:
		return cc.produceCsvScan(n, consume)
	case *plan.ExportExternalFile:
		return cc.produceExport(n, consume)
	case *plan.Hash:
		// A bare Hash only makes sense under a HashJoin, which compiles
		// its build side itself.
		return nil, fqerrors.ErrUnsupportedPlan.New("Hash outside a HashJoin")
	default:
		return nil, fqerrors.ErrUnsupportedPlan.New(p.Kind().String())
	}
}

// Plan returns the immutable plan this query was compiled from.
func (q *CompiledQuery) Plan() plan.Plan { return q.plan }

// ParamTypes returns the parameter schema.
func (q *CompiledQuery) ParamTypes() []value.LogicalType { return q.paramTypes }

// NewQueryState allocates a fresh state record for one invocation.
func (q *CompiledQuery) NewQueryState() *runtime.QueryState { return q.desc.NewQueryState() }

// BindTxn installs the driving transaction into the state record.
func (q *CompiledQuery) BindTxn(qs *runtime.QueryState, txn *storage.Txn) {
	qs.StorePtr(q.txnSlot, txn)
}

// BindParams type-checks and installs the execute-time parameters.
func (q *CompiledQuery) BindParams(qs *runtime.QueryState, params []value.Value) error {
	return qs.BindParams(params, q.paramTypes)
}

// BindConsumer installs this invocation's terminal sink. Omitting it
// falls back to the consumer the query was compiled with.
func (q *CompiledQuery) BindConsumer(qs *runtime.QueryState, cons consumer.Consumer) {
	qs.StorePtr(q.consumerSlot, cons)
}

func (q *CompiledQuery) boundConsumer(qs *runtime.QueryState) consumer.Consumer {
	if c, ok := qs.LoadPtr(q.consumerSlot).(consumer.Consumer); ok && c != nil {
		return c
	}
	qs.StorePtr(q.consumerSlot, q.cons)
	return q.cons
}

// Init zeroes counters and allocates the runtime structures translators
// registered: hash tables, sorters, materialization buffers.
func (q *CompiledQuery) Init(qs *runtime.QueryState) error {
	if err := q.boundConsumer(qs).InitializeQueryState(qs); err != nil {
		return err
	}
	for _, fn := range q.inits {
		if err := fn(qs); err != nil {
			return err
		}
	}
	return nil
}

// Run executes the auxiliary pipelines in dependency order, then the main
// pipeline.
func (q *CompiledQuery) Run(qs *runtime.QueryState) error {
	for _, p := range q.pipelines {
		qs.EnterPipeline()
		qs.ResetCancel()
		if err := p.produce(qs); err != nil {
			return err
		}
	}
	qs.EnterPipeline()
	qs.ResetCancel()
	return q.main(qs)
}

// Teardown releases every registered resource. It runs under any
// termination path, never raises, and is idempotent.
func (q *CompiledQuery) Teardown(qs *runtime.QueryState) {
	for _, fn := range q.teardowns {
		fn(qs)
	}
	q.boundConsumer(qs).TeardownQueryState(qs)
}

// NumProcessed reads the processed-row counter: result rows for queries,
// affected rows for DML.
func (q *CompiledQuery) NumProcessed(qs *runtime.QueryState) int64 {
	return qs.Counter(q.numProcessedSlot).Load()
}
