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

package fusionql_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	fusionql "github.com/fusionql/fusionql"
	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/storage/memtable"
	"github.com/fusionql/fusionql/value"
)

// testEnv bundles an engine, a transaction manager, and the seeded test
// table t(a int, b int, c decimal, d varchar) with 64 rows
// (10i, 10i+1, 10i+2, str(10i+3)).
type testEnv struct {
	engine *fusionql.Engine
	txns   *storage.TxnManager
	table  *memtable.Table
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		engine: fusionql.New(),
		txns:   storage.NewTxnManager(),
	}
	// Tile groups of 16 make the 64-row table exactly four immutable tile
	// groups, so zone-map pruning is live in these tests.
	env.table = memtable.NewTableWithTileGroupSize("t", storage.Schema{
		{Name: "a", Type: value.INTEGER},
		{Name: "b", Type: value.INTEGER},
		{Name: "c", Type: value.DECIMAL},
		{Name: "d", Type: value.VARCHAR, Nullable: true},
	}, 16)

	tuples := make([][]expr.Expression, 64)
	for i := 0; i < 64; i++ {
		tuples[i] = []expr.Expression{
			expr.NewConstant(value.Int(value.INTEGER, int64(10*i))),
			expr.NewConstant(value.Int(value.INTEGER, int64(10*i+1))),
			expr.NewConstant(value.Decimal(float64(10*i + 2))),
			expr.NewConstant(value.Varchar(fmt.Sprintf("%d", 10*i+3))),
		}
	}
	txn := env.txns.Begin()
	res, err := env.engine.Execute(plan.NewInsert(env.table, tuples, nil), txn, nil, consumer.NewCounting(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 64, res.ProcessedRows)
	require.NoError(t, env.txns.Commit(txn))
	// The seed insert above was compiled and cached like any other plan;
	// start every test with an empty plan cache.
	env.engine.Cache().Clear()
	return env
}

// colRef abbreviates a column reference into table t's scan output.
func colRef(col int, name string, typ value.LogicalType) *expr.ColumnRef {
	return expr.NewColumnRef(0, col, "t", name, typ)
}

func intConst(n int64) *expr.Constant {
	return expr.NewConstant(value.Int(value.INTEGER, n))
}

// query runs p in a fresh committed transaction and returns the buffered
// rows.
func (env *testEnv) query(t *testing.T, p plan.Plan, params ...value.Value) [][]value.Value {
	t.Helper()
	require.NoError(t, plan.PerformBinding(p))
	sink := consumer.NewBuffering(p.OutputAttrs())
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, params, sink, nil)
	require.NoError(t, err)
	require.NoError(t, env.txns.Commit(txn))
	return sink.Rows()
}

func TestSeqScanAll(t *testing.T) {
	env := newTestEnv(t)
	rows := env.query(t, plan.NewSeqScan(env.table, nil, []int{0, 1, 2, 3}))
	require.Len(t, rows, 64)
	for i, row := range rows {
		require.EqualValues(t, 10*i, row[0].AsInt64(), "insertion order")
		require.EqualValues(t, 10*i+1, row[1].AsInt64())
		require.Equal(t, fmt.Sprintf("%d", 10*i+3), row[3].Str)
	}
}

func TestSeqScanPredicate(t *testing.T) {
	env := newTestEnv(t)
	rows := env.query(t, plan.NewSeqScan(env.table,
		expr.NewComparison(expr.Ge, colRef(0, "a", value.INTEGER), intConst(20)),
		[]int{0, 1, 2}))
	require.Len(t, rows, 62)
	require.EqualValues(t, 20, rows[0][0].AsInt64())
}

func TestSeqScanConjunction(t *testing.T) {
	env := newTestEnv(t)
	pred := expr.NewConjunction(expr.And,
		expr.NewComparison(expr.Ge, colRef(0, "a", value.INTEGER), intConst(20)),
		expr.NewComparison(expr.Eq, colRef(1, "b", value.INTEGER), intConst(21)))
	rows := env.query(t, plan.NewSeqScan(env.table, pred, []int{0, 1, 2, 3}))
	require.Len(t, rows, 1)
	require.EqualValues(t, 20, rows[0][0].AsInt64())
	require.EqualValues(t, 21, rows[0][1].AsInt64())
	require.EqualValues(t, 22, rows[0][2].AsFloat64())
	require.Equal(t, "23", rows[0][3].Str)
}

func TestSeqScanSingleColumn(t *testing.T) {
	env := newTestEnv(t)
	rows := env.query(t, plan.NewSeqScan(env.table,
		expr.NewComparison(expr.Ge, colRef(0, "a", value.INTEGER), intConst(40)),
		[]int{1}))
	require.Len(t, rows, 60)
}

func TestOrderByDescThenAsc(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewOrderBy(
		[]plan.SortKey{{ColumnID: 1, Descending: true}, {ColumnID: 0}},
		plan.NewSeqScan(env.table, nil, []int{0, 1, 2, 3}))
	rows := env.query(t, p)
	require.Len(t, rows, 64)
	for i := 1; i < len(rows); i++ {
		require.Greater(t, rows[i-1][1].AsInt64(), rows[i][1].AsInt64(), "b strictly decreasing")
	}
}

func TestOrderByOffsetLimit(t *testing.T) {
	env := newTestEnv(t)
	build := func(offset, limit uint64) plan.Plan {
		return plan.NewLimit(offset, limit,
			plan.NewOrderBy([]plan.SortKey{{ColumnID: 0}},
				plan.NewSeqScan(env.table, nil, []int{0, 1})))
	}
	require.Empty(t, env.query(t, build(99, 10)))
	rows := env.query(t, build(63, 10))
	require.Len(t, rows, 1)
	require.EqualValues(t, 630, rows[0][0].AsInt64())
}

func TestGlobalAggregates(t *testing.T) {
	env := newTestEnv(t)

	rows := env.query(t, plan.NewAggregate(plan.AggModePlain,
		[]plan.AggTerm{{Kind: plan.AggCountStar, ResultType: value.BIGINT}},
		nil, nil,
		plan.NewSeqScan(env.table, nil, []int{0})))
	require.Len(t, rows, 1)
	require.EqualValues(t, 64, rows[0][0].AsInt64())

	rows = env.query(t, plan.NewAggregate(plan.AggModePlain,
		[]plan.AggTerm{
			{Kind: plan.AggMax, Arg: colRef(0, "a", value.INTEGER), ResultType: value.INTEGER},
			{Kind: plan.AggMin, Arg: colRef(1, "b", value.INTEGER), ResultType: value.INTEGER},
		},
		nil, nil,
		plan.NewSeqScan(env.table, nil, []int{0, 1})))
	require.Len(t, rows, 1)
	require.EqualValues(t, 630, rows[0][0].AsInt64())
	require.EqualValues(t, 1, rows[0][1].AsInt64())
}

func TestGroupByCountPerGroup(t *testing.T) {
	env := newTestEnv(t)
	rows := env.query(t, plan.NewAggregate(plan.AggModeHash,
		[]plan.AggTerm{{Kind: plan.AggCountStar, ResultType: value.BIGINT}},
		[]expr.Expression{colRef(0, "a", value.INTEGER)},
		nil,
		plan.NewSeqScan(env.table, nil, []int{0})))
	require.Len(t, rows, 64)
	for _, row := range rows {
		require.EqualValues(t, 1, row[1].AsInt64())
	}
}

func TestGroupByHaving(t *testing.T) {
	env := newTestEnv(t)
	having := expr.NewComparison(expr.Gt,
		expr.NewAggregateRef(0, value.DECIMAL), intConst(50))
	rows := env.query(t, plan.NewAggregate(plan.AggModeHash,
		[]plan.AggTerm{{Kind: plan.AggAvg, Arg: colRef(1, "b", value.INTEGER), ResultType: value.DECIMAL}},
		[]expr.Expression{colRef(0, "a", value.INTEGER)},
		having,
		plan.NewSeqScan(env.table, nil, []int{0, 1})))
	require.Len(t, rows, 59)
}

func TestGroupByWithWhere(t *testing.T) {
	env := newTestEnv(t)
	rows := env.query(t, plan.NewAggregate(plan.AggModeHash,
		[]plan.AggTerm{{Kind: plan.AggAvg, Arg: colRef(1, "b", value.INTEGER), ResultType: value.DECIMAL}},
		[]expr.Expression{colRef(0, "a", value.INTEGER)},
		nil,
		plan.NewSeqScan(env.table,
			expr.NewComparison(expr.Gt, colRef(0, "a", value.INTEGER), intConst(50)),
			[]int{0, 1})))
	require.Len(t, rows, 58)
}

func TestHashJoinInner(t *testing.T) {
	engine := fusionql.New()
	txns := storage.NewTxnManager()

	left := memtable.NewTable("L", storage.Schema{
		{Name: "a", Type: value.INTEGER},
		{Name: "b", Type: value.INTEGER},
	})
	right := memtable.NewTable("R", storage.Schema{
		{Name: "a", Type: value.INTEGER},
		{Name: "c", Type: value.INTEGER},
	})
	txn := txns.Begin()
	for i := 0; i < 20; i++ {
		require.NoError(t, left.Insert(txn, []value.Value{
			value.Int(value.INTEGER, int64(i)), value.Int(value.INTEGER, int64(100+i)),
		}))
	}
	for i := 0; i < 80; i++ {
		require.NoError(t, right.Insert(txn, []value.Value{
			value.Int(value.INTEGER, int64(i)), value.Int(value.INTEGER, int64(200+i)),
		}))
	}
	require.NoError(t, txns.Commit(txn))

	p := plan.NewHashJoin(plan.JoinInner,
		[]expr.Expression{expr.NewColumnRef(0, 0, "L", "a", value.INTEGER)},
		nil,
		plan.NewSeqScan(left, nil, []int{0, 1}),
		plan.NewHash(
			[]expr.Expression{expr.NewColumnRef(0, 0, "R", "a", value.INTEGER)},
			plan.NewSeqScan(right, nil, []int{0, 1})))
	require.NoError(t, plan.PerformBinding(p))

	sink := consumer.NewBuffering(p.OutputAttrs())
	txn = txns.Begin()
	res, err := engine.Execute(p, txn, nil, sink, nil)
	require.NoError(t, err)
	require.NoError(t, txns.Commit(txn))

	require.EqualValues(t, 20, res.ProcessedRows)
	rows := sink.Rows()
	require.Len(t, rows, 20)
	for _, row := range rows {
		// L.a == R.a, and payload columns line up with the key.
		require.Equal(t, row[0].AsInt64(), row[2].AsInt64())
		require.Equal(t, row[0].AsInt64()+100, row[1].AsInt64())
		require.Equal(t, row[2].AsInt64()+200, row[3].AsInt64())
	}
}

func TestNestedLoopJoinInner(t *testing.T) {
	engine := fusionql.New()
	txns := storage.NewTxnManager()
	left := memtable.NewTable("L", storage.Schema{{Name: "a", Type: value.INTEGER}})
	right := memtable.NewTable("R", storage.Schema{{Name: "b", Type: value.INTEGER}})
	txn := txns.Begin()
	for i := 0; i < 4; i++ {
		require.NoError(t, left.Insert(txn, []value.Value{value.Int(value.INTEGER, int64(i))}))
		require.NoError(t, right.Insert(txn, []value.Value{value.Int(value.INTEGER, int64(i))}))
	}
	require.NoError(t, txns.Commit(txn))

	pred := expr.NewComparison(expr.Lt,
		expr.NewColumnRef(0, 0, "L", "a", value.INTEGER),
		expr.NewColumnRef(1, 0, "R", "b", value.INTEGER))
	p := plan.NewNestedLoopJoin(plan.JoinInner, pred,
		plan.NewSeqScan(left, nil, []int{0}),
		plan.NewSeqScan(right, nil, []int{0}))
	require.NoError(t, plan.PerformBinding(p))

	sink := consumer.NewBuffering(p.OutputAttrs())
	txn = txns.Begin()
	res, err := engine.Execute(p, txn, nil, sink, nil)
	require.NoError(t, err)
	require.NoError(t, txns.Commit(txn))
	// Pairs with a < b over {0..3} x {0..3}.
	require.EqualValues(t, 6, res.ProcessedRows)
	for _, row := range sink.Rows() {
		require.Less(t, row[0].AsInt64(), row[1].AsInt64())
	}
}

func TestOuterJoinsUnsupported(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewHashJoin(plan.JoinLeft,
		[]expr.Expression{colRef(0, "a", value.INTEGER)},
		nil,
		plan.NewSeqScan(env.table, nil, []int{0}),
		plan.NewHash([]expr.Expression{colRef(0, "a", value.INTEGER)},
			plan.NewSeqScan(env.table, nil, []int{0})))
	require.NoError(t, plan.PerformBinding(p))
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, nil, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrUnsupportedPlan.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}

func TestProjectionArithmetic(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewProjection(
		[]plan.ProjectionTarget{{
			Name: "a_plus_b",
			Expr: expr.NewArithmetic(expr.Add,
				colRef(0, "a", value.INTEGER), colRef(1, "b", value.INTEGER), value.INTEGER),
		}},
		[]plan.DirectMap{{OutputColumn: 1, ChildColumn: 0}},
		plan.NewSeqScan(env.table, nil, []int{0, 1}))
	rows := env.query(t, p)
	require.Len(t, rows, 64)
	for _, row := range rows {
		require.Equal(t, 2*row[1].AsInt64()+1, row[0].AsInt64())
	}
}

func TestDivisionByZeroFailsQuery(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewProjection(
		[]plan.ProjectionTarget{{
			Name: "boom",
			Expr: expr.NewArithmetic(expr.Div, colRef(0, "a", value.INTEGER), intConst(0), value.INTEGER),
		}},
		nil,
		plan.NewSeqScan(env.table, nil, []int{0}))
	require.NoError(t, plan.PerformBinding(p))
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, nil, consumer.NewBuffering(p.OutputAttrs()), nil)
	require.True(t, fqerrors.ErrArithmetic.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}

func TestParameterizedPredicate(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewSeqScan(env.table,
		expr.NewComparison(expr.Ge, colRef(0, "a", value.INTEGER), expr.NewParameter(0, value.INTEGER)),
		[]int{0})

	rows := env.query(t, p, value.Int(value.INTEGER, 300))
	require.Len(t, rows, 34)

	// Same compiled plan, different binding.
	rows = env.query(t, p, value.Int(value.INTEGER, 600))
	require.Len(t, rows, 4)

	// Type mismatch surfaces as a parameter error at execute time.
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, []value.Value{value.Varchar("nope")}, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrParameterType.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}

func TestNullPropagation(t *testing.T) {
	engine := fusionql.New()
	txns := storage.NewTxnManager()
	table := memtable.NewTable("n", storage.Schema{
		{Name: "x", Type: value.INTEGER, Nullable: true},
	})
	txn := txns.Begin()
	require.NoError(t, table.Insert(txn, []value.Value{value.Int(value.INTEGER, 7)}))
	require.NoError(t, table.Insert(txn, []value.Value{value.Null(value.INTEGER)}))
	require.NoError(t, txns.Commit(txn))

	ref := expr.NewColumnRef(0, 0, "n", "x", value.INTEGER)
	p := plan.NewProjection(
		[]plan.ProjectionTarget{{
			Name: "x_plus_one",
			Expr: expr.NewArithmetic(expr.Add, ref, intConst(1), value.INTEGER),
		}},
		[]plan.DirectMap{{OutputColumn: 1, ChildColumn: 0}},
		plan.NewSeqScan(table, nil, []int{0}))
	require.NoError(t, plan.PerformBinding(p))
	sink := consumer.NewBuffering(p.OutputAttrs())
	txn = txns.Begin()
	_, err := engine.Execute(p, txn, nil, sink, nil)
	require.NoError(t, err)
	require.NoError(t, txns.Commit(txn))

	rows := sink.Rows()
	require.Len(t, rows, 2)
	require.EqualValues(t, 8, rows[0][0].AsInt64())
	require.True(t, rows[1][0].Null, "NULL operand yields NULL result")

	// A comparison against NULL is never TRUE, so WHERE drops the row.
	filtered := plan.NewSeqScan(table,
		expr.NewComparison(expr.Eq, expr.NewColumnRef(0, 0, "n", "x", value.INTEGER), expr.NewConstant(value.Null(value.INTEGER))),
		[]int{0})
	require.NoError(t, plan.PerformBinding(filtered))
	count := consumer.NewCounting()
	txn = txns.Begin()
	_, err = engine.Execute(filtered, txn, nil, count, nil)
	require.NoError(t, err)
	require.NoError(t, txns.Commit(txn))
	require.EqualValues(t, 0, count.Count())
}

func TestIdempotentReexecution(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewSeqScan(env.table,
		expr.NewComparison(expr.Ge, colRef(0, "a", value.INTEGER), intConst(20)),
		[]int{0, 1})
	first := env.query(t, p)
	for i := 0; i < 3; i++ {
		require.Equal(t, first, env.query(t, p))
	}
}

func TestPlanCacheBehavior(t *testing.T) {
	env := newTestEnv(t)
	build := func(desc bool) plan.Plan {
		return plan.NewOrderBy([]plan.SortKey{{ColumnID: 0, Descending: desc}},
			plan.NewSeqScan(env.table, nil, []int{0, 1}))
	}

	q1 := build(false)
	require.NoError(t, plan.PerformBinding(q1))
	txn := env.txns.Begin()
	var stats fusionql.CompileStats
	_, err := env.engine.Execute(q1, txn, nil, consumer.NewBuffering(q1.OutputAttrs()), &stats)
	require.NoError(t, err)
	require.NoError(t, env.txns.Commit(txn))
	require.False(t, stats.CacheHit)
	require.Equal(t, 1, env.engine.Cache().Size())

	// Structurally identical plan built from fresh objects: a cache hit.
	q1p := build(false)
	require.NoError(t, plan.PerformBinding(q1p))
	txn = env.txns.Begin()
	sink := consumer.NewBuffering(q1p.OutputAttrs())
	_, err = env.engine.Execute(q1p, txn, nil, sink, &stats)
	require.NoError(t, err)
	require.NoError(t, env.txns.Commit(txn))
	require.True(t, stats.CacheHit)
	require.Equal(t, 1, env.engine.Cache().Size())
	require.Len(t, sink.Rows(), 64)

	// Differing only in sort direction: a different query.
	q2 := build(true)
	require.NoError(t, plan.PerformBinding(q2))
	txn = env.txns.Begin()
	_, err = env.engine.Execute(q2, txn, nil, consumer.NewBuffering(q2.OutputAttrs()), &stats)
	require.NoError(t, err)
	require.NoError(t, env.txns.Commit(txn))
	require.False(t, stats.CacheHit)
	require.Equal(t, 2, env.engine.Cache().Size())

	env.engine.Cache().Clear()
	require.Equal(t, 0, env.engine.Cache().Size())
	_, found := env.engine.Cache().Find(q1)
	require.False(t, found)
}

func TestCacheInvalidationOnTableChange(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewSeqScan(env.table, nil, []int{0})
	env.query(t, p)
	require.Equal(t, 1, env.engine.Cache().Size())
	env.engine.InvalidateTable(env.table.OID())
	require.Equal(t, 0, env.engine.Cache().Size())
}

func TestUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)

	// UPDATE t SET b = b + 1000 WHERE a < 30.
	upd := plan.NewUpdate(env.table,
		[]plan.UpdateTarget{{ColumnID: 1, Expr: expr.NewArithmetic(expr.Add,
			colRef(1, "b", value.INTEGER), intConst(1000), value.INTEGER)}},
		plan.NewSeqScan(env.table,
			expr.NewComparison(expr.Lt, colRef(0, "a", value.INTEGER), intConst(30)),
			[]int{0, 1}))
	require.NoError(t, plan.PerformBinding(upd))
	txn := env.txns.Begin()
	res, err := env.engine.Execute(upd, txn, nil, consumer.NewCounting(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 3, res.ProcessedRows)
	require.NoError(t, env.txns.Commit(txn))

	rows := env.query(t, plan.NewSeqScan(env.table,
		expr.NewComparison(expr.Gt, colRef(1, "b", value.INTEGER), intConst(1000)),
		[]int{0, 1}))
	require.Len(t, rows, 3)

	// DELETE FROM t WHERE a >= 600.
	del := plan.NewDelete(env.table,
		plan.NewSeqScan(env.table,
			expr.NewComparison(expr.Ge, colRef(0, "a", value.INTEGER), intConst(600)),
			[]int{0}))
	require.NoError(t, plan.PerformBinding(del))
	txn = env.txns.Begin()
	res, err = env.engine.Execute(del, txn, nil, consumer.NewCounting(), nil)
	require.NoError(t, err)
	require.EqualValues(t, 4, res.ProcessedRows)
	require.NoError(t, env.txns.Commit(txn))

	rows = env.query(t, plan.NewAggregate(plan.AggModePlain,
		[]plan.AggTerm{{Kind: plan.AggCountStar, ResultType: value.BIGINT}},
		nil, nil, plan.NewSeqScan(env.table, nil, []int{0})))
	require.EqualValues(t, 60, rows[0][0].AsInt64())
}

func TestIndexScanModes(t *testing.T) {
	env := newTestEnv(t)
	env.table.CreateIndex("t_a", []int{0})

	// Point lookup.
	point := plan.NewIndexScan(env.table, "t_a",
		[]plan.IndexKey{{ColumnID: 0, Op: expr.Eq, Bound: intConst(200)}},
		nil, []int{0, 1})
	rows := env.query(t, point)
	require.Len(t, rows, 1)
	require.EqualValues(t, 201, rows[0][1].AsInt64())

	// Range scan, inclusive both sides, in index order.
	rng := plan.NewIndexScan(env.table, "t_a",
		[]plan.IndexKey{
			{ColumnID: 0, Op: expr.Ge, Bound: intConst(100)},
			{ColumnID: 0, Op: expr.Le, Bound: intConst(200)},
		},
		nil, []int{0})
	rows = env.query(t, rng)
	require.Len(t, rows, 11)
	for i, row := range rows {
		require.EqualValues(t, 100+10*i, row[0].AsInt64())
	}

	// No key conditions: full scan in index order.
	full := plan.NewIndexScan(env.table, "t_a", nil, nil, []int{0})
	rows = env.query(t, full)
	require.Len(t, rows, 64)
	require.EqualValues(t, 0, rows[0][0].AsInt64())
	require.EqualValues(t, 630, rows[63][0].AsInt64())
}

func TestMVCCVisibility(t *testing.T) {
	env := newTestEnv(t)

	// An uncommitted insert is invisible to a concurrent snapshot.
	writer := env.txns.Begin()
	require.NoError(t, env.table.Insert(writer, []value.Value{
		value.Int(value.INTEGER, 9999), value.Int(value.INTEGER, 1),
		value.Decimal(1), value.Varchar("x"),
	}))
	countPlan := plan.NewAggregate(plan.AggModePlain,
		[]plan.AggTerm{{Kind: plan.AggCountStar, ResultType: value.BIGINT}},
		nil, nil, plan.NewSeqScan(env.table, nil, []int{0}))
	rows := env.query(t, countPlan)
	require.EqualValues(t, 64, rows[0][0].AsInt64())

	require.NoError(t, env.txns.Commit(writer))
	rows = env.query(t, countPlan)
	require.EqualValues(t, 65, rows[0][0].AsInt64())
}
