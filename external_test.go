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
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	"github.com/fusionql/fusionql/value"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func csvScanPlan(path string) *plan.CsvScan {
	return plan.NewCsvScan(path,
		[]string{"a", "b", "c", "d"},
		[]value.LogicalType{value.INTEGER, value.INTEGER, value.DECIMAL, value.INTEGER},
		',', '"', '"')
}

func TestCsvScanOperator(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "in.csv", "1,2,3.0,4\n4,5,6.0,7\n8,9,10.0,11\n")

	rows := env.query(t, csvScanPlan(path))
	require.Len(t, rows, 3)
	require.EqualValues(t, 1, rows[0][0].AsInt64())
	require.EqualValues(t, 6.0, rows[1][2].AsFloat64())
	require.EqualValues(t, 11, rows[2][3].AsInt64())
}

func TestCsvScanMalformedInputFailsQuery(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "bad.csv", "1,\"unclosed,3.0,4\n")

	p := csvScanPlan(path)
	require.NoError(t, plan.PerformBinding(p))
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, nil, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrCsvParse.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}

func TestCsvScanFeedsAggregate(t *testing.T) {
	env := newTestEnv(t)
	path := writeFile(t, "agg.csv", "1,10,0.0,0\n2,20,0.0,0\n3,30,0.0,0\n")

	p := plan.NewAggregate(plan.AggModePlain,
		[]plan.AggTerm{{Kind: plan.AggSum,
			Arg:        expr.NewColumnRef(0, 1, "", "b", value.INTEGER),
			ResultType: value.INTEGER}},
		nil, nil, csvScanPlan(path))
	rows := env.query(t, p)
	require.Len(t, rows, 1)
	require.EqualValues(t, 60, rows[0][0].AsInt64())
}

func TestExportExternalFile(t *testing.T) {
	env := newTestEnv(t)
	out := filepath.Join(t.TempDir(), "out.csv")

	p := plan.NewExportExternalFile(out, ',', '"', '"',
		plan.NewSeqScan(env.table,
			expr.NewComparison(expr.Lt, colRef(0, "a", value.INTEGER), intConst(30)),
			[]int{0, 1, 3}))
	rows := env.query(t, p)
	require.Len(t, rows, 3, "export forwards rows downstream")

	content, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "0,1,3\n10,11,13\n20,21,23\n", string(content))
}

func TestCaseExpression(t *testing.T) {
	env := newTestEnv(t)
	// CASE WHEN a < 100 THEN 'small' WHEN a < 400 THEN 'medium' ELSE 'large' END
	caseExpr := expr.NewCase([]expr.WhenClause{
		{
			When: expr.NewComparison(expr.Lt, colRef(0, "a", value.INTEGER), intConst(100)),
			Then: expr.NewConstant(value.Varchar("small")),
		},
		{
			When: expr.NewComparison(expr.Lt, colRef(0, "a", value.INTEGER), intConst(400)),
			Then: expr.NewConstant(value.Varchar("medium")),
		},
	}, expr.NewConstant(value.Varchar("large")), value.VARCHAR)

	p := plan.NewProjection(
		[]plan.ProjectionTarget{{Name: "size", Expr: caseExpr}},
		[]plan.DirectMap{{OutputColumn: 1, ChildColumn: 0}},
		plan.NewSeqScan(env.table, nil, []int{0}))
	rows := env.query(t, p)
	require.Len(t, rows, 64)
	for _, row := range rows {
		a := row[1].AsInt64()
		switch {
		case a < 100:
			require.Equal(t, "small", row[0].Str)
		case a < 400:
			require.Equal(t, "medium", row[0].Str)
		default:
			require.Equal(t, "large", row[0].Str)
		}
	}
}

func TestCaseBranchTypeMismatchIsCompileError(t *testing.T) {
	env := newTestEnv(t)
	bad := expr.NewCase([]expr.WhenClause{{
		When: expr.NewComparison(expr.Lt, colRef(0, "a", value.INTEGER), intConst(100)),
		Then: expr.NewConstant(value.Varchar("oops")),
	}}, intConst(0), value.INTEGER)

	p := plan.NewProjection(
		[]plan.ProjectionTarget{{Name: "bad", Expr: bad}},
		nil,
		plan.NewSeqScan(env.table, nil, []int{0}))
	require.NoError(t, plan.PerformBinding(p))
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, nil, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrType.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}

func TestExplicitCast(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewProjection(
		[]plan.ProjectionTarget{{
			Name: "d_as_int",
			Expr: expr.NewCast(colRef(0, "d", value.VARCHAR), value.INTEGER, true),
		}},
		nil,
		plan.NewSeqScan(env.table, nil, []int{3}))
	rows := env.query(t, p)
	require.Len(t, rows, 64)
	for i, row := range rows {
		require.EqualValues(t, 10*i+3, row[0].AsInt64())
	}
}

func TestLikeAndInPredicates(t *testing.T) {
	env := newTestEnv(t)

	// d LIKE '1%3' matches "103", "113", ..., "193" plus "13".
	like := plan.NewSeqScan(env.table,
		expr.NewComparison(expr.Like, colRef(3, "d", value.VARCHAR),
			expr.NewConstant(value.Varchar("1%3"))),
		[]int{3})
	rows := env.query(t, like)
	require.Len(t, rows, 11)

	// a IN (100, 200, 9999).
	in := plan.NewSeqScan(env.table,
		expr.NewComparison(expr.In, colRef(0, "a", value.INTEGER),
			expr.NewConstant(value.Array(
				value.Int(value.INTEGER, 100),
				value.Int(value.INTEGER, 200),
				value.Int(value.INTEGER, 9999)))),
		[]int{0})
	rows = env.query(t, in)
	require.Len(t, rows, 2)
}

func TestScalarFunctions(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewProjection(
		[]plan.ProjectionTarget{
			{Name: "len_d", Expr: expr.NewFunctionCall("length",
				[]expr.Expression{colRef(1, "d", value.VARCHAR)}, value.INTEGER)},
			{Name: "abs_neg", Expr: expr.NewFunctionCall("abs",
				[]expr.Expression{expr.NewUnaryMinus(colRef(0, "a", value.INTEGER))}, value.INTEGER)},
		},
		nil,
		plan.NewSeqScan(env.table, nil, []int{0, 3}))
	rows := env.query(t, p)
	require.Len(t, rows, 64)
	require.EqualValues(t, 1, rows[0][0].AsInt64(), `len("3")`)
	require.EqualValues(t, 0, rows[0][1].AsInt64())
	require.EqualValues(t, 630, rows[63][1].AsInt64(), "abs(-630)")
}

func TestStringFunctions(t *testing.T) {
	env := newTestEnv(t)
	varchar := func(s string) expr.Expression {
		return expr.NewConstant(value.Varchar(s))
	}
	p := plan.NewProjection(
		[]plan.ProjectionTarget{
			{Name: "tagged", Expr: expr.NewFunctionCall("concat",
				[]expr.Expression{varchar("d="), colRef(0, "d", value.VARCHAR)}, value.VARCHAR)},
			{Name: "swapped", Expr: expr.NewFunctionCall("replace",
				[]expr.Expression{colRef(0, "d", value.VARCHAR), varchar("3"), varchar("x")}, value.VARCHAR)},
			{Name: "trimmed", Expr: expr.NewFunctionCall("btrim",
				[]expr.Expression{varchar("**mid**"), varchar("*")}, value.VARCHAR)},
			{Name: "thrice", Expr: expr.NewFunctionCall("repeat",
				[]expr.Expression{varchar("ab"), intConst(3)}, value.VARCHAR)},
			{Name: "first_code", Expr: expr.NewFunctionCall("ascii",
				[]expr.Expression{colRef(0, "d", value.VARCHAR)}, value.INTEGER)},
			{Name: "octets", Expr: expr.NewFunctionCall("octet_length",
				[]expr.Expression{colRef(0, "d", value.VARCHAR)}, value.INTEGER)},
		},
		nil,
		plan.NewSeqScan(env.table, nil, []int{3}))
	rows := env.query(t, p)
	require.Len(t, rows, 64)
	require.Equal(t, "d=3", rows[0][0].Str)
	require.Equal(t, "x", rows[0][1].Str)
	require.Equal(t, "1x", rows[1][1].Str, `replace("13", "3", "x")`)
	require.Equal(t, "mid", rows[0][2].Str)
	require.Equal(t, "ababab", rows[0][3].Str)
	require.EqualValues(t, '3', rows[0][4].AsInt64())
	require.EqualValues(t, 1, rows[0][5].AsInt64())
}

func TestDateAndDecimalFunctions(t *testing.T) {
	env := newTestEnv(t)
	ts := expr.NewConstant(value.Timestamp(
		time.Date(2017, time.June, 26, 14, 30, 15, 0, time.UTC)))
	extract := func(part string) expr.Expression {
		return expr.NewFunctionCall("extract",
			[]expr.Expression{expr.NewConstant(value.Varchar(part)), ts}, value.DECIMAL)
	}
	p := plan.NewProjection(
		[]plan.ProjectionTarget{
			{Name: "year", Expr: extract("year")},
			{Name: "quarter", Expr: extract("quarter")},
			{Name: "doy", Expr: extract("doy")},
			{Name: "isodow", Expr: extract("isodow")},
			{Name: "minute", Expr: extract("minute")},
			{Name: "root", Expr: expr.NewFunctionCall("sqrt",
				[]expr.Expression{colRef(0, "a", value.INTEGER)}, value.DECIMAL)},
		},
		nil,
		plan.NewLimit(0, 1, plan.NewOrderBy([]plan.SortKey{{ColumnID: 0, Descending: true}},
			plan.NewSeqScan(env.table, nil, []int{0}))))
	rows := env.query(t, p)
	require.Len(t, rows, 1)
	require.EqualValues(t, 2017, rows[0][0].AsFloat64())
	require.EqualValues(t, 2, rows[0][1].AsFloat64())
	require.EqualValues(t, 177, rows[0][2].AsFloat64())
	require.EqualValues(t, 1, rows[0][3].AsFloat64(), "2017-06-26 is a Monday")
	require.EqualValues(t, 30, rows[0][4].AsFloat64())
	require.InDelta(t, math.Sqrt(630), rows[0][5].AsFloat64(), 1e-9)

	// Unknown date parts and negative square roots fail the query.
	bad := plan.NewProjection(
		[]plan.ProjectionTarget{{Name: "tz", Expr: extract("timezone")}},
		nil,
		plan.NewSeqScan(env.table, nil, []int{0}))
	require.NoError(t, plan.PerformBinding(bad))
	txn := env.txns.Begin()
	_, err := env.engine.Execute(bad, txn, nil, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrType.Is(err))
	require.NoError(t, env.txns.Abort(txn))

	neg := plan.NewProjection(
		[]plan.ProjectionTarget{{Name: "bad_root", Expr: expr.NewFunctionCall("sqrt",
			[]expr.Expression{expr.NewUnaryMinus(colRef(0, "a", value.INTEGER))}, value.DECIMAL)}},
		nil,
		plan.NewSeqScan(env.table,
			expr.NewComparison(expr.Gt, colRef(0, "a", value.INTEGER), intConst(0)),
			[]int{0}))
	require.NoError(t, plan.PerformBinding(neg))
	txn = env.txns.Begin()
	_, err = env.engine.Execute(neg, txn, nil, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrArithmetic.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}

func TestFunctionArityCheckedAtCompile(t *testing.T) {
	env := newTestEnv(t)
	p := plan.NewProjection(
		[]plan.ProjectionTarget{{Name: "bad", Expr: expr.NewFunctionCall("concat",
			[]expr.Expression{colRef(0, "d", value.VARCHAR)}, value.VARCHAR)}},
		nil,
		plan.NewSeqScan(env.table, nil, []int{3}))
	require.NoError(t, plan.PerformBinding(p))
	txn := env.txns.Begin()
	_, err := env.engine.Execute(p, txn, nil, consumer.NewCounting(), nil)
	require.True(t, fqerrors.ErrType.Is(err))
	require.NoError(t, env.txns.Abort(txn))
}
