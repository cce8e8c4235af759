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

package plan

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/storage/memtable"
	"github.com/fusionql/fusionql/value"
)

func testTable() storage.Table {
	return memtable.NewTable("t", storage.Schema{
		{Name: "a", Type: value.INTEGER},
		{Name: "b", Type: value.INTEGER},
	})
}

func scanWithPred(table storage.Table, bound int64, desc bool) Plan {
	pred := expr.NewComparison(expr.Ge,
		expr.NewColumnRef(0, 0, "t", "a", value.INTEGER),
		expr.NewConstant(value.Int(value.INTEGER, bound)))
	return NewOrderBy([]SortKey{{ColumnID: 0, Descending: desc}},
		NewSeqScan(table, pred, []int{0, 1}))
}

func TestStructuralEqualityAndHash(t *testing.T) {
	require := require.New(t)
	table := testTable()

	a := scanWithPred(table, 20, false)
	b := scanWithPred(table, 20, false)
	require.True(a.Equal(b))
	require.Equal(a.Hash(), b.Hash(), "equal plans hash equally")
	require.Zero(Compare(a, b))

	// A differing sort direction breaks equality.
	c := scanWithPred(table, 20, true)
	require.False(a.Equal(c))
	require.NotZero(Compare(a, c))

	// A differing predicate constant breaks equality.
	d := scanWithPred(table, 21, false)
	require.False(a.Equal(d))
	require.NotZero(Compare(a, d))

	// A different table breaks equality even with identical shape.
	e := scanWithPred(testTable(), 20, false)
	require.False(a.Equal(e))
}

func TestCompareIsTotalAndAntisymmetric(t *testing.T) {
	require := require.New(t)
	table := testTable()
	plans := []Plan{
		scanWithPred(table, 20, false),
		scanWithPred(table, 20, true),
		scanWithPred(table, 30, false),
		NewSeqScan(table, nil, []int{0}),
		NewLimit(1, 5, NewSeqScan(table, nil, []int{0})),
	}
	for _, p := range plans {
		for _, q := range plans {
			require.Equal(-Compare(q, p), Compare(p, q))
			if Compare(p, q) == 0 {
				require.True(p.Equal(q))
			}
		}
	}
}

func TestBindingIsDeterministicAndIdempotent(t *testing.T) {
	require := require.New(t)
	table := testTable()

	a := scanWithPred(table, 20, false)
	b := scanWithPred(table, 20, false)
	require.NoError(PerformBinding(a))
	require.NoError(PerformBinding(b))
	// Structurally equal plans bind to identical attribute handles.
	require.Equal(a.OutputAttrs(), b.OutputAttrs())

	attrs := a.OutputAttrs()
	require.NoError(PerformBinding(a))
	require.Equal(attrs, a.OutputAttrs(), "rebinding keeps handles")
}

func TestBindingResolvesScanColumns(t *testing.T) {
	require := require.New(t)
	table := testTable()
	// Output only column b; the predicate still forces column a to be
	// materialized.
	scan := NewSeqScan(table,
		expr.NewComparison(expr.Ge,
			expr.NewColumnRef(0, 0, "t", "a", value.INTEGER),
			expr.NewConstant(value.Int(value.INTEGER, 1))),
		[]int{1})
	require.NoError(PerformBinding(scan))
	cols, attrs := scan.ScanColumns()
	require.Equal([]int{0, 1}, cols)
	require.Len(attrs, 2)
	require.Len(scan.OutputAttrs(), 1)
	require.Equal("b", scan.OutputAttrs()[0].Name)
}

func TestBindingRejectsUnknownColumn(t *testing.T) {
	table := testTable()
	scan := NewSeqScan(table, nil, []int{5})
	require.Error(t, PerformBinding(scan))
}

func TestReferencedTables(t *testing.T) {
	require := require.New(t)
	left, right := testTable(), testTable()
	p := NewHashJoin(JoinInner,
		[]expr.Expression{expr.NewColumnRef(0, 0, "t", "a", value.INTEGER)},
		nil,
		NewSeqScan(left, nil, []int{0}),
		NewHash([]expr.Expression{expr.NewColumnRef(0, 0, "t", "a", value.INTEGER)},
			NewSeqScan(right, nil, []int{0})))
	oids := ReferencedTables(p)
	require.ElementsMatch([]uint64{left.OID(), right.OID()}, oids)
}
