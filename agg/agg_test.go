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

package agg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/value"
)

func intVal(n int64) value.Value { return value.Int(value.BIGINT, n) }

func TestEmptyInputSemantics(t *testing.T) {
	require := require.New(t)
	layout := NewLayout([]TermDesc{
		{Kind: CountStar, ResultType: value.BIGINT},
		{Kind: Count, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Sum, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Min, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Max, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Avg, InputType: value.BIGINT, ResultType: value.DECIMAL},
	})
	b := layout.NewBuffer()

	// count(*) over empty input is 0; sum/min/max/avg are NULL.
	require.EqualValues(0, layout.Finalize(b, 0).AsInt64())
	require.EqualValues(0, layout.Finalize(b, 1).AsInt64())
	require.True(layout.Finalize(b, 2).Null)
	require.True(layout.Finalize(b, 3).Null)
	require.True(layout.Finalize(b, 4).Null)
	require.True(layout.Finalize(b, 5).Null)
}

func TestAdvanceAndFinalize(t *testing.T) {
	require := require.New(t)
	layout := NewLayout([]TermDesc{
		{Kind: CountStar, ResultType: value.BIGINT},
		{Kind: Count, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Sum, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Min, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Max, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Avg, InputType: value.BIGINT, ResultType: value.DECIMAL},
	})
	b := layout.NewBuffer()

	inputs := []value.Value{intVal(4), value.Null(value.BIGINT), intVal(2), intVal(6)}
	for _, v := range inputs {
		for i := 0; i < layout.NumTerms(); i++ {
			layout.Advance(b, i, v)
		}
	}

	require.EqualValues(4, layout.Finalize(b, 0).AsInt64(), "count(*) counts NULLs")
	require.EqualValues(3, layout.Finalize(b, 1).AsInt64(), "count(x) skips NULLs")
	require.EqualValues(12, layout.Finalize(b, 2).AsInt64())
	require.EqualValues(2, layout.Finalize(b, 3).AsInt64())
	require.EqualValues(6, layout.Finalize(b, 4).AsInt64())
	require.InDelta(4.0, layout.Finalize(b, 5).AsFloat64(), 1e-9, "avg = sum/count over non-null")
}

func TestDistinctTerms(t *testing.T) {
	require := require.New(t)
	layout := NewLayout([]TermDesc{
		{Kind: Count, Distinct: true, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Sum, Distinct: true, InputType: value.BIGINT, ResultType: value.BIGINT},
	})
	b := layout.NewBuffer()
	for _, n := range []int64{5, 5, 3, 3, 3, 9} {
		layout.Advance(b, 0, intVal(n))
		layout.Advance(b, 1, intVal(n))
	}
	require.EqualValues(3, layout.Finalize(b, 0).AsInt64())
	require.EqualValues(17, layout.Finalize(b, 1).AsInt64())
}

func TestDistinctSetUpgrade(t *testing.T) {
	require := require.New(t)
	layout := NewLayout([]TermDesc{
		{Kind: Count, Distinct: true, InputType: value.BIGINT, ResultType: value.BIGINT},
	})
	b := layout.NewBuffer()
	// Cross the sorted-array threshold; duplicates fold either side of the
	// upgrade.
	for round := 0; round < 2; round++ {
		for n := int64(0); n < 3*upgradeThreshold; n++ {
			layout.Advance(b, 0, intVal(n))
		}
	}
	require.EqualValues(3*upgradeThreshold, layout.Finalize(b, 0).AsInt64())
}

func TestGroupedTable(t *testing.T) {
	require := require.New(t)
	layout := NewLayout([]TermDesc{
		{Kind: CountStar, ResultType: value.BIGINT},
		{Kind: Sum, InputType: value.BIGINT, ResultType: value.BIGINT},
	})
	g := NewGroupedTable(layout)
	for i := int64(0); i < 100; i++ {
		buf := g.ProbeOrInsert([]value.Value{intVal(i % 10)})
		layout.Advance(buf, 0, value.Value{})
		layout.Advance(buf, 1, intVal(i))
	}
	require.Equal(10, g.NumGroups())
	require.NoError(g.Iterate(func(key []value.Value, buf *Buffer) error {
		require.EqualValues(10, layout.Finalize(buf, 0).AsInt64())
		return nil
	}))
}

func TestMergeCombinesWorkers(t *testing.T) {
	require := require.New(t)
	layout := NewLayout([]TermDesc{
		{Kind: Count, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Sum, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Min, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Max, InputType: value.BIGINT, ResultType: value.BIGINT},
		{Kind: Avg, InputType: value.BIGINT, ResultType: value.DECIMAL},
	})
	a, b := layout.NewBuffer(), layout.NewBuffer()
	for _, n := range []int64{1, 2, 3} {
		for i := 0; i < layout.NumTerms(); i++ {
			layout.Advance(a, i, intVal(n))
		}
	}
	for _, n := range []int64{10, 20} {
		for i := 0; i < layout.NumTerms(); i++ {
			layout.Advance(b, i, intVal(n))
		}
	}
	require.NoError(layout.Merge(a, b))
	require.EqualValues(5, layout.Finalize(a, 0).AsInt64())
	require.EqualValues(36, layout.Finalize(a, 1).AsInt64())
	require.EqualValues(1, layout.Finalize(a, 2).AsInt64())
	require.EqualValues(20, layout.Finalize(a, 3).AsInt64())
	require.InDelta(36.0/5, layout.Finalize(a, 4).AsFloat64(), 1e-9)
}

func TestMergeRejectsDistinct(t *testing.T) {
	layout := NewLayout([]TermDesc{
		{Kind: Count, Distinct: true, InputType: value.BIGINT, ResultType: value.BIGINT},
	})
	require.Error(t, layout.Merge(layout.NewBuffer(), layout.NewBuffer()))
}
