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

package sortx

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/value"
)

// cmpB orders two-column tuples by column 1 ("column B").
func cmpB(a, b []value.Value) int {
	switch {
	case a[1].Num < b[1].Num:
		return -1
	case a[1].Num > b[1].Num:
		return 1
	default:
		return 0
	}
}

func randomTuples(n int, seed int64) [][]value.Value {
	rng := rand.New(rand.NewSource(seed))
	tuples := make([][]value.Value, n)
	for i := range tuples {
		tuples[i] = []value.Value{
			value.Int(value.BIGINT, int64(i)),
			value.Int(value.BIGINT, rng.Int63n(int64(n))),
		}
	}
	return tuples
}

func TestSortLargeRandom(t *testing.T) {
	const n = 1 << 20
	s := NewSorter(cmpB)
	for _, tu := range randomTuples(n, 42) {
		s.Append(tu)
	}
	s.Sort()
	require.Equal(t, n, s.NumTuples())
	prev := int64(-1)
	require.NoError(t, s.Iterate(func(tuple []value.Value) error {
		b := tuple[1].AsInt64()
		require.GreaterOrEqual(t, b, prev, "non-decreasing in B")
		prev = b
		return nil
	}))
}

func TestTopKKeepsSmallest(t *testing.T) {
	const n, k = 100000, 100
	tuples := randomTuples(n, 7)

	s := NewSorter(cmpB)
	s.InsertAllForTopK(tuples, k)
	s.Sort()
	require.Equal(t, k, s.NumTuples())

	// Cross-check against a full sort of the same input.
	want := make([]int64, n)
	for i, tu := range tuples {
		want[i] = tu[1].AsInt64()
	}
	sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
	for i := 0; i < k; i++ {
		require.Equal(t, want[i], s.Tuple(i)[1].AsInt64())
	}
}

func TestSortParallelMergesLocalRuns(t *testing.T) {
	const workers, per = 4, 5000
	final := NewSorter(cmpB)
	locals := make([]*Sorter, workers)
	for w := range locals {
		locals[w] = NewSorter(cmpB)
		for _, tu := range randomTuples(per, int64(w)) {
			locals[w].Append(tu)
		}
	}
	require.NoError(t, final.SortParallel(locals))
	require.Equal(t, workers*per, final.NumTuples())
	prev := int64(-1)
	require.NoError(t, final.Iterate(func(tuple []value.Value) error {
		require.GreaterOrEqual(t, tuple[1].AsInt64(), prev)
		prev = tuple[1].AsInt64()
		return nil
	}))
	for _, l := range locals {
		require.Zero(t, l.NumTuples(), "local sorters drained")
	}
}

func TestSortSmallAndEmpty(t *testing.T) {
	s := NewSorter(cmpB)
	s.Sort()
	require.Zero(t, s.NumTuples())

	for i := 5; i > 0; i-- {
		s.Append([]value.Value{value.Int(value.BIGINT, 0), value.Int(value.BIGINT, int64(i))})
	}
	s.Sort()
	for i := 0; i < 5; i++ {
		require.EqualValues(t, i+1, s.Tuple(i)[1].AsInt64())
	}
}
