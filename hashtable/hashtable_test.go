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

package hashtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/value"
)

func key(vs ...int64) []value.Value {
	out := make([]value.Value, len(vs))
	for i, v := range vs {
		out[i] = value.Int(value.BIGINT, v)
	}
	return out
}

func TestInsertAndLookupDuplicates(t *testing.T) {
	require := require.New(t)
	ht := New()
	ht.Insert(key(1), "a")
	ht.Insert(key(1), "b")
	ht.Insert(key(2), "c")
	require.Equal(3, ht.Len())
	require.Equal(2, ht.NumKeys())

	var got []string
	require.NoError(ht.Lookup(key(1), func(v any) error {
		got = append(got, v.(string))
		return nil
	}))
	require.ElementsMatch([]string{"a", "b"}, got)

	got = nil
	require.NoError(ht.Lookup(key(3), func(v any) error {
		got = append(got, v.(string))
		return nil
	}))
	require.Empty(got)
}

func TestProbeOrInsert(t *testing.T) {
	require := require.New(t)
	ht := New()
	cell := new(int)
	v, inserted := ht.ProbeOrInsert(key(7), func() any { return cell })
	require.True(inserted)
	require.Same(cell, v)
	v2, inserted := ht.ProbeOrInsert(key(7), func() any {
		t.Fatal("create called on probe hit")
		return nil
	})
	require.False(inserted)
	require.Same(cell, v2)
}

func TestGrowthKeepsEntries(t *testing.T) {
	require := require.New(t)
	ht := New()
	const n = 10000
	for i := int64(0); i < n; i++ {
		ht.Insert(key(i%500, i), i)
	}
	require.Equal(n, ht.Len())
	seen := 0
	require.NoError(ht.Iterate(func(k []value.Value, v any) error {
		seen++
		return nil
	}))
	require.Equal(n, seen)
}

func TestNullKeysGroupTogether(t *testing.T) {
	require := require.New(t)
	ht := New()
	null := []value.Value{value.Null(value.BIGINT)}
	_, inserted := ht.ProbeOrInsert(null, func() any { return 1 })
	require.True(inserted)
	_, inserted = ht.ProbeOrInsert([]value.Value{value.Null(value.BIGINT)}, func() any { return 2 })
	require.False(inserted, "NULL equals NULL for grouping")
}

func TestClear(t *testing.T) {
	ht := New()
	ht.Insert(key(1), 1)
	ht.Clear()
	require.Zero(t, ht.Len())
	require.NoError(t, ht.Lookup(key(1), func(any) error {
		t.Fatal("entry survived clear")
		return nil
	}))
}
