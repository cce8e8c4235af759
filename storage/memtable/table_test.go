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

package memtable

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

func newIntTable(size int) *Table {
	return NewTableWithTileGroupSize("nums", storage.Schema{
		{Name: "a", Type: value.INTEGER},
	}, size)
}

func visibleCount(t *testing.T, table *Table, txn *storage.Txn) int {
	t.Helper()
	attrs := []value.AttributeInfo{value.NewAttributeInfo("a", value.INTEGER, false)}
	n := 0
	for _, tg := range table.TileGroups() {
		n += tg.Materialize(txn, []int{0}, attrs).Len()
	}
	return n
}

func TestUncommittedWritesAreInvisible(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(8)

	writer := txns.Begin()
	require.NoError(table.Insert(writer, []value.Value{value.Int(value.INTEGER, 1)}))

	reader := txns.Begin()
	require.Zero(visibleCount(t, table, reader))
	// The writer reads its own uncommitted insert.
	require.Equal(1, visibleCount(t, table, writer))

	require.NoError(txns.Commit(writer))
	// A snapshot taken before the commit still excludes it.
	require.Zero(visibleCount(t, table, reader))
	require.Equal(1, visibleCount(t, table, txns.Begin()))
}

func TestAbortDiscardsWrites(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(8)

	writer := txns.Begin()
	require.NoError(table.Insert(writer, []value.Value{value.Int(value.INTEGER, 1)}))
	require.NoError(txns.Abort(writer))
	require.Zero(visibleCount(t, table, txns.Begin()))
}

func TestDeleteVersioning(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(8)

	setup := txns.Begin()
	require.NoError(table.Insert(setup, []value.Value{value.Int(value.INTEGER, 42)}))
	require.NoError(txns.Commit(setup))

	before := txns.Begin()
	deleter := txns.Begin()
	require.NoError(table.Delete(deleter, storage.TupleLoc{TileGroup: 0, Offset: 0}))
	require.NoError(txns.Commit(deleter))

	// The earlier snapshot still sees the tuple; new snapshots don't.
	require.Equal(1, visibleCount(t, table, before))
	require.Zero(visibleCount(t, table, txns.Begin()))
}

func TestWriteWriteConflict(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(8)

	setup := txns.Begin()
	require.NoError(table.Insert(setup, []value.Value{value.Int(value.INTEGER, 1)}))
	require.NoError(txns.Commit(setup))

	loc := storage.TupleLoc{TileGroup: 0, Offset: 0}
	first := txns.Begin()
	second := txns.Begin()
	require.NoError(table.Delete(first, loc))
	require.Error(table.Delete(second, loc), "first deleter wins")
}

func TestUpdateWritesNewVersion(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(8)

	setup := txns.Begin()
	require.NoError(table.Insert(setup, []value.Value{value.Int(value.INTEGER, 1)}))
	require.NoError(txns.Commit(setup))

	updater := txns.Begin()
	require.NoError(table.Update(updater, storage.TupleLoc{TileGroup: 0, Offset: 0},
		map[int]value.Value{0: value.Int(value.INTEGER, 2)}))
	require.NoError(txns.Commit(updater))

	reader := txns.Begin()
	require.Equal(1, visibleCount(t, table, reader))
	vals, ok := table.Fetch(reader, storage.TupleLoc{TileGroup: 0, Offset: 1}, []int{0})
	require.True(ok, "new version lives in the next slot")
	require.EqualValues(2, vals[0].AsInt64())
	_, ok = table.Fetch(reader, storage.TupleLoc{TileGroup: 0, Offset: 0}, []int{0})
	require.False(ok, "old version is dead to new snapshots")
}

func TestZoneMapOnImmutableTileGroups(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(4)

	writer := txns.Begin()
	for i := int64(0); i < 10; i++ {
		require.NoError(table.Insert(writer, []value.Value{value.Int(value.INTEGER, i * 10)}))
	}
	require.NoError(txns.Commit(writer))

	tgs := table.TileGroups()
	require.Len(tgs, 3)

	require.True(tgs[0].Immutable())
	min, max, ok := tgs[0].ZoneMap(0)
	require.True(ok)
	require.EqualValues(0, min.AsInt64())
	require.EqualValues(30, max.AsInt64())

	// The tail tile group is still mutable: no trustworthy zone map.
	require.False(tgs[2].Immutable())
	_, _, ok = tgs[2].ZoneMap(0)
	require.False(ok)
}

func TestOrderedIndex(t *testing.T) {
	require := require.New(t)
	txns := storage.NewTxnManager()
	table := newIntTable(8)

	writer := txns.Begin()
	for _, n := range []int64{30, 10, 50, 20, 40} {
		require.NoError(table.Insert(writer, []value.Value{value.Int(value.INTEGER, n)}))
	}
	require.NoError(txns.Commit(writer))
	idx := table.CreateIndex("nums_a", []int{0})

	reader := txns.Begin()
	locs := idx.Full(reader)
	require.Len(locs, 5)
	var got []int64
	for _, loc := range locs {
		vals, ok := table.Fetch(reader, loc, []int{0})
		require.True(ok)
		got = append(got, vals[0].AsInt64())
	}
	require.Equal([]int64{10, 20, 30, 40, 50}, got, "index order")

	point := idx.Point(reader, []value.Value{value.Int(value.INTEGER, 20)})
	require.Len(point, 1)

	rng := idx.Range(reader,
		[]value.Value{value.Int(value.INTEGER, 20)},
		[]value.Value{value.Int(value.INTEGER, 40)},
		true, false)
	require.Len(rng, 2, "[20, 40) holds 20 and 30")
}
