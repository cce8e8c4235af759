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

// Package memtable is the in-process implementation of the storage
// interfaces: columnar tile groups with MVCC tuple headers, per-tile-group
// zone maps, and ordered secondary indexes. It exists so the engine has
// something concrete to scan and mutate in tests and demos; it is not a
// database (no durability, no recovery).
package memtable

import (
	"sync"
	"sync/atomic"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// DefaultTileGroupSize is the tuple capacity of one tile group. Small
// enough that modest test tables span several tile groups and exercise the
// zone-map pruning path.
const DefaultTileGroupSize = 1024

var nextOID atomic.Uint64

// tupleHeader carries the MVCC visibility state of one tuple version.
// begin/end are commit timestamps (0 = not yet committed / still live);
// creator/deleter identify the uncommitted writer while its commit is
// pending.
type tupleHeader struct {
	begin   uint64
	end     uint64
	creator uint64
	deleter uint64
}

func (h *tupleHeader) visibleTo(txn *storage.Txn) bool {
	created := h.creator == txn.ID() || (h.begin != 0 && h.begin <= txn.StartTS())
	if !created {
		return false
	}
	deleted := h.deleter == txn.ID() || (h.end != 0 && h.end <= txn.StartTS())
	return !deleted
}

// Table is an in-memory MVCC table made of append-only tile groups.
type Table struct {
	oid    uint64
	name   string
	schema storage.Schema

	mu         sync.RWMutex
	tileGroups []*tileGroup
	tgSize     int
	indexes    map[string]*orderedIndex
}

// NewTable creates an empty table with the default tile-group size.
func NewTable(name string, schema storage.Schema) *Table {
	return NewTableWithTileGroupSize(name, schema, DefaultTileGroupSize)
}

// NewTableWithTileGroupSize creates an empty table whose tile groups hold
// size tuples each.
func NewTableWithTileGroupSize(name string, schema storage.Schema, size int) *Table {
	return &Table{
		oid:     nextOID.Add(1),
		name:    name,
		schema:  schema,
		tgSize:  size,
		indexes: map[string]*orderedIndex{},
	}
}

func (t *Table) OID() uint64            { return t.oid }
func (t *Table) Name() string           { return t.name }
func (t *Table) Schema() storage.Schema { return t.schema }

// TileGroups snapshots the current tile-group list.
func (t *Table) TileGroups() []storage.TileGroup {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]storage.TileGroup, len(t.tileGroups))
	for i, tg := range t.tileGroups {
		out[i] = tg
	}
	return out
}

// Index returns the named secondary index, or nil.
func (t *Table) Index(name string) storage.Index {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx, ok := t.indexes[name]
	if !ok {
		return nil
	}
	return idx
}

// CreateIndex builds an ordered index over keyColumns, indexing every
// existing tuple version and every future write.
func (t *Table) CreateIndex(name string, keyColumns []int) storage.Index {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := &orderedIndex{name: name, keyCols: keyColumns, table: t}
	for _, tg := range t.tileGroups {
		for off := 0; off < tg.used; off++ {
			idx.add(tg.key(keyColumns, off), storage.TupleLoc{TileGroup: tg.id, Offset: off})
		}
	}
	t.indexes[name] = idx
	return idx
}

// Insert appends a new tuple version, provisionally owned by txn until
// commit.
func (t *Table) Insert(txn *storage.Txn, row []value.Value) error {
	if len(row) != len(t.schema) {
		return fqerrors.ErrType.New("insert arity mismatch")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.insertLocked(txn, row)
	return nil
}

func (t *Table) insertLocked(txn *storage.Txn, row []value.Value) storage.TupleLoc {
	tg := t.activeTileGroupLocked()
	off := tg.append(row, txn.ID())
	loc := storage.TupleLoc{TileGroup: tg.id, Offset: off}
	for _, idx := range t.indexes {
		idx.add(tg.key(idx.keyCols, off), loc)
	}
	hdr := &tg.headers[off]
	txn.OnCommit(func(ts uint64) {
		hdr.begin = ts
		hdr.creator = 0
	})
	txn.OnAbort(func() {
		// Never committed and no longer owned: permanently invisible.
		hdr.creator = 0
	})
	return loc
}

// Delete marks the tuple at loc deleted by txn. First deleter wins; a
// second concurrent deleter gets a transaction abort.
func (t *Table) Delete(txn *storage.Txn, loc storage.TupleLoc) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleteLocked(txn, loc)
}

func (t *Table) deleteLocked(txn *storage.Txn, loc storage.TupleLoc) error {
	tg := t.tileGroupLocked(loc.TileGroup)
	if tg == nil || loc.Offset >= tg.used {
		return fqerrors.ErrTransactionAbort.New("delete of unknown tuple")
	}
	hdr := &tg.headers[loc.Offset]
	if hdr.deleter != 0 && hdr.deleter != txn.ID() {
		return fqerrors.ErrTransactionAbort.New("write-write conflict")
	}
	if hdr.end != 0 && hdr.end <= txn.StartTS() {
		return fqerrors.ErrTransactionAbort.New("delete of already deleted tuple")
	}
	hdr.deleter = txn.ID()
	txn.OnCommit(func(ts uint64) {
		hdr.end = ts
		hdr.deleter = 0
	})
	txn.OnAbort(func() {
		hdr.deleter = 0
	})
	return nil
}

// Update writes a new version of the tuple at loc with the set columns
// replaced, and links old to new by deleting the old version in the same
// transaction.
func (t *Table) Update(txn *storage.Txn, loc storage.TupleLoc, set map[int]value.Value) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	tg := t.tileGroupLocked(loc.TileGroup)
	if tg == nil || loc.Offset >= tg.used {
		return fqerrors.ErrTransactionAbort.New("update of unknown tuple")
	}
	row := make([]value.Value, len(t.schema))
	for i := range t.schema {
		row[i] = tg.cols[i][loc.Offset]
	}
	for col, v := range set {
		if col < 0 || col >= len(row) {
			return fqerrors.ErrType.New("update of unknown column")
		}
		row[col] = v
	}
	if err := t.deleteLocked(txn, loc); err != nil {
		return err
	}
	t.insertLocked(txn, row)
	return nil
}

// Fetch reads the tuple at loc if visible to txn.
func (t *Table) Fetch(txn *storage.Txn, loc storage.TupleLoc, colIDs []int) ([]value.Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tg := t.tileGroupLocked(loc.TileGroup)
	if tg == nil || loc.Offset >= tg.used {
		return nil, false
	}
	if !tg.headers[loc.Offset].visibleTo(txn) {
		return nil, false
	}
	out := make([]value.Value, len(colIDs))
	for i, col := range colIDs {
		out[i] = tg.cols[col][loc.Offset]
	}
	return out, true
}

func (t *Table) tileGroupLocked(id int64) *tileGroup {
	// Tile-group ids are dense positions in creation order.
	if id < 0 || int(id) >= len(t.tileGroups) {
		return nil
	}
	return t.tileGroups[id]
}

func (t *Table) activeTileGroupLocked() *tileGroup {
	if n := len(t.tileGroups); n > 0 && t.tileGroups[n-1].used < t.tgSize {
		return t.tileGroups[n-1]
	}
	// Sealing the previous tile group freezes its zone map.
	if n := len(t.tileGroups); n > 0 {
		t.tileGroups[n-1].seal()
	}
	tg := newTileGroup(int64(len(t.tileGroups)), t.schema, t.tgSize)
	t.tileGroups = append(t.tileGroups, tg)
	return tg
}
