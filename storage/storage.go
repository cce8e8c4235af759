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

// Package storage declares the tuple-iteration interface the execution
// engine consumes. Persistent storage itself is out of scope; the engine
// only sees tables as sequences of tile groups with per-tile-group zone
// maps, plus point DML operations. The memtable subpackage is the one
// in-process implementation, provided so the engine is runnable and
// testable end to end.
package storage

import "github.com/fusionql/fusionql/value"

// Column describes one table column.
type Column struct {
	Name     string
	Type     value.LogicalType
	Nullable bool
}

// Schema is the ordered column list of a table. Column ids are positions
// in this slice.
type Schema []Column

// TupleLoc addresses one physical tuple version: the tile group it lives
// in and its offset within that tile group. Row batches carry the same
// pair, which is how DML translators find the tuple a scanned row came
// from.
type TupleLoc struct {
	TileGroup int64
	Offset    int
}

// TileGroup is a horizontal slice of a table, the unit scans iterate over
// and the unit zone maps summarize.
type TileGroup interface {
	ID() int64
	NumTuples() int

	// Immutable reports whether this tile group can no longer accept
	// inserts. Zone maps are only trusted on immutable tile groups.
	Immutable() bool

	// ZoneMap returns the (min, max) summary for columnID, with ok=false
	// when no summary exists (mutable tile group, or a type without
	// ordering).
	ZoneMap(columnID int) (min, max value.Value, ok bool)

	// Materialize reads the tuples of this tile group visible to txn into
	// a row batch over attrs, one attr per entry of colIDs. The batch's
	// selection vector holds exactly the visible offsets.
	Materialize(txn *Txn, colIDs []int, attrs []value.AttributeInfo) *value.RowBatch
}

// Table is the engine-facing table handle. Implementations must be safe
// for concurrent readers; writers are serialized by the transaction
// manager's conflict rules.
type Table interface {
	OID() uint64
	Name() string
	Schema() Schema

	// TileGroups returns a snapshot of the table's tile groups. Tile
	// groups appended after the call are not part of the snapshot, which
	// gives scans a stable iteration bound.
	TileGroups() []TileGroup

	// Index returns the named secondary index, or nil.
	Index(name string) Index

	Insert(txn *Txn, row []value.Value) error
	Update(txn *Txn, loc TupleLoc, set map[int]value.Value) error
	Delete(txn *Txn, loc TupleLoc) error

	// Fetch reads the tuple at loc if it is visible to txn.
	Fetch(txn *Txn, loc TupleLoc, colIDs []int) ([]value.Value, bool)
}

// Index is an ordered secondary index over a subset of a table's columns.
// All three access paths return tuple locations in index key order.
type Index interface {
	Name() string
	KeyColumns() []int

	// Point returns the locations whose key equals key exactly.
	Point(txn *Txn, key []value.Value) []TupleLoc

	// Range returns the locations whose key falls between lo and hi. A nil
	// bound is unbounded on that side; loInc/hiInc control inclusivity.
	Range(txn *Txn, lo, hi []value.Value, loInc, hiInc bool) []TupleLoc

	// Full returns every visible location in index order.
	Full(txn *Txn) []TupleLoc
}
