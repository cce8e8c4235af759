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
	"sync"

	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// tileGroup stores up to cap tuples columnar, with one MVCC header per
// tuple. A tile group that has reached capacity is immutable; only then is
// its zone map trusted by scans.
type tileGroup struct {
	id     int64
	schema storage.Schema
	cap    int

	mu      sync.RWMutex
	cols    [][]value.Value
	headers []tupleHeader
	used    int

	zoneOnce sync.Once
	zone     []zoneEntry
}

type zoneEntry struct {
	min, max value.Value
	ok       bool
}

func newTileGroup(id int64, schema storage.Schema, capacity int) *tileGroup {
	cols := make([][]value.Value, len(schema))
	for i := range cols {
		cols[i] = make([]value.Value, 0, capacity)
	}
	return &tileGroup{
		id:      id,
		schema:  schema,
		cap:     capacity,
		cols:    cols,
		headers: make([]tupleHeader, 0, capacity),
	}
}

func (tg *tileGroup) ID() int64 { return tg.id }

func (tg *tileGroup) NumTuples() int {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return tg.used
}

func (tg *tileGroup) Immutable() bool {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	return tg.used == tg.cap
}

// seal is called by the table when the tile group fills up; it exists so
// the zone map can be built eagerly while the table lock is already held.
func (tg *tileGroup) seal() { tg.buildZoneMap() }

func (tg *tileGroup) buildZoneMap() {
	tg.zoneOnce.Do(func() {
		tg.zone = make([]zoneEntry, len(tg.schema))
		for col := range tg.schema {
			if !tg.schema[col].Type.IsNumeric() {
				continue
			}
			var min, max value.Value
			seen := false
			for off := 0; off < tg.used; off++ {
				v := tg.cols[col][off]
				if v.Null {
					continue
				}
				if !seen {
					min, max, seen = v, v, true
					continue
				}
				if v.Num < min.Num {
					min = v
				}
				if v.Num > max.Num {
					max = v
				}
			}
			tg.zone[col] = zoneEntry{min: min, max: max, ok: seen}
		}
	})
}

// ZoneMap returns the min/max summary for columnID. Only meaningful when
// the tile group is immutable; callers must check Immutable first.
func (tg *tileGroup) ZoneMap(columnID int) (value.Value, value.Value, bool) {
	if !tg.Immutable() {
		return value.Value{}, value.Value{}, false
	}
	tg.buildZoneMap()
	if columnID < 0 || columnID >= len(tg.zone) {
		return value.Value{}, value.Value{}, false
	}
	z := tg.zone[columnID]
	return z.min, z.max, z.ok
}

// append adds a tuple owned by txnID and returns its offset. Caller holds
// the table lock.
func (tg *tileGroup) append(row []value.Value, txnID uint64) int {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	for i := range row {
		tg.cols[i] = append(tg.cols[i], row[i])
	}
	tg.headers = append(tg.headers, tupleHeader{creator: txnID})
	off := tg.used
	tg.used++
	return off
}

// key extracts the index key columns of the tuple at off.
func (tg *tileGroup) key(keyCols []int, off int) []value.Value {
	k := make([]value.Value, len(keyCols))
	for i, col := range keyCols {
		k[i] = tg.cols[col][off]
	}
	return k
}

// Materialize reads the visible tuples into a row batch over attrs. The
// selection vector holds exactly the offsets visible to txn.
func (tg *tileGroup) Materialize(txn *storage.Txn, colIDs []int, attrs []value.AttributeInfo) *value.RowBatch {
	tg.mu.RLock()
	defer tg.mu.RUnlock()
	batch := value.NewRowBatch(tg.id, 0, tg.used, attrs)
	for i, col := range colIDs {
		batch.SetColumn(i, tg.cols[col][:tg.used])
	}
	sel := make([]int32, 0, tg.used)
	for off := 0; off < tg.used; off++ {
		if tg.headers[off].visibleTo(txn) {
			sel = append(sel, int32(off))
		}
	}
	batch.Filter(sel)
	return batch
}
