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
	"sort"
	"sync"

	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// orderedIndex keeps (key, loc) entries sorted by key. Every tuple version
// is indexed; visibility is re-checked against the table at read time, so
// the index never needs to observe commits or aborts.
type orderedIndex struct {
	name    string
	keyCols []int
	table   *Table

	mu      sync.RWMutex
	entries []indexEntry
}

type indexEntry struct {
	key []value.Value
	loc storage.TupleLoc
}

func (idx *orderedIndex) Name() string      { return idx.name }
func (idx *orderedIndex) KeyColumns() []int { return idx.keyCols }

// compareKeys orders composite keys lexicographically; NULL sorts before
// every non-NULL value so NULL keys cluster at the low end.
func compareKeys(a, b []value.Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := compareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

func compareValues(a, b value.Value) int {
	if a.Null || b.Null {
		switch {
		case a.Null && b.Null:
			return 0
		case a.Null:
			return -1
		default:
			return 1
		}
	}
	switch a.Type {
	case value.VARCHAR:
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	default:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		default:
			return 0
		}
	}
}

func (idx *orderedIndex) add(key []value.Value, loc storage.TupleLoc) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	i := sort.Search(len(idx.entries), func(i int) bool {
		return compareKeys(idx.entries[i].key, key) >= 0
	})
	idx.entries = append(idx.entries, indexEntry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = indexEntry{key: key, loc: loc}
}

func (idx *orderedIndex) visible(txn *storage.Txn, loc storage.TupleLoc) bool {
	tg := idx.table.tileGroupLocked(loc.TileGroup)
	return tg != nil && loc.Offset < tg.used && tg.headers[loc.Offset].visibleTo(txn)
}

// Point returns the visible locations whose key equals key.
func (idx *orderedIndex) Point(txn *storage.Txn, key []value.Value) []storage.TupleLoc {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []storage.TupleLoc
	i := sort.Search(len(idx.entries), func(i int) bool {
		return compareKeys(idx.entries[i].key, key) >= 0
	})
	for ; i < len(idx.entries) && compareKeys(idx.entries[i].key, key) == 0; i++ {
		if idx.visible(txn, idx.entries[i].loc) {
			out = append(out, idx.entries[i].loc)
		}
	}
	return out
}

// Range returns the visible locations between lo and hi in key order.
func (idx *orderedIndex) Range(txn *storage.Txn, lo, hi []value.Value, loInc, hiInc bool) []storage.TupleLoc {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []storage.TupleLoc
	for _, e := range idx.entries {
		if lo != nil {
			c := compareKeys(e.key, lo)
			if c < 0 || (c == 0 && !loInc) {
				continue
			}
		}
		if hi != nil {
			c := compareKeys(e.key, hi)
			if c > 0 || (c == 0 && !hiInc) {
				// Entries are sorted; nothing past hi qualifies.
				if c > 0 {
					break
				}
				continue
			}
		}
		if idx.visible(txn, e.loc) {
			out = append(out, e.loc)
		}
	}
	return out
}

// Full returns every visible location in key order.
func (idx *orderedIndex) Full(txn *storage.Txn) []storage.TupleLoc {
	return idx.Range(txn, nil, nil, true, true)
}
