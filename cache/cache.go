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

// Package cache is the process-wide LRU of compiled queries, keyed by
// structural plan hash with deep equality as the tiebreak, plus the
// table-oid reverse index that purges stale plans when a table changes.
package cache

import (
	"container/list"
	"sync"

	"github.com/fusionql/fusionql/compile"
	"github.com/fusionql/fusionql/plan"
)

// DefaultCapacity bounds the cache when the caller doesn't.
const DefaultCapacity = 128

type entry struct {
	hash   uint64
	plan   plan.Plan
	query  *compile.CompiledQuery
	elem   *list.Element
	tables []uint64
}

// Cache is safe for concurrent use. Find promotes hits to the front; Add
// inserts at the front and evicts from the back past capacity.
type Cache struct {
	mu       sync.Mutex
	capacity int
	lru      *list.List // of *entry, front = most recent
	byHash   map[uint64][]*entry
	byTable  map[uint64]map[*entry]struct{}
}

// New returns an empty cache holding up to capacity compiled queries.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		lru:      list.New(),
		byHash:   map[uint64][]*entry{},
		byTable:  map[uint64]map[*entry]struct{}{},
	}
}

// Find looks up a structurally equal plan. A hit moves the entry to the
// front of the LRU.
func (c *Cache) Find(p plan.Plan) (*compile.CompiledQuery, bool) {
	h := p.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.byHash[h] {
		if e.plan.Equal(p) {
			c.lru.MoveToFront(e.elem)
			return e.query, true
		}
	}
	return nil, false
}

// Add inserts a compiled query under its plan. A structurally equal plan
// already present is replaced in place (two callers racing past a miss
// compile twice; last one wins).
func (c *Cache) Add(p plan.Plan, q *compile.CompiledQuery) {
	h := p.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.byHash[h] {
		if e.plan.Equal(p) {
			e.query = q
			c.lru.MoveToFront(e.elem)
			return
		}
	}
	e := &entry{hash: h, plan: p, query: q, tables: plan.ReferencedTables(p)}
	e.elem = c.lru.PushFront(e)
	c.byHash[h] = append(c.byHash[h], e)
	for _, oid := range e.tables {
		set, ok := c.byTable[oid]
		if !ok {
			set = map[*entry]struct{}{}
			c.byTable[oid] = set
		}
		set[e] = struct{}{}
	}
	for c.lru.Len() > c.capacity {
		c.removeLocked(c.lru.Back().Value.(*entry))
	}
}

// InvalidateTable purges every entry whose plan references the table,
// returning the number purged. Called when a table is altered or dropped;
// compiled code has offsets baked in, so a stale plan must never be
// served again.
func (c *Cache) InvalidateTable(oid uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	set := c.byTable[oid]
	n := len(set)
	for e := range set {
		c.removeLocked(e)
	}
	return n
}

// Size returns the number of cached compiled queries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Init()
	c.byHash = map[uint64][]*entry{}
	c.byTable = map[uint64]map[*entry]struct{}{}
}

func (c *Cache) removeLocked(e *entry) {
	c.lru.Remove(e.elem)
	bucket := c.byHash[e.hash]
	for i, x := range bucket {
		if x == e {
			c.byHash[e.hash] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(c.byHash[e.hash]) == 0 {
		delete(c.byHash, e.hash)
	}
	for _, oid := range e.tables {
		delete(c.byTable[oid], e)
		if len(c.byTable[oid]) == 0 {
			delete(c.byTable, oid)
		}
	}
}
