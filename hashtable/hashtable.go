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

// Package hashtable implements the open-addressing hash table with chained
// overflow shared by hash-join (chains hold duplicate-key build rows) and
// hash-aggregation (each key maps to one materialization buffer).
package hashtable

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/fusionql/fusionql/value"
)

const (
	initialCapacity = 64
	maxLoadFactor   = 0.7
)

// Entry is one (hash, key, value) triple. Duplicate keys chain through
// next.
type Entry struct {
	Hash  uint64
	Key   []value.Value
	Value any
	next  *Entry
}

// Table is not safe for concurrent use; parallel pipelines keep one local
// table per worker and merge.
type Table struct {
	buckets []*Entry
	len     int
	keys    int
}

// New returns an empty table.
func New() *Table {
	return &Table{buckets: make([]*Entry, initialCapacity)}
}

// HashKey computes the bucket hash of a composite key. NULL hashes to a
// fixed tag per type so NULL keys group together.
func HashKey(key []value.Value) uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, v := range key {
		binary.LittleEndian.PutUint64(buf[:], uint64(v.Type))
		_, _ = h.Write(buf[:])
		if v.Null {
			_, _ = h.Write([]byte{0xFF})
			continue
		}
		switch v.Type {
		case value.VARCHAR:
			_, _ = h.WriteString(v.Str)
		case value.VARBINARY:
			_, _ = h.Write(v.Bytes)
		default:
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v.Num))
			_, _ = h.Write(buf[:])
		}
	}
	return h.Sum64()
}

func keysEqual(a, b []value.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// slot probes linearly from hash for the bucket holding key, or the first
// empty bucket.
func (t *Table) slot(hash uint64, key []value.Value) int {
	mask := uint64(len(t.buckets) - 1)
	i := hash & mask
	for {
		e := t.buckets[i]
		if e == nil || (e.Hash == hash && keysEqual(e.Key, key)) {
			return int(i)
		}
		i = (i + 1) & mask
	}
}

func (t *Table) grow() {
	old := t.buckets
	t.buckets = make([]*Entry, len(old)*2)
	for _, e := range old {
		if e == nil {
			continue
		}
		i := t.slot(e.Hash, e.Key)
		t.buckets[i] = e
	}
}

func (t *Table) maybeGrow() {
	if float64(t.keys+1) > maxLoadFactor*float64(len(t.buckets)) {
		t.grow()
	}
}

// Insert always adds (key, val); duplicate keys chain off the first entry.
// Used by the hash-join build side.
func (t *Table) Insert(key []value.Value, val any) {
	t.maybeGrow()
	hash := HashKey(key)
	i := t.slot(hash, key)
	e := &Entry{Hash: hash, Key: key, Value: val}
	if head := t.buckets[i]; head != nil {
		e.next = head.next
		head.next = e
	} else {
		t.buckets[i] = e
		t.keys++
	}
	t.len++
}

// ProbeOrInsert returns the value for key, creating it with create on
// first sight. Used by grouped aggregation: inserted=true means initial
// aggregate values must be installed.
func (t *Table) ProbeOrInsert(key []value.Value, create func() any) (val any, inserted bool) {
	t.maybeGrow()
	hash := HashKey(key)
	i := t.slot(hash, key)
	if e := t.buckets[i]; e != nil {
		return e.Value, false
	}
	v := create()
	t.buckets[i] = &Entry{Hash: hash, Key: key, Value: v}
	t.keys++
	t.len++
	return v, true
}

// Lookup calls fn for every value stored under key. Order among
// duplicates is unspecified.
func (t *Table) Lookup(key []value.Value, fn func(val any) error) error {
	hash := HashKey(key)
	i := t.slot(hash, key)
	e := t.buckets[i]
	if e == nil {
		return nil
	}
	// The chain holds entries 2..n; the bucket head is entry 1.
	if err := fn(e.Value); err != nil {
		return err
	}
	for c := e.next; c != nil; c = c.next {
		if err := fn(c.Value); err != nil {
			return err
		}
	}
	return nil
}

// Iterate visits every entry, chains included. Order is
// insertion-independent.
func (t *Table) Iterate(fn func(key []value.Value, val any) error) error {
	for _, e := range t.buckets {
		for c := e; c != nil; c = c.next {
			if err := fn(c.Key, c.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Len returns the number of stored entries, duplicates included.
func (t *Table) Len() int { return t.len }

// NumKeys returns the number of distinct keys.
func (t *Table) NumKeys() int { return t.keys }

// Clear releases everything; the table is reusable afterwards.
func (t *Table) Clear() {
	t.buckets = make([]*Entry, initialCapacity)
	t.len, t.keys = 0, 0
}
