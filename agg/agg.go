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

// Package agg implements the aggregation engine: per-term state advanced
// in place over a materialization buffer whose layout is fixed at compile
// time, with a hash-table-backed grouped mode.
package agg

import (
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/hashtable"
	"github.com/fusionql/fusionql/value"
)

// Kind tags one aggregate function.
type Kind int

const (
	CountStar Kind = iota
	Count
	Sum
	Min
	Max
	Avg
)

// TermDesc describes one aggregate term of a layout.
type TermDesc struct {
	Kind       Kind
	Distinct   bool
	InputType  value.LogicalType
	ResultType value.LogicalType
}

// Layout is the compile-time shape of a materialization buffer: one cell
// per term, laid out once and instantiated per group.
type Layout struct {
	terms []TermDesc
}

// NewLayout fixes the buffer layout for terms.
func NewLayout(terms []TermDesc) *Layout { return &Layout{terms: terms} }

// NumTerms returns the number of aggregate cells per buffer.
func (l *Layout) NumTerms() int { return len(l.terms) }

// cell is the runtime state of one aggregate term within one group.
type cell struct {
	count int64
	// acc is the SUM/MIN/MAX accumulator; starts NULL so empty input
	// finalizes to NULL.
	acc      value.Value
	distinct *distinctSet
}

// Buffer is one group's materialization buffer.
type Buffer struct {
	cells []cell
}

// NewBuffer allocates a buffer with every term at its initial value.
func (l *Layout) NewBuffer() *Buffer {
	b := &Buffer{cells: make([]cell, len(l.terms))}
	for i, t := range l.terms {
		b.cells[i].acc = value.Null(t.ResultType)
		if t.Distinct {
			b.cells[i].distinct = newDistinctSet()
		}
	}
	return b
}

// Advance folds one input value into term i. For COUNT(*) the value is
// ignored.
func (l *Layout) Advance(b *Buffer, i int, v value.Value) {
	t := l.terms[i]
	c := &b.cells[i]
	if t.Kind == CountStar {
		c.count++
		return
	}
	if v.Null {
		return
	}
	if t.Distinct && !c.distinct.insert(v) {
		return
	}
	switch t.Kind {
	case Count:
		c.count++
	case Sum:
		l.addInto(c, i, v)
	case Avg:
		l.addInto(c, i, v)
		c.count++
	case Min:
		if c.acc.Null || numLess(v, c.acc) {
			c.acc = retype(v, t.ResultType)
		}
	case Max:
		if c.acc.Null || numLess(c.acc, v) {
			c.acc = retype(v, t.ResultType)
		}
	}
}

func (l *Layout) addInto(c *cell, i int, v value.Value) {
	t := l.terms[i]
	if c.acc.Null {
		c.acc = retype(v, t.ResultType)
		return
	}
	c.acc.Num += v.Num
}

func retype(v value.Value, t value.LogicalType) value.Value {
	v.Type = t
	return v
}

func numLess(a, b value.Value) bool {
	if a.Type == value.VARCHAR {
		return a.Str < b.Str
	}
	return a.Num < b.Num
}

// Finalize produces the result of term i: counts as BIGINT, AVG as
// SUM/COUNT, everything else as the accumulated cell.
func (l *Layout) Finalize(b *Buffer, i int) value.Value {
	t := l.terms[i]
	c := &b.cells[i]
	switch t.Kind {
	case CountStar, Count:
		return value.Int(value.BIGINT, c.count)
	case Avg:
		if c.count == 0 {
			return value.Null(t.ResultType)
		}
		return value.Value{Type: t.ResultType, Num: c.acc.Num / float64(c.count)}
	default:
		return c.acc
	}
}

// Merge folds other into b, term by term. Used by parallel pipelines to
// combine per-worker local state. DISTINCT terms cannot be merged (each
// worker saw a partial set), so parallel plans with DISTINCT are refused
// upstream; Merge reports the attempt as a compile bug.
func (l *Layout) Merge(b, other *Buffer) error {
	for i, t := range l.terms {
		if t.Distinct {
			return fqerrors.ErrCompile.New("merge of DISTINCT aggregate state")
		}
		dst, src := &b.cells[i], &other.cells[i]
		switch t.Kind {
		case CountStar, Count:
			dst.count += src.count
		case Sum:
			if !src.acc.Null {
				if dst.acc.Null {
					dst.acc = src.acc
				} else {
					dst.acc.Num += src.acc.Num
				}
			}
		case Avg:
			if !src.acc.Null {
				if dst.acc.Null {
					dst.acc = src.acc
				} else {
					dst.acc.Num += src.acc.Num
				}
			}
			dst.count += src.count
		case Min:
			if !src.acc.Null && (dst.acc.Null || numLess(src.acc, dst.acc)) {
				dst.acc = src.acc
			}
		case Max:
			if !src.acc.Null && (dst.acc.Null || numLess(dst.acc, src.acc)) {
				dst.acc = src.acc
			}
		}
	}
	return nil
}

// GroupedTable maps group keys to materialization buffers through the
// shared hash table.
type GroupedTable struct {
	layout *Layout
	ht     *hashtable.Table
}

// NewGroupedTable returns an empty grouped-aggregation table.
func NewGroupedTable(layout *Layout) *GroupedTable {
	return &GroupedTable{layout: layout, ht: hashtable.New()}
}

// Layout returns the table's buffer layout.
func (g *GroupedTable) Layout() *Layout { return g.layout }

// ProbeOrInsert returns the buffer for key, creating it with initial
// values on first sight.
func (g *GroupedTable) ProbeOrInsert(key []value.Value) *Buffer {
	v, _ := g.ht.ProbeOrInsert(key, func() any { return g.layout.NewBuffer() })
	return v.(*Buffer)
}

// NumGroups returns the number of distinct group keys seen.
func (g *GroupedTable) NumGroups() int { return g.ht.NumKeys() }

// Iterate visits every (group key, buffer) pair in insertion-independent
// order.
func (g *GroupedTable) Iterate(fn func(key []value.Value, b *Buffer) error) error {
	return g.ht.Iterate(func(key []value.Value, v any) error {
		return fn(key, v.(*Buffer))
	})
}

// Clear drops all group state.
func (g *GroupedTable) Clear() { g.ht.Clear() }
