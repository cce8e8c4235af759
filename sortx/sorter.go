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

// Package sortx implements the order-by engine: an append-only tuple
// buffer with a comparator-driven quicksort, a parallel merge over
// per-worker local sorters, and a bounded-heap top-K mode for limits
// planned below an order-by.
package sortx

import (
	"container/heap"

	"golang.org/x/sync/errgroup"

	"github.com/fusionql/fusionql/value"
)

// Comparator orders two tuples three-way. The order-by translator builds
// one from the sort keys.
type Comparator func(a, b []value.Value) int

// insertionCutoff is the partition size below which quicksort hands off to
// insertion sort.
const insertionCutoff = 16

// Sorter collects fixed-arity tuples and sorts them with a user
// comparator. Append-only until Sort; iteration order afterwards is
// ascending comparator order.
type Sorter struct {
	cmp    Comparator
	tuples [][]value.Value

	// topK holds the bounded max-heap when top-K mode is active.
	topK *boundedHeap
}

// NewSorter returns an empty sorter over cmp.
func NewSorter(cmp Comparator) *Sorter {
	return &Sorter{cmp: cmp}
}

// Append adds one tuple. The sorter takes ownership of the slice.
func (s *Sorter) Append(tuple []value.Value) {
	if s.topK != nil {
		s.topK.add(tuple)
		return
	}
	s.tuples = append(s.tuples, tuple)
}

// InsertAllForTopK switches the sorter to top-K mode and adds rows,
// keeping only the k smallest under the comparator.
func (s *Sorter) InsertAllForTopK(rows [][]value.Value, k int) {
	s.EnableTopK(k)
	for _, r := range rows {
		s.topK.add(r)
	}
}

// EnableTopK bounds the sorter to the k smallest tuples. Must be called
// before any Append.
func (s *Sorter) EnableTopK(k int) {
	if s.topK == nil {
		s.topK = &boundedHeap{cmp: s.cmp, cap: k}
	}
}

// Sort orders the collected tuples in place: quicksort with
// median-of-three pivot selection and an insertion-sort cutoff. In top-K
// mode the heap contents are drained into the buffer first.
func (s *Sorter) Sort() {
	if s.topK != nil {
		s.tuples = s.topK.drain()
		s.topK = nil
	}
	s.quicksort(0, len(s.tuples)-1)
}

func (s *Sorter) quicksort(lo, hi int) {
	for hi-lo > insertionCutoff {
		p := s.partition(lo, hi)
		// Recurse into the smaller side; loop on the larger to bound stack
		// depth.
		if p-lo < hi-p {
			s.quicksort(lo, p-1)
			lo = p + 1
		} else {
			s.quicksort(p+1, hi)
			hi = p - 1
		}
	}
	s.insertionSort(lo, hi)
}

func (s *Sorter) partition(lo, hi int) int {
	t := s.tuples
	mid := lo + (hi-lo)/2
	// Median-of-three: order lo, mid, hi, then pivot on mid stashed at
	// hi-1.
	if s.cmp(t[mid], t[lo]) < 0 {
		t[mid], t[lo] = t[lo], t[mid]
	}
	if s.cmp(t[hi], t[lo]) < 0 {
		t[hi], t[lo] = t[lo], t[hi]
	}
	if s.cmp(t[hi], t[mid]) < 0 {
		t[hi], t[mid] = t[mid], t[hi]
	}
	t[mid], t[hi-1] = t[hi-1], t[mid]
	pivot := t[hi-1]
	i := lo
	for j := lo; j < hi-1; j++ {
		if s.cmp(t[j], pivot) < 0 {
			t[i], t[j] = t[j], t[i]
			i++
		}
	}
	t[i], t[hi-1] = t[hi-1], t[i]
	return i
}

func (s *Sorter) insertionSort(lo, hi int) {
	t := s.tuples
	for i := lo + 1; i <= hi; i++ {
		for j := i; j > lo && s.cmp(t[j], t[j-1]) < 0; j-- {
			t[j], t[j-1] = t[j-1], t[j]
		}
	}
}

// SortParallel sorts each per-worker local sorter concurrently, then
// k-way merges the runs into this sorter. Local sorters are left drained.
func (s *Sorter) SortParallel(locals []*Sorter) error {
	var g errgroup.Group
	for _, l := range locals {
		l := l
		g.Go(func() error {
			l.Sort()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	runs := make([][][]value.Value, 0, len(locals)+1)
	if len(s.tuples) > 0 {
		s.Sort()
		runs = append(runs, s.tuples)
	}
	for _, l := range locals {
		if len(l.tuples) > 0 {
			runs = append(runs, l.tuples)
		}
		l.tuples = nil
	}
	s.tuples = mergeRuns(s.cmp, runs)
	return nil
}

// mergeRuns k-way merges sorted runs with a loser-tree-free heap merge.
func mergeRuns(cmp Comparator, runs [][][]value.Value) [][]value.Value {
	total := 0
	for _, r := range runs {
		total += len(r)
	}
	out := make([][]value.Value, 0, total)
	h := &mergeHeap{cmp: cmp}
	for i, r := range runs {
		if len(r) > 0 {
			h.items = append(h.items, mergeItem{run: i, tuple: r[0]})
		}
	}
	heap.Init(h)
	pos := make([]int, len(runs))
	for h.Len() > 0 {
		top := h.items[0]
		out = append(out, top.tuple)
		pos[top.run]++
		if pos[top.run] < len(runs[top.run]) {
			h.items[0] = mergeItem{run: top.run, tuple: runs[top.run][pos[top.run]]}
			heap.Fix(h, 0)
		} else {
			heap.Pop(h)
		}
	}
	return out
}

type mergeItem struct {
	run   int
	tuple []value.Value
}

type mergeHeap struct {
	cmp   Comparator
	items []mergeItem
}

func (h *mergeHeap) Len() int            { return len(h.items) }
func (h *mergeHeap) Less(i, j int) bool  { return h.cmp(h.items[i].tuple, h.items[j].tuple) < 0 }
func (h *mergeHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x any)          { h.items = append(h.items, x.(mergeItem)) }
func (h *mergeHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// NumTuples returns the number of collected tuples.
func (s *Sorter) NumTuples() int {
	if s.topK != nil {
		return len(s.topK.items)
	}
	return len(s.tuples)
}

// Tuple returns the i-th tuple; only meaningful after Sort.
func (s *Sorter) Tuple(i int) []value.Value { return s.tuples[i] }

// Iterate visits tuples in ascending comparator order after Sort.
func (s *Sorter) Iterate(fn func(tuple []value.Value) error) error {
	for _, t := range s.tuples {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// boundedHeap is a max-heap of capacity cap: adding beyond capacity evicts
// the current maximum, leaving the cap smallest tuples.
type boundedHeap struct {
	cmp   Comparator
	cap   int
	items [][]value.Value
}

func (h *boundedHeap) Len() int           { return len(h.items) }
func (h *boundedHeap) Less(i, j int) bool { return h.cmp(h.items[i], h.items[j]) > 0 }
func (h *boundedHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *boundedHeap) Push(x any)         { h.items = append(h.items, x.([]value.Value)) }
func (h *boundedHeap) Pop() any {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

func (h *boundedHeap) add(tuple []value.Value) {
	if h.cap <= 0 {
		return
	}
	if len(h.items) < h.cap {
		heap.Push(h, tuple)
		return
	}
	// Full: replace the max if the newcomer is smaller.
	if h.cmp(tuple, h.items[0]) < 0 {
		h.items[0] = tuple
		heap.Fix(h, 0)
	}
}

func (h *boundedHeap) drain() [][]value.Value { return h.items }
