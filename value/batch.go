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

package value

// RowBatch is a (tile-group, start-offset, count) triple plus a selection
// vector of surviving row indices. The compiler never materializes one row
// at a time between operators within a pipeline: Iterate runs the loop
// over the selection vector inline.
type RowBatch struct {
	// TileGroupID identifies the physical tile group this batch was read
	// from (opaque to everything except storage and the zone-map check in
	// the seq-scan translator).
	TileGroupID int64
	// StartOffset is the first tuple offset within the tile group this
	// batch covers.
	StartOffset int
	// Count is the number of tuples in [StartOffset, StartOffset+Count).
	Count int

	// Attrs lists the AttributeInfo handles this batch can resolve via
	// Row.DeriveValue, in column order.
	Attrs []AttributeInfo
	// cols holds one materialized []Value per Attrs entry, indexed by
	// (offset - StartOffset). nil until a scan (or other materializing
	// operator) fills it in.
	cols [][]Value
	// attrIndex maps AttributeInfo.ID to its position in Attrs/cols, built
	// once per batch rather than once per row.
	attrIndex map[int]int

	// Selection holds the surviving row offsets (absolute, i.e.
	// StartOffset-relative index space is NOT used here — entries are
	// indices into cols) after predicate evaluation. A nil Selection means
	// "every row in [0,Count) survives", avoiding an allocation for the
	// common unfiltered case.
	Selection []int32
}

// NewRowBatch constructs an empty batch over the given attribute list, with
// cols sized for count rows.
func NewRowBatch(tileGroupID int64, startOffset, count int, attrs []AttributeInfo) *RowBatch {
	b := &RowBatch{
		TileGroupID: tileGroupID,
		StartOffset: startOffset,
		Count:       count,
		Attrs:       attrs,
		cols:        make([][]Value, len(attrs)),
	}
	b.attrIndex = make(map[int]int, len(attrs))
	for i, a := range attrs {
		b.attrIndex[a.ID] = i
		b.cols[i] = make([]Value, count)
	}
	return b
}

// SetColumn installs the full materialized column for attrs[i] (i is the
// position within Attrs, not an AttributeInfo.ID).
func (b *RowBatch) SetColumn(i int, col []Value) { b.cols[i] = col }

// Set writes a single cell. i indexes Attrs; offset is relative to
// StartOffset (i.e. row 0..Count-1 within this batch).
func (b *RowBatch) Set(i, offset int, v Value) { b.cols[i][offset] = v }

func (b *RowBatch) column(attr AttributeInfo, offset int) (Value, bool) {
	i, ok := b.attrIndex[attr.ID]
	if !ok || offset < 0 || offset >= len(b.cols[i]) {
		return Value{}, false
	}
	return b.cols[i][offset], true
}

// Filter sets the batch's selection vector to exactly the given offsets,
// the result of predicate evaluation during a scan.
func (b *RowBatch) Filter(selection []int32) { b.Selection = selection }

// Len returns the number of surviving rows (selection vector length, or
// Count if no selection vector is set).
func (b *RowBatch) Len() int {
	if b.Selection != nil {
		return len(b.Selection)
	}
	return b.Count
}

// Iterate calls fn once per surviving row, in selection-vector order.
// This is the fused pipeline loop: in this closure-compiled engine the
// emitted "IR" is the composed Go closure chain, so the loop runs here
// directly.
func (b *RowBatch) Iterate(fn func(row *Row) error) error {
	if b.Selection != nil {
		for _, off := range b.Selection {
			if err := fn(&Row{Batch: b, Offset: int(off)}); err != nil {
				return err
			}
		}
		return nil
	}
	for off := 0; off < b.Count; off++ {
		if err := fn(&Row{Batch: b, Offset: off}); err != nil {
			return err
		}
	}
	return nil
}
