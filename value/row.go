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

// Row is a cursor over one tuple of a RowBatch. It exposes DeriveValue,
// which either reads a materialized column of the batch or resolves a
// cached expression published earlier in the pipeline (e.g. by a
// projection's target list).
type Row struct {
	Batch  *RowBatch
	Offset int // index into Batch's column arrays, NOT a selection-vector index

	// derived/exprs hold per-row expression state published by operators
	// upstream in the same fused pipeline (projections, aggregate
	// finalization) that isn't backed by a materialized batch column.
	derived map[int]Value
	exprs   map[int]ExprEvaluator
}

// ExprEvaluator lazily computes the value of an expression-derived
// attribute for a row. Set by translators that publish computed columns
// (compile/project.go, agg finalization) rather than eagerly
// materializing every row.
type ExprEvaluator func(row *Row) Value

// Publish installs an already-computed value for attr on this row, so a
// later DeriveValue(attr) resolves without recomputation.
func (r *Row) Publish(attr AttributeInfo, v Value) {
	if r.derived == nil {
		r.derived = make(map[int]Value, 4)
	}
	r.derived[attr.ID] = v
}

// PublishExpr installs a lazy evaluator for attr: the first DeriveValue(attr)
// call invokes it and memoizes the result on this row.
func (r *Row) PublishExpr(attr AttributeInfo, eval ExprEvaluator) {
	if r.exprs == nil {
		r.exprs = make(map[int]ExprEvaluator, 4)
	}
	r.exprs[attr.ID] = eval
}

// Fork returns a row over the same batch position with its own derived
// state, so a join can publish build-side columns per match without
// polluting the probe row for later matches.
func (r *Row) Fork() *Row {
	f := &Row{Batch: r.Batch, Offset: r.Offset}
	if r.derived != nil {
		f.derived = make(map[int]Value, len(r.derived)+4)
		for k, v := range r.derived {
			f.derived[k] = v
		}
	}
	if r.exprs != nil {
		f.exprs = make(map[int]ExprEvaluator, len(r.exprs))
		for k, v := range r.exprs {
			f.exprs[k] = v
		}
	}
	return f
}

// NewDerivedRow builds a batchless row carrying vals under attrs, for
// operators whose output is materialized state rather than a scan batch
// (aggregate output, sorter output, CSV records).
func NewDerivedRow(attrs []AttributeInfo, vals []Value) *Row {
	r := &Row{}
	for i, a := range attrs {
		r.Publish(a, vals[i])
	}
	return r
}

// DeriveValue resolves attr to a Value.
func (r *Row) DeriveValue(attr AttributeInfo) Value {
	if r.derived != nil {
		if v, ok := r.derived[attr.ID]; ok {
			return v
		}
	}
	if r.exprs != nil {
		if eval, ok := r.exprs[attr.ID]; ok {
			v := eval(r)
			r.Publish(attr, v)
			return v
		}
	}
	if r.Batch != nil {
		if v, ok := r.Batch.column(attr, r.Offset); ok {
			return v
		}
	}
	return Null(attr.Type)
}
