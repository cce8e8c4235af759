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

package plan

import (
	"sort"

	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// PerformBinding walks the plan and installs, per operator, the mapping
// from column ids to AttributeInfo handles. After binding, every
// expression in the tree references columns through AttributeInfo, which
// makes the compiled pipelines position-independent.
//
// Attribute ids are allocated by a per-plan counter in traversal order, so
// two structurally equal plans bind to identical handles. That is what
// lets a consumer built against one plan object read rows produced by the
// cache's compiled twin.
//
// Binding is idempotent: an already-bound subtree keeps its handles. It is
// the only mutation a plan tree ever sees.
func PerformBinding(p Plan) error {
	_, err := bindNode(p, &binder{})
	return err
}

// binder hands out plan-local attribute ids, deterministic in traversal
// order.
type binder struct {
	next int
}

func (b *binder) attr(name string, t value.LogicalType, nullable bool) value.AttributeInfo {
	b.next++
	return value.AttributeInfo{ID: b.next, Name: name, Type: t, Nullable: nullable}
}

// binding maps a child's output column id to its attribute handle, one map
// per tuple index (joins bind two).
type binding map[int]value.AttributeInfo

func attrsBinding(attrs []value.AttributeInfo) binding {
	b := make(binding, len(attrs))
	for i, a := range attrs {
		b[i] = a
	}
	return b
}

func bindNode(p Plan, b *binder) ([]value.AttributeInfo, error) {
	// Already bound: keep the existing handles.
	if attrs := p.OutputAttrs(); attrs != nil {
		return attrs, nil
	}
	switch n := p.(type) {
	case *SeqScan:
		return bindSeqScan(n, b)
	case *IndexScan:
		return bindIndexScan(n, b)
	case *Projection:
		return bindProjection(n, b)
	case *Limit:
		attrs, err := bindNode(n.Child, b)
		n.setAttrs(attrs)
		return attrs, err
	case *OrderBy:
		attrs, err := bindNode(n.Child, b)
		if err != nil {
			return nil, err
		}
		for _, k := range n.Keys {
			if k.ColumnID < 0 || k.ColumnID >= len(attrs) {
				return nil, fqerrors.ErrCompile.New("order-by key out of range")
			}
		}
		n.setAttrs(attrs)
		return attrs, nil
	case *Aggregate:
		return bindAggregate(n, b)
	case *Hash:
		attrs, err := bindNode(n.Child, b)
		if err != nil {
			return nil, err
		}
		for _, k := range n.Keys {
			if err := bindExpr(k, []binding{attrsBinding(attrs)}); err != nil {
				return nil, err
			}
		}
		n.setAttrs(attrs)
		return attrs, nil
	case *HashJoin:
		return bindHashJoin(n, b)
	case *NestedLoopJoin:
		return bindNestedLoopJoin(n, b)
	case *Insert:
		return nil, bindInsert(n, b)
	case *Update:
		attrs, err := bindNode(n.Child, b)
		if err != nil {
			return nil, err
		}
		for _, t := range n.SetList {
			if err := bindExpr(t.Expr, []binding{attrsBinding(attrs)}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	case *Delete:
		_, err := bindNode(n.Child, b)
		return nil, err
	case *CsvScan:
		attrs := make([]value.AttributeInfo, len(n.Types))
		for i, t := range n.Types {
			attrs[i] = b.attr(n.Names[i], t, true)
		}
		n.setAttrs(attrs)
		return attrs, nil
	case *ExportExternalFile:
		attrs, err := bindNode(n.Child, b)
		n.setAttrs(attrs)
		return attrs, err
	default:
		return nil, fqerrors.ErrUnsupportedPlan.New(p.Kind().String())
	}
}

// bindScanColumns builds the materialization set of a table scan: the
// union of output columns, key columns, and predicate columns, each with
// a fresh attribute handle.
func bindScanColumns(b *binder, schema storage.Schema, referenced map[int]bool) ([]int, []value.AttributeInfo, binding, error) {
	cols := make([]int, 0, len(referenced))
	for c := range referenced {
		cols = append(cols, c)
	}
	sort.Ints(cols)

	byCol := make(binding, len(cols))
	attrs := make([]value.AttributeInfo, len(cols))
	for i, c := range cols {
		if c < 0 || c >= len(schema) {
			return nil, nil, nil, fqerrors.ErrCompile.New("scan column out of range")
		}
		attrs[i] = b.attr(schema[c].Name, schema[c].Type, schema[c].Nullable)
		byCol[c] = attrs[i]
	}
	return cols, attrs, byCol, nil
}

func bindSeqScan(n *SeqScan, b *binder) ([]value.AttributeInfo, error) {
	referenced := map[int]bool{}
	for _, c := range n.ColumnIDs {
		referenced[c] = true
	}
	collectColumns(n.Predicate, referenced)

	cols, attrs, byCol, err := bindScanColumns(b, n.Table.Schema(), referenced)
	if err != nil {
		return nil, err
	}
	if err := bindExpr(n.Predicate, []binding{byCol}); err != nil {
		return nil, err
	}

	out := make([]value.AttributeInfo, len(n.ColumnIDs))
	for i, c := range n.ColumnIDs {
		out[i] = byCol[c]
	}
	n.scanCols, n.scanAttrs = cols, attrs
	n.setAttrs(out)
	return out, nil
}

func bindIndexScan(n *IndexScan, b *binder) ([]value.AttributeInfo, error) {
	referenced := map[int]bool{}
	for _, c := range n.ColumnIDs {
		referenced[c] = true
	}
	// Key columns must be materialized too: their conditions are
	// re-checked row by row after the index probe.
	for _, k := range n.Keys {
		referenced[k.ColumnID] = true
	}
	collectColumns(n.Predicate, referenced)

	cols, attrs, byCol, err := bindScanColumns(b, n.Table.Schema(), referenced)
	if err != nil {
		return nil, err
	}
	if err := bindExpr(n.Predicate, []binding{byCol}); err != nil {
		return nil, err
	}
	// Key bounds are constants or parameters relative to nothing; binding
	// them catches stray column references early.
	for _, k := range n.Keys {
		if err := bindExpr(k.Bound, nil); err != nil {
			return nil, err
		}
	}

	out := make([]value.AttributeInfo, len(n.ColumnIDs))
	for i, c := range n.ColumnIDs {
		out[i] = byCol[c]
	}
	n.scanCols, n.scanAttrs = cols, attrs
	n.setAttrs(out)
	return out, nil
}

func bindProjection(n *Projection, b *binder) ([]value.AttributeInfo, error) {
	childAttrs, err := bindNode(n.Child, b)
	if err != nil {
		return nil, err
	}
	childBinding := []binding{attrsBinding(childAttrs)}

	arity := len(n.Targets) + len(n.DirectMaps)
	out := make([]value.AttributeInfo, arity)
	taken := make([]bool, arity)
	for _, d := range n.DirectMaps {
		if d.OutputColumn < 0 || d.OutputColumn >= arity || d.ChildColumn < 0 || d.ChildColumn >= len(childAttrs) {
			return nil, fqerrors.ErrCompile.New("projection direct-map out of range")
		}
		out[d.OutputColumn] = childAttrs[d.ChildColumn]
		taken[d.OutputColumn] = true
	}
	n.targetAttrs = make([]value.AttributeInfo, len(n.Targets))
	slot := 0
	for i, t := range n.Targets {
		if err := bindExpr(t.Expr, childBinding); err != nil {
			return nil, err
		}
		for taken[slot] {
			slot++
		}
		a := b.attr(t.Name, t.Expr.Type(), true)
		out[slot] = a
		taken[slot] = true
		n.targetAttrs[i] = a
	}
	n.setAttrs(out)
	return out, nil
}

func bindAggregate(n *Aggregate, b *binder) ([]value.AttributeInfo, error) {
	childAttrs, err := bindNode(n.Child, b)
	if err != nil {
		return nil, err
	}
	childBinding := []binding{attrsBinding(childAttrs)}

	out := make([]value.AttributeInfo, 0, len(n.GroupBy)+len(n.Terms))
	for _, g := range n.GroupBy {
		if err := bindExpr(g, childBinding); err != nil {
			return nil, err
		}
		name := "group"
		if c, ok := g.(*expr.ColumnRef); ok {
			name = c.ColumnName
		}
		out = append(out, b.attr(name, g.Type(), true))
	}
	for _, t := range n.Terms {
		if t.Arg == nil && t.Kind != AggCountStar {
			return nil, fqerrors.ErrCompile.New("aggregate term missing argument")
		}
		if t.Arg != nil {
			if err := bindExpr(t.Arg, childBinding); err != nil {
				return nil, err
			}
		}
		out = append(out, b.attr(t.Kind.String(), t.ResultType, true))
	}
	// HAVING sees the aggregate's own output: group columns by position,
	// aggregate results through AggregateRef.
	if err := bindExpr(n.Having, []binding{attrsBinding(out)}); err != nil {
		return nil, err
	}
	n.setAttrs(out)
	return out, nil
}

func bindHashJoin(n *HashJoin, b *binder) ([]value.AttributeInfo, error) {
	leftAttrs, err := bindNode(n.Left, b)
	if err != nil {
		return nil, err
	}
	rightAttrs, err := bindNode(n.Right, b)
	if err != nil {
		return nil, err
	}
	leftBinding := attrsBinding(leftAttrs)
	for _, k := range n.LeftKeys {
		if err := bindExpr(k, []binding{leftBinding}); err != nil {
			return nil, err
		}
	}
	if err := bindExpr(n.Predicate, []binding{leftBinding, attrsBinding(rightAttrs)}); err != nil {
		return nil, err
	}
	out := append(append([]value.AttributeInfo{}, leftAttrs...), rightAttrs...)
	n.setAttrs(out)
	return out, nil
}

func bindNestedLoopJoin(n *NestedLoopJoin, b *binder) ([]value.AttributeInfo, error) {
	leftAttrs, err := bindNode(n.Left, b)
	if err != nil {
		return nil, err
	}
	rightAttrs, err := bindNode(n.Right, b)
	if err != nil {
		return nil, err
	}
	if err := bindExpr(n.Predicate, []binding{attrsBinding(leftAttrs), attrsBinding(rightAttrs)}); err != nil {
		return nil, err
	}
	out := append(append([]value.AttributeInfo{}, leftAttrs...), rightAttrs...)
	n.setAttrs(out)
	return out, nil
}

func bindInsert(n *Insert, b *binder) error {
	for _, tuple := range n.Tuples {
		if len(tuple) != len(n.Table.Schema()) {
			return fqerrors.ErrCompile.New("insert tuple arity mismatch")
		}
		for _, e := range tuple {
			if err := bindExpr(e, nil); err != nil {
				return err
			}
		}
	}
	if n.Child != nil {
		if _, err := bindNode(n.Child, b); err != nil {
			return err
		}
	}
	return nil
}

// bindExpr resolves every ColumnRef under e against bindings, indexed by
// the reference's tuple index.
func bindExpr(e expr.Expression, bindings []binding) error {
	if e == nil {
		return nil
	}
	if c, ok := e.(*expr.ColumnRef); ok {
		if c.TupleIdx < 0 || c.TupleIdx >= len(bindings) {
			return fqerrors.ErrCompile.New("column reference to unbound tuple")
		}
		attr, ok := bindings[c.TupleIdx][c.ColumnID]
		if !ok {
			return fqerrors.ErrCompile.New("column reference to unknown column")
		}
		c.Bind(attr)
		return nil
	}
	for _, child := range e.Children() {
		if err := bindExpr(child, bindings); err != nil {
			return err
		}
	}
	return nil
}

// collectColumns records the column ids referenced anywhere under e.
func collectColumns(e expr.Expression, into map[int]bool) {
	if e == nil {
		return
	}
	if c, ok := e.(*expr.ColumnRef); ok {
		into[c.ColumnID] = true
		return
	}
	for _, child := range e.Children() {
		collectColumns(child, into)
	}
}

// ReferencedTables returns the OIDs of every table the plan touches, used
// by the query cache's invalidation reverse index.
func ReferencedTables(p Plan) []uint64 {
	seen := map[uint64]bool{}
	var walk func(Plan)
	walk = func(n Plan) {
		switch t := n.(type) {
		case *SeqScan:
			seen[t.Table.OID()] = true
		case *IndexScan:
			seen[t.Table.OID()] = true
		case *Insert:
			seen[t.Table.OID()] = true
		case *Update:
			seen[t.Table.OID()] = true
		case *Delete:
			seen[t.Table.OID()] = true
		}
		for _, c := range n.Children() {
			walk(c)
		}
	}
	walk(p)
	out := make([]uint64, 0, len(seen))
	for oid := range seen {
		out = append(out, oid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
