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
	"fmt"

	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// SeqScan reads a table tile group by tile group, applying an optional
// predicate and projecting the listed column ids.
type SeqScan struct {
	baseAttrs
	Table     storage.Table
	Predicate expr.Expression
	ColumnIDs []int

	// scanCols/scanAttrs are installed by PerformBinding: the union of the
	// output columns and the predicate's columns, with one AttributeInfo
	// each, so the translator can materialize exactly what the pipeline
	// touches.
	scanCols  []int
	scanAttrs []value.AttributeInfo
}

// ScanColumns returns the table column ids the scan must materialize and
// their bound attribute handles. Valid only after PerformBinding.
func (s *SeqScan) ScanColumns() ([]int, []value.AttributeInfo) { return s.scanCols, s.scanAttrs }

func NewSeqScan(table storage.Table, predicate expr.Expression, columnIDs []int) *SeqScan {
	return &SeqScan{Table: table, Predicate: predicate, ColumnIDs: columnIDs}
}

func (s *SeqScan) Kind() Kind       { return KindSeqScan }
func (s *SeqScan) Children() []Plan { return nil }
func (s *SeqScan) String() string   { return fmt.Sprintf("SeqScan(%s)", s.Table.Name()) }

func (s *SeqScan) Hash() uint64 {
	return combineHash(KindSeqScan, nil, s.Table.OID(), hashInts(s.ColumnIDs), exprHashOpt(s.Predicate))
}

func (s *SeqScan) Equal(other Plan) bool {
	o, ok := other.(*SeqScan)
	return ok && s.Table.OID() == o.Table.OID() &&
		intsEqual(s.ColumnIDs, o.ColumnIDs) &&
		exprEqualOpt(s.Predicate, o.Predicate)
}

// IndexKey binds one index key column to a comparison against a bound
// expression: an equality, a lower bound, or an upper bound.
type IndexKey struct {
	ColumnID int
	Op       expr.CmpOp
	Bound    expr.Expression
}

// IndexScan reads a table through a named index in key order. Mode
// selection (point lookup, range scan, full scan) is made by the
// translator from the shape of Keys.
type IndexScan struct {
	baseAttrs
	Table     storage.Table
	IndexName string
	Keys      []IndexKey
	Predicate expr.Expression
	ColumnIDs []int

	scanCols  []int
	scanAttrs []value.AttributeInfo
}

// ScanColumns returns the table column ids the scan must materialize and
// their bound attribute handles. Valid only after PerformBinding.
func (s *IndexScan) ScanColumns() ([]int, []value.AttributeInfo) { return s.scanCols, s.scanAttrs }

func NewIndexScan(table storage.Table, indexName string, keys []IndexKey, predicate expr.Expression, columnIDs []int) *IndexScan {
	return &IndexScan{Table: table, IndexName: indexName, Keys: keys, Predicate: predicate, ColumnIDs: columnIDs}
}

func (s *IndexScan) Kind() Kind       { return KindIndexScan }
func (s *IndexScan) Children() []Plan { return nil }
func (s *IndexScan) String() string {
	return fmt.Sprintf("IndexScan(%s.%s)", s.Table.Name(), s.IndexName)
}

func (s *IndexScan) Hash() uint64 {
	parts := []uint64{s.Table.OID(), hashString(s.IndexName), hashInts(s.ColumnIDs), exprHashOpt(s.Predicate)}
	for _, k := range s.Keys {
		parts = append(parts, uint64(k.ColumnID), uint64(k.Op), k.Bound.Hash())
	}
	return combineHash(KindIndexScan, nil, parts...)
}

func (s *IndexScan) Equal(other Plan) bool {
	o, ok := other.(*IndexScan)
	if !ok || s.Table.OID() != o.Table.OID() || s.IndexName != o.IndexName ||
		!intsEqual(s.ColumnIDs, o.ColumnIDs) || !exprEqualOpt(s.Predicate, o.Predicate) ||
		len(s.Keys) != len(o.Keys) {
		return false
	}
	for i := range s.Keys {
		if s.Keys[i].ColumnID != o.Keys[i].ColumnID || s.Keys[i].Op != o.Keys[i].Op ||
			!s.Keys[i].Bound.Equal(o.Keys[i].Bound) {
			return false
		}
	}
	return true
}

// ProjectionTarget publishes one computed output column.
type ProjectionTarget struct {
	Name string
	Expr expr.Expression
}

// DirectMap forwards one child output column unchanged.
type DirectMap struct {
	OutputColumn int
	ChildColumn  int
}

// Projection rewrites its child's output schema: target-list expressions
// become new columns, direct-map entries forward existing ones. It costs
// nothing at runtime beyond evaluating the target expressions.
type Projection struct {
	baseAttrs
	Targets    []ProjectionTarget
	DirectMaps []DirectMap
	Child      Plan

	targetAttrs []value.AttributeInfo
}

// TargetAttrs returns the attribute handle published for each target-list
// entry, in Targets order. Valid only after PerformBinding.
func (p *Projection) TargetAttrs() []value.AttributeInfo { return p.targetAttrs }

func NewProjection(targets []ProjectionTarget, directMaps []DirectMap, child Plan) *Projection {
	return &Projection{Targets: targets, DirectMaps: directMaps, Child: child}
}

func (p *Projection) Kind() Kind       { return KindProjection }
func (p *Projection) Children() []Plan { return []Plan{p.Child} }
func (p *Projection) String() string   { return "Projection" }

func (p *Projection) Hash() uint64 {
	parts := make([]uint64, 0, len(p.Targets)*2+len(p.DirectMaps)*2)
	for _, t := range p.Targets {
		parts = append(parts, hashString(t.Name), t.Expr.Hash())
	}
	for _, d := range p.DirectMaps {
		parts = append(parts, uint64(d.OutputColumn), uint64(d.ChildColumn))
	}
	return combineHash(KindProjection, p.Children(), parts...)
}

func (p *Projection) Equal(other Plan) bool {
	o, ok := other.(*Projection)
	if !ok || len(p.Targets) != len(o.Targets) || len(p.DirectMaps) != len(o.DirectMaps) {
		return false
	}
	for i := range p.Targets {
		if p.Targets[i].Name != o.Targets[i].Name || !p.Targets[i].Expr.Equal(o.Targets[i].Expr) {
			return false
		}
	}
	for i := range p.DirectMaps {
		if p.DirectMaps[i] != o.DirectMaps[i] {
			return false
		}
	}
	return childrenEqual(p.Children(), o.Children())
}

// Limit forwards rows numbered (Offset, Offset+Count] and drops the rest.
// It never stops its producer on its own; early termination is the
// cooperative-cancel flag's job.
type Limit struct {
	baseAttrs
	Offset uint64
	Count  uint64
	Child  Plan
}

func NewLimit(offset, count uint64, child Plan) *Limit {
	return &Limit{Offset: offset, Count: count, Child: child}
}

func (l *Limit) Kind() Kind       { return KindLimit }
func (l *Limit) Children() []Plan { return []Plan{l.Child} }
func (l *Limit) String() string   { return fmt.Sprintf("Limit(%d,%d)", l.Offset, l.Count) }

func (l *Limit) Hash() uint64 {
	return combineHash(KindLimit, l.Children(), l.Offset, l.Count)
}

func (l *Limit) Equal(other Plan) bool {
	o, ok := other.(*Limit)
	return ok && l.Offset == o.Offset && l.Count == o.Count && childrenEqual(l.Children(), o.Children())
}

// SortKey orders by one child output column.
type SortKey struct {
	ColumnID   int
	Descending bool
}

// OrderBy is a pipeline boundary: the build side feeds a sorter, the probe
// side iterates it in sorted order. NULLs sort last ascending, first
// descending.
type OrderBy struct {
	baseAttrs
	Keys  []SortKey
	Child Plan
}

func NewOrderBy(keys []SortKey, child Plan) *OrderBy {
	return &OrderBy{Keys: keys, Child: child}
}

func (s *OrderBy) Kind() Kind       { return KindOrderBy }
func (s *OrderBy) Children() []Plan { return []Plan{s.Child} }
func (s *OrderBy) String() string   { return "OrderBy" }

func (s *OrderBy) Hash() uint64 {
	parts := make([]uint64, 0, len(s.Keys)*2)
	for _, k := range s.Keys {
		d := uint64(0)
		if k.Descending {
			d = 1
		}
		parts = append(parts, uint64(k.ColumnID), d)
	}
	return combineHash(KindOrderBy, s.Children(), parts...)
}

func (s *OrderBy) Equal(other Plan) bool {
	o, ok := other.(*OrderBy)
	if !ok || len(s.Keys) != len(o.Keys) {
		return false
	}
	for i := range s.Keys {
		if s.Keys[i] != o.Keys[i] {
			return false
		}
	}
	return childrenEqual(s.Children(), o.Children())
}

// AggMode selects the aggregation strategy.
type AggMode int

const (
	// AggModePlain is a global aggregate: no grouping, one output row.
	AggModePlain AggMode = iota
	// AggModeHash groups by the GroupBy expressions through a hash table.
	AggModeHash
)

// AggTermKind tags one aggregate function.
type AggTermKind int

const (
	AggCountStar AggTermKind = iota
	AggCount
	AggSum
	AggMin
	AggMax
	AggAvg
)

func (k AggTermKind) String() string {
	switch k {
	case AggCountStar:
		return "count(*)"
	case AggCount:
		return "count"
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggAvg:
		return "avg"
	default:
		return "agg?"
	}
}

// AggTerm is one aggregate function application. Arg is nil for COUNT(*).
type AggTerm struct {
	Kind       AggTermKind
	Distinct   bool
	Arg        expr.Expression
	ResultType value.LogicalType
}

// Aggregate computes Terms over groups defined by GroupBy (empty for a
// global aggregate). Output columns are the group-by columns followed by
// the finalized terms. Having, if set, filters output rows and may
// reference aggregate results through AggregateRef.
type Aggregate struct {
	baseAttrs
	Mode    AggMode
	Terms   []AggTerm
	GroupBy []expr.Expression
	Having  expr.Expression
	Child   Plan
}

func NewAggregate(mode AggMode, terms []AggTerm, groupBy []expr.Expression, having expr.Expression, child Plan) *Aggregate {
	return &Aggregate{Mode: mode, Terms: terms, GroupBy: groupBy, Having: having, Child: child}
}

func (a *Aggregate) Kind() Kind       { return KindAggregate }
func (a *Aggregate) Children() []Plan { return []Plan{a.Child} }
func (a *Aggregate) String() string   { return "Aggregate" }

func (a *Aggregate) Hash() uint64 {
	parts := []uint64{uint64(a.Mode), exprHashOpt(a.Having)}
	for _, t := range a.Terms {
		d := uint64(0)
		if t.Distinct {
			d = 1
		}
		parts = append(parts, uint64(t.Kind), d, exprHashOpt(t.Arg), uint64(t.ResultType))
	}
	for _, g := range a.GroupBy {
		parts = append(parts, g.Hash())
	}
	return combineHash(KindAggregate, a.Children(), parts...)
}

func (a *Aggregate) Equal(other Plan) bool {
	o, ok := other.(*Aggregate)
	if !ok || a.Mode != o.Mode || len(a.Terms) != len(o.Terms) ||
		!exprsEqual(a.GroupBy, o.GroupBy) || !exprEqualOpt(a.Having, o.Having) {
		return false
	}
	for i := range a.Terms {
		if a.Terms[i].Kind != o.Terms[i].Kind || a.Terms[i].Distinct != o.Terms[i].Distinct ||
			a.Terms[i].ResultType != o.Terms[i].ResultType ||
			!exprEqualOpt(a.Terms[i].Arg, o.Terms[i].Arg) {
			return false
		}
	}
	return childrenEqual(a.Children(), o.Children())
}

// Hash materializes its child into a hash table keyed by Keys; the parent
// HashJoin probes the table through a runtime-state handle.
type Hash struct {
	baseAttrs
	Keys  []expr.Expression
	Child Plan
}

func NewHash(keys []expr.Expression, child Plan) *Hash {
	return &Hash{Keys: keys, Child: child}
}

func (h *Hash) Kind() Kind       { return KindHash }
func (h *Hash) Children() []Plan { return []Plan{h.Child} }
func (h *Hash) String() string   { return "Hash" }

func (h *Hash) Hash() uint64 {
	parts := make([]uint64, len(h.Keys))
	for i, k := range h.Keys {
		parts[i] = k.Hash()
	}
	return combineHash(KindHash, h.Children(), parts...)
}

func (h *Hash) Equal(other Plan) bool {
	o, ok := other.(*Hash)
	return ok && exprsEqual(h.Keys, o.Keys) && childrenEqual(h.Children(), o.Children())
}

// JoinType tags the join variant. Only inner joins compile; everything
// else is refused as unsupported.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
)

func (t JoinType) String() string {
	switch t {
	case JoinInner:
		return "INNER"
	case JoinLeft:
		return "LEFT"
	case JoinRight:
		return "RIGHT"
	case JoinFull:
		return "FULL"
	default:
		return "JOIN?"
	}
}

// HashJoin probes the hash table built by its right child (a Hash node)
// with keys computed from the left side, which runs inline in the main
// pipeline. Predicate, if set, is evaluated after the key match.
type HashJoin struct {
	baseAttrs
	JoinType  JoinType
	LeftKeys  []expr.Expression
	Predicate expr.Expression
	Left      Plan
	Right     Plan
}

func NewHashJoin(joinType JoinType, leftKeys []expr.Expression, predicate expr.Expression, left, right Plan) *HashJoin {
	return &HashJoin{JoinType: joinType, LeftKeys: leftKeys, Predicate: predicate, Left: left, Right: right}
}

func (j *HashJoin) Kind() Kind       { return KindHashJoin }
func (j *HashJoin) Children() []Plan { return []Plan{j.Left, j.Right} }
func (j *HashJoin) String() string   { return fmt.Sprintf("HashJoin(%s)", j.JoinType) }

func (j *HashJoin) Hash() uint64 {
	parts := []uint64{uint64(j.JoinType), exprHashOpt(j.Predicate)}
	for _, k := range j.LeftKeys {
		parts = append(parts, k.Hash())
	}
	return combineHash(KindHashJoin, j.Children(), parts...)
}

func (j *HashJoin) Equal(other Plan) bool {
	o, ok := other.(*HashJoin)
	return ok && j.JoinType == o.JoinType &&
		exprsEqual(j.LeftKeys, o.LeftKeys) &&
		exprEqualOpt(j.Predicate, o.Predicate) &&
		childrenEqual(j.Children(), o.Children())
}

// NestedLoopJoin evaluates Predicate for every (left, right) row pair, the
// fallback join for non-equi predicates.
type NestedLoopJoin struct {
	baseAttrs
	JoinType  JoinType
	Predicate expr.Expression
	Left      Plan
	Right     Plan
}

func NewNestedLoopJoin(joinType JoinType, predicate expr.Expression, left, right Plan) *NestedLoopJoin {
	return &NestedLoopJoin{JoinType: joinType, Predicate: predicate, Left: left, Right: right}
}

func (j *NestedLoopJoin) Kind() Kind       { return KindNestedLoopJoin }
func (j *NestedLoopJoin) Children() []Plan { return []Plan{j.Left, j.Right} }
func (j *NestedLoopJoin) String() string   { return fmt.Sprintf("NestedLoopJoin(%s)", j.JoinType) }

func (j *NestedLoopJoin) Hash() uint64 {
	return combineHash(KindNestedLoopJoin, j.Children(), uint64(j.JoinType), exprHashOpt(j.Predicate))
}

func (j *NestedLoopJoin) Equal(other Plan) bool {
	o, ok := other.(*NestedLoopJoin)
	return ok && j.JoinType == o.JoinType &&
		exprEqualOpt(j.Predicate, o.Predicate) &&
		childrenEqual(j.Children(), o.Children())
}

// Insert appends rows into Table. Rows come either from Child (insert ...
// select) or from the literal Tuples list.
type Insert struct {
	baseAttrs
	Table  storage.Table
	Tuples [][]expr.Expression
	Child  Plan
}

func NewInsert(table storage.Table, tuples [][]expr.Expression, child Plan) *Insert {
	return &Insert{Table: table, Tuples: tuples, Child: child}
}

func (n *Insert) Kind() Kind { return KindInsert }

func (n *Insert) Children() []Plan {
	if n.Child == nil {
		return nil
	}
	return []Plan{n.Child}
}

func (n *Insert) String() string { return fmt.Sprintf("Insert(%s)", n.Table.Name()) }

func (n *Insert) Hash() uint64 {
	parts := []uint64{n.Table.OID()}
	for _, tuple := range n.Tuples {
		for _, e := range tuple {
			parts = append(parts, e.Hash())
		}
	}
	return combineHash(KindInsert, n.Children(), parts...)
}

func (n *Insert) Equal(other Plan) bool {
	o, ok := other.(*Insert)
	if !ok || n.Table.OID() != o.Table.OID() || len(n.Tuples) != len(o.Tuples) {
		return false
	}
	for i := range n.Tuples {
		if !exprsEqual(n.Tuples[i], o.Tuples[i]) {
			return false
		}
	}
	return childrenEqual(n.Children(), o.Children())
}

// UpdateTarget assigns a new value to one table column.
type UpdateTarget struct {
	ColumnID int
	Expr     expr.Expression
}

// Update writes a new version of each row its child produces, with the
// SetList columns replaced.
type Update struct {
	baseAttrs
	Table   storage.Table
	SetList []UpdateTarget
	Child   Plan
}

func NewUpdate(table storage.Table, setList []UpdateTarget, child Plan) *Update {
	return &Update{Table: table, SetList: setList, Child: child}
}

func (u *Update) Kind() Kind       { return KindUpdate }
func (u *Update) Children() []Plan { return []Plan{u.Child} }
func (u *Update) String() string   { return fmt.Sprintf("Update(%s)", u.Table.Name()) }

func (u *Update) Hash() uint64 {
	parts := []uint64{u.Table.OID()}
	for _, t := range u.SetList {
		parts = append(parts, uint64(t.ColumnID), t.Expr.Hash())
	}
	return combineHash(KindUpdate, u.Children(), parts...)
}

func (u *Update) Equal(other Plan) bool {
	o, ok := other.(*Update)
	if !ok || u.Table.OID() != o.Table.OID() || len(u.SetList) != len(o.SetList) {
		return false
	}
	for i := range u.SetList {
		if u.SetList[i].ColumnID != o.SetList[i].ColumnID || !u.SetList[i].Expr.Equal(o.SetList[i].Expr) {
			return false
		}
	}
	return childrenEqual(u.Children(), o.Children())
}

// Delete marks each row its child produces as deleted.
type Delete struct {
	baseAttrs
	Table storage.Table
	Child Plan
}

func NewDelete(table storage.Table, child Plan) *Delete {
	return &Delete{Table: table, Child: child}
}

func (d *Delete) Kind() Kind       { return KindDelete }
func (d *Delete) Children() []Plan { return []Plan{d.Child} }
func (d *Delete) String() string   { return fmt.Sprintf("Delete(%s)", d.Table.Name()) }

func (d *Delete) Hash() uint64 {
	return combineHash(KindDelete, d.Children(), d.Table.OID())
}

func (d *Delete) Equal(other Plan) bool {
	o, ok := other.(*Delete)
	return ok && d.Table.OID() == o.Table.OID() && childrenEqual(d.Children(), o.Children())
}

// CsvScan reads a delimited text file as a table with the given column
// names and types.
type CsvScan struct {
	baseAttrs
	Path      string
	Names     []string
	Types     []value.LogicalType
	Delimiter byte
	Quote     byte
	Escape    byte
}

func NewCsvScan(path string, names []string, types []value.LogicalType, delimiter, quote, escape byte) *CsvScan {
	return &CsvScan{Path: path, Names: names, Types: types, Delimiter: delimiter, Quote: quote, Escape: escape}
}

func (c *CsvScan) Kind() Kind       { return KindCsvScan }
func (c *CsvScan) Children() []Plan { return nil }
func (c *CsvScan) String() string   { return fmt.Sprintf("CsvScan(%s)", c.Path) }

func (c *CsvScan) Hash() uint64 {
	parts := []uint64{hashString(c.Path), uint64(c.Delimiter), uint64(c.Quote), uint64(c.Escape)}
	for i, t := range c.Types {
		parts = append(parts, hashString(c.Names[i]), uint64(t))
	}
	return combineHash(KindCsvScan, nil, parts...)
}

func (c *CsvScan) Equal(other Plan) bool {
	o, ok := other.(*CsvScan)
	if !ok || c.Path != o.Path || c.Delimiter != o.Delimiter || c.Quote != o.Quote ||
		c.Escape != o.Escape || len(c.Types) != len(o.Types) {
		return false
	}
	for i := range c.Types {
		if c.Types[i] != o.Types[i] || c.Names[i] != o.Names[i] {
			return false
		}
	}
	return true
}

// ExportExternalFile writes its child's rows to a delimited text file.
type ExportExternalFile struct {
	baseAttrs
	Path      string
	Delimiter byte
	Quote     byte
	Escape    byte
	Child     Plan
}

func NewExportExternalFile(path string, delimiter, quote, escape byte, child Plan) *ExportExternalFile {
	return &ExportExternalFile{Path: path, Delimiter: delimiter, Quote: quote, Escape: escape, Child: child}
}

func (e *ExportExternalFile) Kind() Kind       { return KindExportExternalFile }
func (e *ExportExternalFile) Children() []Plan { return []Plan{e.Child} }
func (e *ExportExternalFile) String() string   { return fmt.Sprintf("Export(%s)", e.Path) }

func (e *ExportExternalFile) Hash() uint64 {
	return combineHash(KindExportExternalFile, e.Children(),
		hashString(e.Path), uint64(e.Delimiter), uint64(e.Quote), uint64(e.Escape))
}

func (e *ExportExternalFile) Equal(other Plan) bool {
	o, ok := other.(*ExportExternalFile)
	return ok && e.Path == o.Path && e.Delimiter == o.Delimiter && e.Quote == o.Quote &&
		e.Escape == o.Escape && childrenEqual(e.Children(), o.Children())
}
