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

package compile

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/fusionql/fusionql/codegen"
	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	rt "github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// zoneCheck can falsify one predicate conjunct against a tile group's
// min/max summary. Returning true means no row of the tile group can
// satisfy the conjunct.
type zoneCheck func(tg storage.TileGroup) bool

// extractZoneChecks walks the predicate's AND-conjuncts and builds a
// falsifiability check for every `col OP const` conjunct.
func extractZoneChecks(pred expr.Expression) []zoneCheck {
	var checks []zoneCheck
	var walk func(e expr.Expression)
	walk = func(e expr.Expression) {
		if c, ok := e.(*expr.Conjunction); ok && c.Op == expr.And {
			walk(c.Left)
			walk(c.Right)
			return
		}
		if chk := zoneCheckFor(e); chk != nil {
			checks = append(checks, chk)
		}
	}
	walk(pred)
	return checks
}

func zoneCheckFor(e expr.Expression) zoneCheck {
	cmp, ok := e.(*expr.Comparison)
	if !ok {
		return nil
	}
	col, colOK := cmp.Left.(*expr.ColumnRef)
	con, conOK := cmp.Right.(*expr.Constant)
	op := cmp.Op
	if !colOK || !conOK {
		// Normalize const OP col by flipping the operator.
		col, colOK = cmp.Right.(*expr.ColumnRef)
		con, conOK = cmp.Left.(*expr.Constant)
		if !colOK || !conOK {
			return nil
		}
		switch op {
		case expr.Lt:
			op = expr.Gt
		case expr.Le:
			op = expr.Ge
		case expr.Gt:
			op = expr.Lt
		case expr.Ge:
			op = expr.Le
		}
	}
	if con.Val.Null || !con.Val.Type.IsNumeric() {
		return nil
	}
	colID, c := col.ColumnID, con.Val.Num
	return func(tg storage.TileGroup) bool {
		if !tg.Immutable() {
			return false
		}
		min, max, ok := tg.ZoneMap(colID)
		if !ok {
			return false
		}
		switch op {
		case expr.Eq:
			return c < min.Num || c > max.Num
		case expr.Lt:
			return min.Num >= c
		case expr.Le:
			return min.Num > c
		case expr.Gt:
			return max.Num <= c
		case expr.Ge:
			return max.Num < c
		default:
			return false
		}
	}
}

func (cc *Context) produceSeqScan(n *plan.SeqScan, consume ConsumeFn) (ProduceFn, error) {
	cols, attrs := n.ScanColumns()
	var pred codegen.Evaluator
	if n.Predicate != nil {
		var err error
		if pred, err = cc.compileExpr(n.Predicate); err != nil {
			return nil, err
		}
	}
	checks := extractZoneChecks(n.Predicate)
	table := n.Table
	parallel := cc.parallel
	txnSlot := cc.txnSlot

	scanTileGroup := func(qs *rt.QueryState, tg storage.TileGroup) error {
		for _, chk := range checks {
			if chk(tg) {
				return nil
			}
		}
		txn, _ := qs.LoadPtr(txnSlot).(*storage.Txn)
		batch := tg.Materialize(txn, cols, attrs)
		if pred != nil {
			sel := make([]int32, 0, batch.Len())
			if err := batch.Iterate(func(row *value.Row) error {
				v, err := pred(qs, row)
				if err != nil {
					return err
				}
				// NULL counts as false for WHERE.
				if v.IsTrue() {
					sel = append(sel, int32(row.Offset))
				}
				return nil
			}); err != nil {
				return err
			}
			batch.Filter(sel)
		}
		return batch.Iterate(func(row *value.Row) error {
			return consume(qs, row)
		})
	}

	return func(qs *rt.QueryState) error {
		tileGroups := table.TileGroups()
		if !parallel || len(tileGroups) < 2 {
			for _, tg := range tileGroups {
				if qs.Cancelled() {
					return nil
				}
				if err := scanTileGroup(qs, tg); err != nil {
					return err
				}
			}
			return nil
		}
		// Parallel mode: tile groups dispatched across workers, one
		// selection vector per batch so nothing is shared.
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for _, tg := range tileGroups {
			tg := tg
			g.Go(func() error {
				if qs.Cancelled() {
					return nil
				}
				return scanTileGroup(qs, tg)
			})
		}
		return g.Wait()
	}, nil
}

func (cc *Context) produceIndexScan(n *plan.IndexScan, consume ConsumeFn) (ProduceFn, error) {
	index := n.Table.Index(n.IndexName)
	if index == nil {
		return nil, fqerrors.ErrCompile.New("unknown index " + n.IndexName)
	}
	cols, attrs := n.ScanColumns()
	var pred codegen.Evaluator
	if n.Predicate != nil {
		var err error
		if pred, err = cc.compileExpr(n.Predicate); err != nil {
			return nil, err
		}
	}

	// Classify the key conditions against the index's key columns.
	keyCols := index.KeyColumns()
	eqs := map[int]codegen.Evaluator{}
	los := map[int]boundEval{}
	his := map[int]boundEval{}
	for _, k := range n.Keys {
		ev, err := cc.compileExpr(k.Bound)
		if err != nil {
			return nil, err
		}
		switch k.Op {
		case expr.Eq:
			eqs[k.ColumnID] = ev
		case expr.Gt:
			los[k.ColumnID] = boundEval{ev: ev, inclusive: false}
		case expr.Ge:
			los[k.ColumnID] = boundEval{ev: ev, inclusive: true}
		case expr.Lt:
			his[k.ColumnID] = boundEval{ev: ev, inclusive: false}
		case expr.Le:
			his[k.ColumnID] = boundEval{ev: ev, inclusive: true}
		default:
			return nil, fqerrors.ErrUnsupportedPlan.New("index key operator " + k.Op.String())
		}
	}
	allEq := len(eqs) == len(keyCols) && len(n.Keys) == len(eqs)

	// Key conditions are re-checked row by row, so a partially bounded
	// range may fetch a superset without affecting correctness.
	rowFilter, err := cc.indexRowFilter(n)
	if err != nil {
		return nil, err
	}

	table := n.Table
	txnSlot := cc.txnSlot
	return func(qs *rt.QueryState) error {
		txn, _ := qs.LoadPtr(txnSlot).(*storage.Txn)
		var locs []storage.TupleLoc
		switch {
		case allEq:
			key := make([]value.Value, len(keyCols))
			for i, col := range keyCols {
				v, err := eqs[col](qs, nil)
				if err != nil {
					return err
				}
				key[i] = v
			}
			locs = index.Point(txn, key)
		case len(n.Keys) == 0:
			locs = index.Full(txn)
		default:
			lo, loInc, err := assembleBound(qs, keyCols, eqs, los)
			if err != nil {
				return err
			}
			hi, hiInc, err := assembleBound(qs, keyCols, eqs, his)
			if err != nil {
				return err
			}
			locs = index.Range(txn, lo, hi, loInc, hiInc)
		}
		for _, loc := range locs {
			if qs.Cancelled() {
				return nil
			}
			vals, ok := table.Fetch(txn, loc, cols)
			if !ok {
				continue
			}
			batch := value.NewRowBatch(loc.TileGroup, loc.Offset, 1, attrs)
			for i, v := range vals {
				batch.Set(i, 0, v)
			}
			err := batch.Iterate(func(row *value.Row) error {
				if rowFilter != nil {
					v, err := rowFilter(qs, row)
					if err != nil {
						return err
					}
					if !v.IsTrue() {
						return nil
					}
				}
				if pred != nil {
					v, err := pred(qs, row)
					if err != nil {
						return err
					}
					if !v.IsTrue() {
						return nil
					}
				}
				return consume(qs, row)
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, nil
}

type boundEval struct {
	ev        codegen.Evaluator
	inclusive bool
}

// assembleBound builds one side of a range key: the equality prefix plus
// the first bounded column. Returns nil when the side is unbounded.
func assembleBound(qs *rt.QueryState, keyCols []int, eqs map[int]codegen.Evaluator, bounds map[int]boundEval) ([]value.Value, bool, error) {
	var key []value.Value
	inclusive := true
	for _, col := range keyCols {
		if ev, ok := eqs[col]; ok {
			v, err := ev(qs, nil)
			if err != nil {
				return nil, false, err
			}
			key = append(key, v)
			continue
		}
		if b, ok := bounds[col]; ok {
			v, err := b.ev(qs, nil)
			if err != nil {
				return nil, false, err
			}
			key = append(key, v)
			inclusive = b.inclusive
		}
		break
	}
	if len(key) == 0 {
		return nil, true, nil
	}
	return key, inclusive, nil
}

// indexRowFilter compiles the key conditions into a per-row recheck, so
// range assembly may be loose.
func (cc *Context) indexRowFilter(n *plan.IndexScan) (codegen.Evaluator, error) {
	var filter expr.Expression
	schema := n.Table.Schema()
	cols, attrs := n.ScanColumns()
	for _, k := range n.Keys {
		colRef := expr.NewColumnRef(0, k.ColumnID, n.Table.Name(), schema[k.ColumnID].Name, schema[k.ColumnID].Type)
		// Bind against the scan attrs installed by PerformBinding.
		for i, c := range cols {
			if c == k.ColumnID {
				colRef.Bind(attrs[i])
			}
		}
		cond := expr.NewComparison(k.Op, colRef, k.Bound)
		if filter == nil {
			filter = cond
		} else {
			filter = expr.NewConjunction(expr.And, filter, cond)
		}
	}
	if filter == nil {
		return nil, nil
	}
	return cc.compileExpr(filter)
}

// rowMaterializer compiles a fetch of attrs into a flat tuple, shared by
// the boundary operators that buffer rows.
func rowMaterializer(attrs []value.AttributeInfo) func(row *value.Row) []value.Value {
	return func(row *value.Row) []value.Value {
		out := make([]value.Value, len(attrs))
		for i, a := range attrs {
			out[i] = row.DeriveValue(a)
		}
		return out
	}
}
