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
	"github.com/fusionql/fusionql/codegen"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	rt "github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// rowLoc recovers the physical tuple location a scanned row came from.
// Only rows produced by table scans carry one.
func rowLoc(row *value.Row) (storage.TupleLoc, error) {
	if row.Batch == nil {
		return storage.TupleLoc{}, fqerrors.ErrCompile.New("DML over rows without tuple identity")
	}
	return storage.TupleLoc{
		TileGroup: row.Batch.TileGroupID,
		Offset:    row.Batch.StartOffset + row.Offset,
	}, nil
}

// produceInsert copies each incoming row into a fresh tuple slot. Rows
// come from the literal tuple list or from a child plan; either way
// num_processed advances per inserted row and nothing flows to the
// consumer.
func (cc *Context) produceInsert(n *plan.Insert) (ProduceFn, error) {
	table := n.Table
	arity := len(table.Schema())
	counterSlot := cc.numProcessedSlot
	txnSlot := cc.txnSlot

	if n.Child == nil {
		tupleEvals := make([][]codegen.Evaluator, len(n.Tuples))
		for i, tuple := range n.Tuples {
			tupleEvals[i] = make([]codegen.Evaluator, len(tuple))
			for j, e := range tuple {
				ev, err := cc.compileExpr(e)
				if err != nil {
					return nil, err
				}
				tupleEvals[i][j] = ev
			}
		}
		return func(qs *rt.QueryState) error {
			txn, _ := qs.LoadPtr(txnSlot).(*storage.Txn)
			for _, evals := range tupleEvals {
				vals := make([]value.Value, len(evals))
				for j, ev := range evals {
					v, err := ev(qs, nil)
					if err != nil {
						return err
					}
					vals[j] = v
				}
				if err := table.Insert(txn, vals); err != nil {
					return err
				}
				qs.Counter(counterSlot).Add(1)
			}
			return nil
		}, nil
	}

	childAttrs := n.Child.OutputAttrs()
	if len(childAttrs) != arity {
		return nil, fqerrors.ErrCompile.New("insert-select arity mismatch")
	}
	materialize := rowMaterializer(childAttrs)
	insertConsume := func(qs *rt.QueryState, row *value.Row) error {
		txn, _ := qs.LoadPtr(txnSlot).(*storage.Txn)
		if err := table.Insert(txn, materialize(row)); err != nil {
			return err
		}
		qs.Counter(counterSlot).Add(1)
		return nil
	}
	var produce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		produce, err = cc.produce(n.Child, insertConsume)
		return err
	})
	return produce, err
}

// produceUpdate writes a new version of each scanned row with the target
// expressions applied, linking old to new through the storage layer.
func (cc *Context) produceUpdate(n *plan.Update) (ProduceFn, error) {
	table := n.Table
	counterSlot := cc.numProcessedSlot
	txnSlot := cc.txnSlot

	colIDs := make([]int, len(n.SetList))
	evals := make([]codegen.Evaluator, len(n.SetList))
	for i, t := range n.SetList {
		ev, err := cc.compileExpr(t.Expr)
		if err != nil {
			return nil, err
		}
		colIDs[i], evals[i] = t.ColumnID, ev
	}

	updateConsume := func(qs *rt.QueryState, row *value.Row) error {
		loc, err := rowLoc(row)
		if err != nil {
			return err
		}
		set := make(map[int]value.Value, len(evals))
		for i, ev := range evals {
			v, err := ev(qs, row)
			if err != nil {
				return err
			}
			set[colIDs[i]] = v
		}
		txn, _ := qs.LoadPtr(txnSlot).(*storage.Txn)
		if err := table.Update(txn, loc, set); err != nil {
			return err
		}
		qs.Counter(counterSlot).Add(1)
		return nil
	}
	var produce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		produce, err = cc.produce(n.Child, updateConsume)
		return err
	})
	return produce, err
}

// produceDelete marks each scanned row deleted.
func (cc *Context) produceDelete(n *plan.Delete) (ProduceFn, error) {
	table := n.Table
	counterSlot := cc.numProcessedSlot
	txnSlot := cc.txnSlot

	deleteConsume := func(qs *rt.QueryState, row *value.Row) error {
		loc, err := rowLoc(row)
		if err != nil {
			return err
		}
		txn, _ := qs.LoadPtr(txnSlot).(*storage.Txn)
		if err := table.Delete(txn, loc); err != nil {
			return err
		}
		qs.Counter(counterSlot).Add(1)
		return nil
	}
	var produce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		produce, err = cc.produce(n.Child, deleteConsume)
		return err
	})
	return produce, err
}
