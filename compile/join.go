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
	"github.com/fusionql/fusionql/hashtable"
	"github.com/fusionql/fusionql/plan"
	rt "github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// produceHashJoin compiles the probe side inline in the current pipeline
// and the build side (the right child, a Hash node) as an auxiliary
// producer populating a hash table handed over through a state slot. Only
// inner joins compile; everything else belongs to the interpreting
// fallback outside this engine.
func (cc *Context) produceHashJoin(n *plan.HashJoin, consume ConsumeFn) (ProduceFn, error) {
	if n.JoinType != plan.JoinInner {
		return nil, fqerrors.ErrUnsupportedPlan.New(n.JoinType.String() + " hash join")
	}
	build, ok := n.Right.(*plan.Hash)
	if !ok {
		return nil, fqerrors.ErrUnsupportedPlan.New("hash join build side is not a Hash operator")
	}

	buildAttrs := build.OutputAttrs()
	buildKeyEvals := make([]codegen.Evaluator, len(build.Keys))
	for i, k := range build.Keys {
		ev, err := cc.compileExpr(k)
		if err != nil {
			return nil, err
		}
		buildKeyEvals[i] = ev
	}
	probeKeyEvals := make([]codegen.Evaluator, len(n.LeftKeys))
	for i, k := range n.LeftKeys {
		ev, err := cc.compileExpr(k)
		if err != nil {
			return nil, err
		}
		probeKeyEvals[i] = ev
	}
	if len(buildKeyEvals) != len(probeKeyEvals) {
		return nil, fqerrors.ErrCompile.New("hash join key arity mismatch")
	}
	var pred codegen.Evaluator
	if n.Predicate != nil {
		var err error
		if pred, err = cc.compileExpr(n.Predicate); err != nil {
			return nil, err
		}
	}

	slot := cc.sb.RegisterSlot("join_table", rt.SlotPointer, rt.ScopeQuery)
	cc.AddInit(func(qs *rt.QueryState) error {
		qs.StorePtr(slot, hashtable.New())
		return nil
	})
	cc.AddTeardown(func(qs *rt.QueryState) {
		if ht, ok := qs.LoadPtr(slot).(*hashtable.Table); ok && ht != nil {
			ht.Clear()
		}
		qs.StorePtr(slot, nil)
	})

	materialize := rowMaterializer(buildAttrs)
	buildConsume := func(qs *rt.QueryState, row *value.Row) error {
		key, ok, err := evalKey(qs, row, buildKeyEvals)
		if err != nil || !ok {
			// NULL keys never match an equi-join; skip them at build.
			return err
		}
		qs.LoadPtr(slot).(*hashtable.Table).Insert(key, materialize(row))
		return nil
	}
	var buildProduce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		buildProduce, err = cc.produce(build.Child, buildConsume)
		return err
	})
	if err != nil {
		return nil, err
	}
	cc.DeclareAuxProducer(buildProduce)

	probeConsume := func(qs *rt.QueryState, row *value.Row) error {
		key, ok, err := evalKey(qs, row, probeKeyEvals)
		if err != nil || !ok {
			return err
		}
		ht := qs.LoadPtr(slot).(*hashtable.Table)
		return ht.Lookup(key, func(v any) error {
			payload := v.([]value.Value)
			joined := row.Fork()
			for i, a := range buildAttrs {
				joined.Publish(a, payload[i])
			}
			if pred != nil {
				v, err := pred(qs, joined)
				if err != nil {
					return err
				}
				if !v.IsTrue() {
					return nil
				}
			}
			return consume(qs, joined)
		})
	}
	return cc.produce(n.Left, probeConsume)
}

// evalKey computes a join key; ok=false flags a NULL component.
func evalKey(qs *rt.QueryState, row *value.Row, evals []codegen.Evaluator) ([]value.Value, bool, error) {
	key := make([]value.Value, len(evals))
	for i, ev := range evals {
		v, err := ev(qs, row)
		if err != nil {
			return nil, false, err
		}
		if v.Null {
			return nil, false, nil
		}
		key[i] = v
	}
	return key, true, nil
}

// produceNestedLoopJoin materializes the right side once into a block,
// then evaluates the predicate for every (left, right) pair as left rows
// stream through.
func (cc *Context) produceNestedLoopJoin(n *plan.NestedLoopJoin, consume ConsumeFn) (ProduceFn, error) {
	if n.JoinType != plan.JoinInner {
		return nil, fqerrors.ErrUnsupportedPlan.New(n.JoinType.String() + " nested-loop join")
	}
	rightAttrs := n.Right.OutputAttrs()
	var pred codegen.Evaluator
	if n.Predicate != nil {
		var err error
		if pred, err = cc.compileExpr(n.Predicate); err != nil {
			return nil, err
		}
	}

	slot := cc.sb.RegisterSlot("nlj_block", rt.SlotPointer, rt.ScopeQuery)
	cc.AddInit(func(qs *rt.QueryState) error {
		qs.StorePtr(slot, &nljBlock{})
		return nil
	})
	cc.AddTeardown(func(qs *rt.QueryState) { qs.StorePtr(slot, nil) })

	materialize := rowMaterializer(rightAttrs)
	fill := func(qs *rt.QueryState, row *value.Row) error {
		b := qs.LoadPtr(slot).(*nljBlock)
		b.rows = append(b.rows, materialize(row))
		return nil
	}
	var fillProduce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		fillProduce, err = cc.produce(n.Right, fill)
		return err
	})
	if err != nil {
		return nil, err
	}
	cc.DeclareAuxProducer(fillProduce)

	probeConsume := func(qs *rt.QueryState, row *value.Row) error {
		b := qs.LoadPtr(slot).(*nljBlock)
		for _, payload := range b.rows {
			joined := row.Fork()
			for i, a := range rightAttrs {
				joined.Publish(a, payload[i])
			}
			if pred != nil {
				v, err := pred(qs, joined)
				if err != nil {
					return err
				}
				if !v.IsTrue() {
					continue
				}
			}
			if err := consume(qs, joined); err != nil {
				return err
			}
		}
		return nil
	}
	return cc.produce(n.Left, probeConsume)
}

// nljBlock is the materialized right side of a nested-loop join.
type nljBlock struct {
	rows [][]value.Value
}
