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
	"github.com/fusionql/fusionql/plan"
	rt "github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// produceProjection evaluates the target-list expressions and publishes
// them as new attributes on each row before forwarding to the parent.
// Direct maps are free: the child's attribute handles pass through
// untouched.
func (cc *Context) produceProjection(n *plan.Projection, consume ConsumeFn) (ProduceFn, error) {
	attrs := n.TargetAttrs()
	evals := make([]codegen.Evaluator, len(n.Targets))
	for i, t := range n.Targets {
		ev, err := cc.compileExpr(t.Expr)
		if err != nil {
			return nil, err
		}
		evals[i] = ev
	}
	projected := func(qs *rt.QueryState, row *value.Row) error {
		// Targets evaluate eagerly so expression failures (division by
		// zero, cast errors) unwind through the pipeline instead of
		// disappearing into a lazy read.
		for i, a := range attrs {
			v, err := evals[i](qs, row)
			if err != nil {
				return err
			}
			row.Publish(a, v)
		}
		return consume(qs, row)
	}
	return cc.produce(n.Child, projected)
}

// produceLimit counts rows and forwards those in (offset, offset+limit].
// In a parallel pipeline the counter is a sequentially consistent atomic;
// serial pipelines use a plain load/add/store. Once the limit is
// satisfied the cooperative cancel flag asks producers to stop; the limit
// itself never terminates its producer.
func (cc *Context) produceLimit(n *plan.Limit, consume ConsumeFn) (ProduceFn, error) {
	// Limit directly over OrderBy fuses into the sorter's top-K mode.
	if ob, ok := n.Child.(*plan.OrderBy); ok {
		topK := n.Offset + n.Count
		inner, err := cc.produceOrderBy(ob, cc.limitConsume(n, consume), topK)
		if err != nil {
			return nil, err
		}
		return inner, nil
	}
	limited := cc.limitConsume(n, consume)
	return cc.produce(n.Child, limited)
}

func (cc *Context) limitConsume(n *plan.Limit, consume ConsumeFn) ConsumeFn {
	slot := cc.sb.RegisterSlot("limit_count", rt.SlotCounter, rt.ScopeQuery)
	offset, count := int64(n.Offset), int64(n.Count)
	if cc.parallel {
		return func(qs *rt.QueryState, row *value.Row) error {
			seen := qs.Counter(slot).Add(1)
			if seen > offset+count {
				qs.Cancel()
				return nil
			}
			if seen <= offset {
				return nil
			}
			if seen == offset+count {
				qs.Cancel()
			}
			return consume(qs, row)
		}
	}
	return func(qs *rt.QueryState, row *value.Row) error {
		c := qs.Counter(slot)
		seen := c.Load() + 1
		c.Store(seen)
		if seen > offset+count {
			qs.Cancel()
			return nil
		}
		if seen <= offset {
			return nil
		}
		if seen == offset+count {
			qs.Cancel()
		}
		return consume(qs, row)
	}
}
