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
	"github.com/fusionql/fusionql/agg"
	"github.com/fusionql/fusionql/codegen"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/plan"
	rt "github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

func aggKind(k plan.AggTermKind) agg.Kind {
	switch k {
	case plan.AggCountStar:
		return agg.CountStar
	case plan.AggCount:
		return agg.Count
	case plan.AggSum:
		return agg.Sum
	case plan.AggMin:
		return agg.Min
	case plan.AggMax:
		return agg.Max
	default:
		return agg.Avg
	}
}

// aggPlanLayout lowers the plan's term list to the engine layout plus the
// compiled argument evaluators.
func (cc *Context) aggPlanLayout(n *plan.Aggregate) (*agg.Layout, []codegen.Evaluator, error) {
	descs := make([]agg.TermDesc, len(n.Terms))
	argEvals := make([]codegen.Evaluator, len(n.Terms))
	for i, t := range n.Terms {
		inputType := value.NULLTYPE
		if t.Arg != nil {
			ev, err := cc.compileExpr(t.Arg)
			if err != nil {
				return nil, nil, err
			}
			argEvals[i] = ev
			inputType = t.Arg.Type()
		}
		descs[i] = agg.TermDesc{
			Kind:       aggKind(t.Kind),
			Distinct:   t.Distinct,
			InputType:  inputType,
			ResultType: t.ResultType,
		}
	}
	return agg.NewLayout(descs), argEvals, nil
}

// produceAggregate compiles both modes. The child always runs as a
// separate pipeline; the parent pipeline emits the finalized rows.
func (cc *Context) produceAggregate(n *plan.Aggregate, consume ConsumeFn) (ProduceFn, error) {
	if n.Mode == plan.AggModePlain && len(n.GroupBy) > 0 {
		return nil, fqerrors.ErrCompile.New("plain aggregate with group-by columns")
	}
	layout, argEvals, err := cc.aggPlanLayout(n)
	if err != nil {
		return nil, err
	}
	attrs := n.OutputAttrs()
	termAttrs := attrs[len(n.GroupBy):]

	// HAVING may reference finalized terms through AggregateRef.
	var having codegen.Evaluator
	if n.Having != nil {
		saved := cc.aggTermAttrs
		cc.aggTermAttrs = termAttrs
		having, err = cc.compileExpr(n.Having)
		cc.aggTermAttrs = saved
		if err != nil {
			return nil, err
		}
	}

	advance := func(qs *rt.QueryState, row *value.Row, buf *agg.Buffer) error {
		for i, ev := range argEvals {
			var v value.Value
			if ev != nil {
				var err error
				if v, err = ev(qs, row); err != nil {
					return err
				}
			}
			layout.Advance(buf, i, v)
		}
		return nil
	}

	emit := func(qs *rt.QueryState, key []value.Value, buf *agg.Buffer) error {
		vals := make([]value.Value, 0, len(attrs))
		vals = append(vals, key...)
		for i := range termAttrs {
			vals = append(vals, layout.Finalize(buf, i))
		}
		row := value.NewDerivedRow(attrs, vals)
		if having != nil {
			v, err := having(qs, row)
			if err != nil {
				return err
			}
			if !v.IsTrue() {
				return nil
			}
		}
		return consume(qs, row)
	}

	if n.Mode == plan.AggModePlain {
		return cc.produceGlobalAgg(n, layout, advance, emit)
	}
	return cc.produceGroupedAgg(n, layout, advance, emit)
}

func (cc *Context) produceGlobalAgg(
	n *plan.Aggregate,
	layout *agg.Layout,
	advance func(*rt.QueryState, *value.Row, *agg.Buffer) error,
	emit func(*rt.QueryState, []value.Value, *agg.Buffer) error,
) (ProduceFn, error) {
	slot := cc.sb.RegisterSlot("agg_buffer", rt.SlotPointer, rt.ScopeQuery)
	cc.AddInit(func(qs *rt.QueryState) error {
		qs.StorePtr(slot, layout.NewBuffer())
		return nil
	})
	cc.AddTeardown(func(qs *rt.QueryState) { qs.StorePtr(slot, nil) })

	fill := func(qs *rt.QueryState, row *value.Row) error {
		return advance(qs, row, qs.LoadPtr(slot).(*agg.Buffer))
	}
	var fillProduce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		fillProduce, err = cc.produce(n.Child, fill)
		return err
	})
	if err != nil {
		return nil, err
	}
	cc.DeclareAuxProducer(fillProduce)

	return func(qs *rt.QueryState) error {
		buf, ok := qs.LoadPtr(slot).(*agg.Buffer)
		if !ok {
			return fqerrors.ErrCompile.New("aggregate buffer missing from query state")
		}
		return emit(qs, nil, buf)
	}, nil
}

func (cc *Context) produceGroupedAgg(
	n *plan.Aggregate,
	layout *agg.Layout,
	advance func(*rt.QueryState, *value.Row, *agg.Buffer) error,
	emit func(*rt.QueryState, []value.Value, *agg.Buffer) error,
) (ProduceFn, error) {
	groupEvals := make([]codegen.Evaluator, len(n.GroupBy))
	for i, g := range n.GroupBy {
		ev, err := cc.compileExpr(g)
		if err != nil {
			return nil, err
		}
		groupEvals[i] = ev
	}

	slot := cc.sb.RegisterSlot("agg_groups", rt.SlotPointer, rt.ScopeQuery)
	cc.AddInit(func(qs *rt.QueryState) error {
		qs.StorePtr(slot, agg.NewGroupedTable(layout))
		return nil
	})
	cc.AddTeardown(func(qs *rt.QueryState) {
		if g, ok := qs.LoadPtr(slot).(*agg.GroupedTable); ok && g != nil {
			g.Clear()
		}
		qs.StorePtr(slot, nil)
	})

	fill := func(qs *rt.QueryState, row *value.Row) error {
		key := make([]value.Value, len(groupEvals))
		for i, ev := range groupEvals {
			v, err := ev(qs, row)
			if err != nil {
				return err
			}
			key[i] = v
		}
		g := qs.LoadPtr(slot).(*agg.GroupedTable)
		return advance(qs, row, g.ProbeOrInsert(key))
	}
	var fillProduce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		fillProduce, err = cc.produce(n.Child, fill)
		return err
	})
	if err != nil {
		return nil, err
	}
	cc.DeclareAuxProducer(fillProduce)

	return func(qs *rt.QueryState) error {
		g, ok := qs.LoadPtr(slot).(*agg.GroupedTable)
		if !ok {
			return fqerrors.ErrCompile.New("group table missing from query state")
		}
		return g.Iterate(func(key []value.Value, buf *agg.Buffer) error {
			if qs.Cancelled() {
				return nil
			}
			return emit(qs, key, buf)
		})
	}, nil
}
