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
	"github.com/fusionql/fusionql/sortx"
	"github.com/fusionql/fusionql/value"
)

// produceOrderBy is a pipeline boundary: the auxiliary producer drains
// the child into a sorter; the outer pipeline iterates it in sorted
// order. topK > 0 bounds the sorter to the first topK tuples, the fusion
// a Limit directly above an OrderBy requests.
func (cc *Context) produceOrderBy(n *plan.OrderBy, consume ConsumeFn, topK uint64) (ProduceFn, error) {
	attrs := n.OutputAttrs()
	cmp := sortKeyComparator(n.Keys)

	slot := cc.sb.RegisterSlot("sorter", rt.SlotPointer, rt.ScopeQuery)
	cc.AddInit(func(qs *rt.QueryState) error {
		s := sortx.NewSorter(cmp)
		if topK > 0 {
			s.EnableTopK(int(topK))
		}
		qs.StorePtr(slot, s)
		return nil
	})
	cc.AddTeardown(func(qs *rt.QueryState) {
		qs.StorePtr(slot, nil)
	})

	materialize := rowMaterializer(attrs)
	fill := func(qs *rt.QueryState, row *value.Row) error {
		qs.LoadPtr(slot).(*sortx.Sorter).Append(materialize(row))
		return nil
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
		s, ok := qs.LoadPtr(slot).(*sortx.Sorter)
		if !ok {
			return fqerrors.ErrCompile.New("sorter missing from query state")
		}
		s.Sort()
		return s.Iterate(func(tuple []value.Value) error {
			if qs.Cancelled() {
				return nil
			}
			return consume(qs, value.NewDerivedRow(attrs, tuple))
		})
	}, nil
}

// sortKeyComparator builds the lexicographic comparator for the sort
// keys. NULLs order last on ascending keys and first on descending keys.
func sortKeyComparator(keys []plan.SortKey) sortx.Comparator {
	return func(a, b []value.Value) int {
		for _, k := range keys {
			c := codegen.CompareForSort(a[k.ColumnID], b[k.ColumnID])
			if k.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	}
}
