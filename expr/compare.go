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

package expr

import (
	"strings"

	"github.com/fusionql/fusionql/value"
)

// Compare orders two expression trees three-way. Total within a kind;
// across kinds the integer kind tag breaks the tie. nil sorts before any
// expression. Drives the plan comparator's cache-key ordering.
func Compare(a, b Expression) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if c := cmpInt(int(a.Kind()), int(b.Kind())); c != 0 {
		return c
	}
	if c := comparePayload(a, b); c != 0 {
		return c
	}
	return compareChildren(a.Children(), b.Children())
}

func compareChildren(a, b []Expression) int {
	if c := cmpInt(len(a), len(b)); c != 0 {
		return c
	}
	for i := range a {
		if c := Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func comparePayload(a, b Expression) int {
	switch x := a.(type) {
	case *Constant:
		y := b.(*Constant)
		return compareConstValues(x.Val, y.Val)
	case *ColumnRef:
		y := b.(*ColumnRef)
		if c := cmpInt(x.TupleIdx, y.TupleIdx); c != 0 {
			return c
		}
		if c := cmpInt(x.ColumnID, y.ColumnID); c != 0 {
			return c
		}
		if c := strings.Compare(x.TableName, y.TableName); c != 0 {
			return c
		}
		if c := strings.Compare(x.ColumnName, y.ColumnName); c != 0 {
			return c
		}
		return cmpInt(int(x.Attr.Type), int(y.Attr.Type))
	case *Arithmetic:
		y := b.(*Arithmetic)
		if c := cmpInt(int(x.Op), int(y.Op)); c != 0 {
			return c
		}
		return cmpInt(int(x.ResultType), int(y.ResultType))
	case *Comparison:
		y := b.(*Comparison)
		return cmpInt(int(x.Op), int(y.Op))
	case *Conjunction:
		y, ok := b.(*Conjunction)
		if !ok {
			// Not shares the Conjunction kind tag; Not sorts after.
			return -1
		}
		return cmpInt(int(x.Op), int(y.Op))
	case *Not:
		if _, ok := b.(*Not); !ok {
			return 1
		}
		return 0
	case *UnaryMinus:
		return 0
	case *Cast:
		y := b.(*Cast)
		return cmpInt(int(x.TargetType), int(y.TargetType))
	case *Case:
		y := b.(*Case)
		return cmpInt(int(x.ResultType), int(y.ResultType))
	case *Parameter:
		y := b.(*Parameter)
		if c := cmpInt(x.Index, y.Index); c != 0 {
			return c
		}
		return cmpInt(int(x.T), int(y.T))
	case *AggregateRef:
		y := b.(*AggregateRef)
		if c := cmpInt(x.TermIndex, y.TermIndex); c != 0 {
			return c
		}
		return cmpInt(int(x.T), int(y.T))
	case *FunctionCall:
		y := b.(*FunctionCall)
		if c := strings.Compare(x.Name, y.Name); c != 0 {
			return c
		}
		return cmpInt(int(x.ResultType), int(y.ResultType))
	default:
		return 0
	}
}

func compareConstValues(a, b value.Value) int {
	if c := cmpInt(int(a.Type), int(b.Type)); c != 0 {
		return c
	}
	if a.Null || b.Null {
		switch {
		case a.Null && b.Null:
			return 0
		case a.Null:
			return -1
		default:
			return 1
		}
	}
	switch a.Type {
	case value.VARCHAR:
		return strings.Compare(a.Str, b.Str)
	case value.VARBINARY:
		return strings.Compare(string(a.Bytes), string(b.Bytes))
	case value.DATE, value.TIMESTAMP:
		switch {
		case a.Time.Before(b.Time):
			return -1
		case a.Time.After(b.Time):
			return 1
		default:
			return 0
		}
	default:
		switch {
		case a.Num < b.Num:
			return -1
		case a.Num > b.Num:
			return 1
		default:
			return 0
		}
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
