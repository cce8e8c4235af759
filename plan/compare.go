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
	"strings"

	"github.com/fusionql/fusionql/expr"
)

// Compare orders two plan trees three-way: same kind required for a
// payload comparison, cross-kind ties broken on the integer kind tag,
// children compared pairwise. Total within a kind. It is implemented in
// lockstep with Hash and Equal: Compare(a, b) == 0 exactly when
// a.Equal(b), which is what lets the query cache use Hash for bucketing
// and Compare/Equal for the final key test.
func Compare(a, b Plan) int {
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
	ac, bc := a.Children(), b.Children()
	if c := cmpInt(len(ac), len(bc)); c != 0 {
		return c
	}
	for i := range ac {
		if c := Compare(ac[i], bc[i]); c != 0 {
			return c
		}
	}
	return 0
}

func comparePayload(a, b Plan) int {
	switch x := a.(type) {
	case *SeqScan:
		y := b.(*SeqScan)
		if c := cmpUint64(x.Table.OID(), y.Table.OID()); c != 0 {
			return c
		}
		if c := cmpInts(x.ColumnIDs, y.ColumnIDs); c != 0 {
			return c
		}
		return expr.Compare(x.Predicate, y.Predicate)
	case *IndexScan:
		y := b.(*IndexScan)
		if c := cmpUint64(x.Table.OID(), y.Table.OID()); c != 0 {
			return c
		}
		if c := strings.Compare(x.IndexName, y.IndexName); c != 0 {
			return c
		}
		if c := cmpInt(len(x.Keys), len(y.Keys)); c != 0 {
			return c
		}
		for i := range x.Keys {
			if c := cmpInt(x.Keys[i].ColumnID, y.Keys[i].ColumnID); c != 0 {
				return c
			}
			if c := cmpInt(int(x.Keys[i].Op), int(y.Keys[i].Op)); c != 0 {
				return c
			}
			if c := expr.Compare(x.Keys[i].Bound, y.Keys[i].Bound); c != 0 {
				return c
			}
		}
		if c := cmpInts(x.ColumnIDs, y.ColumnIDs); c != 0 {
			return c
		}
		return expr.Compare(x.Predicate, y.Predicate)
	case *Projection:
		y := b.(*Projection)
		if c := cmpInt(len(x.Targets), len(y.Targets)); c != 0 {
			return c
		}
		for i := range x.Targets {
			if c := strings.Compare(x.Targets[i].Name, y.Targets[i].Name); c != 0 {
				return c
			}
			if c := expr.Compare(x.Targets[i].Expr, y.Targets[i].Expr); c != 0 {
				return c
			}
		}
		if c := cmpInt(len(x.DirectMaps), len(y.DirectMaps)); c != 0 {
			return c
		}
		for i := range x.DirectMaps {
			if c := cmpInt(x.DirectMaps[i].OutputColumn, y.DirectMaps[i].OutputColumn); c != 0 {
				return c
			}
			if c := cmpInt(x.DirectMaps[i].ChildColumn, y.DirectMaps[i].ChildColumn); c != 0 {
				return c
			}
		}
		return 0
	case *Limit:
		y := b.(*Limit)
		if c := cmpUint64(x.Offset, y.Offset); c != 0 {
			return c
		}
		return cmpUint64(x.Count, y.Count)
	case *OrderBy:
		y := b.(*OrderBy)
		if c := cmpInt(len(x.Keys), len(y.Keys)); c != 0 {
			return c
		}
		for i := range x.Keys {
			if c := cmpInt(x.Keys[i].ColumnID, y.Keys[i].ColumnID); c != 0 {
				return c
			}
			if c := cmpBool(x.Keys[i].Descending, y.Keys[i].Descending); c != 0 {
				return c
			}
		}
		return 0
	case *Aggregate:
		y := b.(*Aggregate)
		if c := cmpInt(int(x.Mode), int(y.Mode)); c != 0 {
			return c
		}
		if c := cmpInt(len(x.Terms), len(y.Terms)); c != 0 {
			return c
		}
		for i := range x.Terms {
			if c := cmpInt(int(x.Terms[i].Kind), int(y.Terms[i].Kind)); c != 0 {
				return c
			}
			if c := cmpBool(x.Terms[i].Distinct, y.Terms[i].Distinct); c != 0 {
				return c
			}
			if c := cmpInt(int(x.Terms[i].ResultType), int(y.Terms[i].ResultType)); c != 0 {
				return c
			}
			if c := expr.Compare(x.Terms[i].Arg, y.Terms[i].Arg); c != 0 {
				return c
			}
		}
		if c := cmpExprs(x.GroupBy, y.GroupBy); c != 0 {
			return c
		}
		return expr.Compare(x.Having, y.Having)
	case *Hash:
		y := b.(*Hash)
		return cmpExprs(x.Keys, y.Keys)
	case *HashJoin:
		y := b.(*HashJoin)
		if c := cmpInt(int(x.JoinType), int(y.JoinType)); c != 0 {
			return c
		}
		if c := cmpExprs(x.LeftKeys, y.LeftKeys); c != 0 {
			return c
		}
		return expr.Compare(x.Predicate, y.Predicate)
	case *NestedLoopJoin:
		y := b.(*NestedLoopJoin)
		if c := cmpInt(int(x.JoinType), int(y.JoinType)); c != 0 {
			return c
		}
		return expr.Compare(x.Predicate, y.Predicate)
	case *Insert:
		y := b.(*Insert)
		if c := cmpUint64(x.Table.OID(), y.Table.OID()); c != 0 {
			return c
		}
		if c := cmpInt(len(x.Tuples), len(y.Tuples)); c != 0 {
			return c
		}
		for i := range x.Tuples {
			if c := cmpExprs(x.Tuples[i], y.Tuples[i]); c != 0 {
				return c
			}
		}
		return 0
	case *Update:
		y := b.(*Update)
		if c := cmpUint64(x.Table.OID(), y.Table.OID()); c != 0 {
			return c
		}
		if c := cmpInt(len(x.SetList), len(y.SetList)); c != 0 {
			return c
		}
		for i := range x.SetList {
			if c := cmpInt(x.SetList[i].ColumnID, y.SetList[i].ColumnID); c != 0 {
				return c
			}
			if c := expr.Compare(x.SetList[i].Expr, y.SetList[i].Expr); c != 0 {
				return c
			}
		}
		return 0
	case *Delete:
		y := b.(*Delete)
		return cmpUint64(x.Table.OID(), y.Table.OID())
	case *CsvScan:
		y := b.(*CsvScan)
		if c := strings.Compare(x.Path, y.Path); c != 0 {
			return c
		}
		if c := cmpInt(len(x.Types), len(y.Types)); c != 0 {
			return c
		}
		for i := range x.Types {
			if c := cmpInt(int(x.Types[i]), int(y.Types[i])); c != 0 {
				return c
			}
			if c := strings.Compare(x.Names[i], y.Names[i]); c != 0 {
				return c
			}
		}
		if c := cmpInt(int(x.Delimiter), int(y.Delimiter)); c != 0 {
			return c
		}
		if c := cmpInt(int(x.Quote), int(y.Quote)); c != 0 {
			return c
		}
		return cmpInt(int(x.Escape), int(y.Escape))
	case *ExportExternalFile:
		y := b.(*ExportExternalFile)
		if c := strings.Compare(x.Path, y.Path); c != 0 {
			return c
		}
		if c := cmpInt(int(x.Delimiter), int(y.Delimiter)); c != 0 {
			return c
		}
		if c := cmpInt(int(x.Quote), int(y.Quote)); c != 0 {
			return c
		}
		return cmpInt(int(x.Escape), int(y.Escape))
	default:
		return 0
	}
}

func cmpExprs(a, b []expr.Expression) int {
	if c := cmpInt(len(a), len(b)); c != 0 {
		return c
	}
	for i := range a {
		if c := expr.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func cmpInts(a, b []int) int {
	if c := cmpInt(len(a), len(b)); c != 0 {
		return c
	}
	for i := range a {
		if c := cmpInt(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
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

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
