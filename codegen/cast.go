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

package codegen

import (
	"fmt"
	"math"
	"strconv"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// CastFn converts one non-NULL value to the target type.
type CastFn func(v value.Value) (value.Value, error)

type castKey struct {
	from, to value.LogicalType
}

type castRule struct {
	fn       CastFn
	implicit bool
}

// castTable holds the per-type cast rules. Numeric widenings are implicit;
// narrowing and string conversions require an explicit CAST.
var castTable = map[castKey]castRule{}

var intRanges = map[value.LogicalType][2]float64{
	value.TINYINT:  {math.MinInt8, math.MaxInt8},
	value.SMALLINT: {math.MinInt16, math.MaxInt16},
	value.INTEGER:  {math.MinInt32, math.MaxInt32},
	value.BIGINT:   {math.MinInt64, math.MaxInt64},
}

func init() {
	numeric := []value.LogicalType{value.TINYINT, value.SMALLINT, value.INTEGER, value.BIGINT, value.DECIMAL}
	for i, from := range numeric {
		for j, to := range numeric {
			if from == to {
				continue
			}
			castTable[castKey{from, to}] = castRule{fn: numericCast(to), implicit: j > i}
		}
	}
	for _, from := range numeric {
		castTable[castKey{from, value.VARCHAR}] = castRule{fn: toVarchar, implicit: false}
		castTable[castKey{value.VARCHAR, from}] = castRule{fn: varcharToNumeric(from), implicit: false}
	}
	castTable[castKey{value.BOOL, value.INTEGER}] = castRule{fn: numericCast(value.INTEGER), implicit: false}
	castTable[castKey{value.BOOL, value.VARCHAR}] = castRule{fn: toVarchar, implicit: false}
}

func numericCast(to value.LogicalType) CastFn {
	return func(v value.Value) (value.Value, error) {
		n := v.Num
		if r, ok := intRanges[to]; ok {
			n = math.Trunc(n)
			if n < r[0] || n > r[1] {
				return value.Value{}, fqerrors.ErrType.New(
					fmt.Sprintf("cast of %s out of range for %s", v.String(), to))
			}
		}
		return value.Value{Type: to, Num: n}, nil
	}
}

func toVarchar(v value.Value) (value.Value, error) {
	return value.Varchar(v.String()), nil
}

func varcharToNumeric(to value.LogicalType) CastFn {
	return func(v value.Value) (value.Value, error) {
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return value.Value{}, fqerrors.ErrType.New(
				fmt.Sprintf("cannot cast %q to %s", v.Str, to))
		}
		return numericCast(to)(value.Decimal(f))
	}
}

// LookupCast resolves a (from, to) cast. explicit=false only admits
// implicit promotions; a missing or explicit-only rule is a compile-time
// type error.
func LookupCast(from, to value.LogicalType, explicit bool) (CastFn, error) {
	if from == to {
		return func(v value.Value) (value.Value, error) { return v, nil }, nil
	}
	rule, ok := castTable[castKey{from, to}]
	if !ok {
		return nil, fqerrors.ErrType.New("no cast from " + from.String() + " to " + to.String())
	}
	if !rule.implicit && !explicit {
		return nil, fqerrors.ErrType.New("cast from " + from.String() + " to " + to.String() + " must be explicit")
	}
	return rule.fn, nil
}

// Cast wraps a compiled operand with a cast resolved at compile time.
// NULL casts to NULL of the target type.
func Cast(operand Evaluator, from, to value.LogicalType, explicit bool) (Evaluator, error) {
	fn, err := LookupCast(from, to, explicit)
	if err != nil {
		return nil, err
	}
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		v, err := operand(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if v.Null {
			return value.Null(to), nil
		}
		return fn(v)
	}, nil
}
