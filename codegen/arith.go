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
	"math"

	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

// ArithRaw returns the raw (non-null-aware) implementation of op producing
// resultType. Division and modulo detect divide-by-zero.
func ArithRaw(op expr.ArithOp, resultType value.LogicalType) RawOp {
	integral := resultType != value.DECIMAL
	return func(a, b value.Value) (value.Value, error) {
		x, y := a.Num, b.Num
		var r float64
		switch op {
		case expr.Add:
			r = x + y
		case expr.Sub:
			r = x - y
		case expr.Mul:
			r = x * y
		case expr.Div:
			if y == 0 {
				return value.Value{}, fqerrors.ErrArithmetic.New("division by zero")
			}
			r = x / y
			if integral {
				r = math.Trunc(r)
			}
		case expr.Mod:
			if y == 0 {
				return value.Value{}, fqerrors.ErrArithmetic.New("modulo by zero")
			}
			r = math.Mod(x, y)
		}
		return value.Value{Type: resultType, Num: r}, nil
	}
}

// CompareRaw returns the raw implementation of a scalar comparison.
func CompareRaw(op expr.CmpOp) RawOp {
	return func(a, b value.Value) (value.Value, error) {
		c, err := rawCompare(a, b)
		if err != nil {
			return value.Value{}, err
		}
		switch op {
		case expr.Eq:
			return value.Bool(c == 0), nil
		case expr.Ne:
			return value.Bool(c != 0), nil
		case expr.Lt:
			return value.Bool(c < 0), nil
		case expr.Le:
			return value.Bool(c <= 0), nil
		case expr.Gt:
			return value.Bool(c > 0), nil
		case expr.Ge:
			return value.Bool(c >= 0), nil
		default:
			return value.Value{}, fqerrors.ErrType.New("comparison operator has no raw form")
		}
	}
}

// rawCompare orders two non-NULL scalars of compatible types.
func rawCompare(a, b value.Value) (int, error) {
	switch {
	case a.Type == value.VARCHAR && b.Type == value.VARCHAR:
		switch {
		case a.Str < b.Str:
			return -1, nil
		case a.Str > b.Str:
			return 1, nil
		default:
			return 0, nil
		}
	case (a.Type == value.DATE || a.Type == value.TIMESTAMP) &&
		(b.Type == value.DATE || b.Type == value.TIMESTAMP):
		switch {
		case a.Time.Before(b.Time):
			return -1, nil
		case a.Time.After(b.Time):
			return 1, nil
		default:
			return 0, nil
		}
	case (a.Type.IsNumeric() || a.Type == value.BOOL) && (b.Type.IsNumeric() || b.Type == value.BOOL):
		switch {
		case a.Num < b.Num:
			return -1, nil
		case a.Num > b.Num:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fqerrors.ErrType.New("no viable comparison for " + a.Type.String() + " and " + b.Type.String())
	}
}

// CompareForSort returns a total 3-way ordering over possibly-NULL values
// for the sorter: NULLs order last ascending (first under a descending
// key, where the caller negates the result).
func CompareForSort(a, b value.Value) int {
	if a.Null || b.Null {
		switch {
		case a.Null && b.Null:
			return 0
		case a.Null:
			return 1
		default:
			return -1
		}
	}
	c, err := rawCompare(a, b)
	if err != nil {
		return 0
	}
	return c
}
