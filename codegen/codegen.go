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

// Package codegen is the engine's IR layer. The "instructions" it emits
// are composed Go closures: each combinator takes compiled sub-evaluators
// and returns a new evaluator with the combination baked in, so the
// per-row cost of an expression is a chain of direct calls with no plan
// interpretation. Arithmetic, comparisons, branches, three-valued logic,
// casts, and proxy calls into host functions are all built here; loops
// belong to the operator translators, which emit them around these
// evaluators.
package codegen

import (
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// Evaluator is one compiled expression: invoked per row with the query
// state and the current row cursor.
type Evaluator func(qs *runtime.QueryState, row *value.Row) (value.Value, error)

// Proxy is a host function callable from generated code.
type Proxy func(qs *runtime.QueryState, args []value.Value) (value.Value, error)

// Const emits a constant load.
func Const(v value.Value) Evaluator {
	return func(*runtime.QueryState, *value.Row) (value.Value, error) { return v, nil }
}

// ColumnRead emits a DeriveValue against the bound attribute.
func ColumnRead(attr value.AttributeInfo) Evaluator {
	return func(_ *runtime.QueryState, row *value.Row) (value.Value, error) {
		return row.DeriveValue(attr), nil
	}
}

// ParamRead emits a read of the i-th parameter through the pipeline-entry
// parameter cache.
func ParamRead(i int, t value.LogicalType) Evaluator {
	return func(qs *runtime.QueryState, _ *value.Row) (value.Value, error) {
		v, err := qs.Param(i)
		if err != nil {
			return value.Value{}, err
		}
		if v.Null {
			return value.Null(t), nil
		}
		return v, nil
	}
}

// RawOp is the non-null-aware core of a binary operator.
type RawOp func(a, b value.Value) (value.Value, error)

// NullPropagate wraps a raw binary operator in NULL propagation: either
// input NULL yields NULL of the result type without invoking the raw op.
func NullPropagate(resultType value.LogicalType, left, right Evaluator, raw RawOp) Evaluator {
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		a, err := left(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		b, err := right(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if a.Null || b.Null {
			return value.Null(resultType), nil
		}
		return raw(a, b)
	}
}

// Branch emits cond ? then : else with a compiled condition. A NULL
// condition takes the else branch.
func Branch(cond, then, els Evaluator) Evaluator {
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		c, err := cond(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if c.IsTrue() {
			return then(qs, row)
		}
		return els(qs, row)
	}
}

// Call emits a call to a host proxy with compiled argument evaluators.
func Call(p Proxy, args []Evaluator) Evaluator {
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		vals := make([]value.Value, len(args))
		for i, a := range args {
			v, err := a(qs, row)
			if err != nil {
				return value.Value{}, err
			}
			vals[i] = v
		}
		return p(qs, vals)
	}
}
