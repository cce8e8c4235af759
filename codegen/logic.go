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
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// And3 emits short-circuit three-valued AND: false dominates, then NULL,
// then true. The right operand is not evaluated when the left is false.
func And3(left, right Evaluator) Evaluator {
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		a, err := left(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if !a.Null && !a.IsTrue() {
			return value.Bool(false), nil
		}
		b, err := right(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if !b.Null && !b.IsTrue() {
			return value.Bool(false), nil
		}
		if a.Null || b.Null {
			return value.Null(value.BOOL), nil
		}
		return value.Bool(true), nil
	}
}

// Or3 emits short-circuit three-valued OR: true dominates, then NULL,
// then false.
func Or3(left, right Evaluator) Evaluator {
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		a, err := left(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if a.IsTrue() {
			return value.Bool(true), nil
		}
		b, err := right(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if b.IsTrue() {
			return value.Bool(true), nil
		}
		if a.Null || b.Null {
			return value.Null(value.BOOL), nil
		}
		return value.Bool(false), nil
	}
}

// Not3 emits three-valued NOT: NULL stays NULL.
func Not3(operand Evaluator) Evaluator {
	return func(qs *runtime.QueryState, row *value.Row) (value.Value, error) {
		v, err := operand(qs, row)
		if err != nil {
			return value.Value{}, err
		}
		if v.Null {
			return value.Null(value.BOOL), nil
		}
		return value.Bool(!v.IsTrue()), nil
	}
}
