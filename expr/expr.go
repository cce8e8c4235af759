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

// Package expr defines the expression node tree: constants, column
// references, arithmetic, comparisons, logical connectives, CASE, CAST,
// parameter placeholders, aggregate references, and scalar function calls.
// Nodes are immutable once constructed and carry a structural hash so plans
// built from them can be compared for cache equality.
//
// Expression *translators* — the code that turns a node into a compiled
// evaluator closure — live in package compile, not here: this package is
// pure data.
package expr

import "github.com/fusionql/fusionql/value"

// Kind tags the variant of an Expression.
type Kind int

const (
	KindConstant Kind = iota
	KindColumnRef
	KindArithmetic
	KindComparison
	KindConjunction
	KindUnaryMinus
	KindCast
	KindCase
	KindParameter
	KindAggregateRef
	KindFunctionCall
)

func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindColumnRef:
		return "ColumnRef"
	case KindArithmetic:
		return "Arithmetic"
	case KindComparison:
		return "Comparison"
	case KindConjunction:
		return "Conjunction"
	case KindUnaryMinus:
		return "UnaryMinus"
	case KindCast:
		return "Cast"
	case KindCase:
		return "Case"
	case KindParameter:
		return "Parameter"
	case KindAggregateRef:
		return "AggregateRef"
	case KindFunctionCall:
		return "FunctionCall"
	default:
		return "Unknown"
	}
}

// Expression is the common interface every expression node implements.
type Expression interface {
	Kind() Kind
	Children() []Expression
	Type() value.LogicalType
	// Hash returns a structural, type-sensitive hash used as a plan-cache
	// key component.
	Hash() uint64
	// Equal is deep structural equality: same kind, same payload fields,
	// children pairwise equal.
	Equal(other Expression) bool
	String() string
}
