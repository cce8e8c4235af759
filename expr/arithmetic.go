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

import "github.com/fusionql/fusionql/value"

// ArithOp tags the arithmetic operator of an Arithmetic node.
type ArithOp int

const (
	Add ArithOp = iota
	Sub
	Mul
	Div
	Mod
)

func (o ArithOp) String() string {
	switch o {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	default:
		return "?"
	}
}

// Arithmetic is a binary +, -, *, /, % expression. Null propagation and
// divide-by-zero detection are applied by the translator (package compile),
// not here — this node is pure structure.
type Arithmetic struct {
	Op          ArithOp
	Left, Right Expression
	ResultType  value.LogicalType
}

func NewArithmetic(op ArithOp, left, right Expression, resultType value.LogicalType) *Arithmetic {
	return &Arithmetic{Op: op, Left: left, Right: right, ResultType: resultType}
}

func (a *Arithmetic) Kind() Kind              { return KindArithmetic }
func (a *Arithmetic) Children() []Expression  { return []Expression{a.Left, a.Right} }
func (a *Arithmetic) Type() value.LogicalType { return a.ResultType }
func (a *Arithmetic) String() string          { return "(" + a.Left.String() + " " + a.Op.String() + " " + a.Right.String() + ")" }

func (a *Arithmetic) Hash() uint64 {
	return CombineHash(uint64(KindArithmetic), uint64(a.Op), a.Left.Hash(), a.Right.Hash(), uint64(a.ResultType))
}

func (a *Arithmetic) Equal(other Expression) bool {
	o, ok := other.(*Arithmetic)
	return ok && a.Op == o.Op && a.ResultType == o.ResultType &&
		a.Left.Equal(o.Left) && a.Right.Equal(o.Right)
}
