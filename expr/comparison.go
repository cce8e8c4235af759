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

// CmpOp tags the comparison operator of a Comparison node: the six
// ordering comparisons plus LIKE and IN.
type CmpOp int

const (
	Eq CmpOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
	Like
	In
)

func (o CmpOp) String() string {
	switch o {
	case Eq:
		return "="
	case Ne:
		return "<>"
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Like:
		return "LIKE"
	case In:
		return "IN"
	default:
		return "?"
	}
}

// Comparison is a binary comparison, always typed BOOL. IN's Right is an
// ArrayLiteral-shaped constant (see Constant.Val.Type == value.ARRAY);
// every other op takes a scalar Right.
type Comparison struct {
	Op          CmpOp
	Left, Right Expression
}

func NewComparison(op CmpOp, left, right Expression) *Comparison {
	return &Comparison{Op: op, Left: left, Right: right}
}

func (c *Comparison) Kind() Kind              { return KindComparison }
func (c *Comparison) Children() []Expression  { return []Expression{c.Left, c.Right} }
func (c *Comparison) Type() value.LogicalType { return value.BOOL }
func (c *Comparison) String() string {
	return "(" + c.Left.String() + " " + c.Op.String() + " " + c.Right.String() + ")"
}

func (c *Comparison) Hash() uint64 {
	return CombineHash(uint64(KindComparison), uint64(c.Op), c.Left.Hash(), c.Right.Hash())
}

func (c *Comparison) Equal(other Expression) bool {
	o, ok := other.(*Comparison)
	return ok && c.Op == o.Op && c.Left.Equal(o.Left) && c.Right.Equal(o.Right)
}
