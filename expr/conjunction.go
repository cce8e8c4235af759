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

// ConjOp tags AND/OR.
type ConjOp int

const (
	And ConjOp = iota
	Or
)

func (o ConjOp) String() string {
	if o == And {
		return "AND"
	}
	return "OR"
}

// Conjunction is a short-circuit, three-valued-logic AND/OR over two BOOL
// (possibly NULL) operands: NULL AND false = false, NULL OR true = true,
// otherwise NULL.
type Conjunction struct {
	Op          ConjOp
	Left, Right Expression
}

func NewConjunction(op ConjOp, left, right Expression) *Conjunction {
	return &Conjunction{Op: op, Left: left, Right: right}
}

func (c *Conjunction) Kind() Kind              { return KindConjunction }
func (c *Conjunction) Children() []Expression  { return []Expression{c.Left, c.Right} }
func (c *Conjunction) Type() value.LogicalType { return value.BOOL }
func (c *Conjunction) String() string {
	return "(" + c.Left.String() + " " + c.Op.String() + " " + c.Right.String() + ")"
}

func (c *Conjunction) Hash() uint64 {
	return CombineHash(uint64(KindConjunction), uint64(c.Op), c.Left.Hash(), c.Right.Hash())
}

func (c *Conjunction) Equal(other Expression) bool {
	o, ok := other.(*Conjunction)
	return ok && c.Op == o.Op && c.Left.Equal(o.Left) && c.Right.Equal(o.Right)
}

// Not is logical negation. NULL NOT -> NULL.
type Not struct {
	Operand Expression
}

func NewNot(operand Expression) *Not { return &Not{Operand: operand} }

func (n *Not) Kind() Kind              { return KindConjunction }
func (n *Not) Children() []Expression  { return []Expression{n.Operand} }
func (n *Not) Type() value.LogicalType { return value.BOOL }
func (n *Not) String() string          { return "(NOT " + n.Operand.String() + ")" }
func (n *Not) Hash() uint64            { return CombineHash(uint64(KindConjunction), 0xF0, n.Operand.Hash()) }
func (n *Not) Equal(other Expression) bool {
	o, ok := other.(*Not)
	return ok && n.Operand.Equal(o.Operand)
}
