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

// UnaryMinus negates a numeric operand. The translator lowers it as an
// arithmetic minus against a zero constant with standard null propagation,
// so this node type carries no special-case behavior of its own.
type UnaryMinus struct {
	Operand Expression
}

func NewUnaryMinus(operand Expression) *UnaryMinus { return &UnaryMinus{Operand: operand} }

func (u *UnaryMinus) Kind() Kind              { return KindUnaryMinus }
func (u *UnaryMinus) Children() []Expression  { return []Expression{u.Operand} }
func (u *UnaryMinus) Type() value.LogicalType { return u.Operand.Type() }
func (u *UnaryMinus) String() string          { return "(-" + u.Operand.String() + ")" }
func (u *UnaryMinus) Hash() uint64            { return CombineHash(uint64(KindUnaryMinus), u.Operand.Hash()) }
func (u *UnaryMinus) Equal(other Expression) bool {
	o, ok := other.(*UnaryMinus)
	return ok && u.Operand.Equal(o.Operand)
}
