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

// Cast converts Operand's runtime value to TargetType. Whether a given
// (source, target) pair is implicit or requires an explicit CAST is a
// compile-time decision made by the translator's cast table (package
// compile); this node just records the requested conversion.
type Cast struct {
	Operand    Expression
	TargetType value.LogicalType
	Explicit   bool
}

func NewCast(operand Expression, target value.LogicalType, explicit bool) *Cast {
	return &Cast{Operand: operand, TargetType: target, Explicit: explicit}
}

func (c *Cast) Kind() Kind              { return KindCast }
func (c *Cast) Children() []Expression  { return []Expression{c.Operand} }
func (c *Cast) Type() value.LogicalType { return c.TargetType }
func (c *Cast) String() string          { return "CAST(" + c.Operand.String() + " AS " + c.TargetType.String() + ")" }

func (c *Cast) Hash() uint64 {
	return CombineHash(uint64(KindCast), uint64(c.TargetType), c.Operand.Hash())
}

func (c *Cast) Equal(other Expression) bool {
	o, ok := other.(*Cast)
	return ok && c.TargetType == o.TargetType && c.Operand.Equal(o.Operand)
}
