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

// Constant is a literal value baked into the plan. It has no children and
// no dependencies on runtime state.
type Constant struct {
	Val value.Value
}

func NewConstant(v value.Value) *Constant { return &Constant{Val: v} }

func (c *Constant) Kind() Kind                { return KindConstant }
func (c *Constant) Children() []Expression    { return nil }
func (c *Constant) Type() value.LogicalType   { return c.Val.Type }
func (c *Constant) String() string            { return c.Val.String() }
func (c *Constant) Hash() uint64 {
	if c.Val.Null {
		return CombineHash(uint64(KindConstant), uint64(c.Val.Type), 1)
	}
	switch c.Val.Type {
	case value.VARCHAR:
		return CombineHash(uint64(KindConstant), uint64(c.Val.Type), HashString(c.Val.Str))
	case value.VARBINARY:
		return CombineHash(uint64(KindConstant), uint64(c.Val.Type), HashString(string(c.Val.Bytes)))
	default:
		return CombineHash(uint64(KindConstant), uint64(c.Val.Type), HashFloat64(c.Val.Num))
	}
}

func (c *Constant) Equal(other Expression) bool {
	o, ok := other.(*Constant)
	return ok && c.Val.Type == o.Val.Type && c.Val.Equal(o.Val)
}
