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

// WhenClause is one ordered (when, then) arm of a Case expression.
type WhenClause struct {
	When Expression // BOOL; a NULL result counts as not-taken
	Then Expression
}

// Case is an ordered if/else-if chain with a mandatory default. ResultType
// is decided at construction time — a mismatch among When/Then/Default
// result types that implicit casts cannot bridge raises a type error at
// compile time.
type Case struct {
	Whens      []WhenClause
	Default    Expression
	ResultType value.LogicalType
}

func NewCase(whens []WhenClause, def Expression, resultType value.LogicalType) *Case {
	return &Case{Whens: whens, Default: def, ResultType: resultType}
}

func (c *Case) Kind() Kind { return KindCase }

func (c *Case) Children() []Expression {
	out := make([]Expression, 0, len(c.Whens)*2+1)
	for _, w := range c.Whens {
		out = append(out, w.When, w.Then)
	}
	out = append(out, c.Default)
	return out
}

func (c *Case) Type() value.LogicalType { return c.ResultType }

func (c *Case) String() string {
	s := "CASE"
	for _, w := range c.Whens {
		s += " WHEN " + w.When.String() + " THEN " + w.Then.String()
	}
	return s + " ELSE " + c.Default.String() + " END"
}

func (c *Case) Hash() uint64 {
	parts := []uint64{uint64(c.ResultType)}
	for _, w := range c.Whens {
		parts = append(parts, w.When.Hash(), w.Then.Hash())
	}
	parts = append(parts, c.Default.Hash())
	return CombineHash(uint64(KindCase), parts...)
}

func (c *Case) Equal(other Expression) bool {
	o, ok := other.(*Case)
	if !ok || len(c.Whens) != len(o.Whens) || c.ResultType != o.ResultType {
		return false
	}
	for i := range c.Whens {
		if !c.Whens[i].When.Equal(o.Whens[i].When) || !c.Whens[i].Then.Equal(o.Whens[i].Then) {
			return false
		}
	}
	return c.Default.Equal(o.Default)
}
