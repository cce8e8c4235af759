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

import (
	"strconv"

	"github.com/fusionql/fusionql/value"
)

// Parameter reads the Index-th entry of the per-query parameter vector,
// memoized by the runtime parameter cache so each parameter is evaluated
// at most once per pipeline entry.
type Parameter struct {
	Index int
	T     value.LogicalType
}

func NewParameter(index int, t value.LogicalType) *Parameter { return &Parameter{Index: index, T: t} }

func (p *Parameter) Kind() Kind              { return KindParameter }
func (p *Parameter) Children() []Expression  { return nil }
func (p *Parameter) Type() value.LogicalType { return p.T }
func (p *Parameter) String() string          { return "$" + strconv.Itoa(p.Index) }
func (p *Parameter) Hash() uint64 {
	return CombineHash(uint64(KindParameter), uint64(p.Index), uint64(p.T))
}
func (p *Parameter) Equal(other Expression) bool {
	o, ok := other.(*Parameter)
	return ok && p.Index == o.Index && p.T == o.T
}

// AggregateRef resolves to the finalized aggregate cell for TermIndex (the
// position of this aggregate term within its owning Aggregate operator's
// term list). It only ever appears in an aggregate operator's projection
// or HAVING clause.
type AggregateRef struct {
	TermIndex int
	T         value.LogicalType
}

func NewAggregateRef(termIndex int, t value.LogicalType) *AggregateRef {
	return &AggregateRef{TermIndex: termIndex, T: t}
}

func (a *AggregateRef) Kind() Kind              { return KindAggregateRef }
func (a *AggregateRef) Children() []Expression  { return nil }
func (a *AggregateRef) Type() value.LogicalType { return a.T }
func (a *AggregateRef) String() string          { return "agg#" + strconv.Itoa(a.TermIndex) }
func (a *AggregateRef) Hash() uint64 {
	return CombineHash(uint64(KindAggregateRef), uint64(a.TermIndex), uint64(a.T))
}
func (a *AggregateRef) Equal(other Expression) bool {
	o, ok := other.(*AggregateRef)
	return ok && a.TermIndex == o.TermIndex && a.T == o.T
}
