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

// FunctionCall invokes a named built-in scalar function (e.g. SUBSTR,
// ABS, LOWER) over its argument list. The function registry mapping Name
// to a host implementation lives in package compile; this node is pure
// structure, matching how aggregation terms are similarly name + args
// here and implemented in package agg/compile.
type FunctionCall struct {
	Name       string
	Args       []Expression
	ResultType value.LogicalType
}

func NewFunctionCall(name string, args []Expression, resultType value.LogicalType) *FunctionCall {
	return &FunctionCall{Name: name, Args: args, ResultType: resultType}
}

func (f *FunctionCall) Kind() Kind              { return KindFunctionCall }
func (f *FunctionCall) Children() []Expression  { return f.Args }
func (f *FunctionCall) Type() value.LogicalType { return f.ResultType }

func (f *FunctionCall) String() string {
	s := f.Name + "("
	for i, a := range f.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

func (f *FunctionCall) Hash() uint64 {
	parts := make([]uint64, 0, len(f.Args)+1)
	parts = append(parts, HashString(f.Name))
	for _, a := range f.Args {
		parts = append(parts, a.Hash())
	}
	return CombineHash(uint64(KindFunctionCall), parts...)
}

func (f *FunctionCall) Equal(other Expression) bool {
	o, ok := other.(*FunctionCall)
	if !ok || f.Name != o.Name || len(f.Args) != len(o.Args) || f.ResultType != o.ResultType {
		return false
	}
	for i := range f.Args {
		if !f.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}
