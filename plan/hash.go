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

package plan

import "github.com/fusionql/fusionql/expr"

// combineHash folds per-node payload hashes together with the kind tag and
// child hashes, using the exact mixing function expr.CombineHash uses so
// plan hashes and expression hashes compose under one algorithm, kept in
// lockstep with Equal.
func combineHash(kind Kind, children []Plan, parts ...uint64) uint64 {
	all := make([]uint64, 0, len(parts)+len(children))
	all = append(all, parts...)
	for _, c := range children {
		all = append(all, c.Hash())
	}
	return expr.CombineHash(uint64(kind), all...)
}

func hashString(s string) uint64 { return expr.HashString(s) }

func hashInts(ints []int) uint64 {
	parts := make([]uint64, len(ints))
	for i, v := range ints {
		parts[i] = uint64(v)
	}
	return expr.CombineHash(0x1E, parts...)
}

func childrenEqual(a, b []Plan) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func exprsEqual(a, b []expr.Expression) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func exprEqualOpt(a, b expr.Expression) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

func exprHashOpt(e expr.Expression) uint64 {
	if e == nil {
		return 0
	}
	return e.Hash()
}
