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

package codegen

import (
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

// LikeRaw implements VARCHAR LIKE pattern with % (any run) and _ (any one
// character) wildcards.
func LikeRaw() RawOp {
	return func(a, b value.Value) (value.Value, error) {
		if a.Type != value.VARCHAR || b.Type != value.VARCHAR {
			return value.Value{}, fqerrors.ErrType.New("LIKE requires VARCHAR operands")
		}
		return value.Bool(likeMatch(a.Str, b.Str)), nil
	}
}

func likeMatch(s, pattern string) bool {
	// Iterative wildcard match with backtracking over the last %.
	var si, pi int
	star, starSi := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '_' || pattern[pi] == s[si]):
			si++
			pi++
		case pi < len(pattern) && pattern[pi] == '%':
			star, starSi = pi, si
			pi++
		case star >= 0:
			starSi++
			si = starSi
			pi = star + 1
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '%' {
		pi++
	}
	return pi == len(pattern)
}

// InRaw implements left IN (list): TRUE on a match, NULL if no match but
// the list contains a NULL, FALSE otherwise.
func InRaw() RawOp {
	return func(a, b value.Value) (value.Value, error) {
		if b.Type != value.ARRAY {
			return value.Value{}, fqerrors.ErrType.New("IN requires an array right-hand side")
		}
		sawNull := false
		for _, e := range b.List {
			if e.Null {
				sawNull = true
				continue
			}
			if c, err := rawCompare(a, e); err == nil && c == 0 {
				return value.Bool(true), nil
			}
		}
		if sawNull {
			return value.Null(value.BOOL), nil
		}
		return value.Bool(false), nil
	}
}
