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

package compile

import (
	"strings"

	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// The string function family: ascii, chr, substr, char_length,
// octet_length, concat, repeat, replace, ltrim, rtrim, btrim, plus the
// upper/lower case folders. All propagate NULL from any argument (handled
// by the registry wrapper).
func init() {
	registerBuiltin("ascii", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		s := args[0].Str
		if s == "" {
			return value.Int(value.INTEGER, 0), nil
		}
		return value.Int(value.INTEGER, int64(s[0])), nil
	})
	registerBuiltin("chr", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(string(rune(args[0].AsInt64()))), nil
	})
	registerBuiltin("substr", 2, 3, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		s := args[0].Str
		// 1-based start, as SQL has it.
		start := int(args[1].Num) - 1
		if start < 0 {
			start = 0
		}
		if start > len(s) {
			start = len(s)
		}
		end := len(s)
		if len(args) == 3 {
			if n := int(args[2].Num); n >= 0 && start+n < end {
				end = start + n
			}
		}
		return value.Varchar(s[start:end]), nil
	})
	charLength := func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Int(value.INTEGER, int64(len([]rune(args[0].Str)))), nil
	}
	registerBuiltin("char_length", 1, 1, charLength)
	registerBuiltin("length", 1, 1, charLength)
	registerBuiltin("octet_length", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Int(value.INTEGER, int64(len(args[0].Str))), nil
	})
	registerBuiltin("concat", 2, 2, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(args[0].Str + args[1].Str), nil
	})
	registerBuiltin("repeat", 2, 2, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		n := int(args[1].Num)
		if n < 0 {
			n = 0
		}
		return value.Varchar(strings.Repeat(args[0].Str, n)), nil
	})
	registerBuiltin("replace", 3, 3, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(strings.ReplaceAll(args[0].Str, args[1].Str, args[2].Str)), nil
	})
	// The trims strip the longest run of characters from the cutset; a
	// one-argument call strips spaces.
	registerBuiltin("ltrim", 1, 2, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(strings.TrimLeft(args[0].Str, trimCutset(args))), nil
	})
	registerBuiltin("rtrim", 1, 2, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(strings.TrimRight(args[0].Str, trimCutset(args))), nil
	})
	registerBuiltin("btrim", 1, 2, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(strings.Trim(args[0].Str, trimCutset(args))), nil
	})
	registerBuiltin("upper", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(strings.ToUpper(args[0].Str)), nil
	})
	registerBuiltin("lower", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		return value.Varchar(strings.ToLower(args[0].Str)), nil
	})
}

func trimCutset(args []value.Value) string {
	if len(args) == 2 {
		return args[1].Str
	}
	return " "
}
