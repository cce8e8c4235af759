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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

func evalConst(t *testing.T, ev Evaluator) value.Value {
	t.Helper()
	v, err := ev(nil, nil)
	require.NoError(t, err)
	return v
}

func TestNullPropagation(t *testing.T) {
	require := require.New(t)
	add := NullPropagate(value.INTEGER,
		Const(value.Null(value.INTEGER)),
		Const(value.Int(value.INTEGER, 5)),
		ArithRaw(expr.Add, value.INTEGER))
	v := evalConst(t, add)
	require.True(v.Null)
	require.Equal(value.INTEGER, v.Type)

	cmp := NullPropagate(value.BOOL,
		Const(value.Int(value.INTEGER, 1)),
		Const(value.Null(value.INTEGER)),
		CompareRaw(expr.Eq))
	require.True(evalConst(t, cmp).Null, "comparison with NULL is NULL, not false")
}

func TestDivideAndModuloByZero(t *testing.T) {
	for _, op := range []expr.ArithOp{expr.Div, expr.Mod} {
		ev := NullPropagate(value.INTEGER,
			Const(value.Int(value.INTEGER, 7)),
			Const(value.Int(value.INTEGER, 0)),
			ArithRaw(op, value.INTEGER))
		_, err := ev(nil, nil)
		require.True(t, fqerrors.ErrArithmetic.Is(err))
	}
}

func TestIntegralDivisionTruncates(t *testing.T) {
	ev := NullPropagate(value.INTEGER,
		Const(value.Int(value.INTEGER, 7)),
		Const(value.Int(value.INTEGER, 2)),
		ArithRaw(expr.Div, value.INTEGER))
	require.EqualValues(t, 3, evalConst(t, ev).AsInt64())
}

func TestThreeValuedLogic(t *testing.T) {
	require := require.New(t)
	null := Const(value.Null(value.BOOL))
	tru := Const(value.Bool(true))
	fls := Const(value.Bool(false))

	require.False(evalConst(t, And3(null, fls)).IsTrue())
	require.False(evalConst(t, And3(null, fls)).Null, "NULL AND false = false")
	require.True(evalConst(t, Or3(null, tru)).IsTrue(), "NULL OR true = true")
	require.True(evalConst(t, And3(null, tru)).Null)
	require.True(evalConst(t, Or3(null, fls)).Null)
	require.True(evalConst(t, Not3(null)).Null)

	// Short circuit: the right side must not run when the left decides.
	bomb := Evaluator(func(*runtime.QueryState, *value.Row) (value.Value, error) {
		panic("short circuit violated")
	})
	require.False(evalConst(t, And3(fls, bomb)).IsTrue())
	require.True(evalConst(t, Or3(tru, bomb)).IsTrue())
}

func TestLikeMatching(t *testing.T) {
	cases := []struct {
		s, pattern string
		want       bool
	}{
		{"hello", "hello", true},
		{"hello", "h%", true},
		{"hello", "%llo", true},
		{"hello", "h_llo", true},
		{"hello", "h_olo", false},
		{"hello", "%", true},
		{"", "%", true},
		{"", "_", false},
		{"abc", "a%c%", true},
	}
	raw := LikeRaw()
	for _, tc := range cases {
		v, err := raw(value.Varchar(tc.s), value.Varchar(tc.pattern))
		require.NoError(t, err)
		require.Equal(t, tc.want, v.IsTrue(), "%q LIKE %q", tc.s, tc.pattern)
	}
}

func TestInList(t *testing.T) {
	require := require.New(t)
	raw := InRaw()

	list := value.Array(value.Int(value.INTEGER, 1), value.Int(value.INTEGER, 2))
	v, err := raw(value.Int(value.INTEGER, 2), list)
	require.NoError(err)
	require.True(v.IsTrue())

	v, err = raw(value.Int(value.INTEGER, 3), list)
	require.NoError(err)
	require.False(v.IsTrue())
	require.False(v.Null)

	withNull := value.Array(value.Int(value.INTEGER, 1), value.Null(value.INTEGER))
	v, err = raw(value.Int(value.INTEGER, 3), withNull)
	require.NoError(err)
	require.True(v.Null, "no match against a NULL-bearing list is NULL")
}

func TestCastTable(t *testing.T) {
	require := require.New(t)

	// Widening is implicit.
	fn, err := LookupCast(value.INTEGER, value.BIGINT, false)
	require.NoError(err)
	v, err := fn(value.Int(value.INTEGER, 7))
	require.NoError(err)
	require.Equal(value.BIGINT, v.Type)

	// Narrowing needs an explicit CAST.
	_, err = LookupCast(value.BIGINT, value.TINYINT, false)
	require.True(fqerrors.ErrType.Is(err))
	fn, err = LookupCast(value.BIGINT, value.TINYINT, true)
	require.NoError(err)
	_, err = fn(value.Int(value.BIGINT, 1000))
	require.True(fqerrors.ErrType.Is(err), "out-of-range cast fails")

	// VARCHAR conversions are explicit both ways.
	fn, err = LookupCast(value.VARCHAR, value.INTEGER, true)
	require.NoError(err)
	v, err = fn(value.Varchar("42"))
	require.NoError(err)
	require.EqualValues(42, v.AsInt64())
	_, err = fn(value.Varchar("nope"))
	require.True(fqerrors.ErrType.Is(err))
}

func TestCompareForSortNullOrdering(t *testing.T) {
	require := require.New(t)
	null := value.Null(value.INTEGER)
	one := value.Int(value.INTEGER, 1)
	require.Equal(1, CompareForSort(null, one), "NULL sorts after non-NULL ascending")
	require.Equal(-1, CompareForSort(one, null))
	require.Equal(0, CompareForSort(null, null))
}
