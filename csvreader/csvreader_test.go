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

package csvreader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

func TestTypedRecords(t *testing.T) {
	require := require.New(t)

	input := "1,2,3.0,4\n4,5,6.0,7\n8,9,10.0,11\n"
	types := []value.LogicalType{value.INTEGER, value.INTEGER, value.DECIMAL, value.INTEGER}
	r := NewReader(strings.NewReader(input), Config{Types: types})

	var calls int
	err := r.ReadAll(func(line int, fields []Field) error {
		calls++
		require.Equal(calls, line)
		require.Len(fields, 4)
		for i, f := range fields {
			v, err := ParseValue(f, types[i], line)
			require.NoError(err)
			require.False(v.Null)
		}
		return nil
	})
	require.NoError(err)
	require.Equal(3, calls)
}

func TestRawFieldSlices(t *testing.T) {
	require := require.New(t)
	r := NewReader(strings.NewReader("abc,de,f\n"), Config{})
	err := r.ReadAll(func(line int, fields []Field) error {
		require.Equal([]byte("abc"), fields[0].Raw)
		require.Equal([]byte("de"), fields[1].Raw)
		require.Equal([]byte("f"), fields[2].Raw)
		return nil
	})
	require.NoError(err)
}

func TestUnquotedFieldWithInnerQuotes(t *testing.T) {
	require := require.New(t)

	input := `yea he's "cool",1,2` + "\n"
	r := NewReader(strings.NewReader(input), Config{
		Types: []value.LogicalType{value.VARCHAR, value.INTEGER, value.INTEGER},
	})
	var calls int
	err := r.ReadAll(func(line int, fields []Field) error {
		calls++
		require.Equal(`yea he's "cool"`, string(fields[0].Raw))
		require.Equal("1", string(fields[1].Raw))
		require.Equal("2", string(fields[2].Raw))
		return nil
	})
	require.NoError(err)
	require.Equal(1, calls)
}

func TestQuotedFieldsAndEscapes(t *testing.T) {
	require := require.New(t)

	input := "\"a,b\",\"he said \"\"hi\"\"\",plain\n"
	r := NewReader(strings.NewReader(input), Config{})
	err := r.ReadAll(func(line int, fields []Field) error {
		require.Equal("a,b", string(fields[0].Raw))
		require.True(fields[0].Quoted)
		require.Equal(`he said "hi"`, string(fields[1].Raw))
		require.Equal("plain", string(fields[2].Raw))
		require.False(fields[2].Quoted)
		return nil
	})
	require.NoError(err)
}

func TestUnclosedQuoteFails(t *testing.T) {
	r := NewReader(strings.NewReader("1,\"unclosed,3\n"), Config{})
	err := r.ReadAll(func(int, []Field) error { return nil })
	require.True(t, fqerrors.ErrCsvParse.Is(err))
}

func TestJunkAfterClosingQuoteFails(t *testing.T) {
	r := NewReader(strings.NewReader("\"done\"oops,2\n"), Config{})
	err := r.ReadAll(func(int, []Field) error { return nil })
	require.True(t, fqerrors.ErrCsvParse.Is(err))
}

func TestFieldCountMismatchFails(t *testing.T) {
	r := NewReader(strings.NewReader("1,2\n"), Config{
		Types: []value.LogicalType{value.INTEGER, value.INTEGER, value.INTEGER},
	})
	err := r.ReadAll(func(int, []Field) error { return nil })
	require.True(t, fqerrors.ErrCsvParse.Is(err))
}

func TestQuotedNewlineSpansLines(t *testing.T) {
	require := require.New(t)
	r := NewReader(strings.NewReader("\"a\nb\",2\nnext,3\n"), Config{})
	var lines []int
	var firsts []string
	err := r.ReadAll(func(line int, fields []Field) error {
		lines = append(lines, line)
		firsts = append(firsts, string(fields[0].Raw))
		return nil
	})
	require.NoError(err)
	require.Equal([]string{"a\nb", "next"}, firsts)
	// The second record starts after the two lines the first spanned.
	require.Equal([]int{1, 3}, lines)
}

func TestCustomDelimiterAndQuote(t *testing.T) {
	require := require.New(t)
	r := NewReader(strings.NewReader("a|'b|c'|d\n"), Config{Delimiter: '|', Quote: '\'', Escape: '\''})
	err := r.ReadAll(func(line int, fields []Field) error {
		require.Equal("a", string(fields[0].Raw))
		require.Equal("b|c", string(fields[1].Raw))
		require.Equal("d", string(fields[2].Raw))
		return nil
	})
	require.NoError(err)
}

func TestMissingTrailingNewline(t *testing.T) {
	require := require.New(t)
	r := NewReader(strings.NewReader("1,2"), Config{})
	var calls int
	err := r.ReadAll(func(line int, fields []Field) error {
		calls++
		require.Len(fields, 2)
		return nil
	})
	require.NoError(err)
	require.Equal(1, calls)
}

func TestBadIntegerField(t *testing.T) {
	_, err := ParseValue(Field{Raw: []byte("12x")}, value.INTEGER, 7)
	require.True(t, fqerrors.ErrCsvParse.Is(err))
}
