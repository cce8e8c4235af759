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

package value

import (
	"fmt"
	"math"
	"time"
)

// Value is a tagged scalar: (type-tag, raw-bits, optional length, NULL bit).
// VARCHAR/VARBINARY store their payload in Str/Bytes and ignore Num; every
// other type stores its payload in Num. DECIMAL is modeled as float64
// rather than an arbitrary-precision type.
type Value struct {
	Type  LogicalType
	Null  bool
	Num   float64
	Str   string
	Bytes []byte
	Time  time.Time
	List  []Value
}

// Null builds a NULL value of the given type. Comparisons and arithmetic
// against it always propagate NULL.
func Null(t LogicalType) Value { return Value{Type: t, Null: true} }

func Bool(b bool) Value {
	if b {
		return Value{Type: BOOL, Num: 1}
	}
	return Value{Type: BOOL, Num: 0}
}

func Int(t LogicalType, n int64) Value { return Value{Type: t, Num: float64(n)} }

func Decimal(f float64) Value { return Value{Type: DECIMAL, Num: f} }

func Varchar(s string) Value { return Value{Type: VARCHAR, Str: s} }

func Varbinary(b []byte) Value { return Value{Type: VARBINARY, Bytes: b} }

func Timestamp(t time.Time) Value { return Value{Type: TIMESTAMP, Time: t} }

// Array builds an ARRAY value, the right-hand side of IN.
func Array(elems ...Value) Value { return Value{Type: ARRAY, List: elems} }

// IsTrue reports whether a BOOL value is non-NULL and true. Used by WHERE
// predicates, where NULL must count as false.
func (v Value) IsTrue() bool {
	return v.Type == BOOL && !v.Null && v.Num != 0
}

// AsInt64 returns the integer interpretation of a numeric value.
func (v Value) AsInt64() int64 { return int64(v.Num) }

// AsFloat64 returns the float interpretation of a numeric value.
func (v Value) AsFloat64() float64 { return v.Num }

func (v Value) String() string {
	if v.Null {
		return "NULL"
	}
	switch v.Type {
	case VARCHAR:
		return v.Str
	case VARBINARY:
		return fmt.Sprintf("%x", v.Bytes)
	case TIMESTAMP, DATE:
		return v.Time.String()
	case BOOL:
		return fmt.Sprintf("%t", v.Num != 0)
	case DECIMAL:
		return fmt.Sprintf("%g", v.Num)
	default:
		if math.Trunc(v.Num) == v.Num {
			return fmt.Sprintf("%d", int64(v.Num))
		}
		return fmt.Sprintf("%g", v.Num)
	}
}

// Equal is raw equality (not SQL three-valued comparison); used by hash
// table keys and DISTINCT sets, where NULL = NULL must hold so NULL keys
// group together.
func (v Value) Equal(o Value) bool {
	if v.Null != o.Null {
		return false
	}
	if v.Null {
		return v.Type == o.Type
	}
	switch v.Type {
	case VARCHAR:
		return v.Str == o.Str
	case VARBINARY:
		return string(v.Bytes) == string(o.Bytes)
	case TIMESTAMP, DATE:
		return v.Time.Equal(o.Time)
	case ARRAY:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	default:
		return v.Num == o.Num
	}
}
