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

// Package value implements the row/value data model: typed scalars with a
// NULL bit, row batches addressed by (tile-group, offset) pairs, and the
// attribute-info handles that bind expressions to operator output columns.
package value

import "fmt"

// LogicalType tags the SQL-visible type of a Value.
type LogicalType int

const (
	BOOL LogicalType = iota
	TINYINT
	SMALLINT
	INTEGER
	BIGINT
	DECIMAL
	DATE
	TIMESTAMP
	VARCHAR
	VARBINARY
	ARRAY
	NULLTYPE
)

func (t LogicalType) String() string {
	switch t {
	case BOOL:
		return "BOOL"
	case TINYINT:
		return "TINYINT"
	case SMALLINT:
		return "SMALLINT"
	case INTEGER:
		return "INTEGER"
	case BIGINT:
		return "BIGINT"
	case DECIMAL:
		return "DECIMAL"
	case DATE:
		return "DATE"
	case TIMESTAMP:
		return "TIMESTAMP"
	case VARCHAR:
		return "VARCHAR"
	case VARBINARY:
		return "VARBINARY"
	case ARRAY:
		return "ARRAY"
	case NULLTYPE:
		return "NULL"
	default:
		return fmt.Sprintf("LogicalType(%d)", int(t))
	}
}

// IsNumeric reports whether t participates in arithmetic directly.
func (t LogicalType) IsNumeric() bool {
	switch t {
	case TINYINT, SMALLINT, INTEGER, BIGINT, DECIMAL:
		return true
	default:
		return false
	}
}

// rank orders types for implicit-cast promotion: the wider/more general
// type wins. Used by the binary-operator type resolver in package compile.
var rank = map[LogicalType]int{
	BOOL:      0,
	TINYINT:   1,
	SMALLINT:  2,
	INTEGER:   3,
	BIGINT:    4,
	DECIMAL:   5,
	DATE:      6,
	TIMESTAMP: 7,
	VARCHAR:   8,
	VARBINARY: 9,
	ARRAY:     10,
}

// Promote returns the implicit-cast-promoted type of two numeric operands,
// and ok=false if no implicit promotion exists between them.
func Promote(a, b LogicalType) (LogicalType, bool) {
	if a == b {
		return a, true
	}
	if a.IsNumeric() && b.IsNumeric() {
		if rank[a] > rank[b] {
			return a, true
		}
		return b, true
	}
	return NULLTYPE, false
}
