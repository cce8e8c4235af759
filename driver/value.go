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

package driver

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/fusionql/fusionql/value"
)

// valuesToParams marshals driver arguments into the typed parameter
// vector the compiled query expects.
func valuesToParams(args []driver.Value, types []value.LogicalType) ([]value.Value, error) {
	if len(args) != len(types) {
		return nil, fmt.Errorf("driver: expected %d parameters, got %d", len(types), len(args))
	}
	params := make([]value.Value, len(args))
	for i, a := range args {
		v, err := toEngineValue(a, types[i])
		if err != nil {
			return nil, fmt.Errorf("driver: parameter %d: %w", i, err)
		}
		params[i] = v
	}
	return params, nil
}

func toEngineValue(a driver.Value, t value.LogicalType) (value.Value, error) {
	if a == nil {
		return value.Null(t), nil
	}
	switch x := a.(type) {
	case int64:
		if t == value.DECIMAL {
			return value.Decimal(float64(x)), nil
		}
		return value.Int(t, x), nil
	case float64:
		return value.Decimal(x), nil
	case bool:
		return value.Bool(x), nil
	case string:
		return value.Varchar(x), nil
	case []byte:
		return value.Varbinary(x), nil
	case time.Time:
		return value.Timestamp(x), nil
	default:
		return value.Value{}, fmt.Errorf("unsupported argument type %T", a)
	}
}

// toDriverValue converts an engine value back to a database/sql value.
func toDriverValue(v value.Value) driver.Value {
	if v.Null {
		return nil
	}
	switch v.Type {
	case value.BOOL:
		return v.Num != 0
	case value.TINYINT, value.SMALLINT, value.INTEGER, value.BIGINT:
		return v.AsInt64()
	case value.DECIMAL:
		return v.Num
	case value.VARCHAR:
		return v.Str
	case value.VARBINARY:
		return v.Bytes
	case value.DATE, value.TIMESTAMP:
		return v.Time
	default:
		return v.String()
	}
}
