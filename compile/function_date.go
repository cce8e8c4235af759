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
	"time"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// The date function family: extract(part, timestamp) returns the named
// part of a DATE/TIMESTAMP as DECIMAL. Timezone parts are not supported;
// the value model carries no zone.
func init() {
	registerBuiltin("extract", 2, 2, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		if args[1].Type != value.DATE && args[1].Type != value.TIMESTAMP {
			return value.Value{}, fqerrors.ErrType.New("extract over " + args[1].Type.String())
		}
		part := strings.ToUpper(args[0].Str)
		ts := args[1].Time
		v, err := extractDatePart(part, ts)
		if err != nil {
			return value.Value{}, err
		}
		return value.Decimal(v), nil
	})
}

func extractDatePart(part string, ts time.Time) (float64, error) {
	switch part {
	case "MILLENNIUM":
		return float64((ts.Year()-1)/1000 + 1), nil
	case "CENTURY":
		return float64((ts.Year()-1)/100 + 1), nil
	case "DECADE":
		return float64(ts.Year() / 10), nil
	case "YEAR":
		return float64(ts.Year()), nil
	case "ISOYEAR":
		y, _ := ts.ISOWeek()
		return float64(y), nil
	case "QUARTER":
		return float64((int(ts.Month())-1)/3 + 1), nil
	case "MONTH":
		return float64(ts.Month()), nil
	case "WEEK":
		_, w := ts.ISOWeek()
		return float64(w), nil
	case "DAY":
		return float64(ts.Day()), nil
	case "DOY":
		return float64(ts.YearDay()), nil
	case "DOW":
		// Sunday = 0.
		return float64(ts.Weekday()), nil
	case "ISODOW":
		// Monday = 1, Sunday = 7.
		d := int(ts.Weekday())
		if d == 0 {
			d = 7
		}
		return float64(d), nil
	case "HOUR":
		return float64(ts.Hour()), nil
	case "MINUTE":
		return float64(ts.Minute()), nil
	case "SECOND":
		return float64(ts.Second()) + float64(ts.Nanosecond())/1e9, nil
	case "MILLISECONDS":
		return float64(ts.Second())*1000 + float64(ts.Nanosecond())/1e6, nil
	case "MICROSECONDS":
		return float64(ts.Second())*1e6 + float64(ts.Nanosecond())/1e3, nil
	case "EPOCH":
		return float64(ts.Unix()) + float64(ts.Nanosecond())/1e9, nil
	default:
		return 0, fqerrors.ErrType.New("unknown date part " + part)
	}
}
