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
	"math"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// The decimal function family: sqrt over any numeric operand (integer
// inputs widen to DECIMAL), plus abs.
func init() {
	registerBuiltin("sqrt", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		n := args[0].Num
		if n < 0 {
			return value.Value{}, fqerrors.ErrArithmetic.New("square root of negative number")
		}
		return value.Decimal(math.Sqrt(n)), nil
	})
	registerBuiltin("abs", 1, 1, func(_ *runtime.QueryState, args []value.Value) (value.Value, error) {
		v := args[0]
		v.Num = math.Abs(v.Num)
		return v, nil
	})
}
