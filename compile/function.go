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
	"strconv"
	"strings"

	"github.com/fusionql/fusionql/codegen"
	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// builtin is one registered scalar function: the host proxy plus its
// accepted argument range, checked at compile time.
type builtin struct {
	proxy   codegen.Proxy
	minArgs int
	maxArgs int
}

// builtins is the scalar-function registry, grouped into the string, date,
// and decimal families (function_string.go, function_date.go,
// function_decimal.go).
var builtins = map[string]builtin{}

func registerBuiltin(name string, minArgs, maxArgs int, proxy codegen.Proxy) {
	builtins[name] = builtin{proxy: proxy, minArgs: minArgs, maxArgs: maxArgs}
}

func (cc *Context) compileFunctionCall(x *expr.FunctionCall) (codegen.Evaluator, error) {
	name := strings.ToLower(x.Name)
	fn, ok := builtins[name]
	if !ok {
		return nil, fqerrors.ErrUnsupportedPlan.New("scalar function " + x.Name)
	}
	if len(x.Args) < fn.minArgs || len(x.Args) > fn.maxArgs {
		return nil, fqerrors.ErrType.New(
			name + " takes " + strconv.Itoa(fn.minArgs) + ".." + strconv.Itoa(fn.maxArgs) +
				" arguments, got " + strconv.Itoa(len(x.Args)))
	}
	args := make([]codegen.Evaluator, len(x.Args))
	for i, a := range x.Args {
		ev, err := cc.compileExpr(a)
		if err != nil {
			return nil, err
		}
		args[i] = ev
	}
	resultType := x.ResultType
	// NULL in any argument short-circuits to a NULL result before the
	// host proxy runs.
	nullAware := codegen.Proxy(func(qs *runtime.QueryState, vals []value.Value) (value.Value, error) {
		for _, v := range vals {
			if v.Null {
				return value.Null(resultType), nil
			}
		}
		return fn.proxy(qs, vals)
	})
	return codegen.Call(nullAware, args), nil
}
