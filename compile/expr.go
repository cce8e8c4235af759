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
	"github.com/fusionql/fusionql/codegen"
	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

// compileExpr lowers one expression node to an evaluator. Binary
// operators first promote both operands to a common type through the
// implicit-cast table; a missing promotion is a compile-time type error.
func (cc *Context) compileExpr(e expr.Expression) (codegen.Evaluator, error) {
	switch x := e.(type) {
	case *expr.Constant:
		return codegen.Const(x.Val), nil
	case *expr.ColumnRef:
		return codegen.ColumnRead(x.Attr), nil
	case *expr.Parameter:
		if x.Index < 0 || x.Index >= len(cc.paramTypes) {
			return nil, fqerrors.ErrCompile.New("parameter index out of range")
		}
		if cc.paramTypes[x.Index] != x.T {
			return nil, fqerrors.ErrType.New("parameter type disagrees with schema")
		}
		return codegen.ParamRead(x.Index, x.T), nil
	case *expr.Arithmetic:
		return cc.compileArithmetic(x)
	case *expr.Comparison:
		return cc.compileComparison(x)
	case *expr.Conjunction:
		left, err := cc.compileExpr(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := cc.compileExpr(x.Right)
		if err != nil {
			return nil, err
		}
		if x.Op == expr.And {
			return codegen.And3(left, right), nil
		}
		return codegen.Or3(left, right), nil
	case *expr.Not:
		operand, err := cc.compileExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		return codegen.Not3(operand), nil
	case *expr.UnaryMinus:
		// Lowered as 0 - operand with standard null propagation.
		operand, err := cc.compileExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		t := x.Operand.Type()
		if !t.IsNumeric() {
			return nil, fqerrors.ErrType.New("unary minus over " + t.String())
		}
		zero := codegen.Const(value.Value{Type: t})
		return codegen.NullPropagate(t, zero, operand, codegen.ArithRaw(expr.Sub, t)), nil
	case *expr.Cast:
		operand, err := cc.compileExpr(x.Operand)
		if err != nil {
			return nil, err
		}
		return codegen.Cast(operand, x.Operand.Type(), x.TargetType, x.Explicit)
	case *expr.Case:
		return cc.compileCase(x)
	case *expr.AggregateRef:
		if x.TermIndex < 0 || x.TermIndex >= len(cc.aggTermAttrs) {
			return nil, fqerrors.ErrCompile.New("aggregate reference outside an aggregate projection")
		}
		return codegen.ColumnRead(cc.aggTermAttrs[x.TermIndex]), nil
	case *expr.FunctionCall:
		return cc.compileFunctionCall(x)
	default:
		return nil, fqerrors.ErrUnsupportedPlan.New("expression " + e.Kind().String())
	}
}

// promote wraps both operands with implicit casts to their common type.
func (cc *Context) promote(left, right expr.Expression) (codegen.Evaluator, codegen.Evaluator, value.LogicalType, error) {
	l, err := cc.compileExpr(left)
	if err != nil {
		return nil, nil, 0, err
	}
	r, err := cc.compileExpr(right)
	if err != nil {
		return nil, nil, 0, err
	}
	lt, rt := left.Type(), right.Type()
	if lt == rt {
		return l, r, lt, nil
	}
	common, ok := value.Promote(lt, rt)
	if !ok {
		return nil, nil, 0, fqerrors.ErrType.New(
			"no viable operator for " + lt.String() + " and " + rt.String())
	}
	if lt != common {
		if l, err = codegen.Cast(l, lt, common, false); err != nil {
			return nil, nil, 0, err
		}
	}
	if rt != common {
		if r, err = codegen.Cast(r, rt, common, false); err != nil {
			return nil, nil, 0, err
		}
	}
	return l, r, common, nil
}

func (cc *Context) compileArithmetic(x *expr.Arithmetic) (codegen.Evaluator, error) {
	l, r, common, err := cc.promote(x.Left, x.Right)
	if err != nil {
		return nil, err
	}
	if !common.IsNumeric() {
		return nil, fqerrors.ErrType.New("arithmetic over " + common.String())
	}
	resultType := x.ResultType
	if resultType == value.NULLTYPE {
		resultType = common
	}
	ev := codegen.NullPropagate(resultType, l, r, codegen.ArithRaw(x.Op, common))
	if resultType != common {
		return codegen.Cast(ev, common, resultType, false)
	}
	return ev, nil
}

func (cc *Context) compileComparison(x *expr.Comparison) (codegen.Evaluator, error) {
	switch x.Op {
	case expr.Like:
		l, err := cc.compileExpr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := cc.compileExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return codegen.NullPropagate(value.BOOL, l, r, codegen.LikeRaw()), nil
	case expr.In:
		l, err := cc.compileExpr(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := cc.compileExpr(x.Right)
		if err != nil {
			return nil, err
		}
		return codegen.NullPropagate(value.BOOL, l, r, codegen.InRaw()), nil
	default:
		l, r, _, err := cc.promote(x.Left, x.Right)
		if err != nil {
			return nil, err
		}
		return codegen.NullPropagate(value.BOOL, l, r, codegen.CompareRaw(x.Op)), nil
	}
}

// compileCase emits the if/else-if chain. Branch result types must agree
// with the node's result type; a mismatch with no implicit cast is a
// compile-time type error.
func (cc *Context) compileCase(x *expr.Case) (codegen.Evaluator, error) {
	result, err := cc.compileCaseBranch(x.Default, x.ResultType)
	if err != nil {
		return nil, err
	}
	// Build the chain back to front so each when wraps the rest.
	for i := len(x.Whens) - 1; i >= 0; i-- {
		w := x.Whens[i]
		cond, err := cc.compileExpr(w.When)
		if err != nil {
			return nil, err
		}
		if w.When.Type() != value.BOOL {
			return nil, fqerrors.ErrType.New("CASE condition is not BOOL")
		}
		then, err := cc.compileCaseBranch(w.Then, x.ResultType)
		if err != nil {
			return nil, err
		}
		result = codegen.Branch(cond, then, result)
	}
	return result, nil
}

func (cc *Context) compileCaseBranch(e expr.Expression, want value.LogicalType) (codegen.Evaluator, error) {
	ev, err := cc.compileExpr(e)
	if err != nil {
		return nil, err
	}
	if e.Type() == want {
		return ev, nil
	}
	cast, err := codegen.Cast(ev, e.Type(), want, false)
	if err != nil {
		return nil, fqerrors.ErrType.New(
			"CASE branch type " + e.Type().String() + " does not match result type " + want.String())
	}
	return cast, nil
}
