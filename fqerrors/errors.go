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

// Package fqerrors declares the typed error kinds raised by the compiler
// and the generated execution routines.
package fqerrors

import "gopkg.in/src-d/go-errors.v1"

var (
	// ErrUnsupportedPlan is returned when compile() is asked to translate a
	// plan or expression kind it doesn't implement.
	ErrUnsupportedPlan = errors.NewKind("unsupported plan node: %s")

	// ErrCompile wraps a failure during IR generation or JIT lowering.
	// No partial compiled query is ever returned alongside it.
	ErrCompile = errors.NewKind("compile failed: %s")

	// ErrType is raised when no viable operator exists for the given
	// operand types, including failed CASTs and CASE branch mismatches.
	ErrType = errors.NewKind("type error: %s")

	// ErrParameterType is raised at execute time when a bound parameter's
	// runtime type doesn't match the type baked into the compiled plan.
	ErrParameterType = errors.NewKind("parameter %d: expected %s, got %s")

	// ErrArithmetic covers division/modulo by zero and checked overflow.
	ErrArithmetic = errors.NewKind("arithmetic error: %s")

	// ErrCsvParse is raised by the CSV reader on any state-machine
	// violation; Line identifies the offending 1-based input line.
	ErrCsvParse = errors.NewKind("csv parse error at line %d: %s")

	// ErrLineTooLong is raised when a single CSV line exceeds the reader's
	// 1 GiB growth cap before a full record was assembled.
	ErrLineTooLong = errors.NewKind("csv line %d exceeds maximum line length of %d bytes")

	// ErrTransactionAbort propagates an MVCC conflict surfaced by the
	// concurrency manager up through a running pipeline.
	ErrTransactionAbort = errors.NewKind("transaction aborted: %s")
)
