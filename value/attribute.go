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

import "sync/atomic"

// AttributeInfo is a late-bound handle naming one logical column position
// within an operator's output schema. Expressions reference columns by
// AttributeInfo (never by raw column id) once PerformBinding has run, which
// is what makes a compiled pipeline position-independent: an operator can
// be re-bound under a new parent without its expressions changing.
type AttributeInfo struct {
	// ID is a process-wide-unique handle, stable for the lifetime of the
	// plan tree that produced it.
	ID int
	// Name is the display name, used only for EXPLAIN-style output and
	// error messages.
	Name string
	// Type is the attribute's logical type.
	Type LogicalType
	// Nullable reports whether the column may hold NULL.
	Nullable bool
}

// Binding maps a child operator's output column id to the AttributeInfo
// handle a parent operator should reference. PerformBinding (package plan)
// binds each child before its parent and keeps these mappings in its own
// map type, not in this struct.
type Binding struct {
	ColumnID int
	Attr     AttributeInfo
}

// attrCounter hands out process-wide-unique AttributeInfo ids for handles
// created outside plan binding (ad-hoc derived rows, standalone
// consumers). Plan binding allocates its own deterministic per-plan ids so
// structurally equal plans bind identically; ids from this counter start
// high enough never to collide with them.
var attrCounter int64 = 1 << 32

// NewAttributeInfo allocates a fresh standalone AttributeInfo handle.
func NewAttributeInfo(name string, t LogicalType, nullable bool) AttributeInfo {
	id := atomic.AddInt64(&attrCounter, 1)
	return AttributeInfo{ID: int(id), Name: name, Type: t, Nullable: nullable}
}
