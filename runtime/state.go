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

// Package runtime holds the query-lifetime state model: the named, typed
// slot table translators register into at Prepare time, frozen before code
// generation begins, plus the per-pipeline parameter cache.
package runtime

import (
	"fmt"
	"sync/atomic"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

// SlotKind tags the storage class of one state slot.
type SlotKind int

const (
	// SlotCounter is a 64-bit counter with atomic access, for limit and
	// num-processed counters that parallel pipelines bump concurrently.
	SlotCounter SlotKind = iota
	// SlotPointer holds an opaque pointer to a runtime structure (hash
	// table, sorter, materialization buffer).
	SlotPointer
	// SlotValue holds one typed scalar.
	SlotValue
)

// SlotScope separates query-lifetime slots from pipeline-lifetime slots.
type SlotScope int

const (
	ScopeQuery SlotScope = iota
	// ScopePipeline slots are reset at every pipeline entry.
	ScopePipeline
)

// SlotID is the stable handle a translator gets back from RegisterSlot.
type SlotID int

type slotDesc struct {
	name  string
	kind  SlotKind
	scope SlotScope
}

// StateDesc is the frozen layout of a query-state record. Built once per
// compile by a StateBuilder; shared by every invocation of the compiled
// query.
type StateDesc struct {
	slots     []slotDesc
	numParams int
}

// StateBuilder accumulates slot registrations during Prepare. Freeze
// returns the immutable descriptor; registering after Freeze panics, which
// is a compiler bug, not a user error.
type StateBuilder struct {
	desc   StateDesc
	frozen bool
}

// NewStateBuilder returns a builder for a query taking numParams
// parameters.
func NewStateBuilder(numParams int) *StateBuilder {
	return &StateBuilder{desc: StateDesc{numParams: numParams}}
}

// RegisterSlot appends a slot and returns its stable handle.
func (b *StateBuilder) RegisterSlot(name string, kind SlotKind, scope SlotScope) SlotID {
	if b.frozen {
		panic("runtime: slot registered after state freeze")
	}
	b.desc.slots = append(b.desc.slots, slotDesc{name: name, kind: kind, scope: scope})
	return SlotID(len(b.desc.slots) - 1)
}

// Freeze finalizes the layout. No slot may be added afterwards.
func (b *StateBuilder) Freeze() *StateDesc {
	b.frozen = true
	return &b.desc
}

// QueryState is one invocation's instance of the state record. It is
// thread-local to the invocation except for counter slots, which parallel
// pipelines may bump concurrently.
type QueryState struct {
	desc     *StateDesc
	counters []atomic.Int64
	ptrs     []any
	vals     []value.Value

	params     []value.Value
	paramCache []value.Value
	paramSet   []bool

	// cancelled is the cooperative cancel flag scans poll at batch
	// granularity once a limit has been satisfied.
	cancelled atomic.Bool
}

// NewQueryState allocates a zeroed state record for the frozen layout.
func (d *StateDesc) NewQueryState() *QueryState {
	n := len(d.slots)
	return &QueryState{
		desc:       d,
		counters:   make([]atomic.Int64, n),
		ptrs:       make([]any, n),
		vals:       make([]value.Value, n),
		paramCache: make([]value.Value, d.numParams),
		paramSet:   make([]bool, d.numParams),
	}
}

// BindParams installs the execute-time parameter vector, type-checking
// each entry against expected.
func (s *QueryState) BindParams(params []value.Value, expected []value.LogicalType) error {
	if len(params) != len(expected) {
		return fqerrors.ErrParameterType.New(len(params),
			fmt.Sprintf("%d parameters", len(expected)), fmt.Sprintf("%d", len(params)))
	}
	for i, p := range params {
		if !p.Null && p.Type != expected[i] {
			return fqerrors.ErrParameterType.New(i, expected[i], p.Type)
		}
	}
	s.params = params
	return nil
}

// Param reads the i-th parameter through the pipeline-entry cache, so each
// parameter is materialized at most once per pipeline entry.
func (s *QueryState) Param(i int) (value.Value, error) {
	if i < 0 || i >= len(s.paramCache) {
		return value.Value{}, fqerrors.ErrParameterType.New(i, "bound parameter", "missing")
	}
	if !s.paramSet[i] {
		s.paramCache[i] = s.params[i]
		s.paramSet[i] = true
	}
	return s.paramCache[i], nil
}

// EnterPipeline resets pipeline-lifetime state: pipeline-scoped slots and
// the parameter cache.
func (s *QueryState) EnterPipeline() {
	for i, d := range s.desc.slots {
		if d.scope == ScopePipeline {
			s.counters[i].Store(0)
			s.ptrs[i] = nil
			s.vals[i] = value.Value{}
		}
	}
	for i := range s.paramSet {
		s.paramSet[i] = false
	}
}

// Counter returns the atomic counter backing a SlotCounter slot.
func (s *QueryState) Counter(id SlotID) *atomic.Int64 { return &s.counters[id] }

// LoadPtr reads a SlotPointer slot.
func (s *QueryState) LoadPtr(id SlotID) any { return s.ptrs[id] }

// StorePtr writes a SlotPointer slot.
func (s *QueryState) StorePtr(id SlotID, p any) { s.ptrs[id] = p }

// LoadValue reads a SlotValue slot.
func (s *QueryState) LoadValue(id SlotID) value.Value { return s.vals[id] }

// StoreValue writes a SlotValue slot.
func (s *QueryState) StoreValue(id SlotID, v value.Value) { s.vals[id] = v }

// Cancel raises the cooperative cancel flag.
func (s *QueryState) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether a consumer upstream asked producers to stop.
func (s *QueryState) Cancelled() bool { return s.cancelled.Load() }

// ResetCancel lowers the flag at pipeline entry, so a limit satisfied in
// one pipeline does not starve the next.
func (s *QueryState) ResetCancel() { s.cancelled.Store(false) }
