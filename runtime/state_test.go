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

package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

func TestSlotRegistrationAndAccess(t *testing.T) {
	require := require.New(t)
	sb := NewStateBuilder(0)
	counter := sb.RegisterSlot("rows", SlotCounter, ScopeQuery)
	ptr := sb.RegisterSlot("table", SlotPointer, ScopeQuery)
	val := sb.RegisterSlot("pivot", SlotValue, ScopePipeline)
	desc := sb.Freeze()

	qs := desc.NewQueryState()
	qs.Counter(counter).Add(3)
	qs.StorePtr(ptr, "payload")
	qs.StoreValue(val, value.Int(value.BIGINT, 9))

	require.EqualValues(3, qs.Counter(counter).Load())
	require.Equal("payload", qs.LoadPtr(ptr))
	require.EqualValues(9, qs.LoadValue(val).AsInt64())

	// Pipeline entry resets pipeline-scoped slots only.
	qs.EnterPipeline()
	require.EqualValues(3, qs.Counter(counter).Load())
	require.Equal("payload", qs.LoadPtr(ptr))
	require.True(qs.LoadValue(val).Equal(value.Value{}))
}

func TestRegisterAfterFreezePanics(t *testing.T) {
	sb := NewStateBuilder(0)
	sb.Freeze()
	require.Panics(t, func() {
		sb.RegisterSlot("late", SlotCounter, ScopeQuery)
	})
}

func TestParameterCacheAndTypeCheck(t *testing.T) {
	require := require.New(t)
	sb := NewStateBuilder(2)
	desc := sb.Freeze()
	qs := desc.NewQueryState()

	expected := []value.LogicalType{value.INTEGER, value.VARCHAR}
	require.NoError(qs.BindParams([]value.Value{
		value.Int(value.INTEGER, 7), value.Varchar("x"),
	}, expected))

	v, err := qs.Param(0)
	require.NoError(err)
	require.EqualValues(7, v.AsInt64())

	// Arity and type mismatches surface as parameter errors.
	err = qs.BindParams([]value.Value{value.Int(value.INTEGER, 1)}, expected)
	require.True(fqerrors.ErrParameterType.Is(err))
	err = qs.BindParams([]value.Value{
		value.Varchar("wrong"), value.Varchar("x"),
	}, expected)
	require.True(fqerrors.ErrParameterType.Is(err))

	// A NULL parameter of any declared type binds.
	require.NoError(qs.BindParams([]value.Value{
		value.Null(value.INTEGER), value.Varchar("x"),
	}, expected))
}

func TestCancelFlag(t *testing.T) {
	desc := NewStateBuilder(0).Freeze()
	qs := desc.NewQueryState()
	require.False(t, qs.Cancelled())
	qs.Cancel()
	require.True(t, qs.Cancelled())
	qs.ResetCancel()
	require.False(t, qs.Cancelled())
}
