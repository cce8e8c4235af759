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

package expr

import "github.com/fusionql/fusionql/value"

// ColumnRef names a column by its structural identity — (tuple index,
// column id, table name, column name) — and separately carries the
// AttributeInfo handle PerformBinding installs for *runtime* resolution.
// The two are deliberately distinct: cache equality must hold across two
// structurally identical plans built from separate objects, so it never
// depends on the bound handle.
type ColumnRef struct {
	TupleIdx   int
	ColumnID   int
	TableName  string
	ColumnName string

	// Attr is populated by PerformBinding once this expression's owning
	// operator has run binding; nil before that point.
	Attr value.AttributeInfo
}

func NewColumnRef(tupleIdx, columnID int, tableName, columnName string, t value.LogicalType) *ColumnRef {
	return &ColumnRef{
		TupleIdx:   tupleIdx,
		ColumnID:   columnID,
		TableName:  tableName,
		ColumnName: columnName,
		Attr:       value.AttributeInfo{Name: columnName, Type: t},
	}
}

// Bind installs the AttributeInfo resolved for this column reference by
// PerformBinding. Structural identity (TupleIdx/ColumnID/table/column name)
// is unaffected.
func (c *ColumnRef) Bind(attr value.AttributeInfo) { c.Attr = attr }

func (c *ColumnRef) Kind() Kind              { return KindColumnRef }
func (c *ColumnRef) Children() []Expression  { return nil }
func (c *ColumnRef) Type() value.LogicalType { return c.Attr.Type }
func (c *ColumnRef) String() string          { return c.TableName + "." + c.ColumnName }

func (c *ColumnRef) Hash() uint64 {
	return CombineHash(uint64(KindColumnRef),
		uint64(c.TupleIdx), uint64(c.ColumnID),
		HashString(c.TableName), HashString(c.ColumnName), uint64(c.Attr.Type))
}

func (c *ColumnRef) Equal(other Expression) bool {
	o, ok := other.(*ColumnRef)
	return ok &&
		c.TupleIdx == o.TupleIdx &&
		c.ColumnID == o.ColumnID &&
		c.TableName == o.TableName &&
		c.ColumnName == o.ColumnName &&
		c.Attr.Type == o.Attr.Type
}
