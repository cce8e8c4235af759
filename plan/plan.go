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

// Package plan defines the immutable physical plan tree the compiler
// consumes: a tagged variant over scan, join, aggregate, sort, and DML
// operators, each with structural Hash and Equal. Plans are constructed by
// an external planner/optimizer and handed to the engine as already-built
// trees with stable table/column OIDs; this package never parses SQL.
package plan

import "github.com/fusionql/fusionql/value"

// Kind tags the variant of a Plan node.
type Kind int

const (
	KindSeqScan Kind = iota
	KindIndexScan
	KindProjection
	KindLimit
	KindOrderBy
	KindAggregate
	KindHash
	KindHashJoin
	KindNestedLoopJoin
	KindInsert
	KindUpdate
	KindDelete
	KindCsvScan
	KindExportExternalFile
)

func (k Kind) String() string {
	switch k {
	case KindSeqScan:
		return "SeqScan"
	case KindIndexScan:
		return "IndexScan"
	case KindProjection:
		return "Projection"
	case KindLimit:
		return "Limit"
	case KindOrderBy:
		return "OrderBy"
	case KindAggregate:
		return "Aggregate"
	case KindHash:
		return "Hash"
	case KindHashJoin:
		return "HashJoin"
	case KindNestedLoopJoin:
		return "NestedLoopJoin"
	case KindInsert:
		return "Insert"
	case KindUpdate:
		return "Update"
	case KindDelete:
		return "Delete"
	case KindCsvScan:
		return "CsvScan"
	case KindExportExternalFile:
		return "ExportExternalFile"
	default:
		return "Unknown"
	}
}

// Plan is the common interface every plan node implements. Plans are
// immutable once constructed and may be shared by multiple concurrently
// executing queries, so no method here may mutate node state —
// binding results are attached via the separate OutputAttrs slice of the
// embedded baseAttrs, nil after construction and filled in once by
// PerformBinding before the plan is handed to the compiler, and never
// again.
type Plan interface {
	Kind() Kind
	Children() []Plan
	// OutputAttrs returns this operator's output schema as AttributeInfo
	// handles. Empty/zero-value until PerformBinding has run.
	OutputAttrs() []value.AttributeInfo
	// Hash is a structural, type-sensitive hash over kind, payload, and
	// children.
	Hash() uint64
	// Equal is deep structural equality: same kind, same per-kind payload
	// fields, children pairwise equal.
	Equal(other Plan) bool
	String() string
}

// baseAttrs is embedded by every concrete plan node to hold the
// post-binding output schema without repeating the field everywhere.
type baseAttrs struct {
	attrs []value.AttributeInfo
}

func (b *baseAttrs) OutputAttrs() []value.AttributeInfo { return b.attrs }
func (b *baseAttrs) setAttrs(a []value.AttributeInfo)   { b.attrs = a }
