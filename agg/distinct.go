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

package agg

import (
	"sort"

	"github.com/fusionql/fusionql/hashtable"
	"github.com/fusionql/fusionql/value"
)

// upgradeThreshold is the sorted-array size past which a distinct set
// switches to a hash table. High-cardinality grouping makes one set per
// group, so the small representation matters more than the big one.
const upgradeThreshold = 64

// distinctSet tracks the values already folded into a DISTINCT term:
// a compact sorted array while small, a hash table once it grows.
type distinctSet struct {
	small []value.Value
	big   *hashtable.Table
}

func newDistinctSet() *distinctSet { return &distinctSet{} }

// insert reports whether v was new.
func (s *distinctSet) insert(v value.Value) bool {
	if s.big != nil {
		_, inserted := s.big.ProbeOrInsert([]value.Value{v}, func() any { return nil })
		return inserted
	}
	i := sort.Search(len(s.small), func(i int) bool {
		return distinctLess(v, s.small[i]) || v.Equal(s.small[i])
	})
	if i < len(s.small) && v.Equal(s.small[i]) {
		return false
	}
	if len(s.small) >= upgradeThreshold {
		s.big = hashtable.New()
		for _, e := range s.small {
			s.big.ProbeOrInsert([]value.Value{e}, func() any { return nil })
		}
		s.small = nil
		s.big.ProbeOrInsert([]value.Value{v}, func() any { return nil })
		return true
	}
	s.small = append(s.small, value.Value{})
	copy(s.small[i+1:], s.small[i:])
	s.small[i] = v
	return true
}

func distinctLess(a, b value.Value) bool {
	if a.Type != b.Type {
		return a.Type < b.Type
	}
	switch a.Type {
	case value.VARCHAR:
		return a.Str < b.Str
	default:
		return a.Num < b.Num
	}
}
