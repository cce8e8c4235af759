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

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// CombineHash folds a sequence of sub-hashes into one structural hash. It is
// exported so package plan can combine expression hashes with plan-payload
// hashes using the exact same mixing function, keeping hash and equality
// in lockstep.
func CombineHash(kind uint64, parts ...uint64) uint64 {
	h := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], kind)
	_, _ = h.Write(buf[:])
	for _, p := range parts {
		binary.LittleEndian.PutUint64(buf[:], p)
		_, _ = h.Write(buf[:])
	}
	return h.Sum64()
}

// HashString hashes a string payload (column names, literal text, ...).
func HashString(s string) uint64 { return xxhash.Sum64String(s) }

// HashFloat64 hashes a float payload bit-for-bit (constants, numeric
// literals).
func HashFloat64(f float64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	return xxhash.Sum64(buf[:])
}
