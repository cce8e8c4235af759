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

package driver

import (
	"database/sql/driver"
	"io"

	"github.com/fusionql/fusionql/value"
)

// Rows is an iterator over an executed statement's buffered results.
type Rows struct {
	columns []string
	rows    [][]value.Value
	pos     int
}

// Columns returns the names of the result columns.
func (r *Rows) Columns() []string { return r.columns }

// Close releases the buffered rows.
func (r *Rows) Close() error {
	r.rows = nil
	return nil
}

// Next populates dest with the next row, returning io.EOF at the end.
func (r *Rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	row := r.rows[r.pos]
	r.pos++
	for i := range row {
		dest[i] = toDriverValue(row[i])
	}
	return nil
}
