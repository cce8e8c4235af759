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

// Package csvreader implements the bulk-ingest record reader: a buffered
// line reader feeding a quote/escape-aware field splitter. The parser is
// fail-fast: any state-machine violation reports the offending line
// number. encoding/csv is not used because it neither exposes raw field
// slices nor enforces the strict after-quote and buffer-cap rules this
// reader guarantees.
package csvreader

import (
	"io"
	"os"
	"strconv"

	"github.com/fusionql/fusionql/fqerrors"
	"github.com/fusionql/fusionql/value"
)

const (
	// initialBufSize is the read buffer size records are assembled
	// through.
	initialBufSize = 64 * 1024
	// maxLineSize caps line-buffer growth for a single record.
	maxLineSize = 1 << 30
)

// Field is one raw field slice of the current record. Valid only for the
// duration of the row callback.
type Field struct {
	Raw []byte
	// Quoted reports whether the field was quote-delimited in the input.
	Quoted bool
}

// Config sets up a Reader.
type Config struct {
	Delimiter byte
	Quote     byte
	Escape    byte
	// Types, when set, fixes the expected field count per record.
	Types []value.LogicalType
}

// RowFn is invoked once per parsed record with the 1-based line number of
// the record's first line.
type RowFn func(line int, fields []Field) error

// Reader reads delimited records from an underlying stream.
type Reader struct {
	src io.Reader
	cfg Config

	buf   []byte
	start int // parse position within buf
	end   int // valid bytes within buf
	eof   bool

	line   int
	fields []Field
	// unescape scratch for fields whose escapes must be collapsed.
	scratch []byte
}

// NewReader wraps src. The zero bytes of cfg default to comma, double
// quote, and double quote (RFC 4180 style doubling).
func NewReader(src io.Reader, cfg Config) *Reader {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ','
	}
	if cfg.Quote == 0 {
		cfg.Quote = '"'
	}
	if cfg.Escape == 0 {
		cfg.Escape = cfg.Quote
	}
	return &Reader{src: src, cfg: cfg, buf: make([]byte, initialBufSize), line: 0}
}

// Open opens path for reading. The caller owns Close on the returned
// file.
func Open(path string, cfg Config) (*Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return NewReader(f, cfg), f, nil
}

// ReadAll drives the parser to end of input, invoking fn per record.
func (r *Reader) ReadAll(fn RowFn) error {
	for {
		ok, err := r.ReadRecord(fn)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}

// ReadRecord parses one record and invokes fn. Returns false at clean end
// of input.
func (r *Reader) ReadRecord(fn RowFn) (bool, error) {
	rec, err := r.nextRecord()
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}
	r.line++
	first := r.line
	// Quoted fields may contain newlines; keep the record's reported line
	// stable while accounting for the lines it spans.
	for _, b := range rec {
		if b == '\n' {
			r.line++
		}
	}
	if err := r.splitRecord(rec, first); err != nil {
		return false, err
	}
	if r.cfg.Types != nil && len(r.fields) != len(r.cfg.Types) {
		return false, fqerrors.ErrCsvParse.New(first,
			"expected "+strconv.Itoa(len(r.cfg.Types))+" fields, got "+strconv.Itoa(len(r.fields)))
	}
	if err := fn(first, r.fields); err != nil {
		return false, err
	}
	return true, nil
}

// nextRecord returns the bytes of the next record without its terminating
// newline, growing the buffer for long lines up to the cap. nil means end
// of input.
func (r *Reader) nextRecord() ([]byte, error) {
	inQuotes := false
	pos := r.start
	for {
		for ; pos < r.end; pos++ {
			c := r.buf[pos]
			switch {
			case inQuotes && c == r.cfg.Escape && pos+1 < r.end && r.buf[pos+1] == r.cfg.Quote:
				pos++ // escaped quote is data
			case c == r.cfg.Quote:
				inQuotes = !inQuotes
			case c == '\n' && !inQuotes:
				rec := r.buf[r.start:pos]
				r.start = pos + 1
				if len(rec) > 0 && rec[len(rec)-1] == '\r' {
					rec = rec[:len(rec)-1]
				}
				return rec, nil
			}
		}
		if r.eof {
			if r.start == r.end {
				return nil, nil
			}
			rec := r.buf[r.start:r.end]
			r.start = r.end
			if len(rec) > 0 && rec[len(rec)-1] == '\r' {
				rec = rec[:len(rec)-1]
			}
			return rec, nil
		}
		if err := r.fill(&pos); err != nil {
			return nil, err
		}
	}
}

// fill reads more input, compacting or growing the buffer as needed. pos
// is adjusted for compaction.
func (r *Reader) fill(pos *int) error {
	if r.start > 0 {
		copy(r.buf, r.buf[r.start:r.end])
		r.end -= r.start
		*pos -= r.start
		r.start = 0
	}
	if r.end == len(r.buf) {
		if len(r.buf) >= maxLineSize {
			return fqerrors.ErrLineTooLong.New(r.line+1, maxLineSize)
		}
		grown := make([]byte, min(len(r.buf)*2, maxLineSize))
		copy(grown, r.buf[:r.end])
		r.buf = grown
	}
	n, err := r.src.Read(r.buf[r.end:])
	r.end += n
	if err == io.EOF {
		r.eof = true
		return nil
	}
	return err
}

// splitRecord runs the per-row field state machine over one record.
func (r *Reader) splitRecord(rec []byte, line int) error {
	r.fields = r.fields[:0]
	pos := 0
	for {
		field, next, quoted, err := r.parseField(rec, pos, line)
		if err != nil {
			return err
		}
		r.fields = append(r.fields, Field{Raw: field, Quoted: quoted})
		if next >= len(rec) {
			// Last field: end of record stands in for the newline check.
			return nil
		}
		// End of a non-final field must be the delimiter.
		if rec[next] != r.cfg.Delimiter {
			return fqerrors.ErrCsvParse.New(line, "expected delimiter after field")
		}
		pos = next + 1
		if pos == len(rec) {
			// Trailing delimiter produces a final empty field.
			r.fields = append(r.fields, Field{})
			return nil
		}
	}
}

// parseField consumes one field starting at pos, returning the field bytes
// and the position of the terminator (delimiter or end of record).
func (r *Reader) parseField(rec []byte, pos, line int) ([]byte, int, bool, error) {
	if pos < len(rec) && rec[pos] == r.cfg.Quote {
		return r.parseQuoted(rec, pos+1, line)
	}
	// Unquoted: read until delimiter or end. A quote inside an unquoted
	// field is plain data.
	i := pos
	for i < len(rec) && rec[i] != r.cfg.Delimiter {
		i++
	}
	return rec[pos:i], i, false, nil
}

func (r *Reader) parseQuoted(rec []byte, pos, line int) ([]byte, int, bool, error) {
	r.scratch = r.scratch[:0]
	i := pos
	for i < len(rec) {
		c := rec[i]
		switch {
		case c == r.cfg.Escape && i+1 < len(rec) && rec[i+1] == r.cfg.Quote:
			r.scratch = append(r.scratch, r.cfg.Quote)
			i += 2
		case c == r.cfg.Quote:
			// After the closing quote the next character must be the
			// delimiter or the end of the record.
			i++
			if i < len(rec) && rec[i] != r.cfg.Delimiter {
				return nil, 0, false, fqerrors.ErrCsvParse.New(line, "unexpected character after closing quote")
			}
			return append([]byte(nil), r.scratch...), i, true, nil
		default:
			r.scratch = append(r.scratch, c)
			i++
		}
	}
	return nil, 0, false, fqerrors.ErrCsvParse.New(line, "unterminated quoted field")
}

// ParseValue converts a raw field to a typed value. An empty unquoted
// field is the empty string for VARCHAR and a parse error for numeric
// types; NULL handling is an opt-in layer above this reader.
func ParseValue(f Field, t value.LogicalType, line int) (value.Value, error) {
	s := string(f.Raw)
	switch t {
	case value.VARCHAR:
		return value.Varchar(s), nil
	case value.BOOL:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return value.Value{}, fqerrors.ErrCsvParse.New(line, "invalid BOOL field "+strconv.Quote(s))
		}
		return value.Bool(b), nil
	case value.DECIMAL:
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Value{}, fqerrors.ErrCsvParse.New(line, "invalid DECIMAL field "+strconv.Quote(s))
		}
		return value.Decimal(n), nil
	case value.TINYINT, value.SMALLINT, value.INTEGER, value.BIGINT:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return value.Value{}, fqerrors.ErrCsvParse.New(line, "invalid integer field "+strconv.Quote(s))
		}
		return value.Int(t, n), nil
	default:
		return value.Value{}, fqerrors.ErrCsvParse.New(line, "unsupported column type "+t.String())
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
