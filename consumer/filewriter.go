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

package consumer

import (
	"bufio"
	"bytes"
	"os"
	"sync"

	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// ExternalFileWriter streams result rows to a delimited text file, quoting
// fields that contain the delimiter, the quote, or a newline. It backs the
// export operator and is usable directly as a terminal sink.
type ExternalFileWriter struct {
	attrs     []value.AttributeInfo
	path      string
	delimiter byte
	quote     byte
	escape    byte

	mu  sync.Mutex
	f   *os.File
	buf *bufio.Writer
}

// NewExternalFileWriter writes the given columns of each row to path.
func NewExternalFileWriter(attrs []value.AttributeInfo, path string, delimiter, quote, escape byte) *ExternalFileWriter {
	if delimiter == 0 {
		delimiter = ','
	}
	if quote == 0 {
		quote = '"'
	}
	if escape == 0 {
		escape = quote
	}
	return &ExternalFileWriter{attrs: attrs, path: path, delimiter: delimiter, quote: quote, escape: escape}
}

func (w *ExternalFileWriter) Prepare(*runtime.StateBuilder) {}

func (w *ExternalFileWriter) InitializeQueryState(*runtime.QueryState) error {
	f, err := os.Create(w.path)
	if err != nil {
		return err
	}
	w.f = f
	w.buf = bufio.NewWriter(f)
	return nil
}

// TeardownQueryState flushes and closes the file. Teardown never raises;
// a flush failure leaves a truncated file behind, which the caller
// observes through the filesystem, not through the query result.
func (w *ExternalFileWriter) TeardownQueryState(*runtime.QueryState) {
	if w.buf != nil {
		_ = w.buf.Flush()
		w.buf = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
}

func (w *ExternalFileWriter) Consume(_ *runtime.QueryState, row *value.Row) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, a := range w.attrs {
		if i > 0 {
			if err := w.buf.WriteByte(w.delimiter); err != nil {
				return err
			}
		}
		if err := w.writeField(row.DeriveValue(a)); err != nil {
			return err
		}
	}
	return w.buf.WriteByte('\n')
}

func (w *ExternalFileWriter) writeField(v value.Value) error {
	if v.Null {
		return nil // NULL renders as an empty field
	}
	s := v.String()
	if !bytes.ContainsAny([]byte(s), string([]byte{w.delimiter, w.quote, '\n', '\r'})) {
		_, err := w.buf.WriteString(s)
		return err
	}
	if err := w.buf.WriteByte(w.quote); err != nil {
		return err
	}
	for i := 0; i < len(s); i++ {
		if s[i] == w.quote {
			if err := w.buf.WriteByte(w.escape); err != nil {
				return err
			}
		}
		if err := w.buf.WriteByte(s[i]); err != nil {
			return err
		}
	}
	return w.buf.WriteByte(w.quote)
}

func (w *ExternalFileWriter) SupportsParallelExec() bool { return false }
