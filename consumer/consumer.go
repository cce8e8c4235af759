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

// Package consumer defines the terminal sink a compiled query pushes its
// result rows into, plus the stock implementations: buffering (tests),
// counting, printing, and an external-file writer.
package consumer

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// Consumer is the terminal sink contract. Prepare runs during compilation
// and may register state slots; InitializeQueryState and
// TeardownQueryState bracket each invocation; Consume is called once per
// result row inside the fused pipeline loop.
type Consumer interface {
	Prepare(sb *runtime.StateBuilder)
	InitializeQueryState(qs *runtime.QueryState) error
	TeardownQueryState(qs *runtime.QueryState)
	Consume(qs *runtime.QueryState, row *value.Row) error

	// SupportsParallelExec opts the whole query into parallel pipelines.
	// Consumers returning true must be safe for concurrent Consume calls.
	SupportsParallelExec() bool
}

// Buffering collects result rows as typed tuples, primarily for tests.
type Buffering struct {
	attrs []value.AttributeInfo

	mu   sync.Mutex
	rows [][]value.Value
}

// NewBuffering buffers the given output columns of each consumed row.
func NewBuffering(attrs []value.AttributeInfo) *Buffering {
	return &Buffering{attrs: attrs}
}

func (b *Buffering) Prepare(*runtime.StateBuilder) {}

func (b *Buffering) InitializeQueryState(*runtime.QueryState) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rows = nil
	return nil
}

func (b *Buffering) TeardownQueryState(*runtime.QueryState) {}

func (b *Buffering) Consume(_ *runtime.QueryState, row *value.Row) error {
	tuple := make([]value.Value, len(b.attrs))
	for i, a := range b.attrs {
		tuple[i] = row.DeriveValue(a)
	}
	b.mu.Lock()
	b.rows = append(b.rows, tuple)
	b.mu.Unlock()
	return nil
}

// SupportsParallelExec is false: buffered rows keep the producing scan's
// iteration order, which parallel tile-group dispatch would scramble.
func (b *Buffering) SupportsParallelExec() bool { return false }

// Rows returns the buffered tuples in consumption order.
func (b *Buffering) Rows() [][]value.Value {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rows
}

// Counting counts consumed rows and nothing else.
type Counting struct {
	n atomic.Int64
}

// NewCounting returns a zeroed counting sink.
func NewCounting() *Counting { return &Counting{} }

func (c *Counting) Prepare(*runtime.StateBuilder) {}

func (c *Counting) InitializeQueryState(*runtime.QueryState) error {
	c.n.Store(0)
	return nil
}

func (c *Counting) TeardownQueryState(*runtime.QueryState) {}

func (c *Counting) Consume(*runtime.QueryState, *value.Row) error {
	c.n.Add(1)
	return nil
}

func (c *Counting) SupportsParallelExec() bool { return true }

// Count returns the number of rows consumed.
func (c *Counting) Count() int64 { return c.n.Load() }

// Printing writes one line per row to an io.Writer, tab-separated.
type Printing struct {
	attrs []value.AttributeInfo
	w     io.Writer

	mu sync.Mutex
}

// NewPrinting prints the given output columns of each row to w.
func NewPrinting(attrs []value.AttributeInfo, w io.Writer) *Printing {
	return &Printing{attrs: attrs, w: w}
}

func (p *Printing) Prepare(*runtime.StateBuilder) {}

func (p *Printing) InitializeQueryState(*runtime.QueryState) error { return nil }

func (p *Printing) TeardownQueryState(*runtime.QueryState) {}

func (p *Printing) Consume(_ *runtime.QueryState, row *value.Row) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, a := range p.attrs {
		if i > 0 {
			if _, err := io.WriteString(p.w, "\t"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(p.w, row.DeriveValue(a).String()); err != nil {
			return err
		}
	}
	_, err := io.WriteString(p.w, "\n")
	return err
}

func (p *Printing) SupportsParallelExec() bool { return false }

// Callback invokes fn per row, for callers embedding the engine.
type Callback struct {
	fn func(row *value.Row) error
}

// NewCallback wraps fn as a consumer.
func NewCallback(fn func(row *value.Row) error) *Callback { return &Callback{fn: fn} }

func (c *Callback) Prepare(*runtime.StateBuilder) {}

func (c *Callback) InitializeQueryState(*runtime.QueryState) error { return nil }

func (c *Callback) TeardownQueryState(*runtime.QueryState) {}

func (c *Callback) Consume(_ *runtime.QueryState, row *value.Row) error { return c.fn(row) }

func (c *Callback) SupportsParallelExec() bool { return false }
