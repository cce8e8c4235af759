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

package compile

import (
	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/csvreader"
	"github.com/fusionql/fusionql/plan"
	rt "github.com/fusionql/fusionql/runtime"
	"github.com/fusionql/fusionql/value"
)

// produceCsvScan drives the CSV record reader as a leaf producer: one
// derived row per record, typed through the scan's column vector.
func (cc *Context) produceCsvScan(n *plan.CsvScan, consume ConsumeFn) (ProduceFn, error) {
	attrs := n.OutputAttrs()
	types := n.Types
	cfg := csvreader.Config{
		Delimiter: n.Delimiter,
		Quote:     n.Quote,
		Escape:    n.Escape,
		Types:     types,
	}
	path := n.Path
	return func(qs *rt.QueryState) error {
		r, f, err := csvreader.Open(path, cfg)
		if err != nil {
			return err
		}
		defer f.Close()
		return r.ReadAll(func(line int, fields []csvreader.Field) error {
			if qs.Cancelled() {
				return nil
			}
			vals := make([]value.Value, len(fields))
			for i, field := range fields {
				v, err := csvreader.ParseValue(field, types[i], line)
				if err != nil {
					return err
				}
				vals[i] = v
			}
			return consume(qs, value.NewDerivedRow(attrs, vals))
		})
	}, nil
}

// produceExport wraps an external-file writer around the child: rows are
// written to the file and forwarded to the parent unchanged.
func (cc *Context) produceExport(n *plan.ExportExternalFile, consume ConsumeFn) (ProduceFn, error) {
	attrs := n.OutputAttrs()
	writer := consumer.NewExternalFileWriter(attrs, n.Path, n.Delimiter, n.Quote, n.Escape)
	cc.AddInit(writer.InitializeQueryState)
	cc.AddTeardown(writer.TeardownQueryState)

	exportConsume := func(qs *rt.QueryState, row *value.Row) error {
		if err := writer.Consume(qs, row); err != nil {
			return err
		}
		return consume(qs, row)
	}
	var produce ProduceFn
	err := cc.serialChild(func() error {
		var err error
		produce, err = cc.produce(n.Child, exportConsume)
		return err
	})
	return produce, err
}
