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

// Command fusionqldemo wires a small table end to end through the engine:
// insert rows, scan with a predicate, aggregate, and print the results.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	fusionql "github.com/fusionql/fusionql"
	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/expr"
	"github.com/fusionql/fusionql/plan"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/storage/memtable"
	"github.com/fusionql/fusionql/value"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fusionqldemo:", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer logger.Sync()

	engine := fusionql.New(fusionql.WithLogger(logger))
	txns := storage.NewTxnManager()

	table := memtable.NewTable("t", storage.Schema{
		{Name: "a", Type: value.INTEGER},
		{Name: "b", Type: value.INTEGER},
		{Name: "c", Type: value.DECIMAL},
		{Name: "d", Type: value.VARCHAR, Nullable: true},
	})

	// Seed 64 rows through the insert operator.
	txn := txns.Begin()
	tuples := make([][]expr.Expression, 64)
	for i := 0; i < 64; i++ {
		tuples[i] = []expr.Expression{
			expr.NewConstant(value.Int(value.INTEGER, int64(10*i))),
			expr.NewConstant(value.Int(value.INTEGER, int64(10*i+1))),
			expr.NewConstant(value.Decimal(float64(10*i + 2))),
			expr.NewConstant(value.Varchar(fmt.Sprintf("%d", 10*i+3))),
		}
	}
	insert := plan.NewInsert(table, tuples, nil)
	res, err := engine.Execute(insert, txn, nil, consumer.NewCounting(), nil)
	if err != nil {
		return err
	}
	if err := txns.Commit(txn); err != nil {
		return err
	}
	fmt.Printf("inserted %d rows\n", res.ProcessedRows)

	// SELECT a, b FROM t WHERE a >= 300 ORDER BY a DESC LIMIT 5
	scan := plan.NewSeqScan(table,
		expr.NewComparison(expr.Ge,
			expr.NewColumnRef(0, 0, "t", "a", value.INTEGER),
			expr.NewConstant(value.Int(value.INTEGER, 300))),
		[]int{0, 1})
	query := plan.NewLimit(0, 5, plan.NewOrderBy([]plan.SortKey{{ColumnID: 0, Descending: true}}, scan))
	if err := plan.PerformBinding(query); err != nil {
		return err
	}

	txn = txns.Begin()
	sink := consumer.NewPrinting(query.OutputAttrs(), os.Stdout)
	var stats fusionql.CompileStats
	if _, err := engine.Execute(query, txn, nil, sink, &stats); err != nil {
		return err
	}
	if err := txns.Commit(txn); err != nil {
		return err
	}
	fmt.Printf("cache hit: %v, cache size: %d\n", stats.CacheHit, engine.Cache().Size())

	// SELECT count(*), max(a) FROM t
	aggPlan := plan.NewAggregate(plan.AggModePlain,
		[]plan.AggTerm{
			{Kind: plan.AggCountStar, ResultType: value.BIGINT},
			{Kind: plan.AggMax, Arg: expr.NewColumnRef(0, 0, "t", "a", value.INTEGER), ResultType: value.INTEGER},
		},
		nil, nil,
		plan.NewSeqScan(table, nil, []int{0}))
	if err := plan.PerformBinding(aggPlan); err != nil {
		return err
	}
	txn = txns.Begin()
	aggSink := consumer.NewPrinting(aggPlan.OutputAttrs(), os.Stdout)
	if _, err := engine.Execute(aggPlan, txn, nil, aggSink, nil); err != nil {
		return err
	}
	return txns.Commit(txn)
}
