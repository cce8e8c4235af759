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

	fusionql "github.com/fusionql/fusionql"
	"github.com/fusionql/fusionql/consumer"
	"github.com/fusionql/fusionql/plan"
)

// Stmt is a prepared statement: a registered plan plus the connection it
// runs on.
type Stmt struct {
	conn *Conn
	name string
	plan *RegisteredPlan
}

// Close does nothing; plans are owned by the catalog.
func (s *Stmt) Close() error { return nil }

// NumInput returns the number of placeholder parameters.
func (s *Stmt) NumInput() int { return len(s.plan.ParamTypes) }

// Exec runs a statement that doesn't return rows, such as an INSERT or
// UPDATE.
func (s *Stmt) Exec(args []driver.Value) (driver.Result, error) {
	params, err := valuesToParams(args, s.plan.ParamTypes)
	if err != nil {
		return nil, err
	}
	txn, autoCommit := s.conn.txnForStatement()
	proc := s.conn.procs.track(s.conn.session, s.name)
	defer s.conn.procs.done(proc)

	res, err := s.conn.catalog.Engine().Execute(s.plan.Plan, txn, params, consumer.NewCounting(), nil)
	if err != nil {
		if autoCommit {
			_ = s.conn.catalog.TxnManager().Abort(txn)
		}
		return nil, err
	}
	if autoCommit {
		if err := s.conn.catalog.TxnManager().Commit(txn); err != nil {
			return nil, err
		}
	}
	return &Result{processed: res.ProcessedRows}, nil
}

// Query runs a statement that returns rows.
func (s *Stmt) Query(args []driver.Value) (driver.Rows, error) {
	params, err := valuesToParams(args, s.plan.ParamTypes)
	if err != nil {
		return nil, err
	}
	txn, autoCommit := s.conn.txnForStatement()
	proc := s.conn.procs.track(s.conn.session, s.name)
	defer s.conn.procs.done(proc)

	// Binding is idempotent; it must run before the sink captures the
	// plan's output attributes.
	if err := plan.PerformBinding(s.plan.Plan); err != nil {
		return nil, err
	}
	sink := consumer.NewBuffering(s.plan.Plan.OutputAttrs())
	var stats fusionql.CompileStats
	_, err = s.conn.catalog.Engine().Execute(s.plan.Plan, txn, params, sink, &stats)
	if err != nil {
		if autoCommit {
			_ = s.conn.catalog.TxnManager().Abort(txn)
		}
		return nil, err
	}
	if autoCommit {
		if err := s.conn.catalog.TxnManager().Commit(txn); err != nil {
			return nil, err
		}
	}
	return &Rows{columns: s.plan.Columns, rows: sink.Rows()}, nil
}
