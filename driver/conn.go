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

	"github.com/fusionql/fusionql/storage"
)

// Conn is a connection to a catalog. Each connection carries at most one
// open transaction; statements executed outside an explicit Begin run in
// a transaction of their own.
type Conn struct {
	catalog *Catalog
	session *session
	procs   *processList

	txn *storage.Txn
}

// Prepare resolves a registered plan name and returns a statement over
// it.
func (c *Conn) Prepare(name string) (driver.Stmt, error) {
	p, err := c.catalog.Plan(name)
	if err != nil {
		return nil, err
	}
	return &Stmt{conn: c, name: name, plan: p}, nil
}

// Close ends the connection, aborting any open transaction.
func (c *Conn) Close() error {
	if c.txn != nil && c.txn.Status() == storage.TxnActive {
		err := c.catalog.TxnManager().Abort(c.txn)
		c.txn = nil
		return err
	}
	return nil
}

// Begin opens a transaction on the connection.
func (c *Conn) Begin() (driver.Tx, error) {
	c.txn = c.catalog.TxnManager().Begin()
	return &tx{conn: c}, nil
}

// txnForStatement returns the connection's open transaction, or a fresh
// auto-commit one. autoCommit reports whether the statement owns the commit.
func (c *Conn) txnForStatement() (txn *storage.Txn, autoCommit bool) {
	if c.txn != nil && c.txn.Status() == storage.TxnActive {
		return c.txn, false
	}
	return c.catalog.TxnManager().Begin(), true
}

type tx struct {
	conn *Conn
}

func (t *tx) Commit() error {
	txn := t.conn.txn
	t.conn.txn = nil
	return t.conn.catalog.TxnManager().Commit(txn)
}

func (t *tx) Rollback() error {
	txn := t.conn.txn
	t.conn.txn = nil
	return t.conn.catalog.TxnManager().Abort(txn)
}
