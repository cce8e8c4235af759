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

package storage

import (
	"sync"
	"sync/atomic"

	"github.com/fusionql/fusionql/fqerrors"
)

// TxnStatus tracks the lifecycle of a transaction.
type TxnStatus int

const (
	TxnActive TxnStatus = iota
	TxnCommitted
	TxnAborted
)

// Txn is a snapshot transaction. Tuples committed at or before StartTS are
// visible, plus the transaction's own uncommitted writes. The engine only
// consumes begin/commit/abort and the visibility predicate; concurrency
// control beyond first-deleter-wins is out of scope.
type Txn struct {
	id      uint64
	startTS uint64
	status  TxnStatus

	// commitHooks run at commit time with the assigned commit timestamp;
	// abortHooks undo provisional writes. Both are installed by the
	// storage implementation as the txn writes.
	commitHooks []func(commitTS uint64)
	abortHooks  []func()
}

// ID returns the transaction's unique id.
func (t *Txn) ID() uint64 { return t.id }

// StartTS returns the snapshot timestamp reads are served at.
func (t *Txn) StartTS() uint64 { return t.startTS }

// Status returns the transaction's current lifecycle state.
func (t *Txn) Status() TxnStatus { return t.status }

// OnCommit registers fn to run with the commit timestamp when this
// transaction commits.
func (t *Txn) OnCommit(fn func(commitTS uint64)) { t.commitHooks = append(t.commitHooks, fn) }

// OnAbort registers fn to run if this transaction aborts.
func (t *Txn) OnAbort(fn func()) { t.abortHooks = append(t.abortHooks, fn) }

// TxnManager hands out transactions against a single logical clock. Commit
// timestamps are strictly increasing; a transaction's snapshot is the clock
// value at Begin.
type TxnManager struct {
	clock  atomic.Uint64
	nextID atomic.Uint64

	mu sync.Mutex
}

// NewTxnManager returns a manager with the clock at 1 so that a zero
// begin-timestamp always means "uncommitted".
func NewTxnManager() *TxnManager {
	m := &TxnManager{}
	m.clock.Store(1)
	return m
}

// Begin opens a transaction reading at the current clock value.
func (m *TxnManager) Begin() *Txn {
	return &Txn{
		id:      m.nextID.Add(1),
		startTS: m.clock.Load(),
		status:  TxnActive,
	}
}

// Commit stamps every write of t with a fresh commit timestamp and makes
// them visible to transactions that begin afterwards.
func (m *TxnManager) Commit(t *Txn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.status != TxnActive {
		return fqerrors.ErrTransactionAbort.New("commit of finished transaction")
	}
	commitTS := m.clock.Add(1)
	for _, fn := range t.commitHooks {
		fn(commitTS)
	}
	t.status = TxnCommitted
	t.commitHooks, t.abortHooks = nil, nil
	return nil
}

// Abort rolls back every provisional write of t.
func (m *TxnManager) Abort(t *Txn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.status != TxnActive {
		return fqerrors.ErrTransactionAbort.New("abort of finished transaction")
	}
	for i := len(t.abortHooks) - 1; i >= 0; i-- {
		t.abortHooks[i]()
	}
	t.status = TxnAborted
	t.commitHooks, t.abortHooks = nil, nil
	return nil
}
