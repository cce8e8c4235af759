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
	"sync"
	"sync/atomic"
)

// process is one in-flight statement execution.
type process struct {
	id        uint64
	sessionID uint64
	statement string
}

// processList tracks in-flight statements across every connection of a
// driver, for observability.
type processList struct {
	next atomic.Uint64

	mu    sync.Mutex
	procs map[uint64]*process
}

func newProcessList() *processList {
	return &processList{procs: map[uint64]*process{}}
}

func (l *processList) nextID() uint64 { return l.next.Add(1) }

func (l *processList) track(s *session, statement string) *process {
	p := &process{id: l.nextID(), sessionID: s.id, statement: statement}
	l.mu.Lock()
	l.procs[p.id] = p
	l.mu.Unlock()
	return p
}

func (l *processList) done(p *process) {
	l.mu.Lock()
	delete(l.procs, p.id)
	l.mu.Unlock()
}

// Running returns the statement names currently executing.
func (l *processList) running() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.procs))
	for _, p := range l.procs {
		out = append(out, p.statement)
	}
	return out
}
