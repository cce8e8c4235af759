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

// Package driver exposes a fusionql engine through database/sql. The
// engine never parses SQL, so statements are *registered plans*: the
// catalog maps statement names to already-constructed plan trees, and
// Prepare resolves a name instead of parsing a query string.
package driver

import (
	"context"
	"database/sql/driver"
	"fmt"
	"sync"

	fusionql "github.com/fusionql/fusionql"
	"github.com/fusionql/fusionql/plan"
	"github.com/fusionql/fusionql/storage"
	"github.com/fusionql/fusionql/value"
)

// Provider resolves data source names to catalogs.
type Provider interface {
	Resolve(name string) (*Catalog, error)
}

// Catalog is one data source: its tables, its registered plans, the
// transaction manager, and the engine executing against them.
type Catalog struct {
	name   string
	engine *fusionql.Engine
	txns   *storage.TxnManager

	mu     sync.RWMutex
	tables map[string]storage.Table
	plans  map[string]*RegisteredPlan
}

// RegisteredPlan is a named, parameterized plan a connection can prepare.
type RegisteredPlan struct {
	Plan       plan.Plan
	ParamTypes []value.LogicalType
	// Columns names the result columns, in output order. Empty for DML.
	Columns []string
}

// NewCatalog builds an empty catalog served by engine.
func NewCatalog(name string, engine *fusionql.Engine) *Catalog {
	return &Catalog{
		name:   name,
		engine: engine,
		txns:   storage.NewTxnManager(),
		tables: map[string]storage.Table{},
		plans:  map[string]*RegisteredPlan{},
	}
}

// Engine returns the executing engine.
func (c *Catalog) Engine() *fusionql.Engine { return c.engine }

// TxnManager returns the catalog's transaction manager.
func (c *Catalog) TxnManager() *storage.TxnManager { return c.txns }

// AddTable registers a table.
func (c *Catalog) AddTable(t storage.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.Name()] = t
}

// Table resolves a table by name.
func (c *Catalog) Table(name string) (storage.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[name]
	if !ok {
		return nil, fmt.Errorf("driver: unknown table %q", name)
	}
	return t, nil
}

// DropTable removes a table and purges every cached plan referencing it.
func (c *Catalog) DropTable(name string) {
	c.mu.Lock()
	t, ok := c.tables[name]
	delete(c.tables, name)
	c.mu.Unlock()
	if ok {
		c.engine.InvalidateTable(t.OID())
	}
}

// RegisterPlan names a plan so connections can prepare it.
func (c *Catalog) RegisterPlan(name string, p *RegisteredPlan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[name] = p
}

// Plan resolves a registered plan by name.
func (c *Catalog) Plan(name string) (*RegisteredPlan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.plans[name]
	if !ok {
		return nil, fmt.Errorf("driver: unknown statement %q", name)
	}
	return p, nil
}

// Driver exposes catalogs as a stdlib SQL driver.
type Driver struct {
	provider Provider
	procs    *processList
}

// New returns a driver using the specified provider.
func New(provider Provider) *Driver {
	return &Driver{provider: provider, procs: newProcessList()}
}

// Open returns a new connection to the data source.
func (d *Driver) Open(name string) (driver.Conn, error) {
	connector, err := d.OpenConnector(name)
	if err != nil {
		return nil, err
	}
	return connector.Connect(context.Background())
}

// OpenConnector resolves the data source once and returns a connector
// that can mint connections against it.
func (d *Driver) OpenConnector(name string) (*Connector, error) {
	catalog, err := d.provider.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &Connector{driver: d, catalog: catalog}, nil
}

// Connector mints connections against a resolved catalog.
type Connector struct {
	driver  *Driver
	catalog *Catalog
}

// Driver returns the connector's driver.
func (c *Connector) Driver() driver.Driver { return c.driver }

// Connect mints a session-carrying connection.
func (c *Connector) Connect(context.Context) (driver.Conn, error) {
	return &Conn{
		catalog: c.catalog,
		session: newSession(c.driver.procs.nextID()),
		procs:   c.driver.procs,
	}, nil
}
