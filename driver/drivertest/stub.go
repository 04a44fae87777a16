// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package drivertest provides an in-memory driver that records every call,
// for testing code built on top of driver.Driver.
package drivertest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"axonflow/connmgr/driver"
	"axonflow/connmgr/schema"
)

// ConnectCall records a single Driver.Connect invocation
type ConnectCall struct {
	URI     string
	Options driver.Options
}

// CompileCall records a single Connection.Model invocation
type CompileCall struct {
	Connection driver.Connection
	Name       string
	Schema     *schema.Schema
}

// Driver is a recording stub implementation of driver.Driver
type Driver struct {
	mu sync.Mutex

	// ConnectErr, when set, is returned by Connect (nothing is recorded as created)
	ConnectErr error
	// CompileErr, when set, is returned by every Connection.Model call
	CompileErr error
	// PingErr, when set, is returned by every Connection.Ping call
	PingErr error

	connects []ConnectCall
	compiles []CompileCall
	created  []*Connection
}

// New creates a stub driver
func New() *Driver {
	return &Driver{}
}

// Name returns "stub"
func (d *Driver) Name() string { return "stub" }

// Connect records the call and returns a fresh Connection
func (d *Driver) Connect(ctx context.Context, uri string, opts driver.Options) (driver.Connection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.connects = append(d.connects, ConnectCall{URI: uri, Options: opts})
	if d.ConnectErr != nil {
		return nil, d.ConnectErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conn := &Connection{
		id:      uuid.NewString(),
		uri:     uri,
		options: opts,
		driver:  d,
	}
	d.created = append(d.created, conn)
	return conn, nil
}

// ConnectCalls returns a copy of all recorded Connect calls
func (d *Driver) ConnectCalls() []ConnectCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]ConnectCall(nil), d.connects...)
}

// CompileCalls returns a copy of all recorded Model calls across connections
func (d *Driver) CompileCalls() []CompileCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]CompileCall(nil), d.compiles...)
}

// Connections returns every connection handed out so far
func (d *Driver) Connections() []*Connection {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Connection(nil), d.created...)
}

// Connection is the stub connection handle
type Connection struct {
	id      string
	uri     string
	options driver.Options
	driver  *Driver

	mu     sync.Mutex
	closed bool
}

// ID uniquely identifies this handle
func (c *Connection) ID() string { return c.id }

// URI returns the connection string
func (c *Connection) URI() string { return c.uri }

// Options returns the options the handle was created with
func (c *Connection) Options() driver.Options { return c.options }

// Model records the compile and returns a new Model
func (c *Connection) Model(name string, s *schema.Schema) (driver.Model, error) {
	d := c.driver
	d.mu.Lock()
	d.compiles = append(d.compiles, CompileCall{Connection: c, Name: name, Schema: s})
	compileErr := d.CompileErr
	d.mu.Unlock()

	if compileErr != nil {
		return nil, compileErr
	}
	return &Model{id: uuid.NewString(), name: name, schema: s, conn: c}, nil
}

// Ping returns the driver's PingErr
func (c *Connection) Ping(ctx context.Context) error {
	c.driver.mu.Lock()
	defer c.driver.mu.Unlock()
	return c.driver.PingErr
}

// Close marks the connection closed
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Closed reports whether Close was called
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Model is the stub compiled model
type Model struct {
	id     string
	name   string
	schema *schema.Schema
	conn   *Connection
}

func (m *Model) ID() string                    { return m.id }
func (m *Model) Name() string                  { return m.name }
func (m *Model) Schema() *schema.Schema        { return m.schema }
func (m *Model) Connection() driver.Connection { return m.conn }
