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

package registry

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"axonflow/connmgr/driver"
	"axonflow/connmgr/schema"
)

// storeTimeout bounds a single write-through call to the schema store
const storeTimeout = 5 * time.Second

// Registry memoizes connection handles by URI and schema definitions by name.
// Connection and schema caches are independent and guarded by separate locks.
type Registry struct {
	driver driver.Driver

	connections map[string]driver.Connection
	connMu      sync.RWMutex

	schemas  map[string]*schema.Schema
	schemaMu sync.RWMutex

	store   SchemaStore // Optional persistent schema storage
	metrics *Metrics
	logger  *log.Logger
	stats   registryCounters
}

type registryCounters struct {
	hits    atomic.Int64
	misses  atomic.Int64
	created atomic.Int64
}

// Stats is a point-in-time view of registry cache usage
type Stats struct {
	Connections int   `json:"connections"`
	Schemas     int   `json:"schemas"`
	Hits        int64 `json:"hits"`
	Misses      int64 `json:"misses"`
	Created     int64 `json:"created"`
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for registry events
func WithLogger(logger *log.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSchemaStore enables write-through persistence of added schemas
func WithSchemaStore(store SchemaStore) Option {
	return func(r *Registry) {
		r.store = store
	}
}

// WithMetrics sets the Prometheus collectors the registry reports to
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// New creates a registry bound to d. A driver is mandatory.
func New(d driver.Driver, opts ...Option) (*Registry, error) {
	if isNilHandle(d) {
		return nil, fmt.Errorf("%w: connection registry requires a driver", ErrConfiguration)
	}

	r := &Registry{
		driver:      d,
		connections: make(map[string]driver.Connection),
		schemas:     make(map[string]*schema.Schema),
		logger:      log.New(os.Stdout, "[CONN_REGISTRY] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics(nil)
	}

	return r, nil
}

// GetOrCreateConnection returns the cached handle for uri, creating it on a miss.
//
// On a hit opts are ignored and the cached handle is returned unchanged.
// On a miss the driver is asked to connect with DefaultOptions merged with
// opts; the handle is cached only if the driver succeeds. Driver errors are
// returned unchanged.
func (r *Registry) GetOrCreateConnection(ctx context.Context, uri string, opts ...driver.Options) (driver.Connection, error) {
	r.connMu.RLock()
	conn, exists := r.connections[uri]
	r.connMu.RUnlock()

	if exists {
		r.recordHit(uri, opts)
		return conn, nil
	}

	r.connMu.Lock()
	defer r.connMu.Unlock()

	// Double-check if another goroutine created it while we waited
	if conn, exists := r.connections[uri]; exists {
		r.recordHit(uri, opts)
		return conn, nil
	}

	r.stats.misses.Add(1)

	conn, err := r.driver.Connect(ctx, uri, driver.DefaultOptions().Merge(opts...))
	if err != nil {
		r.metrics.connection("error")
		return nil, err
	}

	r.connections[uri] = conn
	r.stats.created.Add(1)
	r.metrics.connection("created")
	r.metrics.cachedConnections.Set(float64(len(r.connections)))
	r.logger.Printf("Created connection for %s", MaskURI(uri))

	return conn, nil
}

func (r *Registry) recordHit(uri string, opts []driver.Options) {
	r.stats.hits.Add(1)
	r.metrics.connection("hit")

	for _, o := range opts {
		if len(o) > 0 {
			r.logger.Printf("WARN: options ignored for cached connection %s", MaskURI(uri))
			return
		}
	}
}

// StoreConnection always creates a new handle for uri with exactly opts and
// replaces any cached entry. The replaced handle is not closed.
// If the driver fails the cache is left as it was.
func (r *Registry) StoreConnection(ctx context.Context, uri string, opts driver.Options) (driver.Connection, error) {
	if opts == nil {
		opts = driver.Options{}
	}

	conn, err := r.driver.Connect(ctx, uri, opts)
	if err != nil {
		r.metrics.connection("error")
		return nil, err
	}

	r.connMu.Lock()
	defer r.connMu.Unlock()

	_, replaced := r.connections[uri]
	r.connections[uri] = conn
	r.stats.created.Add(1)
	r.metrics.connection("stored")
	r.metrics.cachedConnections.Set(float64(len(r.connections)))

	if replaced {
		r.logger.Printf("Replaced cached connection for %s", MaskURI(uri))
	} else {
		r.logger.Printf("Stored connection for %s", MaskURI(uri))
	}

	return conn, nil
}

// DeleteConnection drops uri from the cache. Absent URIs are a no-op.
// The handle is not closed; closing is the caller's responsibility.
func (r *Registry) DeleteConnection(uri string) {
	r.TakeConnection(uri)
}

// TakeConnection removes uri from the cache and returns the handle that was
// cached under it, in one step. The handle is not closed.
func (r *Registry) TakeConnection(uri string) (driver.Connection, bool) {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	conn, exists := r.connections[uri]
	if !exists {
		return nil, false
	}
	delete(r.connections, uri)
	r.metrics.cachedConnections.Set(float64(len(r.connections)))
	r.logger.Printf("Deleted connection for %s", MaskURI(uri))
	return conn, true
}

// Connection returns the cached handle for uri without creating one
func (r *Registry) Connection(uri string) (driver.Connection, bool) {
	r.connMu.RLock()
	defer r.connMu.RUnlock()
	conn, exists := r.connections[uri]
	return conn, exists
}

// URIs returns the cached connection URIs, sorted
func (r *Registry) URIs() []string {
	r.connMu.RLock()
	defer r.connMu.RUnlock()

	uris := make([]string, 0, len(r.connections))
	for uri := range r.connections {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// Driver returns the bound driver capability
func (r *Registry) Driver() driver.Driver {
	return r.driver
}

// CompileModel compiles modelName against s on conn. The result is not cached.
func (r *Registry) CompileModel(conn driver.Connection, modelName string, s *schema.Schema) (driver.Model, error) {
	if isNilHandle(conn) {
		return nil, fmt.Errorf("%w: connection required", ErrInvalidArgument)
	}

	model, err := conn.Model(modelName, s)
	r.metrics.compile(err)
	return model, err
}

// AddSchema stores s under name, replacing any previous definition.
// With a schema store configured the definition is also persisted; a
// persistence failure is logged and does not undo the in-memory update.
func (r *Registry) AddSchema(name string, s *schema.Schema) {
	r.schemaMu.Lock()
	r.schemas[name] = s
	r.metrics.cachedSchemas.Set(float64(len(r.schemas)))
	r.schemaMu.Unlock()

	if r.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := r.store.SaveSchema(ctx, name, s); err != nil {
		r.logger.Printf("Warning: Failed to persist schema '%s': %v", name, err)
	}
}

// RemoveSchema drops the definition stored under name and reports whether it
// existed. With a schema store configured the definition is also deleted
// there; a store failure is logged and does not restore the cache entry.
func (r *Registry) RemoveSchema(name string) bool {
	r.schemaMu.Lock()
	_, exists := r.schemas[name]
	delete(r.schemas, name)
	r.metrics.cachedSchemas.Set(float64(len(r.schemas)))
	r.schemaMu.Unlock()

	if r.store == nil {
		return exists
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	if err := r.store.DeleteSchema(ctx, name); err != nil && !errors.Is(err, ErrNotFound) {
		r.logger.Printf("Warning: Failed to delete persisted schema '%s': %v", name, err)
	}
	return exists
}

// Schema returns the definition stored under name
func (r *Registry) Schema(name string) (*schema.Schema, bool) {
	r.schemaMu.RLock()
	defer r.schemaMu.RUnlock()
	s, exists := r.schemas[name]
	return s, exists
}

// SchemaNames returns the cached schema names, sorted
func (r *Registry) SchemaNames() []string {
	r.schemaMu.RLock()
	defer r.schemaMu.RUnlock()

	names := make([]string, 0, len(r.schemas))
	for name := range r.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildModelFromSchema compiles the schema stored under schemaName on conn,
// using schemaName as the model name.
func (r *Registry) BuildModelFromSchema(conn driver.Connection, schemaName string) (driver.Model, error) {
	if isNilHandle(conn) {
		return nil, fmt.Errorf("%w: connection required", ErrInvalidArgument)
	}

	s, exists := r.Schema(schemaName)
	if !exists {
		return nil, fmt.Errorf("%w: schema '%s' does not exist", ErrNotFound, schemaName)
	}

	model, err := conn.Model(schemaName, s)
	r.metrics.compile(err)
	return model, err
}

// LoadSchemas warms the schema cache from the configured store and returns
// the number of definitions loaded. Entries that fail to load are skipped.
func (r *Registry) LoadSchemas(ctx context.Context) (int, error) {
	if r.store == nil {
		return 0, nil
	}

	names, err := r.store.ListSchemas(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list schemas: %w", err)
	}

	loaded := 0
	for _, name := range names {
		s, err := r.store.GetSchema(ctx, name)
		if err != nil {
			r.logger.Printf("Failed to load schema %s: %v", name, err)
			continue
		}

		r.schemaMu.Lock()
		r.schemas[name] = s
		r.metrics.cachedSchemas.Set(float64(len(r.schemas)))
		r.schemaMu.Unlock()
		loaded++
	}

	r.logger.Printf("Loaded %d schema(s) from storage", loaded)
	return loaded, nil
}

// CloseAll closes every cached handle and empties the connection cache.
// Intended for process shutdown; all close errors are joined.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.connMu.Lock()
	defer r.connMu.Unlock()

	r.logger.Println("Closing all connections...")

	var errs []error
	for uri, conn := range r.connections {
		if err := conn.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", MaskURI(uri), err))
		}
	}

	r.connections = make(map[string]driver.Connection)
	r.metrics.cachedConnections.Set(0)

	return errors.Join(errs...)
}

// Stats returns current cache sizes and counters
func (r *Registry) Stats() Stats {
	r.connMu.RLock()
	conns := len(r.connections)
	r.connMu.RUnlock()

	r.schemaMu.RLock()
	schemas := len(r.schemas)
	r.schemaMu.RUnlock()

	return Stats{
		Connections: conns,
		Schemas:     schemas,
		Hits:        r.stats.hits.Load(),
		Misses:      r.stats.misses.Load(),
		Created:     r.stats.created.Load(),
	}
}

// isNilHandle reports whether v is nil or an interface wrapping a nil pointer
func isNilHandle(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
