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

package mongodb

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"axonflow/connmgr/driver"
	"axonflow/connmgr/schema"
)

// Connection wraps a mongo client bound to one database
type Connection struct {
	uri      string
	client   *mongo.Client
	database *mongo.Database
	dbName   string
	logger   *log.Logger

	// models maps compiled model names to the schema they were compiled with
	models map[string]*schema.Schema
	mu     sync.Mutex
}

func newConnection(uri string, client *mongo.Client, dbName string, logger *log.Logger) *Connection {
	return &Connection{
		uri:      uri,
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
		logger:   logger,
		models:   make(map[string]*schema.Schema),
	}
}

// URI returns the connection string
func (c *Connection) URI() string {
	return c.uri
}

// Client exposes the underlying mongo client
func (c *Connection) Client() *mongo.Client {
	return c.client
}

// Database exposes the bound database
func (c *Connection) Database() *mongo.Database {
	return c.database
}

// DatabaseName returns the bound database name
func (c *Connection) DatabaseName() string {
	return c.dbName
}

// Model compiles name against s. Compiling an existing name again with the
// same schema returns a new handle over the same collection; a different
// schema fails with driver.ErrModelOverwrite.
func (c *Connection) Model(name string, s *schema.Schema) (driver.Model, error) {
	if name == "" {
		return nil, driver.NewError(DriverName, "Model", "model name is required", nil)
	}
	if s == nil {
		return nil, driver.NewError(DriverName, "Model", fmt.Sprintf("schema is required for model '%s'", name), nil)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.models[name]; ok && existing != s {
		return nil, driver.NewError(DriverName, "Model",
			fmt.Sprintf("model '%s' already compiled with a different schema", name), driver.ErrModelOverwrite)
	}
	c.models[name] = s

	collection := s.CollectionName(name)
	return &Model{
		id:         uuid.NewString(),
		name:       name,
		schema:     s,
		conn:       c,
		collection: c.database.Collection(collection),
	}, nil
}

// ModelNames returns the names compiled on this connection so far
func (c *Connection) ModelNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, len(c.models))
	for name := range c.models {
		names = append(names, name)
	}
	return names
}

// Ping checks the primary is reachable
func (c *Connection) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		return driver.NewError(DriverName, "Ping", "failed to ping MongoDB", err)
	}
	return nil
}

// Close disconnects the client
func (c *Connection) Close(ctx context.Context) error {
	disconnectCtx, cancel := context.WithTimeout(ctx, DefaultDisconnectTimeout)
	defer cancel()

	if err := c.client.Disconnect(disconnectCtx); err != nil {
		return driver.NewError(DriverName, "Close", "failed to disconnect", err)
	}

	c.logger.Printf("Disconnected from MongoDB (database=%s)", c.dbName)
	return nil
}
