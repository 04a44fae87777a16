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

/*
Package registry memoizes database connection handles by connection string and
caches reusable schema definitions by name.

# Overview

The Registry sits in front of a driver.Driver and handles:

  - Lazy creation and caching of connection handles, one per distinct URI
  - Forced re-creation of a handle (StoreConnection)
  - A name -> schema table that feeds model compilation
  - Optional persistence of schemas in PostgreSQL or Redis

All real work (dialing, pooling, wire protocol, compiling models) is done by
the driver.

# Creating a Registry

A driver is mandatory:

	reg, err := registry.New(mongodb.NewDriver())
	if err != nil {
	    log.Fatal(err) // errors.Is(err, registry.ErrConfiguration)
	}

# Connections

	conn, err := reg.GetOrCreateConnection(ctx, "mongodb://localhost:27017/app")

The second call for the same URI returns the same handle without touching the
driver. Options passed on a cache hit are ignored (a warning is logged); use
StoreConnection to replace a handle with a differently configured one:

	conn, err = reg.StoreConnection(ctx, uri, driver.Options{driver.OptMaxPoolSize: 20})

DeleteConnection only forgets the handle. Closing it is the caller's job, or
use CloseAll at shutdown.

# Schemas and Models

	reg.AddSchema("User", schema.New("name", "email"))
	model, err := reg.BuildModelFromSchema(conn, "User")

The schema name doubles as the model name. Models are never cached; every
call compiles a new one through the driver.

# Errors

ErrConfiguration, ErrInvalidArgument and ErrNotFound are the registry's own
failures. Anything the driver returns is passed through unchanged.

# Persistence

	store, err := registry.NewSchemaStore(registry.StorePostgres, databaseURL)
	reg, err := registry.New(drv, registry.WithSchemaStore(store))
	n, err := reg.LoadSchemas(ctx)

# Thread Safety

The Registry is safe for concurrent use. The connection and schema tables
have their own sync.RWMutex. A cache miss holds the connection lock across
the driver call, so concurrent requests for one URI connect exactly once and
a slow driver blocks other connection requests.
*/
package registry
