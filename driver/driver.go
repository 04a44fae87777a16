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

package driver

import (
	"context"

	"axonflow/connmgr/schema"
)

// Driver establishes connections to a database endpoint identified by a URI.
// Implementations own the wire protocol, pooling, authentication and retries.
type Driver interface {
	// Name identifies the driver (mongodb, stub, ...)
	Name() string

	// Connect returns a handle for uri configured with opts.
	Connect(ctx context.Context, uri string, opts Options) (Connection, error)
}

// Connection is a live (or lazily live) handle returned by a Driver
type Connection interface {
	// URI returns the connection string this handle was created for
	URI() string

	// Model compiles a model named name against s on this connection.
	// Every call returns a new Model value.
	Model(name string, s *schema.Schema) (Model, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Model is a compiled model bound to a connection, a name and a schema
type Model interface {
	ID() string
	Name() string
	Schema() *schema.Schema
	Connection() Connection
}
