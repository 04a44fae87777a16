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
	"fmt"

	"axonflow/connmgr/schema"
)

// SchemaStore persists schema definitions across process restarts
type SchemaStore interface {
	SaveSchema(ctx context.Context, name string, s *schema.Schema) error
	GetSchema(ctx context.Context, name string) (*schema.Schema, error)
	DeleteSchema(ctx context.Context, name string) error
	ListSchemas(ctx context.Context) ([]string, error)
	Close() error
}

// Schema store types accepted by NewSchemaStore
const (
	StoreNone     = ""
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// NewSchemaStore opens the schema store of the given type.
// StoreNone returns a nil store and no error.
func NewSchemaStore(storeType, url string) (SchemaStore, error) {
	switch storeType {
	case StoreNone:
		return nil, nil
	case StorePostgres:
		store, err := NewPostgreSQLSchemaStore(url)
		if err != nil {
			return nil, err
		}
		return store, nil
	case StoreRedis:
		store, err := NewRedisSchemaStore(url)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown schema store type: %s", storeType)
	}
}

func schemaNotFound(name string) error {
	return fmt.Errorf("%w: schema '%s' not in store", ErrNotFound, name)
}
