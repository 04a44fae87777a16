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
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"

	"axonflow/connmgr/schema"
)

// DefaultRedisSchemaKey is the hash holding schema definitions
const DefaultRedisSchemaKey = "connmgr:schemas"

// RedisSchemaStore persists schema definitions as fields of a Redis hash
type RedisSchemaStore struct {
	client *redis.Client
	key    string
	logger *log.Logger
}

// NewRedisSchemaStore connects to the Redis instance at redisURL
// (redis://[:password@]host:port/db)
func NewRedisSchemaStore(redisURL string) (*RedisSchemaStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisSchemaStoreFromClient(client, DefaultRedisSchemaKey), nil
}

// NewRedisSchemaStoreFromClient wraps an existing client. An empty key uses
// DefaultRedisSchemaKey.
func NewRedisSchemaStoreFromClient(client *redis.Client, key string) *RedisSchemaStore {
	if key == "" {
		key = DefaultRedisSchemaKey
	}
	return &RedisSchemaStore{
		client: client,
		key:    key,
		logger: log.New(log.Writer(), "[SCHEMA_STORE] ", log.LstdFlags),
	}
}

// SaveSchema writes a definition
func (s *RedisSchemaStore) SaveSchema(ctx context.Context, name string, def *schema.Schema) error {
	definition, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	if err := s.client.HSet(ctx, s.key, name, definition).Err(); err != nil {
		return fmt.Errorf("failed to save schema: %w", err)
	}

	s.logger.Printf("Saved schema: %s", name)
	return nil
}

// GetSchema reads a definition by name
func (s *RedisSchemaStore) GetSchema(ctx context.Context, name string) (*schema.Schema, error) {
	definition, err := s.client.HGet(ctx, s.key, name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, schemaNotFound(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}

	var def schema.Schema
	if err := json.Unmarshal(definition, &def); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema %s: %w", name, err)
	}
	return &def, nil
}

// DeleteSchema removes a definition
func (s *RedisSchemaStore) DeleteSchema(ctx context.Context, name string) error {
	removed, err := s.client.HDel(ctx, s.key, name).Result()
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}
	if removed == 0 {
		return schemaNotFound(name)
	}

	s.logger.Printf("Deleted schema: %s", name)
	return nil
}

// ListSchemas returns all stored names, sorted
func (s *RedisSchemaStore) ListSchemas(ctx context.Context) ([]string, error) {
	names, err := s.client.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Close closes the redis client
func (s *RedisSchemaStore) Close() error {
	return s.client.Close()
}
