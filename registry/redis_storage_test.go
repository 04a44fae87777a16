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
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/connmgr/schema"
)

func newMiniredisStore(t *testing.T) (*RedisSchemaStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisSchemaStoreFromClient(client, "")
	store.logger = quietLogger()
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisSchemaStore_DefaultKey(t *testing.T) {
	store, _ := newMiniredisStore(t)
	assert.Equal(t, DefaultRedisSchemaKey, store.key)
}

func TestRedisSchemaStore_SaveAndGet(t *testing.T) {
	store, mr := newMiniredisStore(t)
	ctx := context.Background()

	s := &schema.Schema{
		Collection: "people",
		Fields:     []schema.Field{{Name: "name", Type: schema.TypeString, Required: true}},
	}
	require.NoError(t, store.SaveSchema(ctx, "User", s))

	assert.True(t, mr.Exists(DefaultRedisSchemaKey))
	assert.Contains(t, mr.HGet(DefaultRedisSchemaKey, "User"), `"collection":"people"`)

	got, err := store.GetSchema(ctx, "User")
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestRedisSchemaStore_GetSchema_NotFound(t *testing.T) {
	store, _ := newMiniredisStore(t)

	_, err := store.GetSchema(context.Background(), "Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisSchemaStore_GetSchema_Corrupt(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mr.HSet(DefaultRedisSchemaKey, "User", "not json")

	_, err := store.GetSchema(context.Background(), "User")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal schema")
}

func TestRedisSchemaStore_DeleteSchema(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveSchema(ctx, "User", schema.New("name")))
	require.NoError(t, store.DeleteSchema(ctx, "User"))

	err := store.DeleteSchema(ctx, "User")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRedisSchemaStore_ListSchemas(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	for _, name := range []string{"User", "Order", "Invoice"} {
		require.NoError(t, store.SaveSchema(ctx, name, schema.New("id")))
	}

	names, err := store.ListSchemas(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invoice", "Order", "User"}, names)
}

func TestRedisSchemaStore_ServerDown(t *testing.T) {
	store, mr := newMiniredisStore(t)
	mr.Close()

	err := store.SaveSchema(context.Background(), "User", schema.New("name"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save schema")
}

func TestNewRedisSchemaStore(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := NewRedisSchemaStore("redis://" + mr.Addr())
	require.NoError(t, err)
	defer store.Close()

	_, err = NewRedisSchemaStore("://bad")
	assert.Error(t, err)
}

func TestRedisSchemaStore_RegistryLoad(t *testing.T) {
	store, _ := newMiniredisStore(t)
	ctx := context.Background()

	writer, _ := newTestRegistry(t, WithSchemaStore(store))
	writer.AddSchema("User", schema.New("name", "email"))

	reader, _ := newTestRegistry(t, WithSchemaStore(store))
	n, err := reader.LoadSchemas(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, ok := reader.Schema("User")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "email"}, s.FieldNames())
}
