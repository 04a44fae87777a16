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

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/connmgr/schema"
)

func newMockPostgresStore(t *testing.T) (*PostgreSQLSchemaStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connmgr_schemas").
		WillReturnResult(sqlmock.NewResult(0, 0))

	store, err := NewPostgreSQLSchemaStoreFromDB(db)
	require.NoError(t, err)
	store.logger = quietLogger()
	return store, mock
}

func TestPostgreSQLSchemaStore_InitSchemaError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connmgr_schemas").
		WillReturnError(errors.New("permission denied"))

	store, err := NewPostgreSQLSchemaStoreFromDB(db)
	assert.Nil(t, store)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestPostgreSQLSchemaStore_InitSchemaErrorClosesOwnedDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS connmgr_schemas").
		WillReturnError(errors.New("permission denied"))
	mock.ExpectClose()

	store, err := newOwnedPostgreSQLSchemaStore(db)
	assert.Nil(t, store)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSchemaStore_SaveSchema(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("INSERT INTO connmgr_schemas").
		WithArgs("User", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SaveSchema(context.Background(), "User", schema.New("name"))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSchemaStore_SaveSchema_Error(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("INSERT INTO connmgr_schemas").
		WillReturnError(errors.New("connection reset"))

	err := store.SaveSchema(context.Background(), "User", schema.New("name"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save schema")
}

func TestPostgreSQLSchemaStore_GetSchema(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT definition FROM connmgr_schemas WHERE name = \$1`).
		WithArgs("User").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).
			AddRow([]byte(`{"fields":[{"name":"name","type":"string","required":true}]}`)))

	s, err := store.GetSchema(context.Background(), "User")
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "name", s.Fields[0].Name)
	assert.True(t, s.Fields[0].Required)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSchemaStore_GetSchema_NotFound(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT definition FROM connmgr_schemas WHERE name = \$1`).
		WithArgs("Missing").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}))

	_, err := store.GetSchema(context.Background(), "Missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPostgreSQLSchemaStore_GetSchema_Corrupt(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT definition FROM connmgr_schemas`).
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow([]byte(`not json`)))

	_, err := store.GetSchema(context.Background(), "User")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal schema")
}

func TestPostgreSQLSchemaStore_DeleteSchema(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectExec("DELETE FROM connmgr_schemas").
		WithArgs("User").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM connmgr_schemas").
		WithArgs("Missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.DeleteSchema(context.Background(), "User"))

	err := store.DeleteSchema(context.Background(), "Missing")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSchemaStore_ListSchemas(t *testing.T) {
	store, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT name FROM connmgr_schemas").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Order").AddRow("User"))

	names, err := store.ListSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Order", "User"}, names)
}

func TestPostgreSQLSchemaStore_Close(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	mock.ExpectClose()

	require.NoError(t, store.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLSchemaStore_RegistryRoundTrip(t *testing.T) {
	store, mock := newMockPostgresStore(t)
	reg, _ := newTestRegistry(t, WithSchemaStore(store))

	mock.ExpectExec("INSERT INTO connmgr_schemas").
		WithArgs("User", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	reg.AddSchema("User", schema.New("name"))

	mock.ExpectQuery("SELECT name FROM connmgr_schemas").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("User"))
	mock.ExpectQuery(`SELECT definition FROM connmgr_schemas WHERE name = \$1`).
		WithArgs("User").
		WillReturnRows(sqlmock.NewRows([]string{"definition"}).AddRow([]byte(`{"fields":[{"name":"name"}]}`)))

	fresh, _ := newTestRegistry(t, WithSchemaStore(store))
	n, err := fresh.LoadSchemas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	s, ok := fresh.Schema("User")
	require.True(t, ok)
	assert.Equal(t, []string{"name"}, s.FieldNames())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewSchemaStore_Types(t *testing.T) {
	store, err := NewSchemaStore(StoreNone, "")
	assert.NoError(t, err)
	assert.Nil(t, store)

	_, err = NewSchemaStore("etcd", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema store type")
}
