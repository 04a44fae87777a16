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
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"axonflow/connmgr/schema"
)

// PostgreSQLSchemaStore persists schema definitions in a PostgreSQL table
type PostgreSQLSchemaStore struct {
	db     *sql.DB
	logger *log.Logger
}

// NewPostgreSQLSchemaStore connects to dbURL and prepares the schema table
func NewPostgreSQLSchemaStore(dbURL string) (*PostgreSQLSchemaStore, error) {
	// Retry with linear backoff; container DNS may not be ready at startup
	maxRetries := 5
	var db *sql.DB
	var err error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sql.Open("postgres", dbURL)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("[SCHEMA_STORE] Connected to database (attempt %d/%d)", attempt, maxRetries)
				break
			}
			_ = db.Close()
		}

		if attempt < maxRetries {
			backoff := time.Duration(attempt*2) * time.Second
			log.Printf("[SCHEMA_STORE] Database connection failed (attempt %d/%d): %v, retrying in %v",
				attempt, maxRetries, err, backoff)
			time.Sleep(backoff)
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
	}

	return newOwnedPostgreSQLSchemaStore(db)
}

// newOwnedPostgreSQLSchemaStore wraps a handle the store owns; db is closed
// if the store cannot be initialized.
func newOwnedPostgreSQLSchemaStore(db *sql.DB) (*PostgreSQLSchemaStore, error) {
	store, err := NewPostgreSQLSchemaStoreFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgreSQLSchemaStoreFromDB wraps an open database handle
func NewPostgreSQLSchemaStoreFromDB(db *sql.DB) (*PostgreSQLSchemaStore, error) {
	store := &PostgreSQLSchemaStore{
		db:     db,
		logger: log.New(log.Writer(), "[SCHEMA_STORE] ", log.LstdFlags),
	}

	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	store.logger.Println("PostgreSQL schema store initialized")
	return store, nil
}

// initSchema creates the schema definitions table if it doesn't exist
func (s *PostgreSQLSchemaStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS connmgr_schemas (
		name VARCHAR(255) PRIMARY KEY,
		definition JSONB NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// SaveSchema upserts a definition
func (s *PostgreSQLSchemaStore) SaveSchema(ctx context.Context, name string, def *schema.Schema) error {
	definition, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	query := `
		INSERT INTO connmgr_schemas (name, definition, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET
			definition = EXCLUDED.definition,
			updated_at = NOW()
	`

	if _, err := s.db.ExecContext(ctx, query, name, definition); err != nil {
		return fmt.Errorf("failed to save schema: %w", err)
	}

	s.logger.Printf("Saved schema: %s", name)
	return nil
}

// GetSchema loads a definition by name
func (s *PostgreSQLSchemaStore) GetSchema(ctx context.Context, name string) (*schema.Schema, error) {
	query := `SELECT definition FROM connmgr_schemas WHERE name = $1`

	var definition []byte
	err := s.db.QueryRowContext(ctx, query, name).Scan(&definition)
	if errors.Is(err, sql.ErrNoRows) {
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
func (s *PostgreSQLSchemaStore) DeleteSchema(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM connmgr_schemas WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete schema: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return schemaNotFound(name)
	}

	s.logger.Printf("Deleted schema: %s", name)
	return nil
}

// ListSchemas returns all stored names
func (s *PostgreSQLSchemaStore) ListSchemas(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM connmgr_schemas ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return names, nil
}

// Close closes the database connection
func (s *PostgreSQLSchemaStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
