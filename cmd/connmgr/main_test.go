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

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axonflow/connmgr/config"
	"axonflow/connmgr/driver"
	"axonflow/connmgr/driver/drivertest"
	"axonflow/connmgr/registry"
	"axonflow/connmgr/schema"
	"axonflow/connmgr/shared/logger"
)

func quietLog() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard)
}

func testConfig() *config.Config {
	return &config.Config{
		Version:    "1",
		ListenAddr: "127.0.0.1:0",
		Connections: map[string]config.ConnectionConfig{
			"main": {
				URI:     "mongodb://localhost:27017/app",
				Options: map[string]interface{}{"max_pool_size": 10},
			},
			"reporting": {
				URI:       "mongodb://reporting:27017/reports",
				SecretRef: "reporting",
			},
		},
		Schemas: map[string]*schema.Schema{
			"User": schema.New("name", "email"),
		},
	}
}

func TestNewApp(t *testing.T) {
	d := drivertest.New()
	a, err := newApp(context.Background(), testConfig(), d, quietLog())
	require.NoError(t, err)

	assert.Nil(t, a.store)
	assert.Equal(t, []string{"User"}, a.registry.SchemaNames())
}

func TestNewApp_BadStore(t *testing.T) {
	cfg := testConfig()
	cfg.SchemaStore = config.SchemaStoreConfig{Type: "etcd", URL: "x"}

	_, err := newApp(context.Background(), cfg, drivertest.New(), quietLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open schema store")
}

func TestNewApp_RedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.HSet(registry.DefaultRedisSchemaKey, "Order", `{"fields":[{"name":"total","type":"double"}]}`)
	mr.HSet(registry.DefaultRedisSchemaKey, "User", `{"fields":[{"name":"stale"}]}`)

	cfg := testConfig()
	cfg.SchemaStore = config.SchemaStoreConfig{Type: registry.StoreRedis, URL: "redis://" + mr.Addr()}

	a, err := newApp(context.Background(), cfg, drivertest.New(), quietLog())
	require.NoError(t, err)
	defer func() { _ = a.close(context.Background()) }()

	assert.Equal(t, []string{"Order", "User"}, a.registry.SchemaNames())

	user, ok := a.registry.Schema("User")
	require.True(t, ok)
	assert.Equal(t, []string{"name", "email"}, user.FieldNames(), "configured schema wins over stored one")
	assert.Contains(t, mr.HGet(registry.DefaultRedisSchemaKey, "User"), `"email"`, "configured schema written through")
}

func TestWarmConnections(t *testing.T) {
	d := drivertest.New()
	a, err := newApp(context.Background(), testConfig(), d, quietLog())
	require.NoError(t, err)

	sm := config.NewLocalSecretsManager()
	sm.SetSecret("reporting", map[string]string{"username": "ro", "password": "pw"})

	require.NoError(t, a.warmConnections(context.Background(), sm))

	calls := d.ConnectCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "mongodb://localhost:27017/app", calls[0].URI)
	assert.Equal(t, 10, calls[0].Options[driver.OptMaxPoolSize])
	assert.Equal(t, true, calls[0].Options[driver.OptStrictURI])
	assert.Equal(t, "mongodb://ro:pw@reporting:27017/reports", calls[1].URI)

	require.NoError(t, a.close(context.Background()))
	for _, conn := range d.Connections() {
		assert.True(t, conn.Closed())
	}
	assert.Empty(t, a.registry.URIs())
}

func TestWarmConnections_Errors(t *testing.T) {
	d := drivertest.New()
	a, err := newApp(context.Background(), testConfig(), d, quietLog())
	require.NoError(t, err)

	err = a.warmConnections(context.Background(), config.NewLocalSecretsManager())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection 'reporting'")

	d.ConnectErr = errors.New("connection refused")
	a, err = newApp(context.Background(), testConfig(), d, quietLog())
	require.NoError(t, err)
	err = a.warmConnections(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection 'main': connection refused")
}

func TestNewSecretsManager(t *testing.T) {
	ctx := context.Background()

	sm, err := newSecretsManager(ctx, "", "")
	require.NoError(t, err)
	assert.IsType(t, config.EnvSecretsManager{}, sm)

	sm, err = newSecretsManager(ctx, secretsNone, "")
	require.NoError(t, err)
	assert.Nil(t, sm)

	_, err = newSecretsManager(ctx, "vault", "")
	assert.Error(t, err)
}

func TestServe_Shutdown(t *testing.T) {
	a, err := newApp(context.Background(), testConfig(), drivertest.New(), quietLog())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

func TestServe_ListenError(t *testing.T) {
	cfg := testConfig()
	cfg.ListenAddr = "256.0.0.1:bad"
	a, err := newApp(context.Background(), cfg, drivertest.New(), quietLog())
	require.NoError(t, err)

	err = a.serve(context.Background())
	assert.Error(t, err)
}

func TestCommands(t *testing.T) {
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"example-config"})
	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "# connmgr configuration"))

	path := filepath.Join(t.TempDir(), "connmgr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: \"1\"\nconnections:\n  main:\n    uri: mongodb://localhost/app\n"), 0o600))

	out.Reset()
	cmd = rootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"validate", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "OK: 1 connection(s), 0 schema(s)\n", out.String())

	cmd = rootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetArgs([]string{"validate", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, cmd.Execute())
}
