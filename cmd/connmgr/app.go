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
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"axonflow/connmgr/config"
	"axonflow/connmgr/driver"
	"axonflow/connmgr/registry"
	"axonflow/connmgr/server"
	"axonflow/connmgr/shared/logger"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Secret providers selectable with --secrets
const (
	secretsEnv  = "env"
	secretsAWS  = "aws"
	secretsNone = "none"
)

// app holds the wired service components
type app struct {
	cfg      *config.Config
	registry *registry.Registry
	store    registry.SchemaStore
	metrics  *prometheus.Registry
	log      *logger.Logger
}

// newApp opens the schema store and builds the registry over d. Schemas from
// the store are loaded first so configured schemas take precedence.
func newApp(ctx context.Context, cfg *config.Config, d driver.Driver, log *logger.Logger) (*app, error) {
	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := registry.NewSchemaStore(cfg.SchemaStore.Type, cfg.SchemaStore.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema store: %w", err)
	}

	opts := []registry.Option{
		registry.WithLogger(log.Std("[CONN_REGISTRY] ")),
		registry.WithMetrics(registry.NewMetrics(promReg)),
	}
	if store != nil {
		opts = append(opts, registry.WithSchemaStore(store))
	}

	reg, err := registry.New(d, opts...)
	if err != nil {
		closeStore(store)
		return nil, err
	}

	if store != nil {
		n, err := reg.LoadSchemas(ctx)
		if err != nil {
			log.Warn("", "Failed to load stored schemas", map[string]interface{}{"error": err.Error()})
		} else {
			log.Info("", "Loaded stored schemas", map[string]interface{}{"count": n, "store": cfg.SchemaStore.Type})
		}
	}

	for _, name := range cfg.SchemaNames() {
		reg.AddSchema(name, cfg.Schemas[name])
	}

	return &app{cfg: cfg, registry: reg, store: store, metrics: promReg, log: log}, nil
}

// newSecretsManager returns the secrets provider named by kind
func newSecretsManager(ctx context.Context, kind, region string) (config.SecretsManager, error) {
	switch kind {
	case "", secretsEnv:
		return config.EnvSecretsManager{}, nil
	case secretsAWS:
		return config.NewAWSSecretsManager(ctx, config.AWSSecretsManagerOptions{Region: region})
	case secretsNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown secrets provider %q", kind)
	}
}

// warmConnections opens every configured connection through the registry
func (a *app) warmConnections(ctx context.Context, sm config.SecretsManager) error {
	for _, name := range a.cfg.ConnectionNames() {
		connCfg := a.cfg.Connections[name]

		uri, err := config.ResolveURI(ctx, sm, connCfg)
		if err != nil {
			return fmt.Errorf("connection '%s': %w", name, err)
		}

		start := time.Now()
		if _, err := a.registry.GetOrCreateConnection(ctx, uri, connCfg.DriverOptions()); err != nil {
			return fmt.Errorf("connection '%s': %w", name, err)
		}

		a.log.InfoWithDuration("", "Connection ready", time.Since(start), map[string]interface{}{
			"name": name,
			"uri":  registry.MaskURI(uri),
		})
	}
	return nil
}

// serve runs the admin server until ctx is cancelled
func (a *app) serve(ctx context.Context) error {
	handler := server.NewHandler(a.registry, a.metrics, a.log)
	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("", "Admin server listening", map[string]interface{}{"addr": a.cfg.ListenAddr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.log.Info("", "Shutting down admin server", nil)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// close closes every cached connection and the schema store
func (a *app) close(ctx context.Context) error {
	err := a.registry.CloseAll(ctx)
	closeStore(a.store)
	return err
}

func closeStore(store registry.SchemaStore) {
	if store != nil {
		_ = store.Close()
	}
}
