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

package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"axonflow/connmgr/driver"
	"axonflow/connmgr/schema"
)

// Environment variables read by Load
const (
	EnvConfigPath     = "CONNMGR_CONFIG"
	EnvListenAddr     = "CONNMGR_LISTEN_ADDR"
	EnvSchemaStore    = "CONNMGR_SCHEMA_STORE"
	EnvSchemaStoreURL = "CONNMGR_SCHEMA_STORE_URL"
)

// DefaultListenAddr is the admin server address when none is configured
const DefaultListenAddr = ":8090"

// Config is the root of a connmgr configuration file
type Config struct {
	Version     string                      `yaml:"version"`
	ListenAddr  string                      `yaml:"listen_addr,omitempty"`
	Connections map[string]ConnectionConfig `yaml:"connections,omitempty"`
	Schemas     map[string]*schema.Schema   `yaml:"schemas,omitempty"`
	SchemaStore SchemaStoreConfig           `yaml:"schema_store,omitempty"`
}

// ConnectionConfig describes a connection to open at startup
type ConnectionConfig struct {
	URI       string                 `yaml:"uri"`
	SecretRef string                 `yaml:"secret_ref,omitempty"`
	Options   map[string]interface{} `yaml:"options,omitempty"`
}

// DriverOptions returns the connection options as driver.Options
func (c ConnectionConfig) DriverOptions() driver.Options {
	opts := make(driver.Options, len(c.Options))
	for k, v := range c.Options {
		opts[k] = v
	}
	return opts
}

// SchemaStoreConfig selects optional schema persistence
type SchemaStoreConfig struct {
	Type string `yaml:"type,omitempty"`
	URL  string `yaml:"url,omitempty"`
}

// Load reads the configuration file at path. An empty path falls back to
// CONNMGR_CONFIG; if that is unset too, an empty configuration is returned
// with only environment overrides applied.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	cfg := &Config{Version: "1"}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		parsed, err := Parse(data)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}

	cfg.applyEnvOverrides()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes a configuration document after expanding environment
// variable references
func Parse(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvListenAddr); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(EnvSchemaStore); v != "" {
		c.SchemaStore.Type = v
	}
	if v := os.Getenv(EnvSchemaStoreURL); v != "" {
		c.SchemaStore.URL = v
	}
}

// Validate checks the structure of the configuration
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("config file must specify a version")
	}

	for _, name := range sortedKeys(c.Connections) {
		if c.Connections[name].URI == "" {
			return fmt.Errorf("connection '%s' must specify a uri", name)
		}
	}

	for name, s := range c.Schemas {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("schema '%s': %w", name, err)
		}
	}

	switch c.SchemaStore.Type {
	case "":
	case "postgres", "redis":
		if c.SchemaStore.URL == "" {
			return fmt.Errorf("schema store '%s' requires a url", c.SchemaStore.Type)
		}
	default:
		return fmt.Errorf("invalid schema store type '%s'", c.SchemaStore.Type)
	}

	return nil
}

// ConnectionNames returns the configured connection names in sorted order
func (c *Config) ConnectionNames() []string {
	return sortedKeys(c.Connections)
}

// SchemaNames returns the configured schema names in sorted order
func (c *Config) SchemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]ConnectionConfig) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// envVarRegex matches ${VAR_NAME} or $VAR_NAME patterns
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars expands ${VAR}, ${VAR:-default} and $VAR references.
// Undefined variables without a default expand to the empty string.
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		defaultVal := ""
		if idx := strings.Index(varName, ":-"); idx != -1 {
			defaultVal = varName[idx+2:]
			varName = varName[:idx]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultVal
	})
}

// Example returns a commented example configuration
func Example() string {
	return `# connmgr configuration
# Environment variables can be referenced using ${VAR_NAME} or ${VAR_NAME:-default}

version: "1"
listen_addr: "${CONNMGR_LISTEN_ADDR:-:8090}"

connections:
  main:
    uri: ${MONGODB_URI:-mongodb://localhost:27017/app}
    options:
      max_pool_size: 50
      app_name: connmgr
  reporting:
    uri: mongodb://reporting.internal:27017/reports
    secret_ref: REPORTING_MONGO   # resolves REPORTING_MONGO_USERNAME / _PASSWORD
    options:
      read_preference: secondaryPreferred

schemas:
  User:
    fields:
      - {name: name, type: string, required: true}
      - {name: email, type: string, unique: true}
      - age

schema_store:
  type: ${CONNMGR_SCHEMA_STORE:-}
  url: ${CONNMGR_SCHEMA_STORE_URL:-}
`
}
