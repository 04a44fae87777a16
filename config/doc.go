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
Package config loads connmgr configuration from a YAML file and the
environment.

# File Format

	version: "1"
	listen_addr: ":8090"
	connections:
	  main:
	    uri: ${MONGODB_URI:-mongodb://localhost:27017/app}
	    secret_ref: MAIN_MONGO
	    options:
	      max_pool_size: 50
	schemas:
	  User:
	    fields: [name, email]
	schema_store:
	  type: redis
	  url: redis://localhost:6379/0

References of the form ${VAR}, ${VAR:-default} and $VAR are expanded before
parsing. CONNMGR_LISTEN_ADDR, CONNMGR_SCHEMA_STORE and
CONNMGR_SCHEMA_STORE_URL override the matching file values, and
CONNMGR_CONFIG names the file when Load is called with an empty path.

# Secrets

A connection with secret_ref gets its credentials from a SecretsManager:

  - AWSSecretsManager reads AWS Secrets Manager (JSON secrets, cached)
  - EnvSecretsManager reads <REF>_USERNAME, <REF>_PASSWORD and friends
  - LocalSecretsManager holds secrets in memory

ResolveURI applies the resolved username, password, host, port, database
and auth source to the connection URI.
*/
package config
