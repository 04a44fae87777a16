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
Command connmgr runs a MongoDB connection and schema registry with a small
admin HTTP API.

# Usage

	connmgr serve --config connmgr.yaml [--secrets env|aws|none] [--aws-region us-east-1]
	connmgr validate --config connmgr.yaml
	connmgr example-config > connmgr.yaml

serve loads the configuration, opens the optional schema store and loads its
schemas, adds the configured schemas, opens every configured connection and
then serves the admin API until SIGINT or SIGTERM. On shutdown every cached
connection is closed.

# Environment Variables

  - CONNMGR_CONFIG: configuration file when --config is not given
  - CONNMGR_LISTEN_ADDR: admin server address (default :8090)
  - CONNMGR_SCHEMA_STORE, CONNMGR_SCHEMA_STORE_URL: schema persistence
  - AWS_REGION: region for --secrets=aws
  - INSTANCE_ID: recorded in every log entry
*/
package main
