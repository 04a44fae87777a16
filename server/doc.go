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
Package server exposes a connection registry over a small admin HTTP API.

# Routes

	GET    /health                        ping every cached connection (503 if any fails)
	GET    /metrics                       Prometheus exposition
	GET    /api/v1/connections            cached URIs (credentials masked) and stats
	DELETE /api/v1/connections?uri=...    drop a cached connection; close=true also closes it
	GET    /api/v1/schemas                cached schema names
	GET    /api/v1/schemas/{name}         one schema definition
	PUT    /api/v1/schemas/{name}         add or replace a schema (YAML or JSON body)
	POST   /api/v1/models/{name}?uri=...  connect if needed and compile the named schema

Errors are returned as ErrorResponse JSON. Router wraps the routes with CORS
and structured request logging; every response carries an X-Request-ID.
*/
package server
