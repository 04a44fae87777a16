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

package server

import "axonflow/connmgr/registry"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse reports the reachability of cached connections
type HealthResponse struct {
	Status      string             `json:"status"`
	Connections []ConnectionHealth `json:"connections"`
}

// ConnectionHealth is the ping result for one cached connection
type ConnectionHealth struct {
	URI    string `json:"uri"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ConnectionsResponse lists cached connections with credentials masked
type ConnectionsResponse struct {
	Connections []string       `json:"connections"`
	Stats       registry.Stats `json:"stats"`
}

// SchemasResponse lists cached schema names
type SchemasResponse struct {
	Schemas []string `json:"schemas"`
}

// ModelResponse describes a compiled model
type ModelResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Connection string `json:"connection"`
	Collection string `json:"collection"`
}
