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
Package logger provides structured JSON logging for connmgr.

Each entry is a single JSON line with a timestamp, level, component,
instance ID, container name, optional request ID and custom fields:

	log := logger.New("connmgr")
	log.Info("", "Connection warmed", map[string]interface{}{"name": "main"})
	log.ErrorWithCode(reqID, "Health check failed", 503, err, nil)

Std adapts a Logger to *log.Logger for packages that log through the
standard library logger:

	reg, err := registry.New(d, registry.WithLogger(log.Std("[CONN_REGISTRY] ")))

INSTANCE_ID and the host name are recorded with every entry. Logger instances
are safe for concurrent use.
*/
package logger
