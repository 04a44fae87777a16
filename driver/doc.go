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
Package driver defines the capability the connection registry delegates to.

A Driver turns a connection string into a Connection; a Connection compiles
named schemas into Models. Everything below that line (wire protocol,
pooling, authentication, retries, TLS) belongs to the concrete driver.

# Implementations

  - driver/mongodb: the official MongoDB Go driver
  - driver/drivertest: an in-memory recording stub for tests

# Options

Options is a loosely typed map so that values decoded from YAML or JSON can
be passed through untouched:

	opts := driver.DefaultOptions().Merge(driver.Options{
	    driver.OptMaxPoolSize:    50,
	    driver.OptConnectTimeout: "5s",
	})

Drivers read them with the typed accessors (String, Bool, Uint64, Duration)
and ignore keys they do not understand.
*/
package driver
