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

// Package mongodb implements driver.Driver over the official MongoDB Go driver.
//
// Connect builds client options from driver.Options (pool sizes, timeouts,
// read preference, app name) and binds the connection to a database taken from
// the "database" option, the URI path, or "test". With strict_uri set the
// connection string is validated before any client is created.
//
// Models map to collections named by schema.CollectionName. Model.Sync creates
// the collection with a $jsonSchema validator derived from the schema and builds
// its indexes.
//
//	d := mongodb.NewDriver()
//	conn, err := d.Connect(ctx, "mongodb://localhost:27017/app", driver.DefaultOptions())
//	m, err := conn.Model("User", schema.New("name", "email"))
//	err = m.(*mongodb.Model).Sync(ctx)
package mongodb
