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

// Package schema holds reusable document shape definitions that drivers
// compile into models. Definitions can be built in code with New or loaded
// from YAML:
//
//	collection: people
//	fields:
//	  - name: name
//	    type: string
//	    required: true
//	  - email
//	indexes:
//	  - keys: [email]
//	    unique: true
package schema
