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

package registry

import "errors"

// Error kinds returned by the registry. Match with errors.Is.
// Driver failures are never wrapped and do not match any of these.
var (
	// ErrConfiguration is returned when the registry is built without a driver
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidArgument is returned when a required argument is missing
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound is returned when a named schema does not exist
	ErrNotFound = errors.New("not found")
)
