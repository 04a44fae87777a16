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

package driver

import "errors"

// ErrModelOverwrite is returned when a model name is compiled again on the same
// connection with a different schema
var ErrModelOverwrite = errors.New("cannot overwrite model once compiled")

// Error represents a failure raised by a driver operation
type Error struct {
	Driver    string
	Operation string
	Message   string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Driver + "." + e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return e.Driver + "." + e.Operation + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new driver Error
func NewError(driverName, operation, message string, cause error) *Error {
	return &Error{
		Driver:    driverName,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}
