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

import (
	"strconv"
	"time"
)

// Option keys understood by the bundled drivers
const (
	OptStrictURI              = "strict_uri"
	OptAppName                = "app_name"
	OptDatabase               = "database"
	OptMaxPoolSize            = "max_pool_size"
	OptMinPoolSize            = "min_pool_size"
	OptConnectTimeout         = "connect_timeout"
	OptSocketTimeout          = "socket_timeout"
	OptServerSelectionTimeout = "server_selection_timeout"
	OptReadPreference         = "read_preference"
	OptPingOnConnect          = "ping_on_connect"
)

// Options is a driver-specific option set. Values usually come straight from
// YAML or JSON decoding, so numbers may arrive as int or float64 and durations
// as strings.
type Options map[string]interface{}

// DefaultOptions is the option set applied when a connection is created
// without explicit options: strict connection-string parsing.
func DefaultOptions() Options {
	return Options{
		OptStrictURI: true,
	}
}

// Merge returns a new Options with the keys of others applied over o.
// Later maps win.
func (o Options) Merge(others ...Options) Options {
	merged := make(Options, len(o))
	for k, v := range o {
		merged[k] = v
	}
	for _, other := range others {
		for k, v := range other {
			merged[k] = v
		}
	}
	return merged
}

// String returns the string value for key
func (o Options) String(key string) (string, bool) {
	v, ok := o[key].(string)
	return v, ok && v != ""
}

// Bool returns the boolean value for key. "true"/"false" strings are accepted.
func (o Options) Bool(key string) (bool, bool) {
	switch v := o[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// Uint64 returns a non-negative integer value for key
func (o Options) Uint64(key string) (uint64, bool) {
	switch v := o[key].(type) {
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case uint64:
		return v, true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Duration returns a duration for key. Strings are parsed with
// time.ParseDuration, bare numbers are taken as milliseconds.
func (o Options) Duration(key string) (time.Duration, bool) {
	switch v := o[key].(type) {
	case time.Duration:
		return v, true
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, false
		}
		return d, true
	case int:
		return time.Duration(v) * time.Millisecond, true
	case float64:
		return time.Duration(v) * time.Millisecond, true
	}
	return 0, false
}

