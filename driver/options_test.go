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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	strict, ok := opts.Bool(OptStrictURI)
	assert.True(t, ok)
	assert.True(t, strict)
}

func TestOptions_Merge(t *testing.T) {
	base := Options{"a": 1, "b": "x"}
	merged := base.Merge(Options{"b": "y"}, nil, Options{"c": true})

	assert.Equal(t, Options{"a": 1, "b": "y", "c": true}, merged)
	// receiver untouched
	assert.Equal(t, "x", base["b"])
}

func TestOptions_Merge_NilReceiver(t *testing.T) {
	var o Options
	merged := o.Merge(Options{"k": "v"})
	assert.Equal(t, Options{"k": "v"}, merged)
}

func TestOptions_Accessors(t *testing.T) {
	opts := Options{
		"str":       "hello",
		"empty":     "",
		"bool":      true,
		"boolStr":   "false",
		"int":       10,
		"float":     float64(25),
		"negative":  -1,
		"uintStr":   "42",
		"dur":       "1500ms",
		"durMillis": 200,
		"bad":       []string{"x"},
	}

	tests := []struct {
		name string
		fn   func() (interface{}, bool)
		want interface{}
		ok   bool
	}{
		{"string", func() (interface{}, bool) { return opts.String("str") }, "hello", true},
		{"empty string", func() (interface{}, bool) { return opts.String("empty") }, "", false},
		{"bool", func() (interface{}, bool) { return opts.Bool("bool") }, true, true},
		{"bool from string", func() (interface{}, bool) { return opts.Bool("boolStr") }, false, true},
		{"bool wrong type", func() (interface{}, bool) { return opts.Bool("bad") }, false, false},
		{"uint from int", func() (interface{}, bool) { return opts.Uint64("int") }, uint64(10), true},
		{"uint from float", func() (interface{}, bool) { return opts.Uint64("float") }, uint64(25), true},
		{"uint negative", func() (interface{}, bool) { return opts.Uint64("negative") }, uint64(0), false},
		{"uint from string", func() (interface{}, bool) { return opts.Uint64("uintStr") }, uint64(42), true},
		{"duration string", func() (interface{}, bool) { return opts.Duration("dur") }, 1500 * time.Millisecond, true},
		{"duration millis", func() (interface{}, bool) { return opts.Duration("durMillis") }, 200 * time.Millisecond, true},
		{"duration missing", func() (interface{}, bool) { return opts.Duration("missing") }, time.Duration(0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.fn()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError("mongodb", "Connect", "failed to connect", cause)

	assert.Equal(t, "mongodb.Connect: failed to connect (cause: connection refused)", err.Error())
	assert.True(t, errors.Is(err, cause))

	noCause := NewError("mongodb", "Model", "name required", nil)
	assert.Equal(t, "mongodb.Model: name required", noCause.Error())
	assert.Nil(t, noCause.Unwrap())
}
