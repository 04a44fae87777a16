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

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a Registry
type Metrics struct {
	connectionRequests *prometheus.CounterVec
	modelsCompiled     *prometheus.CounterVec
	cachedConnections  prometheus.Gauge
	cachedSchemas      prometheus.Gauge
}

// NewMetrics creates registry collectors and registers them on reg.
// A nil reg yields working but unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		connectionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connmgr_connection_requests_total",
				Help: "Connection requests by outcome (hit, created, stored, error)",
			},
			[]string{"result"},
		),
		modelsCompiled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "connmgr_models_compiled_total",
				Help: "Model compilations by outcome",
			},
			[]string{"result"},
		),
		cachedConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "connmgr_cached_connections",
				Help: "Number of connection handles currently cached",
			},
		),
		cachedSchemas: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "connmgr_cached_schemas",
				Help: "Number of schema definitions currently cached",
			},
		),
	}
}

func (m *Metrics) connection(result string) {
	m.connectionRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) compile(err error) {
	if err != nil {
		m.modelsCompiled.WithLabelValues("error").Inc()
		return
	}
	m.modelsCompiled.WithLabelValues("ok").Inc()
}
