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

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"axonflow/connmgr/driver"
	"axonflow/connmgr/registry"
	"axonflow/connmgr/schema"
	"axonflow/connmgr/shared/logger"
)

const (
	// maxSchemaBody bounds PUT /api/v1/schemas/{name} bodies
	maxSchemaBody = 1 << 20
	// healthPingTimeout bounds each connection ping in /health
	healthPingTimeout = 2 * time.Second
)

// Handler serves the admin API over a connection registry
type Handler struct {
	registry *registry.Registry
	gatherer prometheus.Gatherer
	logger   *logger.Logger
}

// NewHandler creates a handler. A nil gatherer serves the default
// Prometheus registry on /metrics; a nil logger logs to stdout.
func NewHandler(reg *registry.Registry, gatherer prometheus.Gatherer, log *logger.Logger) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	if log == nil {
		log = logger.New("connmgr-server")
	}
	return &Handler{
		registry: reg,
		gatherer: gatherer,
		logger:   log,
	}
}

// RegisterRoutes registers the admin routes with a gorilla/mux router
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods("GET")

	r.HandleFunc("/api/v1/connections", h.ListConnections).Methods("GET")
	r.HandleFunc("/api/v1/connections", h.DeleteConnection).Methods("DELETE")
	r.HandleFunc("/api/v1/schemas", h.ListSchemas).Methods("GET")
	r.HandleFunc("/api/v1/schemas/{name}", h.GetSchema).Methods("GET")
	r.HandleFunc("/api/v1/schemas/{name}", h.PutSchema).Methods("PUT")
	r.HandleFunc("/api/v1/schemas/{name}", h.DeleteSchema).Methods("DELETE")
	r.HandleFunc("/api/v1/models/{name}", h.CompileModel).Methods("POST")
}

// Router returns the routes wrapped with request logging and CORS
func (h *Handler) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(h.requestLogger)
	h.RegisterRoutes(r)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	})
	return c.Handler(r)
}

// Health handles GET /health. Every cached connection is pinged; any failure
// reports 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "healthy", Connections: []ConnectionHealth{}}

	for _, uri := range h.registry.URIs() {
		conn, ok := h.registry.Connection(uri)
		if !ok {
			continue
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		err := conn.Ping(ctx)
		cancel()

		ch := ConnectionHealth{URI: registry.MaskURI(uri), Status: "up"}
		if err != nil {
			ch.Status = "down"
			ch.Error = err.Error()
			resp.Status = "degraded"
		}
		resp.Connections = append(resp.Connections, ch)
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	h.writeJSON(w, status, resp)
}

// ListConnections handles GET /api/v1/connections
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	uris := h.registry.URIs()
	masked := make([]string, len(uris))
	for i, uri := range uris {
		masked[i] = registry.MaskURI(uri)
	}

	h.writeJSON(w, http.StatusOK, ConnectionsResponse{
		Connections: masked,
		Stats:       h.registry.Stats(),
	})
}

// DeleteConnection handles DELETE /api/v1/connections?uri=...[&close=true].
// The handle is only closed when close=true.
func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "uri query parameter is required")
		return
	}

	conn, ok := h.registry.TakeConnection(uri)
	if !ok {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Connection not cached")
		return
	}

	if closeConn, _ := strconv.ParseBool(r.URL.Query().Get("close")); closeConn {
		if err := conn.Close(r.Context()); err != nil {
			h.logger.Warn(requestID(r), "Failed to close deleted connection", map[string]interface{}{
				"uri":   registry.MaskURI(uri),
				"error": err.Error(),
			})
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSchemas handles GET /api/v1/schemas
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, SchemasResponse{Schemas: h.registry.SchemaNames()})
}

// GetSchema handles GET /api/v1/schemas/{name}
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	s, ok := h.registry.Schema(name)
	if !ok {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Schema not found")
		return
	}
	h.writeJSON(w, http.StatusOK, s)
}

// PutSchema handles PUT /api/v1/schemas/{name}. The body is a YAML or JSON
// schema document.
func (h *Handler) PutSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	body, err := io.ReadAll(io.LimitReader(r.Body, maxSchemaBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Failed to read request body")
		return
	}

	if len(bytes.TrimSpace(body)) == 0 {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "Request body is required")
		return
	}

	s, err := schema.Parse(body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_SCHEMA", err.Error())
		return
	}

	h.registry.AddSchema(name, s)
	h.writeJSON(w, http.StatusOK, s)
}

// DeleteSchema handles DELETE /api/v1/schemas/{name}
func (h *Handler) DeleteSchema(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if !h.registry.RemoveSchema(name) {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Schema not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CompileModel handles POST /api/v1/models/{name}?uri=... It connects (or
// reuses the cached connection) and compiles the stored schema of that name.
func (h *Handler) CompileModel(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		h.writeError(w, http.StatusBadRequest, "BAD_REQUEST", "uri query parameter is required")
		return
	}

	conn, err := h.registry.GetOrCreateConnection(r.Context(), uri)
	if err != nil {
		h.logger.ErrorWithCode(requestID(r), "Connection failed", http.StatusBadGateway, err, map[string]interface{}{
			"uri": registry.MaskURI(uri),
		})
		h.writeError(w, http.StatusBadGateway, "CONNECTION_FAILED", "Failed to connect")
		return
	}

	model, err := h.registry.BuildModelFromSchema(conn, name)
	switch {
	case err == nil:
	case errors.Is(err, registry.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
		return
	case errors.Is(err, driver.ErrModelOverwrite):
		h.writeError(w, http.StatusConflict, "MODEL_CONFLICT", err.Error())
		return
	default:
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
		return
	}

	h.writeJSON(w, http.StatusCreated, ModelResponse{
		ID:         model.ID(),
		Name:       model.Name(),
		Connection: registry.MaskURI(conn.URI()),
		Collection: model.Schema().CollectionName(model.Name()),
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, ErrorResponse{
		Error:   strings.ToLower(code),
		Code:    code,
		Message: message,
	})
}
