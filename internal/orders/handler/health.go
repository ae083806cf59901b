package handler

import (
	"context"
	"net/http"
	"time"

	httputil "ptcms/pkg/http"
	kafka_middleware "ptcms/pkg/kafka/middleware"
	"ptcms/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

const (
	checkOK          = "ok"
	checkError       = "error"
	checkUnavailable = "unavailable"
)

type Pinger func(ctx context.Context) error

// HealthChecks are the dependencies probed by /ready. Nil entries are not
// configured and are skipped. The cache is optional: a failed cache ping is
// reported but does not fail readiness.
type HealthChecks struct {
	Backend  Pinger
	Database Pinger
	Cache    Pinger
	Events   *kafka_middleware.Metrics
}

type HealthResponse struct {
	Status   string                            `json:"status"`
	Backend  string                            `json:"backend,omitempty"`
	Database string                            `json:"database,omitempty"`
	Cache    string                            `json:"cache,omitempty"`
	Events   *kafka_middleware.MetricsSnapshot `json:"events,omitempty"`
}

type HealthHandler struct {
	checks HealthChecks
	log    *logger.Logger
}

func NewHealthHandler(checks HealthChecks, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		checks: checks,
		log:    log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "ready"}
	ready := true

	if h.checks.Backend != nil {
		resp.Backend = h.probe(ctx, "backend", h.checks.Backend, r.URL.Path)
		ready = ready && resp.Backend == checkOK
	}
	if h.checks.Database != nil {
		resp.Database = h.probe(ctx, "database", h.checks.Database, r.URL.Path)
		ready = ready && resp.Database == checkOK
	}
	if h.checks.Cache != nil {
		resp.Cache = h.probe(ctx, "cache", h.checks.Cache, r.URL.Path)
	}
	if h.checks.Events != nil {
		snap := h.checks.Events.Snapshot()
		resp.Events = &snap
	}

	status := http.StatusOK
	if !ready {
		resp.Status = checkUnavailable
		status = http.StatusServiceUnavailable
	}

	if err := httputil.WriteJSON(w, status, resp); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) probe(ctx context.Context, name string, ping Pinger, path string) string {
	if err := ping(ctx); err != nil {
		h.log.Error("Health check failed",
			"dependency", name,
			"error", err,
			"path", path,
		)
		return checkError
	}
	return checkOK
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
