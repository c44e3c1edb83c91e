package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/docqr/docqr/internal/api/middleware"
	"github.com/docqr/docqr/internal/api/response"
	"github.com/docqr/docqr/internal/ratelimit"
)

const healthCheckTimeout = 2 * time.Second

// DBPinger checks database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	dbPinger  DBPinger
	rateStore ratelimit.Store
	version   string
}

// NewHealthHandler creates a new HealthHandler. Either dependency may be nil.
func NewHealthHandler(dbPinger DBPinger, rateStore ratelimit.Store, version string) *HealthHandler {
	return &HealthHandler{
		dbPinger:  dbPinger,
		rateStore: rateStore,
		version:   version,
	}
}

type databaseStatus struct {
	Connected bool `json:"connected"`
}

type rateStoreStatus struct {
	Backend   string `json:"backend"`
	Connected bool   `json:"connected"`
}

type healthData struct {
	Status    string          `json:"status"`
	Version   string          `json:"version"`
	Database  databaseStatus  `json:"database"`
	RateStore rateStoreStatus `json:"rate_limit_store"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	data := healthData{
		Status:    "healthy",
		Version:   h.version,
		Database:  databaseStatus{Connected: h.pingDB(ctx, r)},
		RateStore: h.checkRateStore(ctx, r),
	}

	if !data.Database.Connected || !data.RateStore.Connected {
		data.Status = "degraded"
	}

	response.Success(w, http.StatusOK, data)
}

func (h *HealthHandler) pingDB(ctx context.Context, r *http.Request) bool {
	if h.dbPinger == nil {
		return false
	}
	if err := h.dbPinger.Ping(ctx); err != nil {
		middleware.Logger(r.Context()).Warn("database ping failed", "error", err)
		return false
	}
	return true
}

func (h *HealthHandler) checkRateStore(ctx context.Context, r *http.Request) rateStoreStatus {
	switch s := h.rateStore.(type) {
	case nil:
		return rateStoreStatus{Backend: "none"}
	case *ratelimit.MemoryStore:
		return rateStoreStatus{Backend: "memory", Connected: true}
	case ratelimit.Pinger:
		status := rateStoreStatus{Backend: "redis", Connected: true}
		if err := s.Ping(ctx); err != nil {
			middleware.Logger(r.Context()).Warn("rate limit store ping failed", "error", err)
			status.Connected = false
		}
		return status
	default:
		return rateStoreStatus{Backend: "custom", Connected: true}
	}
}
