package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Nathino/UQRCODE/cache"
	"github.com/Nathino/UQRCODE/config"
	"github.com/Nathino/UQRCODE/persistence"
	"github.com/Nathino/UQRCODE/remote"
	"github.com/Nathino/UQRCODE/scan"

	"github.com/rs/zerolog/log"
)

// Handler serves the persistence façade over HTTP. Authentication is a
// separate collaborator; the owning userID arrives with each request.
type Handler struct {
	svc     *persistence.Service
	tracker *scan.Tracker
	store   *remote.Store
	hot     *cache.Cache
	config  config.Config
	baseURL string
}

// New creates the HTTP handler with its dependencies injected.
func New(svc *persistence.Service, tracker *scan.Tracker, store *remote.Store, hot *cache.Cache, cfg config.Config) *Handler {
	baseURL := cfg.WebServer.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("%s://%s:%s", cfg.WebServer.Scheme, cfg.WebServer.IP, cfg.WebServer.Port)
	}
	return &Handler{
		svc:     svc,
		tracker: tracker,
		store:   store,
		hot:     hot,
		config:  cfg,
		baseURL: baseURL,
	}
}

func (h *Handler) requestCtx(r *http.Request) (context.Context, context.CancelFunc) {
	timeout := time.Duration(h.config.Redis.OperationTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	// Handlers cross several store calls per request.
	return context.WithTimeout(r.Context(), 2*timeout)
}

// HealthCheck handles GET /health
// @Summary Health check
// @Description Reports service health and remote store reachability
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string "Service status"
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestCtx(r)
	defer cancel()

	status := map[string]string{"status": "ok", "remote": "reachable"}
	if err := h.store.Ping(ctx); err != nil {
		// Degraded, not down: the cache tier still serves reads.
		log.Warn().Err(err).Msg("Health check: remote store unreachable")
		status["remote"] = "unreachable"
	}
	SendJSONSuccess(w, http.StatusOK, status)
}

// CacheMetrics handles GET /cache/metrics
// @Summary Cache metrics
// @Description Returns hot-cache hit/miss statistics
// @Tags System
// @Produce json
// @Success 200 {object} cache.MetricsSnapshot "Cache metrics"
// @Router /cache/metrics [get]
func (h *Handler) CacheMetrics(w http.ResponseWriter, r *http.Request) {
	SendJSONSuccess(w, http.StatusOK, h.hot.GetMetricsSnapshot())
}
