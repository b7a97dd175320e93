package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Lekka141/VaultConnect/internal/server/storage"
	"github.com/Lekka141/VaultConnect/pkg/api"
)

const healthPingTimeout = 2 * time.Second

// HealthHandler reports whether the server can reach its account store.
type HealthHandler struct {
	logger  *slog.Logger
	store   storage.Pinger
	version string
}

// NewHealthHandler creates a HealthHandler. store may be nil.
func NewHealthHandler(logger *slog.Logger, store storage.Pinger, version string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	return &HealthHandler{
		logger:  logger,
		store:   store,
		version: version,
	}
}

// Health handles GET /api/v1/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := h.store.Ping(ctx); err != nil {
			h.logger.WarnContext(ctx, "health check: storage ping failed", slog.Any("error", err))
			SendJSON(h.logger, w, api.HealthResponse{Status: "unavailable", Version: h.version}, http.StatusServiceUnavailable)
			return
		}
	}

	SendJSON(h.logger, w, api.HealthResponse{Status: "ok", Version: h.version}, http.StatusOK)
}
