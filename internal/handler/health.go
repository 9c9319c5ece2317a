package handler

import (
	"context"
	"time"

	"vowel-quiz/internal/domain"
	"vowel-quiz/internal/dto"
	"vowel-quiz/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthHandler reports liveness and cache reachability.
type HealthHandler struct {
	cache     domain.Cache
	cacheName string
}

// NewHealthHandler creates a HealthHandler. cacheName is reported when the
// cache answers its ping.
func NewHealthHandler(cache domain.Cache, cacheName string) *HealthHandler {
	return &HealthHandler{cache: cache, cacheName: cacheName}
}

// Health handles GET /healthz. A cache outage degrades the status but never
// fails the probe, since the quiz works without it.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{Status: "ok", Cache: h.cacheName}
	if h.cache == nil {
		resp.Cache = "none"
		return c.JSON(resp)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()
	if err := h.cache.Ping(ctx); err != nil {
		logger.Get().Warn("Cache ping failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Cache = "unreachable"
	}
	return c.JSON(resp)
}
