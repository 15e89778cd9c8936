// Package v1 provides the REST handlers for planning poker sessions.
package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/pokr/internal/service"
)

// Stats exposes push-channel counters for the health endpoint.
type Stats interface {
	GetConnectionCount() int
	GetSessionCount() int
}

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
	stats   Stats
	logger  *slog.Logger

	// exposeInternal echoes unexpected error details to the caller.
	exposeInternal bool
}

// Option configures a Handler.
type Option func(*Handler)

// WithStats reports push-channel counters on the health endpoint.
func WithStats(stats Stats) Option {
	return func(h *Handler) { h.stats = stats }
}

// WithLogger sets the handler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithInternalErrors echoes unexpected error messages in responses.
func WithInternalErrors(expose bool) Option {
	return func(h *Handler) { h.exposeInternal = expose }
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service, opts ...Option) *Handler {
	h := &Handler{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers the API routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	api.GET("/health", h.Health)

	// Sessions
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:code", h.GetSessionStatus)
	api.GET("/sessions/:code/validate", h.ValidateSessionCode)
	api.GET("/sessions/:code/participants/available", h.ValidateParticipantName)
	api.POST("/sessions/:code/join", h.JoinSession)

	// Stories
	api.POST("/sessions/:code/stories", h.AddStory)
	api.PUT("/sessions/:code/stories/:id/activate", h.SetActiveStory)
	api.POST("/sessions/:code/stories/:id/reveal", h.RevealVotes)
	api.PUT("/sessions/:code/stories/:id/finalize", h.FinalizeEstimate)

	// Votes
	api.POST("/sessions/:code/votes", h.SubmitVote)
}

// Health returns health status.
// GET /api/health
func (h *Handler) Health(c echo.Context) error {
	resp := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"message":   "Planning poker API is running",
	}
	if h.stats != nil {
		resp["connections"] = h.stats.GetConnectionCount()
		resp["sessionGroups"] = h.stats.GetSessionCount()
	}
	return c.JSON(http.StatusOK, resp)
}
