// Package http provides the HTTP server for the planning poker API.
package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/pokr/internal/config"
	"github.com/xiaot623/pokr/internal/hub"
	"github.com/xiaot623/pokr/internal/service"
	v1 "github.com/xiaot623/pokr/internal/transport/http/v1"
	"github.com/xiaot623/pokr/internal/transport/ws"
)

// NewServer creates and configures the HTTP server. It serves the REST API
// under /api and the event stream on /ws.
func NewServer(cfg *config.Config, svc *service.Service, h *hub.Hub, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			v1.HeaderParticipantName,
		},
		AllowCredentials: true,
	}))

	// Handlers
	v1Handler := v1.NewHandler(svc,
		v1.WithStats(h),
		v1.WithLogger(logger),
		v1.WithInternalErrors(cfg.IsDevelopment()),
	)
	wsServer := ws.NewServer(cfg.WebSocket, h, svc, cfg.CORSOrigins, logger)

	// Register Routes
	v1Handler.RegisterRoutes(e)
	e.GET("/ws", wsServer.HandleWebSocket)

	return e
}
