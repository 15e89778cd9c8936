package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/pokr/internal/domain"
)

// CreateSession opens a new session.
// POST /api/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "body", "invalid request body")
	}

	session, err := h.service.CreateSession(ctx, req.FacilitatorName, req.SessionName)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, session)
}

// GetSessionStatus returns the session snapshot.
// GET /api/sessions/:code
func (h *Handler) GetSessionStatus(c echo.Context) error {
	status, err := h.service.GetSessionStatus(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// ValidateSessionCode reports whether a session can be joined.
// GET /api/sessions/:code/validate
func (h *Handler) ValidateSessionCode(c echo.Context) error {
	valid, err := h.service.ValidateSessionCode(c.Request().Context(), c.Param("code"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"valid": valid})
}

// ValidateParticipantName reports whether a name is still free.
// GET /api/sessions/:code/participants/available?name=
func (h *Handler) ValidateParticipantName(c echo.Context) error {
	available, err := h.service.ValidateParticipantName(c.Request().Context(), c.Param("code"), c.QueryParam("name"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"available": available})
}

// JoinSession adds a participant to a session.
// POST /api/sessions/:code/join
func (h *Handler) JoinSession(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.JoinSessionRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "body", "invalid request body")
	}

	info, err := h.service.JoinSession(ctx, c.Param("code"), req.ParticipantName)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}
