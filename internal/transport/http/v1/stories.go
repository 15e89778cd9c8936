package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/pokr/internal/domain"
)

var errStoryNotInSession = &domain.Error{Kind: domain.KindBusinessRule, Code: domain.RuleStoryNotInSession}

// storyID parses the :id path parameter.
func storyID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// AddStory appends a story to a session.
// POST /api/sessions/:code/stories
func (h *Handler) AddStory(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.AddStoryRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "body", "invalid request body")
	}

	story, err := h.service.AddStory(ctx, c.Param("code"), req.Title)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, story)
}

// SetActiveStory opens a story for voting.
// PUT /api/sessions/:code/stories/:id/activate
func (h *Handler) SetActiveStory(c echo.Context) error {
	id, ok := storyID(c)
	if !ok {
		return h.badRequest(c, "storyId", "Story id must be a positive number")
	}

	if err := h.service.SetActiveStory(c.Request().Context(), c.Param("code"), id); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "Story activated",
		"storyId": id,
	})
}

// RevealVotes discloses the votes of a story. A story from another session
// is reported as not found.
// POST /api/sessions/:code/stories/:id/reveal
func (h *Handler) RevealVotes(c echo.Context) error {
	id, ok := storyID(c)
	if !ok {
		return h.badRequest(c, "storyId", "Story id must be a positive number")
	}

	results, err := h.service.RevealVotes(c.Request().Context(), c.Param("code"), id)
	if errors.Is(err, errStoryNotInSession) {
		err = domain.NewNotFoundError("Story", id)
	}
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, results)
}

// FinalizeEstimate commits the final points of a story.
// PUT /api/sessions/:code/stories/:id/finalize
func (h *Handler) FinalizeEstimate(c echo.Context) error {
	id, ok := storyID(c)
	if !ok {
		return h.badRequest(c, "storyId", "Story id must be a positive number")
	}

	var req domain.FinalizeEstimateRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "body", "invalid request body")
	}

	if err := h.service.FinalizeEstimate(c.Request().Context(), c.Param("code"), id, req.FinalPoints); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":     "Estimate finalized",
		"finalPoints": req.FinalPoints,
	})
}
