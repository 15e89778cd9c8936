package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/pokr/internal/domain"
)

// HeaderParticipantName carries the name of the voting participant.
const HeaderParticipantName = "X-Participant-Name"

// SubmitVote records the caller's vote for the current story.
// POST /api/sessions/:code/votes
func (h *Handler) SubmitVote(c echo.Context) error {
	ctx := c.Request().Context()

	var req domain.SubmitVoteRequest
	if err := c.Bind(&req); err != nil {
		return h.badRequest(c, "body", "invalid request body")
	}

	vote, err := h.service.SubmitVote(ctx, c.Param("code"), c.Request().Header.Get(HeaderParticipantName), req.Estimate)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, vote)
}
