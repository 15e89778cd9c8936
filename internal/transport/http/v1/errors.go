package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xiaot623/pokr/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message          string              `json:"message"`
	ErrorCode        string              `json:"errorCode"`
	ValidationErrors map[string][]string `json:"validationErrors,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
	Path             string              `json:"path"`
	TraceID          string              `json:"traceId,omitempty"`
}

var kindStatus = map[domain.Kind]int{
	domain.KindValidation:   http.StatusBadRequest,
	domain.KindNotFound:     http.StatusNotFound,
	domain.KindConflict:     http.StatusConflict,
	domain.KindBusinessRule: http.StatusBadRequest,
}

// respondError writes err as an ErrorResponse.
func (h *Handler) respondError(c echo.Context, err error) error {
	resp := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      c.Request().URL.Path,
		TraceID:   c.Response().Header().Get(echo.HeaderXRequestID),
	}

	var de *domain.Error
	if errors.As(err, &de) {
		if status, ok := kindStatus[de.Kind]; ok {
			resp.Message = de.Message
			resp.ErrorCode = string(de.Kind)
			resp.ValidationErrors = de.Fields
			return c.JSON(status, resp)
		}
	}

	h.logger.Error("request failed", "method", c.Request().Method, "path", resp.Path, "trace_id", resp.TraceID, "error", err)
	resp.ErrorCode = string(domain.KindInternal)
	resp.Message = "An unexpected error occurred"
	if h.exposeInternal {
		resp.Message = err.Error()
	}
	return c.JSON(http.StatusInternalServerError, resp)
}

// badRequest reports a single invalid field.
func (h *Handler) badRequest(c echo.Context, field, message string) error {
	return h.respondError(c, domain.NewValidationError(map[string][]string{field: {message}}))
}
