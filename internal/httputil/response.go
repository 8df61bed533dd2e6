// Package httputil holds the error and pagination helpers of the management API.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/vaultemu/internal/errors"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// statusOf maps error classes to status codes. Lifecycle violations share 409
// with conflicts but keep their own code.
var statusOf = map[error]int{
	apperrors.ErrNotFound:     http.StatusNotFound,
	apperrors.ErrConflict:     http.StatusConflict,
	apperrors.ErrInvalidInput: http.StatusUnprocessableEntity,
	apperrors.ErrIllegalState: http.StatusConflict,
}

// HandleErrorGin maps err to its status code and writes the JSON error body.
// Unclassified errors become a 500 without details.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	status, code, message := http.StatusInternalServerError, apperrors.CodeInternal, "An internal error occurred"
	if class := apperrors.Classify(err); class != nil {
		status, code, message = statusOf[class], apperrors.Code(class), err.Error()
	}

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", status),
			slog.String("error_code", code),
			slog.Any("error", err),
		)
	}

	writeError(c, status, code, message)
}

// HandleBadRequestGin writes a 400 for malformed bodies or query parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}
	writeError(c, http.StatusBadRequest, "bad_request", err.Error())
}

// HandleValidationErrorGin writes a 422 for request bodies failing validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}
	writeError(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
}

func writeError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestid.Get(c),
	})
}
