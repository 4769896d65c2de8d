package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/schema"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code       string             `json:"code"`
	Message    string             `json:"message"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// WriteError maps application errors to HTTP responses. Raw errors never
// reach the client; everything is translated through the taxonomy first.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	detail := ErrorDetail{
		Code:    errorCode,
		Message: err.Error(),
	}

	if svcErr, ok := application.IsServiceError(err); ok {
		detail.Violations = svcErr.Violations
		if statusCode >= http.StatusInternalServerError {
			// Internal messages can leak driver details; keep them in logs.
			detail.Message = svcErr.Message
		}
	}

	if statusCode >= http.StatusInternalServerError {
		logger.Error("request failed", "status", statusCode, "error", err)
	}

	response := ErrorResponse{
		Success: false,
		Error:   detail,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}
