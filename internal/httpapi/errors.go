package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"klipperwatch/internal/monitor"
	"klipperwatch/internal/printer"
	"klipperwatch/pkg/types"
)

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	if _, ok := printer.AsFailure(err); ok {
		return http.StatusBadGateway
	}
	switch {
	case errors.Is(err, monitor.ErrEmptyConversation):
		return http.StatusBadRequest
	case errors.Is(err, monitor.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger().Error().Err(err).Msg("encode response")
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
