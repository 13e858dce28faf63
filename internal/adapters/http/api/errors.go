package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/casting-intake/internal/core/services"
)

const (
	TokenHeader        = "X-Upload-Token"
	TokenExpiredHeader = "X-Upload-Token-Expired"

	maxJSONBody = 1 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to status codes. Provider diagnostics are
// logged but never echoed to the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrUnknownProvider):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrTokenExpired):
		w.Header().Set(TokenExpiredHeader, "true")
		status, msg = http.StatusUnauthorized, "token expired"
	case errors.Is(err, services.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, services.ErrProjectNotFound):
		status, msg = http.StatusNotFound, "project not found"
	case errors.Is(err, services.ErrRoleNotFound):
		status, msg = http.StatusNotFound, "role not found"
	case errors.Is(err, services.ErrProcessingFailed):
		status, msg = http.StatusUnprocessableEntity, "video processing failed"
	case errors.Is(err, services.ErrProviderCreateFailed):
		status, msg = http.StatusBadGateway, "could not create video"
	case errors.Is(err, services.ErrUploadTransport):
		status, msg = http.StatusBadGateway, "upload to provider failed"
	case errors.Is(err, services.ErrChannelProvision):
		status, msg = http.StatusBadGateway, "could not provision channel"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", services.ErrInvalidInput)
	}
	return nil
}
