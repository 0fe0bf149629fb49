package middleware

import (
	"encoding/json"
	"net/http"

	"upgradify/pkg/errors"
	"upgradify/pkg/logger"
)

// WriteJSON writes data as a JSON response with the given status
func WriteJSON(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

// WriteError writes err as the JSON error envelope. Anything that is not an
// AppError is reported as an internal error.
func WriteError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.NewInternalError("Internal server error", err)
	}

	entry := log.WithError(err).WithFields(map[string]interface{}{
		"path":        r.URL.Path,
		"status_code": appErr.StatusCode,
		"request_id":  GetRequestID(r.Context()),
	})
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	WriteJSON(w, log, appErr.StatusCode, errors.NewErrorResponse(appErr, GetRequestID(r.Context())))
}
