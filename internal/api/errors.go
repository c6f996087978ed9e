package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"islandstay/internal/remote"
	"islandstay/internal/service"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps a service or remote error to a status and a message
// safe to show to the user.
func writeServiceError(w http.ResponseWriter, err error) {
	status, message := errorStatus(err)
	writeError(w, status, message)
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidBooking),
		errors.Is(err, service.ErrInvalidFilter),
		errors.Is(err, service.ErrInvalidListing),
		errors.Is(err, service.ErrUnknownBusinessType),
		errors.Is(err, service.ErrInvalidRegistration):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized, "sign in required"
	case errors.Is(err, service.ErrTooManyAttempts):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, service.ErrSignUpPending):
		return http.StatusConflict, err.Error()
	case errors.Is(err, service.ErrNoBusiness):
		return http.StatusForbidden, err.Error()
	}

	var re *remote.Error
	if !errors.As(err, &re) {
		return http.StatusInternalServerError, "internal error"
	}

	switch re.Kind {
	case remote.KindUnauthorized:
		return http.StatusUnauthorized, "sign in required"
	case remote.KindNotFound:
		return http.StatusNotFound, "not found"
	case remote.KindUnavailable:
		return http.StatusServiceUnavailable, "service temporarily unavailable"
	case remote.KindRemote:
		if re.Status >= 400 && re.Status < 500 {
			return http.StatusConflict, re.Message
		}
	}
	return http.StatusBadGateway, "upstream service error"
}
