package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"waitlist/internal/domain"
)

// WriteDomainError maps a service error onto the API error envelope. An
// unverified entry is echoed back in data. Errors that match no domain
// sentinel are logged and reported as 500.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var unverified *domain.UnverifiedEntryError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, "not found")
	case errors.As(err, &unverified) && unverified.Entry != nil:
		WriteJSON(w, http.StatusConflict, unverified.Entry, &APIError{Code: ErrCodeUnverifiedEntry, Message: domain.ErrUnverifiedEntry.Error()})
	case errors.Is(err, domain.ErrUnverifiedEntry):
		WriteJSONError(w, http.StatusConflict, ErrCodeUnverifiedEntry, domain.ErrUnverifiedEntry.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		WriteJSONError(w, http.StatusConflict, ErrCodeInvalidTransition, domain.ErrInvalidTransition.Error())
	case errors.Is(err, domain.ErrDuplicateEntry),
		errors.Is(err, domain.ErrDuplicateSlug),
		errors.Is(err, domain.ErrAlreadyVerified):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, "unauthorized")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, "internal error")
	}
}
