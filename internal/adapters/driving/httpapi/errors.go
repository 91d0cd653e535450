package httpapi

import (
	"errors"
	"net/http"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

var (
	// ErrMissingAnswerService is returned when no answer service is wired.
	ErrMissingAnswerService = errors.New("httpapi: answer service is required")

	// ErrMissingHistoryService is returned when no history service is wired.
	ErrMissingHistoryService = errors.New("httpapi: history service is required")
)

// statusFor maps a domain error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCompletionFailed), errors.Is(err, domain.ErrEmbeddingUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrLLMUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
