package rest

import (
	"errors"
	"log"
	"net/http"

	"controleisp-backend/internal/service"
)

// handleServiceError maps service errors onto HTTP statuses. Local
// validation failures become 400, duplicate CPFs 409 with the
// conflicting record, lapsed subscriptions 402; anything else is an
// opaque 500.
func handleServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		ErrorBadRequest(w, verr.Error())
		return
	}

	var dup *service.DuplicateCPFError
	if errors.As(err, &dup) {
		ErrorConflict(w, "CPF already registered", map[string]interface{}{
			"conflicting_record": dup.Conflicting,
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		ErrorNotFound(w, "not found")
	case errors.Is(err, service.ErrSubscriptionLapsed):
		ErrorPaymentRequired(w, "subscription expired, renew to keep using the system")
	case errors.Is(err, service.ErrInvalidCredentials):
		ErrorUnauthorized(w, "invalid credentials")
	default:
		log.Printf("[HTTP] internal error: %v", err)
		ErrorInternal(w, "internal error")
	}
}
