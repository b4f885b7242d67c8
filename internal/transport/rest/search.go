package rest

import (
	"encoding/json"
	"net/http"

	"controleisp-backend/internal/repository"
	"controleisp-backend/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

type searchRequest struct {
	SearchTerm string `json:"search_term"`
	SearchType string `json:"search_type"`
	Seq        uint64 `json:"seq"`
}

// searchClients is the cross-provider search endpoint. The mode comes
// from the URL; a search_type in the body, if present, must agree.
// Responses echo the request seq and a stale flag so the dashboard can
// drop answers that were superseded while in flight.
func (h *Handler) searchClients(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	modeParam := chi.URLParam(r, "search_type")
	mode, ok := parseSearchMode(modeParam)
	if !ok {
		ErrorBadRequest(w, "search type must be name, cpf or address")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}
	if req.SearchType != "" && req.SearchType != modeParam {
		ErrorBadRequest(w, "search_type does not match the requested mode")
		return
	}

	result, err := h.search.Search(r.Context(), providerID, mode, req.SearchTerm, req.Seq)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "", result)
}

func parseSearchMode(raw string) (repository.SearchMode, bool) {
	switch repository.SearchMode(raw) {
	case repository.SearchByName, repository.SearchByCPF, repository.SearchByAddress:
		return repository.SearchMode(raw), true
	default:
		return "", false
	}
}
