package rest

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"controleisp-backend/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

type exportRequest struct {
	Fields []string `json:"fields"`
}

func (h *Handler) exportClients(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	exportID, err := h.exports.StartClientsExport(r.Context(), providerID, req.Fields)
	if err != nil {
		log.Printf("[HTTP] startClientsExport error: %v", err)
		ErrorInternal(w, "failed to start export")
		return
	}

	SuccessAccepted(w, "export queued", map[string]interface{}{
		"export_id": exportID,
	})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exports, err := h.exports.GetExports(r.Context(), providerID)
	if err != nil {
		log.Printf("[HTTP] listExports error: %v", err)
		ErrorInternal(w, "failed to get exports")
		return
	}

	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	exportID := "exports:" + exportIDParam

	export, err := h.exports.GetExport(r.Context(), exportID, providerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "", export)
}
