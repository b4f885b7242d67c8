package rest

import (
	"encoding/json"
	"net/http"

	"controleisp-backend/internal/service"
	"controleisp-backend/internal/transport/auth"

	"github.com/go-chi/chi/v5"
)

type createClientRequest struct {
	Name          string  `json:"name"`
	CPF           string  `json:"cpf"`
	Email         string  `json:"email"`
	Phone         string  `json:"phone"`
	Address       string  `json:"address"`
	Bairro        string  `json:"bairro"`
	DebtAmount    float64 `json:"debt_amount"`
	Reason        string  `json:"reason"`
	InclusionDate string  `json:"inclusion_date"`
	Observations  string  `json:"observations"`
	RiskLevel     int     `json:"risk_level"`
}

type checkCPFRequest struct {
	CPF string `json:"cpf"`
}

type updatePhoneRequest struct {
	Phone string `json:"phone"`
}

type updateDebtRequest struct {
	DebtAmount float64 `json:"debt_amount"`
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	h.listBook(w, r, true)
}

func (h *Handler) listAllClients(w http.ResponseWriter, r *http.Request) {
	h.listBook(w, r, false)
}

func (h *Handler) listBook(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	clients, err := h.clients.List(r.Context(), providerID, activeOnly)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "", clients)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	client, err := h.clients.Create(r.Context(), providerID, service.CreateClientInput{
		Name:          req.Name,
		CPF:           req.CPF,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		Bairro:        req.Bairro,
		DebtAmount:    req.DebtAmount,
		Reason:        req.Reason,
		InclusionDate: req.InclusionDate,
		Observations:  req.Observations,
		RiskLevel:     req.RiskLevel,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	SuccessCreated(w, "client registered", client)
}

// checkCPF is the duplicate guard endpoint: it never blocks on a
// partial CPF, it reports one of four states so the form can render
// "still typing" and "taken" differently.
func (h *Handler) checkCPF(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var req checkCPFRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	check, err := h.clients.CheckCPF(r.Context(), providerID, req.CPF)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "", check)
}

func (h *Handler) deactivateClient(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	clientID := chi.URLParam(r, "client_id")
	if err := h.clients.Deactivate(r.Context(), providerID, clientID); err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "client removed from the negative list", nil)
}

func (h *Handler) updateClientPhone(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var req updatePhoneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	clientID := chi.URLParam(r, "client_id")
	if err := h.clients.UpdatePhone(r.Context(), providerID, clientID, req.Phone); err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "phone updated", nil)
}

func (h *Handler) updateClientDebt(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	var req updateDebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	clientID := chi.URLParam(r, "client_id")
	if err := h.clients.UpdateDebt(r.Context(), providerID, clientID, req.DebtAmount); err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "debt amount updated", nil)
}

func (h *Handler) providerStats(w http.ResponseWriter, r *http.Request) {
	providerID, err := auth.GetProviderID(r.Context())
	if err != nil {
		ErrorUnauthorized(w, "Unauthorized")
		return
	}

	stats, err := h.clients.Stats(r.Context(), providerID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "", stats)
}
