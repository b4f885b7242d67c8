package rest

import (
	"encoding/json"
	"net/http"

	"controleisp-backend/internal/service"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerProviderRequest struct {
	Name         string `json:"name"`
	NomeFantasia string `json:"nome_fantasia"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	CNPJ         string `json:"cnpj"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Bairro       string `json:"bairro"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		ErrorBadRequest(w, "username and password are required")
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	Success(w, "", result)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ErrorBadRequest(w, "invalid JSON")
		return
	}

	provider, err := h.authSvc.Register(r.Context(), service.RegisterProviderInput{
		Name:         req.Name,
		NomeFantasia: req.NomeFantasia,
		Email:        req.Email,
		Username:     req.Username,
		Password:     req.Password,
		CNPJ:         req.CNPJ,
		Phone:        req.Phone,
		Address:      req.Address,
		Bairro:       req.Bairro,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	SuccessCreated(w, "provider registered", provider)
}
