package rest

import (
	"context"
	"net/http"
	"time"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/metrics"
	"controleisp-backend/internal/repository"
	"controleisp-backend/internal/service"
	"controleisp-backend/internal/transport/auth"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type ClientBook interface {
	List(ctx context.Context, providerID string, activeOnly bool) ([]domain.Client, error)
	CheckCPF(ctx context.Context, providerID, candidate string) (service.CPFCheck, error)
	Create(ctx context.Context, providerID string, in service.CreateClientInput) (*domain.Client, error)
	Deactivate(ctx context.Context, providerID, clientID string) error
	UpdatePhone(ctx context.Context, providerID, clientID, phone string) error
	UpdateDebt(ctx context.Context, providerID, clientID string, amount float64) error
	Stats(ctx context.Context, providerID string) (domain.ProviderStats, error)
}

type Searcher interface {
	Search(ctx context.Context, providerID string, mode repository.SearchMode, term string, seq uint64) (*service.SearchResult, error)
}

type Exporter interface {
	StartClientsExport(ctx context.Context, providerID string, selected []string) (string, error)
	GetExports(ctx context.Context, providerID string) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID, providerID string) (*service.ExportStatus, error)
}

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	Register(ctx context.Context, in service.RegisterProviderInput) (*domain.Provider, error)
	RequireActiveSubscription(ctx context.Context, providerID string) error
}

type Handler struct {
	clients ClientBook
	search  Searcher
	exports Exporter
	authSvc Authenticator
}

func NewHandler(clients ClientBook, search Searcher, exports Exporter, authSvc Authenticator) *Handler {
	return &Handler{
		clients: clients,
		search:  search,
		exports: exports,
		authSvc: authSvc,
	}
}

// InitRouter builds the API router. Login and registration stay
// public; everything under /provider requires a valid token and an
// active subscription.
func (h *Handler) InitRouter(authMiddleware func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		metrics.HTTPMiddleware,
	)

	r.Post("/auth/provider/login", h.login)
	r.Post("/provider/register", h.register)

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(h.requireSubscription)

		r.Route("/provider", func(r chi.Router) {
			r.Get("/clients", h.listClients)
			r.Get("/clients/all", h.listAllClients)
			r.Post("/clients", h.createClient)
			r.Post("/clients/check-cpf", h.checkCPF)
			r.Delete("/clients/{client_id}", h.deactivateClient)
			r.Patch("/clients/{client_id}/phone", h.updateClientPhone)
			r.Patch("/clients/{client_id}/debt", h.updateClientDebt)

			r.Post("/search/clients/{search_type}", h.searchClients)

			r.Get("/stats", h.providerStats)

			r.Post("/export/clients", h.exportClients)
			r.Get("/export", h.listExports)
			r.Get("/export/{export_id}", h.getExport)
		})
	})

	return r
}

// requireSubscription turns a lapsed subscription into HTTP 402 before
// any handler runs.
func (h *Handler) requireSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		providerID, err := auth.GetProviderID(r.Context())
		if err != nil {
			ErrorUnauthorized(w, "Unauthorized")
			return
		}

		if err := h.authSvc.RequireActiveSubscription(r.Context(), providerID); err != nil {
			handleServiceError(w, err)
			return
		}

		next.ServeHTTP(w, r)
	})
}
