package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/repository"
	"controleisp-backend/internal/service"
	"controleisp-backend/internal/transport/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClientBook struct {
	createErr error
	created   *domain.Client
}

func (f *fakeClientBook) List(_ context.Context, _ string, _ bool) ([]domain.Client, error) {
	return []domain.Client{}, nil
}

func (f *fakeClientBook) CheckCPF(_ context.Context, _, candidate string) (service.CPFCheck, error) {
	return service.CheckOwnCPF(candidate, nil), nil
}

func (f *fakeClientBook) Create(_ context.Context, providerID string, in service.CreateClientInput) (*domain.Client, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = &domain.Client{ID: "new-client", ProviderID: providerID, Name: in.Name}
	return f.created, nil
}

func (f *fakeClientBook) Deactivate(_ context.Context, _, _ string) error { return nil }

func (f *fakeClientBook) UpdatePhone(_ context.Context, _, _, _ string) error { return nil }

func (f *fakeClientBook) UpdateDebt(_ context.Context, _, _ string, _ float64) error { return nil }

func (f *fakeClientBook) Stats(_ context.Context, _ string) (domain.ProviderStats, error) {
	return domain.ProviderStats{}, nil
}

type fakeSearcher struct {
	result *service.SearchResult
	err    error

	gotMode repository.SearchMode
	gotTerm string
}

func (f *fakeSearcher) Search(_ context.Context, _ string, mode repository.SearchMode, term string, seq uint64) (*service.SearchResult, error) {
	f.gotMode = mode
	f.gotTerm = term
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &service.SearchResult{Seq: seq, Matches: []domain.CrossProviderClient{}}, nil
}

type fakeExporter struct{}

func (fakeExporter) StartClientsExport(_ context.Context, _ string, _ []string) (string, error) {
	return "exports:abc", nil
}

func (fakeExporter) GetExports(_ context.Context, _ string) ([]service.ExportStatus, error) {
	return nil, nil
}

func (fakeExporter) GetExport(_ context.Context, _, _ string) (*service.ExportStatus, error) {
	return nil, service.ErrNotFound
}

type fakeAuthenticator struct {
	subscriptionErr error
}

func (fakeAuthenticator) Login(_ context.Context, username, password string) (*service.LoginResult, error) {
	if username == "netfibra" && password == "s3cret-pass" {
		return &service.LoginResult{Token: "tok", TokenType: "Bearer", ExpiresIn: 3600}, nil
	}
	return nil, service.ErrInvalidCredentials
}

func (fakeAuthenticator) Register(_ context.Context, _ service.RegisterProviderInput) (*domain.Provider, error) {
	return &domain.Provider{ID: "provider-1"}, nil
}

func (f fakeAuthenticator) RequireActiveSubscription(_ context.Context, _ string) error {
	return f.subscriptionErr
}

func testRouter(book ClientBook, search Searcher, authSvc Authenticator) http.Handler {
	h := NewHandler(book, search, fakeExporter{}, authSvc)
	middleware := auth.Middleware(func(token string) (string, error) {
		if token == "good-token" {
			return "provider-1", nil
		}
		return "", errors.New("bad token")
	})
	return h.InitRouter(middleware)
}

func doJSON(t *testing.T, router http.Handler, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer good-token")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSearchEndpointMapsModeFromURL(t *testing.T) {
	search := &fakeSearcher{}
	router := testRouter(&fakeClientBook{}, search, fakeAuthenticator{})

	rec := doJSON(t, router, http.MethodPost, "/provider/search/clients/name",
		`{"search_term":"João","seq":7}`, true)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, repository.SearchByName, search.gotMode)
	assert.Equal(t, "João", search.gotTerm)
}

func TestSearchEndpointRejectsUnknownMode(t *testing.T) {
	router := testRouter(&fakeClientBook{}, &fakeSearcher{}, fakeAuthenticator{})

	rec := doJSON(t, router, http.MethodPost, "/provider/search/clients/email",
		`{"search_term":"a@b.com"}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchValidationErrorBecomes400(t *testing.T) {
	search := &fakeSearcher{err: &service.ValidationError{Field: "search_term", Message: "too short"}}
	router := testRouter(&fakeClientBook{}, search, fakeAuthenticator{})

	rec := doJSON(t, router, http.MethodPost, "/provider/search/clients/name",
		`{"search_term":"Jo"}`, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(&fakeClientBook{}, &fakeSearcher{}, fakeAuthenticator{})

	rec := doJSON(t, router, http.MethodGet, "/provider/clients", "", false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLapsedSubscriptionBlocksWith402(t *testing.T) {
	authSvc := fakeAuthenticator{subscriptionErr: service.ErrSubscriptionLapsed}
	router := testRouter(&fakeClientBook{}, &fakeSearcher{}, authSvc)

	rec := doJSON(t, router, http.MethodGet, "/provider/clients", "", true)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCreateClientConflictBecomes409(t *testing.T) {
	conflicting := &domain.Client{ID: "c1", Name: "Maria", CPF: "529.982.247-25"}
	book := &fakeClientBook{createErr: &service.DuplicateCPFError{Conflicting: conflicting}}
	router := testRouter(book, &fakeSearcher{}, fakeAuthenticator{})

	rec := doJSON(t, router, http.MethodPost, "/provider/clients",
		`{"name":"Maria","cpf":"529.982.247-25","phone":"11988776655","debt_amount":10,"risk_level":3}`, true)

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	record, ok := data["conflicting_record"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "c1", record["id"])
}

func TestLoginEndpoint(t *testing.T) {
	router := testRouter(&fakeClientBook{}, &fakeSearcher{}, fakeAuthenticator{})

	rec := doJSON(t, router, http.MethodPost, "/auth/provider/login",
		`{"username":"netfibra","password":"s3cret-pass"}`, false)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/auth/provider/login",
		`{"username":"netfibra","password":"wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
