package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
	"controleisp-backend/internal/metrics"
	"controleisp-backend/internal/repository"

	"github.com/google/uuid"
)

type ClientRepository interface {
	ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]domain.Client, error)
	FindActiveByCPF(ctx context.Context, providerID, cpfDigits string) (*domain.Client, error)
	Create(ctx context.Context, c *domain.Client) error
	Deactivate(ctx context.Context, id, providerID string) error
	UpdatePhone(ctx context.Context, id, providerID, phone string) error
	UpdateDebt(ctx context.Context, id, providerID string, amount float64) error
	Stats(ctx context.Context, providerID string) (domain.ProviderStats, error)
}

// CreateClientInput carries the registration form fields.
type CreateClientInput struct {
	Name          string
	CPF           string
	Email         string
	Phone         string
	Address       string
	Bairro        string
	DebtAmount    float64
	Reason        string
	InclusionDate string // YYYY-MM-DD, empty means today
	Observations  string
	RiskLevel     int
}

// ClientService manages a provider's own book of delinquency records.
type ClientService struct {
	repo ClientRepository
}

func NewClientService(repo ClientRepository) *ClientService {
	return &ClientService{repo: repo}
}

func (s *ClientService) List(ctx context.Context, providerID string, activeOnly bool) ([]domain.Client, error) {
	clients, err := s.repo.ListByProvider(ctx, providerID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	if clients == nil {
		clients = []domain.Client{}
	}
	return clients, nil
}

// CheckCPF runs the duplicate guard against the provider's active
// book. The decision itself is the pure CheckOwnCPF; this only loads
// the book the caller would otherwise already hold.
func (s *ClientService) CheckCPF(ctx context.Context, providerID, candidate string) (CPFCheck, error) {
	own, err := s.repo.ListByProvider(ctx, providerID, true)
	if err != nil {
		return CPFCheck{}, fmt.Errorf("load own book: %w", err)
	}
	check := CheckOwnCPF(candidate, own)
	metrics.ObserveDuplicateCheck(string(check.Status))
	return check, nil
}

// Create registers a new delinquency record. A duplicate active CPF in
// the provider's own book blocks creation outright (ErrDuplicateCPF
// carries the conflicting record for the 409 payload).
func (s *ClientService) Create(ctx context.Context, providerID string, in CreateClientInput) (*domain.Client, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, invalid("name", "name is required")
	}
	if !identity.ValidCPF(in.CPF) {
		return nil, invalid("cpf", "invalid cpf")
	}
	if in.RiskLevel < 1 || in.RiskLevel > 5 {
		return nil, invalid("risk_level", "risk level must be between 1 and 5")
	}
	if in.DebtAmount < 0 {
		return nil, invalid("debt_amount", "debt amount must not be negative")
	}
	phone, err := normalizePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	inclusionDate := time.Now().UTC().Truncate(24 * time.Hour)
	if in.InclusionDate != "" {
		inclusionDate, err = time.Parse("2006-01-02", in.InclusionDate)
		if err != nil {
			return nil, invalid("inclusion_date", "invalid date format, use YYYY-MM-DD")
		}
	}

	cpfDigits := identity.NormalizeCPF(in.CPF)
	existing, err := s.repo.FindActiveByCPF(ctx, providerID, cpfDigits)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	if existing != nil {
		return nil, &DuplicateCPFError{Conflicting: existing}
	}

	client := &domain.Client{
		ID:            uuid.NewString(),
		ProviderID:    providerID,
		Name:          strings.TrimSpace(in.Name),
		CPF:           identity.FormatCPF(cpfDigits),
		Email:         strings.TrimSpace(in.Email),
		Phone:         phone,
		Address:       strings.TrimSpace(in.Address),
		Bairro:        strings.TrimSpace(in.Bairro),
		DebtAmount:    in.DebtAmount,
		Reason:        strings.TrimSpace(in.Reason),
		InclusionDate: inclusionDate,
		Observations:  in.Observations,
		RiskLevel:     in.RiskLevel,
		IsActive:      true,
	}

	if err := s.repo.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// lost a race with a concurrent create for the same CPF;
			// the partial unique index caught what the pre-check missed
			winner, lookupErr := s.repo.FindActiveByCPF(ctx, providerID, cpfDigits)
			if lookupErr != nil {
				return nil, &DuplicateCPFError{}
			}
			return nil, &DuplicateCPFError{Conflicting: winner}
		}
		return nil, fmt.Errorf("create client: %w", err)
	}
	return client, nil
}

// Deactivate marks a record settled. Soft delete only: the record
// keeps feeding the negotiated total and disappears from
// cross-provider search.
func (s *ClientService) Deactivate(ctx context.Context, providerID, clientID string) error {
	err := s.repo.Deactivate(ctx, clientID, providerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ClientService) UpdatePhone(ctx context.Context, providerID, clientID, rawPhone string) error {
	phone, err := normalizePhone(rawPhone)
	if err != nil {
		return err
	}
	err = s.repo.UpdatePhone(ctx, clientID, providerID, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ClientService) UpdateDebt(ctx context.Context, providerID, clientID string, amount float64) error {
	if amount < 0 {
		return invalid("debt_amount", "debt amount must not be negative")
	}
	err := s.repo.UpdateDebt(ctx, clientID, providerID, amount)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *ClientService) Stats(ctx context.Context, providerID string) (domain.ProviderStats, error) {
	return s.repo.Stats(ctx, providerID)
}

// DuplicateCPFError carries the conflicting record so the transport
// layer can name it in the 409 response.
type DuplicateCPFError struct {
	Conflicting *domain.Client
}

func (e *DuplicateCPFError) Error() string {
	if e.Conflicting == nil {
		return "cpf already registered"
	}
	return fmt.Sprintf("cpf already registered to client %q", e.Conflicting.Name)
}

func (e *DuplicateCPFError) Unwrap() error { return ErrDuplicateCPF }

func normalizePhone(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if phone == "" {
		return "", invalid("phone", "phone is required")
	}
	digits := identity.Digits(phone)
	if len(digits) < 10 || len(digits) > 11 {
		return "", invalid("phone", "phone must have 10 or 11 digits")
	}
	return phone, nil
}
