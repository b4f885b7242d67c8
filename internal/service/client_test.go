package service

import (
	"context"
	"testing"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
	"controleisp-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClientRepo struct {
	book    []domain.Client
	created []domain.Client

	deactivateErr error
	updateErr     error
}

func (f *fakeClientRepo) ListByProvider(_ context.Context, providerID string, activeOnly bool) ([]domain.Client, error) {
	var out []domain.Client
	for _, c := range f.book {
		if c.ProviderID != providerID {
			continue
		}
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeClientRepo) FindActiveByCPF(_ context.Context, providerID, cpfDigits string) (*domain.Client, error) {
	for i, c := range f.book {
		if c.ProviderID == providerID && c.IsActive && identity.Digits(c.CPF) == cpfDigits {
			return &f.book[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeClientRepo) Create(_ context.Context, c *domain.Client) error {
	f.created = append(f.created, *c)
	return nil
}

func (f *fakeClientRepo) Deactivate(_ context.Context, _, _ string) error {
	return f.deactivateErr
}

func (f *fakeClientRepo) UpdatePhone(_ context.Context, _, _, _ string) error {
	return f.updateErr
}

func (f *fakeClientRepo) UpdateDebt(_ context.Context, _, _ string, _ float64) error {
	return f.updateErr
}

func (f *fakeClientRepo) Stats(_ context.Context, _ string) (domain.ProviderStats, error) {
	return domain.ProviderStats{}, nil
}

func validInput() CreateClientInput {
	return CreateClientInput{
		Name:       "João da Silva",
		CPF:        "529.982.247-25",
		Phone:      "(11) 98877-6655",
		DebtAmount: 150.50,
		Reason:     "Mensalidade em atraso",
		RiskLevel:  3,
	}
}

func TestCreateStoresCanonicalCPF(t *testing.T) {
	repo := &fakeClientRepo{}
	svc := NewClientService(repo)

	in := validInput()
	in.CPF = "52998224725" // bare digits on the way in

	client, err := svc.Create(context.Background(), "provider-1", in)
	require.NoError(t, err)

	assert.Equal(t, "529.982.247-25", client.CPF)
	assert.True(t, client.IsActive)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "provider-1", repo.created[0].ProviderID)
}

func TestCreateRejectsInvalidCPF(t *testing.T) {
	svc := NewClientService(&fakeClientRepo{})

	in := validInput()
	in.CPF = "111.111.111-11"

	_, err := svc.Create(context.Background(), "provider-1", in)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cpf", verr.Field)
}

func TestCreateBlocksDuplicateActiveCPF(t *testing.T) {
	repo := &fakeClientRepo{
		book: []domain.Client{
			{ID: "c1", ProviderID: "provider-1", Name: "Maria", CPF: "529.982.247-25", IsActive: true},
		},
	}
	svc := NewClientService(repo)

	in := validInput()
	in.CPF = "52998224725" // same person, different formatting

	_, err := svc.Create(context.Background(), "provider-1", in)

	require.ErrorIs(t, err, ErrDuplicateCPF)
	var dup *DuplicateCPFError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "c1", dup.Conflicting.ID)
	assert.Empty(t, repo.created, "nothing must be written on a duplicate")
}

// racingClientRepo simulates a concurrent writer that inserts the same
// CPF between the service's pre-check and its own insert. The unique
// index rejects the second insert.
type racingClientRepo struct {
	fakeClientRepo
	winner domain.Client
}

func (r *racingClientRepo) Create(_ context.Context, _ *domain.Client) error {
	r.book = append(r.book, r.winner)
	return repository.ErrDuplicate
}

func TestCreateLostRaceStillReportsDuplicate(t *testing.T) {
	repo := &racingClientRepo{
		winner: domain.Client{ID: "winner", ProviderID: "provider-1", CPF: "529.982.247-25", IsActive: true},
	}
	svc := NewClientService(repo)

	_, err := svc.Create(context.Background(), "provider-1", validInput())

	require.ErrorIs(t, err, ErrDuplicateCPF)
	var dup *DuplicateCPFError
	require.ErrorAs(t, err, &dup)
	require.NotNil(t, dup.Conflicting)
	assert.Equal(t, "winner", dup.Conflicting.ID)
}

func TestCreateAllowsCPFSettledEarlier(t *testing.T) {
	repo := &fakeClientRepo{
		book: []domain.Client{
			{ID: "c1", ProviderID: "provider-1", CPF: "529.982.247-25", IsActive: false},
		},
	}
	svc := NewClientService(repo)

	_, err := svc.Create(context.Background(), "provider-1", validInput())
	require.NoError(t, err)
}

func TestCreateValidatesForm(t *testing.T) {
	svc := NewClientService(&fakeClientRepo{})
	ctx := context.Background()

	cases := []struct {
		name  string
		field string
		tweak func(*CreateClientInput)
	}{
		{"empty name", "name", func(in *CreateClientInput) { in.Name = "  " }},
		{"risk too low", "risk_level", func(in *CreateClientInput) { in.RiskLevel = 0 }},
		{"risk too high", "risk_level", func(in *CreateClientInput) { in.RiskLevel = 6 }},
		{"negative debt", "debt_amount", func(in *CreateClientInput) { in.DebtAmount = -1 }},
		{"short phone", "phone", func(in *CreateClientInput) { in.Phone = "119876" }},
		{"bad date", "inclusion_date", func(in *CreateClientInput) { in.InclusionDate = "15/01/2026" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			tc.tweak(&in)

			_, err := svc.Create(ctx, "provider-1", in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestDeactivateMapsNotFound(t *testing.T) {
	repo := &fakeClientRepo{deactivateErr: repository.ErrNotFound}
	svc := NewClientService(repo)

	err := svc.Deactivate(context.Background(), "provider-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateDebtRejectsNegative(t *testing.T) {
	svc := NewClientService(&fakeClientRepo{})

	err := svc.UpdateDebt(context.Background(), "provider-1", "c1", -10)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCheckCPFUsesOwnActiveBook(t *testing.T) {
	repo := &fakeClientRepo{
		book: []domain.Client{
			{ID: "c1", ProviderID: "provider-1", CPF: "529.982.247-25", IsActive: true},
			{ID: "c2", ProviderID: "provider-2", CPF: "111.444.777-35", IsActive: true},
		},
	}
	svc := NewClientService(repo)
	ctx := context.Background()

	check, err := svc.CheckCPF(ctx, "provider-1", "52998224725")
	require.NoError(t, err)
	assert.Equal(t, CPFConflict, check.Status)

	// another provider's record is not a conflict for this book
	check, err = svc.CheckCPF(ctx, "provider-1", "111.444.777-35")
	require.NoError(t, err)
	assert.Equal(t, CPFAvailable, check.Status)
}
