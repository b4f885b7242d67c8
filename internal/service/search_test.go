package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearchRepo struct {
	calls   int
	last    repository.SearchFilter
	matches []domain.CrossProviderClient
	err     error
}

func (f *fakeSearchRepo) SearchCross(_ context.Context, filter repository.SearchFilter) ([]domain.CrossProviderClient, error) {
	f.calls++
	f.last = filter
	return f.matches, f.err
}

type fakeNotifier struct {
	hits []string // "owner/clientID"
}

func (f *fakeNotifier) NotifySearchHit(_ context.Context, owner, clientID, _ string) error {
	f.hits = append(f.hits, owner+"/"+clientID)
	return nil
}

func providerAMatch() domain.CrossProviderClient {
	return domain.CrossProviderClient{
		ProviderID:    "provider-a",
		ID:            "rec-1",
		Name:          "João da Silva",
		CPF:           "123.456.789-00",
		Address:       "Rua São José, 10",
		Bairro:        "Centro",
		DebtAmount:    540.5,
		Reason:        "3 faturas em aberto",
		InclusionDate: time.Now().UTC().AddDate(0, 0, -30),
		RiskLevel:     4,
		ProviderName:  "Provedor A",
		ProviderCNPJ:  "11222333000181",
	}
}

func TestSearch_NameTooShortNeverReachesRepository(t *testing.T) {
	repo := &fakeSearchRepo{}
	svc := NewSearchService(repo, nil, nil)

	_, err := svc.Search(context.Background(), "provider-b", repository.SearchByName, "ab", 1)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, repo.calls)
}

func TestSearch_TermBoundariesAfterTrim(t *testing.T) {
	repo := &fakeSearchRepo{}
	svc := NewSearchService(repo, nil, nil)
	ctx := context.Background()

	// 3 characters after trimming is enough for the name mode
	_, err := svc.Search(ctx, "provider-b", repository.SearchByName, "  Joa", 1)
	require.NoError(t, err)

	// 2 after trimming is not
	_, err = svc.Search(ctx, "provider-b", repository.SearchByName, " Jo", 2)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// address boundary is 5
	_, err = svc.Search(ctx, "provider-b", repository.SearchByAddress, "Rua A", 3)
	require.NoError(t, err)
	_, err = svc.Search(ctx, "provider-b", repository.SearchByAddress, "Rua", 4)
	require.ErrorAs(t, err, &verr)
}

func TestSearch_CPFModeValidation(t *testing.T) {
	repo := &fakeSearchRepo{}
	svc := NewSearchService(repo, nil, nil)
	ctx := context.Background()

	var verr *ValidationError
	_, err := svc.Search(ctx, "provider-b", repository.SearchByCPF, "   ", 1)
	require.ErrorAs(t, err, &verr)
	_, err = svc.Search(ctx, "provider-b", repository.SearchByCPF, "123.456", 2)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, repo.calls)

	// a formatted CPF reaches the repository as bare digits
	_, err = svc.Search(ctx, "provider-b", repository.SearchByCPF, "123.456.789-00", 3)
	require.NoError(t, err)
	assert.Equal(t, "12345678900", repo.last.Term)
	assert.Equal(t, repository.SearchByCPF, repo.last.Mode)
	assert.Equal(t, "provider-b", repo.last.ExcludeProviderID)
}

func TestSearch_NameTermIsNormalized(t *testing.T) {
	repo := &fakeSearchRepo{}
	svc := NewSearchService(repo, nil, nil)

	_, err := svc.Search(context.Background(), "provider-b", repository.SearchByName, "  João ", 1)
	require.NoError(t, err)
	assert.Equal(t, "joao", repo.last.Term)
}

func TestSearch_CrossProviderHitIsAttributedAndRedacted(t *testing.T) {
	repo := &fakeSearchRepo{matches: []domain.CrossProviderClient{providerAMatch()}}
	notifier := &fakeNotifier{}
	svc := NewSearchService(repo, nil, notifier)

	res, err := svc.Search(context.Background(), "provider-b", repository.SearchByCPF, "123.456.789-00", 1)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)

	m := res.Matches[0]
	assert.Equal(t, "Provedor A", m.ProviderName)
	assert.Equal(t, "11222333000181", m.ProviderCNPJ)
	assert.Equal(t, 540.5, m.DebtAmount)
	assert.Equal(t, 4, m.RiskLevel)
	assert.Equal(t, 30, m.DaysNegative)

	// redaction is structural: no phone/email keys exist anywhere in
	// the serialized result, and the owner id is not serialized either
	data, err := json.Marshal(res)
	require.NoError(t, err)
	payload := strings.ToLower(string(data))
	assert.NotContains(t, payload, `"phone"`)
	assert.NotContains(t, payload, `"email"`)
	assert.NotContains(t, payload, "provider-a")

	// the record's owner was told about the hit
	assert.Equal(t, []string{"provider-a/rec-1"}, notifier.hits)
}

func TestSearch_ZeroMatchesIsSuccessNotError(t *testing.T) {
	repo := &fakeSearchRepo{} // deactivated records are filtered out by the store
	svc := NewSearchService(repo, nil, nil)

	res, err := svc.Search(context.Background(), "provider-b", repository.SearchByCPF, "529.982.247-25", 1)
	require.NoError(t, err)
	require.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)
}

func TestSearch_UpstreamErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &fakeSearchRepo{err: boom}
	svc := NewSearchService(repo, nil, nil)

	_, err := svc.Search(context.Background(), "provider-b", repository.SearchByName, "Maria", 1)
	require.ErrorIs(t, err, boom)

	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestSearch_NewerSearchMarksOlderOneStale(t *testing.T) {
	repo := &fakeSearchRepo{}
	svc := NewSearchService(repo, nil, nil)
	ctx := context.Background()

	newer, err := svc.Search(ctx, "provider-b", repository.SearchByName, "Maria", 7)
	require.NoError(t, err)
	assert.False(t, newer.Stale)

	// a response for seq 3 arriving after seq 7 was issued must be
	// flagged so the caller discards it
	older, err := svc.Search(ctx, "provider-b", repository.SearchByName, "Mari", 3)
	require.NoError(t, err)
	assert.True(t, older.Stale)
	assert.Equal(t, uint64(3), older.Seq)

	// sequences are tracked per provider
	other, err := svc.Search(ctx, "provider-c", repository.SearchByName, "Maria", 1)
	require.NoError(t, err)
	assert.False(t, other.Stale)
}
