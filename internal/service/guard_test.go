package service

import (
	"testing"

	"controleisp-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownBook() []domain.Client {
	return []domain.Client{
		{ID: "c1", CPF: "111.222.333-44", Name: "Maria Souza", IsActive: true},
		{ID: "c2", CPF: "529.982.247-25", Name: "José Lima", IsActive: true},
		{ID: "c3", CPF: "111.444.777-35", Name: "Ana Paula", IsActive: false}, // settled
	}
}

func TestCheckOwnCPF_OwnRecordsConflictWithThemselves(t *testing.T) {
	book := ownBook()
	for _, c := range book {
		if !c.IsActive {
			continue
		}
		res := CheckOwnCPF(c.CPF, book)
		require.Equal(t, CPFConflict, res.Status, c.CPF)
		require.NotNil(t, res.Conflicting)
		assert.Equal(t, c.ID, res.Conflicting.ID)
	}
}

func TestCheckOwnCPF_FormattingDoesNotMatter(t *testing.T) {
	res := CheckOwnCPF("11122233344", ownBook())
	require.Equal(t, CPFConflict, res.Status)
	assert.Equal(t, "c1", res.Conflicting.ID)
}

func TestCheckOwnCPF_Available(t *testing.T) {
	res := CheckOwnCPF("987.654.321-00", ownBook())
	assert.Equal(t, CPFAvailable, res.Status)
	assert.Nil(t, res.Conflicting)
}

func TestCheckOwnCPF_InactiveRecordDoesNotConflict(t *testing.T) {
	// c3 is settled; its CPF is free to register again
	res := CheckOwnCPF("111.444.777-35", ownBook())
	assert.Equal(t, CPFAvailable, res.Status)
}

func TestCheckOwnCPF_ShortInputIsInsufficientNotAvailable(t *testing.T) {
	for _, candidate := range []string{"1", "111.222", "1112223334"} {
		res := CheckOwnCPF(candidate, ownBook())
		assert.Equal(t, CPFInsufficient, res.Status, candidate)
	}
}

func TestCheckOwnCPF_EmptyInputIsNotChecked(t *testing.T) {
	for _, candidate := range []string{"", "   ", "abc-"} {
		res := CheckOwnCPF(candidate, ownBook())
		assert.Equal(t, CPFNotChecked, res.Status, candidate)
	}
}
