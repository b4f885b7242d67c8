package service

import (
	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
)

// CPFStatus is the closed result set of the duplicate guard. Callers
// must render every state distinctly: "not checked" and "too short"
// are deliberately separate from "available" so the UI never flashes
// a false green while the user is still typing.
type CPFStatus string

const (
	CPFNotChecked   CPFStatus = "not_checked"
	CPFInsufficient CPFStatus = "insufficient"
	CPFAvailable    CPFStatus = "available"
	CPFConflict     CPFStatus = "exists"
)

type CPFCheck struct {
	Status      CPFStatus      `json:"status"`
	Conflicting *domain.Client `json:"conflicting_record,omitempty"`
}

const cpfLength = 11

// CheckOwnCPF decides whether the candidate CPF already exists in the
// provider's own active book. It is pure and synchronous: the caller
// supplies the records it already holds, no lookup is issued here.
//
// A candidate with fewer than 11 normalized digits is Insufficient,
// never Available: with a partial CPF there is no information either
// way. Only active records participate; CPF is unique within a
// provider's active book, so the first match is the only match.
func CheckOwnCPF(candidate string, own []domain.Client) CPFCheck {
	normalized := identity.NormalizeCPF(candidate)
	if normalized == "" {
		return CPFCheck{Status: CPFNotChecked}
	}
	if len(normalized) < cpfLength {
		return CPFCheck{Status: CPFInsufficient}
	}

	for i := range own {
		if !own[i].IsActive {
			continue
		}
		if identity.NormalizeCPF(own[i].CPF) == normalized {
			c := own[i]
			return CPFCheck{Status: CPFConflict, Conflicting: &c}
		}
	}

	return CPFCheck{Status: CPFAvailable}
}
