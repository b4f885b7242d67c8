package domain

import "time"

// Provider is a tenant: an internet service provider that owns a book
// of delinquency records. Providers never see or edit each other's
// records directly.
type Provider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	NomeFantasia string `json:"nome_fantasia"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CNPJ         string `json:"cnpj"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Bairro       string `json:"bairro"`

	LogoURL *string `json:"logo_url,omitempty"`

	IsActive  bool       `json:"is_active"`
	IsBlocked bool       `json:"is_blocked"`
	BlockedAt *time.Time `json:"blocked_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ProviderStats aggregates a provider's own book. NegotiatedTotal sums
// the debt of deactivated (settled) records, which is why deactivation
// is a soft delete.
type ProviderStats struct {
	ActiveClients   int     `json:"active_clients"`
	TotalDebt       float64 `json:"total_debt"`
	AvgDebt         float64 `json:"avg_debt"`
	HighestDebt     float64 `json:"highest_debt"`
	NegotiatedTotal float64 `json:"negotiated_total"`
}
