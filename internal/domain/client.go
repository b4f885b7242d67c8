package domain

import "time"

// Client is one provider's claim that an individual owes money
// (a "negativado" record). A client is never hard-deleted: settling
// the debt flips IsActive off so the record still counts towards the
// provider's negotiated total.
type Client struct {
	ID         string `json:"id"`
	ProviderID string `json:"provider_id"`

	Name    string `json:"name"`
	CPF     string `json:"cpf"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Bairro  string `json:"bairro"`

	DebtAmount    float64   `json:"debt_amount"`
	Reason        string    `json:"reason"`
	InclusionDate time.Time `json:"inclusion_date"`
	Observations  string    `json:"observations"`
	RiskLevel     int       `json:"risk_level"`

	IsActive  bool       `json:"is_active"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// CrossProviderClient is the redacted projection returned by the
// cross-provider search. The subject's phone and email are not fields
// of this type at all: redaction happens by omission at this boundary,
// not by blanking values further up.
type CrossProviderClient struct {
	// ProviderID is kept for internal routing (hit notifications) and
	// never serialized; attribution towards the caller is by public
	// name/CNPJ only.
	ProviderID string `json:"-"`

	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CPF           string    `json:"cpf"`
	Address       string    `json:"address"`
	Bairro        string    `json:"bairro"`
	DebtAmount    float64   `json:"debt_amount"`
	Reason        string    `json:"reason"`
	InclusionDate time.Time `json:"inclusion_date"`
	RiskLevel     int       `json:"risk_level"`

	// Attribution: who registered the record.
	ProviderName  string  `json:"provider_name"`
	ProviderCNPJ  string  `json:"provider_cnpj"`
	ProviderLogo  *string `json:"provider_logo,omitempty"`
	ProviderNotes *string `json:"provider_notes,omitempty"`

	DaysNegative int `json:"days_negative"`
}
