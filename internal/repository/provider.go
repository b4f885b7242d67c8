package repository

import (
	"context"
	"database/sql"
	"errors"

	"controleisp-backend/internal/domain"
)

type ProviderRepository struct {
	db *sql.DB
}

func NewProviderRepository(db *sql.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

const providerColumns = `
	p.id, p.name, p.nome_fantasia, p.email, p.username, p.password_hash,
	p.cnpj, p.phone, p.address, p.bairro, p.logo_url,
	p.is_active, p.is_blocked, p.blocked_at, p.created_at
`

func scanProvider(row interface{ Scan(...any) error }) (domain.Provider, error) {
	var p domain.Provider
	err := row.Scan(
		&p.ID, &p.Name, &p.NomeFantasia, &p.Email, &p.Username, &p.PasswordHash,
		&p.CNPJ, &p.Phone, &p.Address, &p.Bairro, &p.LogoURL,
		&p.IsActive, &p.IsBlocked, &p.BlockedAt, &p.CreatedAt,
	)
	return p, err
}

func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers p WHERE p.id = $1`

	p, err := scanProvider(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProviderRepository) GetByUsername(ctx context.Context, username string) (*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers p WHERE p.username = $1`

	p, err := scanProvider(r.db.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Taken reports whether the username, email or CNPJ is already in use.
func (r *ProviderRepository) Taken(ctx context.Context, username, email, cnpjDigits string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM providers
			WHERE username = $1
			   OR email = $2
			   OR regexp_replace(cnpj, '\D', '', 'g') = $3
		)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, username, email, cnpjDigits).Scan(&exists)
	return exists, err
}

func (r *ProviderRepository) Create(ctx context.Context, p *domain.Provider) error {
	query := `
		INSERT INTO providers (
			id, name, nome_fantasia, email, username, password_hash,
			cnpj, phone, address, bairro, is_active, is_blocked, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,TRUE,FALSE,$11)`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.NomeFantasia, p.Email, p.Username, p.PasswordHash,
		p.CNPJ, p.Phone, p.Address, p.Bairro, p.CreatedAt,
	)
	return err
}
