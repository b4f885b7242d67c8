package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"controleisp-backend/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports a unique-constraint violation on insert.
	ErrDuplicate = errors.New("duplicate key")
)

// SearchMode selects which field the cross-provider search matches on.
type SearchMode string

const (
	SearchByName    SearchMode = "name"
	SearchByCPF     SearchMode = "cpf"
	SearchByAddress SearchMode = "address"
)

// SearchFilter is built by the service layer: Term arrives already
// normalized (digits-only for cpf, lower/unaccented for the rest).
type SearchFilter struct {
	ExcludeProviderID string
	Mode              SearchMode
	Term              string
	Limit             int
}

type ClientRepository struct {
	db *sql.DB
}

func NewClientRepository(db *sql.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `
	c.id, c.provider_id, c.name, c.cpf, c.email, c.phone,
	c.address, c.bairro, c.debt_amount, c.reason, c.inclusion_date,
	c.observations, c.risk_level, c.is_active, c.deleted_at, c.updated_at
`

func scanClient(row interface{ Scan(...any) error }) (domain.Client, error) {
	var c domain.Client
	err := row.Scan(
		&c.ID, &c.ProviderID, &c.Name, &c.CPF, &c.Email, &c.Phone,
		&c.Address, &c.Bairro, &c.DebtAmount, &c.Reason, &c.InclusionDate,
		&c.Observations, &c.RiskLevel, &c.IsActive, &c.DeletedAt, &c.UpdatedAt,
	)
	return c, err
}

// ListByProvider returns a provider's own book, active records only or
// the full history depending on activeOnly.
func (r *ClientRepository) ListByProvider(ctx context.Context, providerID string, activeOnly bool) ([]domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients c WHERE c.provider_id = $1`
	if activeOnly {
		query += ` AND c.is_active = TRUE`
	}
	query += ` ORDER BY c.inclusion_date DESC, c.id`

	rows, err := r.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetOwned fetches a record only if it belongs to the given provider
// and is still active.
func (r *ClientRepository) GetOwned(ctx context.Context, id, providerID string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients c
		WHERE c.id = $1 AND c.provider_id = $2 AND c.is_active = TRUE`

	c, err := scanClient(r.db.QueryRowContext(ctx, query, id, providerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// FindActiveByCPF looks up an active record in the provider's own book
// by normalized CPF, regardless of how the stored value was formatted.
func (r *ClientRepository) FindActiveByCPF(ctx context.Context, providerID, cpfDigits string) (*domain.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients c
		WHERE c.provider_id = $1
		  AND c.is_active = TRUE
		  AND regexp_replace(c.cpf, '\D', '', 'g') = $2
		LIMIT 1`

	c, err := scanClient(r.db.QueryRowContext(ctx, query, providerID, cpfDigits))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) error {
	query := `
		INSERT INTO clients (
			id, provider_id, name, cpf, email, phone, address, bairro,
			debt_amount, reason, inclusion_date, observations, risk_level, is_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,TRUE)`

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ProviderID, c.Name, c.CPF, c.Email, c.Phone, c.Address, c.Bairro,
		c.DebtAmount, c.Reason, c.InclusionDate, c.Observations, c.RiskLevel,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

// Deactivate soft-deletes: the record must survive for the negotiated
// total, only is_active flips.
func (r *ClientRepository) Deactivate(ctx context.Context, id, providerID string) error {
	query := `UPDATE clients SET is_active = FALSE, deleted_at = $1
		WHERE id = $2 AND provider_id = $3 AND is_active = TRUE`

	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id, providerID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *ClientRepository) UpdatePhone(ctx context.Context, id, providerID, phone string) error {
	query := `UPDATE clients SET phone = $1, updated_at = $2
		WHERE id = $3 AND provider_id = $4 AND is_active = TRUE`

	res, err := r.db.ExecContext(ctx, query, phone, time.Now().UTC(), id, providerID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

func (r *ClientRepository) UpdateDebt(ctx context.Context, id, providerID string, amount float64) error {
	query := `UPDATE clients SET debt_amount = $1, updated_at = $2
		WHERE id = $3 AND provider_id = $4 AND is_active = TRUE`

	res, err := r.db.ExecContext(ctx, query, amount, time.Now().UTC(), id, providerID)
	if err != nil {
		return err
	}
	return affectedOrNotFound(res)
}

// SearchCross runs the cross-provider search. Only active records of
// other providers are eligible; the projection joins the owning
// provider's public attribution and carries no contact columns.
// Ordering is fixed so results are stable for a fixed data set.
func (r *ClientRepository) SearchCross(ctx context.Context, f SearchFilter) ([]domain.CrossProviderClient, error) {
	baseQuery := `
		SELECT
			c.provider_id,
			c.id, c.name, c.cpf, c.address, c.bairro,
			c.debt_amount, c.reason, c.inclusion_date, c.risk_level,
			c.observations,
			p.name AS provider_name,
			p.cnpj AS provider_cnpj,
			p.logo_url AS provider_logo
		FROM clients c
		JOIN providers p ON p.id = c.provider_id
		WHERE c.provider_id <> $1
		  AND c.is_active = TRUE
	`

	var match, term string
	switch f.Mode {
	case SearchByCPF:
		match = `regexp_replace(c.cpf, '\D', '', 'g') = $2`
		term = f.Term
	case SearchByName:
		match = `unaccent(lower(c.name)) LIKE $2 ESCAPE '\'`
		term = likePattern(f.Term)
	case SearchByAddress:
		match = `unaccent(lower(c.address)) LIKE $2 ESCAPE '\'`
		term = likePattern(f.Term)
	default:
		return nil, fmt.Errorf("unknown search mode %q", f.Mode)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	query := baseQuery + " AND " + match + " ORDER BY c.inclusion_date, c.id LIMIT $3"

	rows, err := r.db.QueryContext(ctx, query, f.ExcludeProviderID, term, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CrossProviderClient
	for rows.Next() {
		var (
			m     domain.CrossProviderClient
			notes sql.NullString
		)
		if err := rows.Scan(
			&m.ProviderID,
			&m.ID, &m.Name, &m.CPF, &m.Address, &m.Bairro,
			&m.DebtAmount, &m.Reason, &m.InclusionDate, &m.RiskLevel,
			&notes,
			&m.ProviderName, &m.ProviderCNPJ, &m.ProviderLogo,
		); err != nil {
			return nil, err
		}
		if notes.Valid && notes.String != "" {
			m.ProviderNotes = &notes.String
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// Stats aggregates the provider's book. The negotiated total sums the
// settled (deactivated) records.
func (r *ClientRepository) Stats(ctx context.Context, providerID string) (domain.ProviderStats, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE is_active),
			COALESCE(SUM(debt_amount) FILTER (WHERE is_active), 0),
			COALESCE(AVG(debt_amount) FILTER (WHERE is_active), 0),
			COALESCE(MAX(debt_amount) FILTER (WHERE is_active), 0),
			COALESCE(SUM(debt_amount) FILTER (WHERE NOT is_active), 0)
		FROM clients
		WHERE provider_id = $1`

	var s domain.ProviderStats
	err := r.db.QueryRowContext(ctx, query, providerID).Scan(
		&s.ActiveClients, &s.TotalDebt, &s.AvgDebt, &s.HighestDebt, &s.NegotiatedTotal,
	)
	return s, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a user term into a substring LIKE pattern. The
// term is matched literally: %, _ and backslash in it are escaped so
// they cannot act as wildcards.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func affectedOrNotFound(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
