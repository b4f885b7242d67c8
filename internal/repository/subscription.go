package repository

import (
	"context"
	"database/sql"
	"errors"

	"controleisp-backend/internal/domain"
)

type SubscriptionRepository struct {
	db *sql.DB
}

func NewSubscriptionRepository(db *sql.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Latest returns the provider's most recent subscription window.
func (r *SubscriptionRepository) Latest(ctx context.Context, providerID string) (*domain.Subscription, error) {
	query := `
		SELECT id, provider_id, type, starts_at, expires_at
		FROM subscriptions
		WHERE provider_id = $1
		ORDER BY starts_at DESC
		LIMIT 1`

	var s domain.Subscription
	err := r.db.QueryRowContext(ctx, query, providerID).Scan(
		&s.ID, &s.ProviderID, &s.Type, &s.StartsAt, &s.ExpiresAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) Create(ctx context.Context, s *domain.Subscription) error {
	query := `
		INSERT INTO subscriptions (id, provider_id, type, starts_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)`

	_, err := r.db.ExecContext(ctx, query, s.ID, s.ProviderID, s.Type, s.StartsAt, s.ExpiresAt)
	return err
}
