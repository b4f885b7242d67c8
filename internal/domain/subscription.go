package domain

import "time"

type Subscription struct {
	ID         string     `json:"id"`
	ProviderID string     `json:"provider_id"`
	Type       string     `json:"type"` // first_month_free, monthly, ...
	StartsAt   time.Time  `json:"starts_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// Active reports whether the subscription window covers now. A nil
// ExpiresAt means an open-ended (admin-granted) subscription.
func (s Subscription) Active(now time.Time) bool {
	if now.Before(s.StartsAt) {
		return false
	}
	return s.ExpiresAt == nil || s.ExpiresAt.After(now)
}
