package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"controleisp-backend/internal/clients"
	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
	"controleisp-backend/internal/metrics"
	"controleisp-backend/internal/repository"
)

type SearchRepository interface {
	SearchCross(ctx context.Context, f repository.SearchFilter) ([]domain.CrossProviderClient, error)
}

// SearchNotifier tells a record's owner that its record was hit.
type SearchNotifier interface {
	NotifySearchHit(ctx context.Context, ownerProviderID, clientID, mode string) error
}

const (
	minNameTermLen    = 3
	minAddressTermLen = 5
	searchResultLimit = 50
	searchCacheTTL    = time.Minute
)

// SearchResult is what a single cross-provider search produced. Seq
// echoes the caller's sequence number; Stale is set when a newer
// search by the same provider was issued while this one was in
// flight, so the caller can discard the response instead of letting a
// slow old answer overwrite a fresh one.
type SearchResult struct {
	Seq     uint64                       `json:"seq"`
	Stale   bool                         `json:"stale"`
	Matches []domain.CrossProviderClient `json:"matches"`
}

// SearchService is the cross-provider matcher: it searches the active
// records of every provider except the caller, under one of three
// modes, and returns privacy-redacted rows.
type SearchService struct {
	repo     SearchRepository
	redis    *clients.RedisClient
	notifier SearchNotifier

	mu     sync.Mutex
	latest map[string]uint64 // newest seq seen per provider
}

func NewSearchService(repo SearchRepository, redis *clients.RedisClient, notifier SearchNotifier) *SearchService {
	return &SearchService{
		repo:     repo,
		redis:    redis,
		notifier: notifier,
		latest:   make(map[string]uint64),
	}
}

// Search runs one search. providerID is the caller (its own records
// are excluded; the duplicate guard covers its own book).
// Preconditions are resolved locally and never reach the store; zero
// matches is a successful result, not an error.
func (s *SearchService) Search(
	ctx context.Context,
	providerID string,
	mode repository.SearchMode,
	rawTerm string,
	seq uint64,
) (*SearchResult, error) {
	term, err := normalizeTerm(mode, rawTerm)
	if err != nil {
		metrics.ObserveSearch(string(mode), "invalid")
		return nil, err
	}

	s.observeSeq(providerID, seq)

	matches, cached, err := s.fetch(ctx, providerID, mode, term)
	if err != nil {
		metrics.ObserveSearch(string(mode), "error")
		return nil, fmt.Errorf("cross-provider search: %w", err)
	}

	now := time.Now().UTC()
	for i := range matches {
		matches[i].DaysNegative = int(now.Sub(matches[i].InclusionDate).Hours() / 24)
	}

	if !cached && s.notifier != nil {
		for i := range matches {
			if err := s.notifier.NotifySearchHit(ctx, matches[i].ProviderID, matches[i].ID, string(mode)); err != nil {
				log.Printf("search hit notification error: %v", err)
			}
		}
	}

	if len(matches) == 0 {
		metrics.ObserveSearch(string(mode), "empty")
	} else {
		metrics.ObserveSearch(string(mode), "ok")
	}

	return &SearchResult{
		Seq:     seq,
		Stale:   s.isStale(providerID, seq),
		Matches: matches,
	}, nil
}

// normalizeTerm enforces the per-mode preconditions and canonicalizes
// the term. Name and address terms are substring-matched
// case-insensitively over their diacritic-folded forms; CPF is an
// exact match over digits.
func normalizeTerm(mode repository.SearchMode, rawTerm string) (string, error) {
	switch mode {
	case repository.SearchByName:
		term := identity.NormalizeText(rawTerm)
		if len([]rune(term)) < minNameTermLen {
			return "", invalid("search_term", "name must have at least 3 characters")
		}
		return term, nil
	case repository.SearchByAddress:
		term := identity.NormalizeText(rawTerm)
		if len([]rune(term)) < minAddressTermLen {
			return "", invalid("search_term", "address must have at least 5 characters")
		}
		return term, nil
	case repository.SearchByCPF:
		if strings.TrimSpace(rawTerm) == "" {
			return "", invalid("search_term", "cpf is required")
		}
		digits := identity.NormalizeCPF(rawTerm)
		if len(digits) != 11 {
			return "", invalid("search_term", "cpf must have 11 digits")
		}
		return digits, nil
	default:
		return "", invalid("search_type", "must be name, cpf or address")
	}
}

func (s *SearchService) fetch(
	ctx context.Context,
	providerID string,
	mode repository.SearchMode,
	term string,
) ([]domain.CrossProviderClient, bool, error) {
	cacheKey := fmt.Sprintf("search:%s:%s:%s", mode, providerID, term)

	if s.redis != nil {
		if data, err := s.redis.Get(ctx, cacheKey); err == nil {
			var matches []domain.CrossProviderClient
			if err := json.Unmarshal([]byte(data), &matches); err == nil {
				return matches, true, nil
			}
		}
	}

	matches, err := s.repo.SearchCross(ctx, repository.SearchFilter{
		ExcludeProviderID: providerID,
		Mode:              mode,
		Term:              term,
		Limit:             searchResultLimit,
	})
	if err != nil {
		return nil, false, err
	}
	if matches == nil {
		matches = []domain.CrossProviderClient{}
	}

	if s.redis != nil {
		if data, err := json.Marshal(matches); err == nil {
			if err := s.redis.Set(ctx, cacheKey, string(data), searchCacheTTL); err != nil {
				log.Printf("search cache write error: %v", err)
			}
		}
	}

	return matches, false, nil
}

func (s *SearchService) observeSeq(providerID string, seq uint64) {
	s.mu.Lock()
	if seq > s.latest[providerID] {
		s.latest[providerID] = seq
	}
	s.mu.Unlock()
}

func (s *SearchService) isStale(providerID string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[providerID] > seq
}
