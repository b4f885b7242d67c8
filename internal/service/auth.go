package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
	"controleisp-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	GetByUsername(ctx context.Context, username string) (*domain.Provider, error)
	Taken(ctx context.Context, username, email, cnpjDigits string) (bool, error)
	Create(ctx context.Context, p *domain.Provider) error
}

type SubscriptionRepository interface {
	Latest(ctx context.Context, providerID string) (*domain.Subscription, error)
	Create(ctx context.Context, s *domain.Subscription) error
}

type ProviderClaims struct {
	ProviderID string `json:"provider_id"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token     string `json:"access_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

type RegisterProviderInput struct {
	Name         string
	NomeFantasia string
	Email        string
	Username     string
	Password     string
	CNPJ         string
	Phone        string
	Address      string
	Bairro       string
}

// AuthService authenticates providers and issues the JWT whose
// provider_id claim becomes the tenant identity for every other
// operation. New registrations get a promotional first month.
type AuthService struct {
	providers     ProviderRepository
	subscriptions SubscriptionRepository
	jwtKey        []byte
	issuer        string
	tokenTTL      time.Duration
}

func NewAuthService(providers ProviderRepository, subscriptions SubscriptionRepository, jwtSecret string, tokenTTL time.Duration) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		providers:     providers,
		subscriptions: subscriptions,
		jwtKey:        []byte(jwtSecret),
		issuer:        "controleisp",
		tokenTTL:      tokenTTL,
	}
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	provider, err := s.providers.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup provider: %w", err)
	}

	if provider.IsBlocked || !provider.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(provider.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(provider.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokenTTL.Seconds()),
	}, nil
}

func (s *AuthService) Register(ctx context.Context, in RegisterProviderInput) (*domain.Provider, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.NomeFantasia) == "" {
		return nil, invalid("name", "name and nome_fantasia are required")
	}
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, invalid("username", "username is required")
	}
	if len(in.Password) < 8 {
		return nil, invalid("password", "password must have at least 8 characters")
	}
	if !identity.ValidCNPJ(in.CNPJ) {
		return nil, invalid("cnpj", "invalid cnpj")
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !strings.Contains(email, "@") {
		return nil, invalid("email", "invalid email")
	}

	cnpjDigits := identity.Digits(in.CNPJ)
	taken, err := s.providers.Taken(ctx, username, email, cnpjDigits)
	if err != nil {
		return nil, fmt.Errorf("uniqueness check: %w", err)
	}
	if taken {
		return nil, invalid("username", "username, email or cnpj already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	provider := &domain.Provider{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(in.Name),
		NomeFantasia: strings.TrimSpace(in.NomeFantasia),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CNPJ:         cnpjDigits,
		Phone:        strings.TrimSpace(in.Phone),
		Address:      strings.TrimSpace(in.Address),
		Bairro:       strings.TrimSpace(in.Bairro),
		IsActive:     true,
		CreatedAt:    now,
	}

	if err := s.providers.Create(ctx, provider); err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	// promotional first month
	expires := now.AddDate(0, 1, 0)
	sub := &domain.Subscription{
		ID:         uuid.NewString(),
		ProviderID: provider.ID,
		Type:       "first_month_free",
		StartsAt:   now,
		ExpiresAt:  &expires,
	}
	if err := s.subscriptions.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create promotional subscription: %w", err)
	}

	return provider, nil
}

// RequireActiveSubscription gates every provider operation; a lapsed
// or missing subscription surfaces as ErrSubscriptionLapsed (HTTP 402).
func (s *AuthService) RequireActiveSubscription(ctx context.Context, providerID string) error {
	sub, err := s.subscriptions.Latest(ctx, providerID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrSubscriptionLapsed
	}
	if err != nil {
		return fmt.Errorf("lookup subscription: %w", err)
	}
	if !sub.Active(time.Now().UTC()) {
		return ErrSubscriptionLapsed
	}
	return nil
}

func (s *AuthService) issueToken(providerID string) (string, error) {
	now := time.Now()
	claims := ProviderClaims{
		ProviderID: providerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			Issuer:    s.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a provider JWT.
func (s *AuthService) ValidateToken(tokenString string) (*ProviderClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ProviderClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*ProviderClaims)
	if !ok || !token.Valid || claims.ProviderID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
