// Command seed fills the database with fake providers and delinquency
// records for local development.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"controleisp-backend/internal/config"
	"controleisp-backend/internal/domain"
	"controleisp-backend/internal/identity"
	"controleisp-backend/internal/repository"
	"controleisp-backend/pkg/database/postgres"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	providers := flag.Int("providers", 5, "number of providers to create")
	clientsPer := flag.Int("clients", 40, "records per provider")
	seed := flag.Int64("seed", 0, "fake data seed (0 = random)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system env or defaults")
	}
	cfg := config.Load()

	db, err := postgres.NewPostgresConnection(postgres.ConnectionInfo{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Username: cfg.Postgres.User,
		DBName:   cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
		Password: cfg.Postgres.Password,
	})
	if err != nil {
		log.Fatalf("postgres init error: %v", err)
	}
	defer postgres.Close(db)

	faker := gofakeit.New(*seed)
	ctx := context.Background()

	providerRepo := repository.NewProviderRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	clientRepo := repository.NewClientRepository(db)

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	reasons := []string{
		"Mensalidade em atraso",
		"Equipamento não devolvido",
		"Taxa de instalação pendente",
		"Contrato cancelado com débito",
	}

	for i := 0; i < *providers; i++ {
		company := faker.Company()
		now := time.Now().UTC()

		provider := &domain.Provider{
			ID:           uuid.NewString(),
			Name:         company + " Telecom LTDA",
			NomeFantasia: company,
			Email:        fmt.Sprintf("contato%d@%s.com.br", i, slug(company)),
			Username:     fmt.Sprintf("%s%d", slug(company), i),
			PasswordHash: string(hash),
			CNPJ:         fakeCNPJ(faker),
			Phone:        faker.Numerify("119########"),
			Address:      faker.Street(),
			Bairro:       faker.City(),
			IsActive:     true,
			CreatedAt:    now,
		}
		if err := providerRepo.Create(ctx, provider); err != nil {
			log.Fatalf("create provider: %v", err)
		}

		expires := now.AddDate(0, 1, 0)
		sub := &domain.Subscription{
			ID:         uuid.NewString(),
			ProviderID: provider.ID,
			Type:       "monthly",
			StartsAt:   now,
			ExpiresAt:  &expires,
		}
		if err := subscriptionRepo.Create(ctx, sub); err != nil {
			log.Fatalf("create subscription: %v", err)
		}

		for j := 0; j < *clientsPer; j++ {
			inclusion := now.AddDate(0, 0, -faker.Number(1, 720))
			client := &domain.Client{
				ID:            uuid.NewString(),
				ProviderID:    provider.ID,
				Name:          faker.Name(),
				CPF:           identity.FormatCPF(fakeCPF(faker)),
				Email:         faker.Email(),
				Phone:         faker.Numerify("119########"),
				Address:       faker.Street(),
				Bairro:        faker.City(),
				DebtAmount:    float64(faker.Number(50, 5000)) + 0.90,
				Reason:        reasons[faker.Number(0, len(reasons)-1)],
				InclusionDate: inclusion,
				Observations:  faker.Sentence(6),
				RiskLevel:     faker.Number(1, 5),
			}
			if err := clientRepo.Create(ctx, client); err != nil {
				log.Fatalf("create client: %v", err)
			}
		}

		log.Printf("provider %s (%s) seeded with %d records, login %s / password123",
			provider.NomeFantasia, provider.ID, *clientsPer, provider.Username)
	}
}

func slug(s string) string {
	s = identity.NormalizeText(s)
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// fakeCPF generates a random but arithmetically valid CPF.
func fakeCPF(f *gofakeit.Faker) string {
	for {
		cpf := f.Numerify("#########")
		d1 := cpfDigit(cpf, 10)
		d2 := cpfDigit(cpf+d1, 11)
		candidate := cpf + d1 + d2
		if identity.ValidCPF(candidate) {
			return candidate
		}
	}
}

func fakeCNPJ(f *gofakeit.Faker) string {
	for {
		base := f.Numerify("########0001")
		d1 := cnpjDigit(base)
		d2 := cnpjDigit(base + d1)
		candidate := base + d1 + d2
		if identity.ValidCNPJ(candidate) {
			return candidate
		}
	}
}

func cpfDigit(digits string, startWeight int) string {
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * (startWeight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return string(rune('0' + rest))
}

func cnpjDigit(digits string) string {
	weights := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weights = weights[len(weights)-len(digits):]
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		rest = 0
	} else {
		rest = 11 - rest
	}
	return string(rune('0' + rest))
}
