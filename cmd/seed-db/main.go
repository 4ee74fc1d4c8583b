package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront-go/storefront/internal/domain/category"
	"github.com/storefront-go/storefront/internal/domain/product"
	"github.com/storefront-go/storefront/internal/domain/user"
	"github.com/storefront-go/storefront/internal/postgres"
)

type categoryJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type productJSON struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"qty"`
	Category    string          `json:"category"`
}

type catalogJSON struct {
	Categories []categoryJSON `json:"categories"`
	Products   []productJSON  `json:"products"`
}

func main() {
	var (
		databaseURL   string
		catalogFile   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&adminEmail, "admin-email", "admin@storefront.local", "email of the seeded admin user")
	flag.StringVar(&adminPassword, "admin-password", "", "password of the seeded admin user (or STOREFRONT_SEED_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("STOREFRONT_SEED_ADMIN_PASSWORD")
	}
	if adminPassword == "" {
		slog.Error("admin password is required: set --admin-password or STOREFRONT_SEED_ADMIN_PASSWORD")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, pool, catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
		return errors.Wrap(err, "seed admin user")
	}

	return nil
}

func seedCatalog(ctx context.Context, pool *pgxpool.Pool, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	var catalog catalogJSON
	if err := json.Unmarshal(data, &catalog); err != nil {
		return errors.Wrap(err, "parse catalog JSON")
	}

	categories := postgres.NewCategoryRepository(pool)
	products := postgres.NewProductRepository(pool)

	slog.Info("inserting categories", slog.Int("count", len(catalog.Categories)))

	categoryIDs := make(map[string]string, len(catalog.Categories))
	for _, c := range catalog.Categories {
		cat := &category.Category{
			ID:          uuid.NewString(),
			Name:        c.Name,
			Description: c.Description,
			CreatedAt:   time.Now().UTC(),
		}
		if err := categories.Create(ctx, cat); err != nil {
			return errors.Wrapf(err, "insert category %q", c.Name)
		}
		categoryIDs[c.Name] = cat.ID

		slog.Info("inserted category", slog.String("id", cat.ID), slog.String("name", cat.Name))
	}

	slog.Info("inserting products", slog.Int("count", len(catalog.Products)))

	for _, p := range catalog.Products {
		catID, ok := categoryIDs[p.Category]
		if !ok {
			return errors.Errorf("product %q references unknown category %q", p.Name, p.Category)
		}
		prod := &product.Product{
			ID:          uuid.NewString(),
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Quantity:    p.Quantity,
			CategoryID:  catID,
			CreatedAt:   time.Now().UTC(),
		}
		if err := products.Create(ctx, prod); err != nil {
			return errors.Wrapf(err, "insert product %q", p.Name)
		}

		slog.Info("inserted product",
			slog.String("id", prod.ID),
			slog.String("name", prod.Name),
			slog.Int("qty", prod.Quantity))
	}

	return nil
}

func seedAdmin(ctx context.Context, pool *pgxpool.Pool, email, password string) error {
	users := postgres.NewUserRepository(pool)

	if _, err := users.GetByEmail(ctx, email); err == nil {
		slog.Info("admin user already exists", slog.String("email", email))
		return nil
	} else if !errors.Is(err, user.ErrNotFound) {
		return errors.Wrap(err, "check existing admin")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}

	admin := &user.User{
		ID:           uuid.NewString(),
		FullName:     "Storefront Admin",
		Email:        email,
		PasswordHash: string(hash),
		Role:         "admin",
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.Create(ctx, admin); err != nil {
		return errors.Wrap(err, "insert admin user")
	}

	slog.Info("inserted admin user", slog.String("id", admin.ID), slog.String("email", admin.Email))
	return nil
}
