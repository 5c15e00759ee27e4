// Command seed-db loads the bread catalogue and optional demo accounts into
// the database. Safe to run repeatedly: products upsert, demo accounts are
// skipped when their email already exists.
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
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/TessaEngelbrecht/artos-pos/internal/auth"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/customer"
	"github.com/TessaEngelbrecht/artos-pos/internal/domain/product"
	"github.com/TessaEngelbrecht/artos-pos/internal/repository"
)

type productJSON struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Category  string          `json:"category"`
	Image     string          `json:"image"`
}

type demoAccountJSON struct {
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	Email         string `json:"email"`
	ContactNumber string `json:"contact_number"`
	Password      string `json:"password"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		demoFile     string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&demoFile, "demo-accounts-file", "", "path to demo accounts JSON file (optional)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, demoFile); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, demoFile string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, repository.NewProductRepository(pool), productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if demoFile != "" {
		if err := seedDemoAccounts(ctx, repository.NewCustomerRepository(pool), demoFile); err != nil {
			return errors.Wrap(err, "seed demo accounts")
		}
	}

	return nil
}

func seedProducts(ctx context.Context, repo *repository.ProductRepository, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for _, p := range products {
		g.Go(func() error {
			id := p.ID
			if id == "" {
				id = uuid.New().String()
			}
			return repo.Upsert(ctx, &product.Product{
				ID:        id,
				Name:      p.Name,
				Price:     p.Price,
				CostPrice: p.CostPrice,
				Category:  p.Category,
				Image:     p.Image,
				Active:    true,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedDemoAccounts(ctx context.Context, repo *repository.CustomerRepository, demoFile string) error {
	slog.Info("reading demo accounts file", slog.String("path", demoFile))

	data, err := os.ReadFile(demoFile)
	if err != nil {
		return errors.Wrap(err, "read demo accounts file")
	}

	var accounts []demoAccountJSON
	if err := json.Unmarshal(data, &accounts); err != nil {
		return errors.Wrap(err, "parse demo accounts JSON")
	}

	created := 0
	for _, a := range accounts {
		hash, err := auth.HashPassword(a.Password)
		if err != nil {
			return errors.Wrapf(err, "hash password for %s", a.Email)
		}

		err = repo.Create(ctx, &customer.Customer{
			ID:            uuid.New().String(),
			Name:          a.Name,
			Surname:       a.Surname,
			Email:         a.Email,
			ContactNumber: a.ContactNumber,
			PasswordHash:  hash,
			CreatedAt:     time.Now(),
		})
		if errors.Is(err, customer.ErrEmailTaken) {
			slog.Info("account exists, skipping", slog.String("email", a.Email))
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "create account %s", a.Email)
		}
		created++
	}

	slog.Info("demo accounts seeded", slog.Int("created", created))
	return nil
}
