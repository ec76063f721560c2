// Command seed-db loads the book catalog and a starter customer set from
// JSON files into PostgreSQL. Safe to run repeatedly: rows are upserted.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookshop-pos/internal/domain/auth"
	"github.com/pageturn/bookshop-pos/internal/domain/book"
	"github.com/pageturn/bookshop-pos/internal/domain/customer"
	"github.com/pageturn/bookshop-pos/internal/repository"
)

type bookJSON struct {
	Title    string          `json:"title"`
	Author   string          `json:"author"`
	ISBN     string          `json:"isbn"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
	Category string          `json:"category"`
}

type customerJSON struct {
	AccountNumber string `json:"accountNumber"`
	FullName      string `json:"fullName"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

func main() {
	var (
		databaseURL   string
		booksFile     string
		customersFile string
		apiKey        string
		apiKeyPepper  string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&booksFile, "books-file", "db/seed/books.json", "path to books JSON file")
	flag.StringVar(&customersFile, "customers-file", "db/seed/customers.json", "path to customers JSON file")
	flag.StringVar(&apiKey, "api-key", "", "operator API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, booksFile, customersFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, booksFile, customersFile, apiKey, pepper string) error {
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

	if err := seedBooks(ctx, repository.NewBookRepository(pool), booksFile); err != nil {
		return errors.Wrap(err, "seed books")
	}

	if err := seedCustomers(ctx, repository.NewCustomerRepository(pool), customersFile); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	if err := seedAPIKey(ctx, repository.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *repository.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default operator API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default",
		KeyHash: keyHash,
		Name:    "Default counter key",
		Scopes:  []string{auth.ScopeCreateBill},
	}); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"), slog.String("name", "Default counter key"))

	return nil
}

func seedBooks(ctx context.Context, repo *repository.BookRepository, path string) error {
	slog.Info("reading books file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read books file")
	}

	var books []bookJSON
	if err := json.Unmarshal(data, &books); err != nil {
		return errors.Wrap(err, "parse books JSON")
	}

	slog.Info("upserting books", slog.Int("count", len(books)))

	for _, b := range books {
		if err := repo.Upsert(ctx, book.Book{
			Title:    b.Title,
			Author:   b.Author,
			ISBN:     b.ISBN,
			Price:    b.Price,
			Stock:    b.Stock,
			Category: b.Category,
		}); err != nil {
			return errors.Wrapf(err, "upsert book %q", b.Title)
		}

		slog.Info("upserted book", slog.String("isbn", b.ISBN), slog.String("title", b.Title))
	}

	return nil
}

func seedCustomers(ctx context.Context, repo *repository.CustomerRepository, path string) error {
	slog.Info("reading customers file", slog.String("path", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read customers file")
	}

	var customers []customerJSON
	if err := json.Unmarshal(data, &customers); err != nil {
		return errors.Wrap(err, "parse customers JSON")
	}

	slog.Info("upserting customers", slog.Int("count", len(customers)))

	for _, c := range customers {
		if err := repo.Upsert(ctx, customer.Customer{
			AccountNumber: c.AccountNumber,
			FullName:      c.FullName,
			Email:         c.Email,
			Phone:         c.Phone,
			Address:       c.Address,
		}); err != nil {
			return errors.Wrapf(err, "upsert customer %s", c.AccountNumber)
		}

		slog.Info("upserted customer", slog.String("account", c.AccountNumber), slog.String("name", c.FullName))
	}

	return nil
}
