package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pageturn/bookshop-pos/internal/domain/customer"
)

const (
	searchCustomersSQL = `SELECT id, account_number, full_name, email, phone, address
		FROM customers
		WHERE active AND ($1 = '' OR full_name ILIKE '%' || $1 || '%'
			OR phone ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%'
			OR account_number ILIKE '%' || $1 || '%')
		ORDER BY full_name, id`

	getCustomerByIDSQL = `SELECT id, account_number, full_name, email, phone, address
		FROM customers WHERE id = $1 AND active`

	createCustomerSQL = `INSERT INTO customers (account_number, full_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	upsertCustomerSQL = `INSERT INTO customers (account_number, full_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_number)
		DO UPDATE SET full_name = EXCLUDED.full_name, email = EXCLUDED.email,
			phone = EXCLUDED.phone, address = EXCLUDED.address, active = TRUE`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// Search returns active customers matching the term across name, phone,
// email, and account number. An empty term lists all customers.
func (r *CustomerRepository) Search(ctx context.Context, term string) ([]customer.Customer, error) {
	rows, err := r.pool.Query(ctx, searchCustomersSQL, term)
	if err != nil {
		return nil, fmt.Errorf("searching customers %q: %w", term, err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

// GetByID returns a single active customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// Create registers a new customer with a generated account number and
// returns the stored record.
func (r *CustomerRepository) Create(ctx context.Context, req customer.CreateRequest) (*customer.Customer, error) {
	c := customer.Customer{
		AccountNumber: newAccountNumber(),
		FullName:      req.FullName,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
	}

	err := r.pool.QueryRow(ctx, createCustomerSQL,
		c.AccountNumber, c.FullName, c.Email, c.Phone, c.Address,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("creating customer %q: %w", req.FullName, err)
	}

	return &c, nil
}

// Upsert inserts a customer or refreshes the record when the account number
// already exists. Used by the seed command.
func (r *CustomerRepository) Upsert(ctx context.Context, c customer.Customer) error {
	_, err := r.pool.Exec(ctx, upsertCustomerSQL,
		c.AccountNumber, c.FullName, c.Email, c.Phone, c.Address,
	)
	if err != nil {
		return fmt.Errorf("upserting customer %q: %w", c.AccountNumber, err)
	}
	return nil
}

// newAccountNumber derives a short customer account number from a UUID.
func newAccountNumber() string {
	id := uuid.New().String()
	return "ACC-" + strings.ToUpper(id[:8])
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.AccountNumber, &c.FullName, &c.Email, &c.Phone, &c.Address)
	return c, err
}
