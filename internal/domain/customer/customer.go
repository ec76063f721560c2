// Package customer defines the customer entity and its persistence contract.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a shop account holder a bill can be issued to.
type Customer struct {
	ID            int64
	AccountNumber string
	FullName      string
	Email         string
	Phone         string
	Address       string
}

// CreateRequest holds the input for registering a new customer. The account
// number is assigned by the repository.
type CreateRequest struct {
	FullName string
	Email    string
	Phone    string
	Address  string
}

// Repository defines persistence operations for customers.
type Repository interface {
	// Search returns customers whose name, phone, email, or account number
	// match the term. An empty term lists all customers.
	Search(ctx context.Context, term string) ([]Customer, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, req CreateRequest) (*Customer, error)
}
