// Package book defines the catalog entity and its persistence contract.
package book

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested book does not exist.
var ErrNotFound = errors.New("book not found")

// Book represents a catalog item available for sale. Stock is the live
// on-hand quantity; the cart captures it as the line's stock limit at
// add time.
type Book struct {
	ID       int64
	Title    string
	Author   string
	ISBN     string
	Price    decimal.Decimal
	Stock    int
	Category string
}

// Repository defines read operations for the book catalog.
type Repository interface {
	// Search returns books whose title, author, or ISBN match the term.
	// An empty term lists the whole catalog.
	Search(ctx context.Context, term string) ([]Book, error)
	GetByID(ctx context.Context, id int64) (*Book, error)
	GetByIDs(ctx context.Context, ids []int64) ([]Book, error)
}
