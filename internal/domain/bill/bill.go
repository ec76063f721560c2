// Package bill implements bill generation: validation of a cart submission
// against the live catalog, pricing, and persistence.
package bill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status values a bill moves through. Bills are created PENDING; payment
// settlement and cancellation happen outside this service.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
)

// Accepted payment methods, matching the shop's payment strategies.
const (
	PaymentCash = "CASH"
	PaymentCard = "CARD"
	PaymentUPI  = "UPI"
)

var (
	// ErrNotFound is returned when a requested bill does not exist.
	ErrNotFound = errors.New("bill not found")
	// ErrEmptyItems is returned for a submission with no line items.
	ErrEmptyItems = errors.New("items required")
)

// UnknownPaymentMethodError indicates a payment method outside the accepted set.
type UnknownPaymentMethodError struct {
	Method string
}

func (e *UnknownPaymentMethodError) Error() string {
	return fmt.Sprintf("unknown payment method %q", e.Method)
}

// BookNotFoundError indicates a submitted book that no longer exists in the
// catalog.
type BookNotFoundError struct {
	BookID int64
}

func (e *BookNotFoundError) Error() string {
	return fmt.Sprintf("book %d not found", e.BookID)
}

// InsufficientStockError indicates live stock below the submitted quantity.
// The cart's stock limit is fixed at add time; the service re-checks at
// submission because inventory may have moved since.
type InsufficientStockError struct {
	BookID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("book %d: requested %d but only %d in stock", e.BookID, e.Requested, e.Available)
}

// Item is one billed line.
type Item struct {
	BookID    int64
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Bill is a finalized sale with its monetary breakdown.
type Bill struct {
	ID              int64
	Number          string
	CustomerID      int64
	Items           []Item
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	DeliveryCharge  decimal.Decimal
	Total           decimal.Decimal
	PaymentMethod   string
	Status          string
	IsDelivery      bool
	DeliveryAddress string
	CreatedAt       time.Time
}

// Repository defines persistence operations for bills.
type Repository interface {
	// Create persists the bill and its items and decrements book stock in
	// one transaction, filling in the assigned ID. It returns an
	// InsufficientStockError when stock moved below a line's quantity
	// between validation and commit.
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id int64) (*Bill, error)
}

// ParseMethod normalizes a payment method string against the accepted set.
func ParseMethod(method string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(method)) {
	case PaymentCash:
		return PaymentCash, nil
	case PaymentCard:
		return PaymentCard, nil
	case PaymentUPI:
		return PaymentUPI, nil
	default:
		return "", &UnknownPaymentMethodError{Method: method}
	}
}
