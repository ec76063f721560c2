// Package cart implements the in-memory billing cart: an ordered set of book
// lines plus an optional selected customer, with the derived bill summary and
// the checkout submission contract.
package cart

import (
	"fmt"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for submission preconditions, checked in order by
// PrepareSubmission.
var (
	ErrNoCustomerSelected = errors.New("no customer selected")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrNoPaymentMethod    = errors.New("payment method required")
)

// StockExceededError indicates an attempted quantity beyond a line's stock
// limit. The line is left unchanged.
type StockExceededError struct {
	BookID int64
	Limit  int
}

func (e *StockExceededError) Error() string {
	return fmt.Sprintf("stock limit %d reached for book %d", e.Limit, e.BookID)
}

// Line is one book entry in the cart. StockLimit is captured when the line is
// added and fixed for the line's lifetime; live inventory is re-checked only
// at checkout.
type Line struct {
	BookID     int64
	Title      string
	UnitPrice  decimal.Decimal
	Quantity   int
	StockLimit int
}

// LineTotal returns UnitPrice multiplied by Quantity at full precision.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Customer is the summary of the selected customer carried by the ledger for
// display and checkout. It is a value copy, not a live reference.
type Customer struct {
	ID            int64
	FullName      string
	Phone         string
	Email         string
	AccountNumber string
}

// SubmissionItem is one bill line in a checkout request.
type SubmissionItem struct {
	BookID    int64
	Quantity  int
	UnitPrice decimal.Decimal
}

// SubmissionRequest is the payload handed to the bill service at checkout.
// Items preserve cart insertion order.
type SubmissionRequest struct {
	CustomerID      int64
	PaymentMethod   string
	IsDelivery      bool
	DeliveryAddress string
	Items           []SubmissionItem
}

// Ledger owns the authoritative cart state for one billing session.
//
// Every stored line satisfies 1 <= Quantity <= StockLimit; a line driven to
// zero or below is removed, never stored. The mutex serializes mutations, so
// two rapid add calls for the same book increment strictly in arrival order.
type Ledger struct {
	mu       sync.Mutex
	lines    []Line
	index    map[int64]int // bookID -> position in lines
	customer *Customer
	pricing  Pricing
}

// NewLedger creates an empty ledger priced with the given policy.
func NewLedger(pricing Pricing) *Ledger {
	return &Ledger{
		index:   make(map[int64]int),
		pricing: pricing,
	}
}

// AddItem adds one unit of the given book. If the book is already in the
// cart its quantity is incremented, bounded by the line's stock limit.
// A zero stock limit rejects the add outright.
func (c *Ledger) AddItem(bookID int64, title string, unitPrice decimal.Decimal, stockLimit int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos, ok := c.index[bookID]; ok {
		if c.lines[pos].Quantity >= c.lines[pos].StockLimit {
			return &StockExceededError{BookID: bookID, Limit: c.lines[pos].StockLimit}
		}
		c.lines[pos].Quantity++
		return nil
	}

	if stockLimit < 1 {
		return &StockExceededError{BookID: bookID, Limit: stockLimit}
	}

	c.index[bookID] = len(c.lines)
	c.lines = append(c.lines, Line{
		BookID:     bookID,
		Title:      title,
		UnitPrice:  unitPrice,
		Quantity:   1,
		StockLimit: stockLimit,
	})
	return nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero or
// below removes the line. A quantity beyond the stock limit fails and leaves
// the line unchanged. Unknown book IDs are ignored.
func (c *Ledger) UpdateQuantity(bookID int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	pos, ok := c.index[bookID]
	if !ok {
		return nil
	}
	if quantity <= 0 {
		c.removeAt(pos)
		return nil
	}
	if quantity > c.lines[pos].StockLimit {
		return &StockExceededError{BookID: bookID, Limit: c.lines[pos].StockLimit}
	}
	c.lines[pos].Quantity = quantity
	return nil
}

// RemoveItem removes the line for the given book. Removing an absent book is
// a no-op.
func (c *Ledger) RemoveItem(bookID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pos, ok := c.index[bookID]; ok {
		c.removeAt(pos)
	}
}

// removeAt deletes lines[pos] preserving insertion order. Caller holds mu.
func (c *Ledger) removeAt(pos int) {
	delete(c.index, c.lines[pos].BookID)
	c.lines = append(c.lines[:pos], c.lines[pos+1:]...)
	for i := pos; i < len(c.lines); i++ {
		c.index[c.lines[i].BookID] = i
	}
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Ledger) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// SelectCustomer sets the ledger's customer. Cart lines are unaffected.
func (c *Ledger) SelectCustomer(customer Customer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customer = &customer
}

// ClearCustomer removes the selected customer, if any.
func (c *Ledger) ClearCustomer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.customer = nil
}

// Customer returns the selected customer and whether one is set.
func (c *Ledger) Customer() (Customer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.customer == nil {
		return Customer{}, false
	}
	return *c.customer, true
}

// Summary derives the bill summary from the current lines. It is a pure
// function of the cart state: calling it twice without an intervening
// mutation yields identical results.
func (c *Ledger) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pricing.Summarize(c.lines)
}

// PrepareSubmission validates checkout preconditions and builds the
// submission payload. Validation order: customer, then cart contents, then
// payment method. The ledger is not mutated; Reset is called separately once
// the bill service confirms acceptance.
func (c *Ledger) PrepareSubmission(paymentMethod string) (SubmissionRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.customer == nil {
		return SubmissionRequest{}, ErrNoCustomerSelected
	}
	if len(c.lines) == 0 {
		return SubmissionRequest{}, ErrEmptyCart
	}
	if paymentMethod == "" {
		return SubmissionRequest{}, ErrNoPaymentMethod
	}

	items := make([]SubmissionItem, len(c.lines))
	for i, l := range c.lines {
		items[i] = SubmissionItem{
			BookID:    l.BookID,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		}
	}

	return SubmissionRequest{
		CustomerID:      c.customer.ID,
		PaymentMethod:   paymentMethod,
		IsDelivery:      false,
		DeliveryAddress: "",
		Items:           items,
	}, nil
}

// Reset clears all lines and the selected customer. It must be called only
// after a successful bill submission; a failed submission leaves the ledger
// untouched so the operator can retry.
func (c *Ledger) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.index = make(map[int64]int)
	c.customer = nil
}
