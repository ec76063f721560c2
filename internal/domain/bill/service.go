package bill

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"

	"github.com/pageturn/bookshop-pos/internal/domain/book"
	"github.com/pageturn/bookshop-pos/internal/domain/cart"
	"github.com/pageturn/bookshop-pos/internal/domain/customer"
)

// Service encapsulates bill generation business logic.
type Service struct {
	customers customer.Repository
	books     book.Repository
	bills     Repository
	pricing   cart.Pricing
	now       func() time.Time
}

// NewService creates a bill Service with the required domain dependencies.
func NewService(
	customers customer.Repository,
	books book.Repository,
	bills Repository,
	pricing cart.Pricing,
) *Service {
	return &Service{
		customers: customers,
		books:     books,
		bills:     bills,
		pricing:   pricing,
		now:       time.Now,
	}
}

// Generate validates a cart submission, reprices it, persists the resulting
// bill, and returns it. On any error nothing is persisted, so the caller's
// cart can be retried as-is.
func (s *Service) Generate(ctx context.Context, req cart.SubmissionRequest) (*Bill, error) {
	method, err := ParseMethod(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	cust, err := s.customers.GetByID(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, errors.Wrap(err, "get customer")
	}

	// Batch fetch all submitted books in a single query.
	ids := make([]int64, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.BookID
	}
	fetched, err := s.books.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get books")
	}
	byID := make(map[int64]book.Book, len(fetched))
	for _, b := range fetched {
		byID[b.ID] = b
	}

	// Verify every submitted book still exists and has stock to cover the
	// submitted quantity, then build bill items at the submitted unit prices.
	items := make([]Item, len(req.Items))
	lines := make([]cart.Line, len(req.Items))
	for i, item := range req.Items {
		b, ok := byID[item.BookID]
		if !ok {
			return nil, &BookNotFoundError{BookID: item.BookID}
		}
		if item.Quantity > b.Stock {
			return nil, &InsufficientStockError{
				BookID:    item.BookID,
				Requested: item.Quantity,
				Available: b.Stock,
			}
		}

		lines[i] = cart.Line{
			BookID:    item.BookID,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		}
		items[i] = Item{
			BookID:    item.BookID,
			Title:     b.Title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: lines[i].LineTotal(),
		}
	}

	summary := s.pricing.Summarize(lines).Rounded()

	b := &Bill{
		Number:          s.billNumber(),
		CustomerID:      cust.ID,
		Items:           items,
		Subtotal:        summary.Subtotal,
		Discount:        summary.Discount,
		Tax:             summary.Tax,
		DeliveryCharge:  summary.Delivery,
		Total:           summary.Total,
		PaymentMethod:   method,
		Status:          StatusPending,
		IsDelivery:      req.IsDelivery,
		DeliveryAddress: req.DeliveryAddress,
		CreatedAt:       s.now(),
	}
	if err := s.bills.Create(ctx, b); err != nil {
		var stockErr *InsufficientStockError
		if errors.As(err, &stockErr) {
			return nil, stockErr
		}
		return nil, errors.Wrap(err, "create bill")
	}

	return b, nil
}

// billNumber produces a unique, human-quotable bill number.
func (s *Service) billNumber() string {
	return fmt.Sprintf("BILL-%d", s.now().UnixMilli())
}
