package bill

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageturn/bookshop-pos/internal/domain/book"
	"github.com/pageturn/bookshop-pos/internal/domain/cart"
	"github.com/pageturn/bookshop-pos/internal/domain/customer"
)

// --- Mock implementations ---

type mockCustomerRepo struct {
	byID   map[int64]*customer.Customer
	getErr error
}

func (m *mockCustomerRepo) Search(_ context.Context, _ string) ([]customer.Customer, error) {
	return nil, nil
}

func (m *mockCustomerRepo) GetByID(_ context.Context, id int64) (*customer.Customer, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	c, ok := m.byID[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

func (m *mockCustomerRepo) Create(_ context.Context, _ customer.CreateRequest) (*customer.Customer, error) {
	return nil, nil
}

type mockBookRepo struct {
	byID   map[int64]book.Book
	getErr error
}

func (m *mockBookRepo) Search(_ context.Context, _ string) ([]book.Book, error) {
	return nil, nil
}

func (m *mockBookRepo) GetByID(_ context.Context, id int64) (*book.Book, error) {
	b, ok := m.byID[id]
	if !ok {
		return nil, book.ErrNotFound
	}
	return &b, nil
}

func (m *mockBookRepo) GetByIDs(_ context.Context, ids []int64) ([]book.Book, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	out := make([]book.Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := m.byID[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

type mockBillRepo struct {
	lastBill *Bill
	err      error
}

func (m *mockBillRepo) Create(_ context.Context, b *Bill) error {
	if m.err != nil {
		return m.err
	}
	b.ID = 101
	m.lastBill = b
	return nil
}

func (m *mockBillRepo) GetByID(_ context.Context, _ int64) (*Bill, error) {
	return m.lastBill, nil
}

// --- Helpers ---

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newBookRepo(books ...book.Book) *mockBookRepo {
	byID := make(map[int64]book.Book, len(books))
	for _, b := range books {
		byID[b.ID] = b
	}
	return &mockBookRepo{byID: byID}
}

func newCustomerRepo(customers ...customer.Customer) *mockCustomerRepo {
	byID := make(map[int64]*customer.Customer, len(customers))
	for i := range customers {
		byID[customers[i].ID] = &customers[i]
	}
	return &mockCustomerRepo{byID: byID}
}

func newService(customers customer.Repository, books book.Repository, bills Repository) *Service {
	svc := NewService(customers, books, bills, cart.DefaultPricing())
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }
	return svc
}

func submission(items ...cart.SubmissionItem) cart.SubmissionRequest {
	return cart.SubmissionRequest{
		CustomerID:    7,
		PaymentMethod: "CASH",
		Items:         items,
	}
}

// --- Tests ---

func TestParseMethod(t *testing.T) {
	for _, m := range []string{"CASH", "cash", " Card ", "upi"} {
		got, err := ParseMethod(m)
		require.NoError(t, err, m)
		assert.Contains(t, []string{PaymentCash, PaymentCard, PaymentUPI}, got)
	}

	_, err := ParseMethod("CHEQUE")
	var umErr *UnknownPaymentMethodError
	require.ErrorAs(t, err, &umErr)
	assert.Equal(t, "CHEQUE", umErr.Method)
}

func TestGenerate_UnknownPaymentMethod(t *testing.T) {
	svc := newService(newCustomerRepo(), newBookRepo(), &mockBillRepo{})

	req := submission(cart.SubmissionItem{BookID: 1, Quantity: 1, UnitPrice: d("10.00")})
	req.PaymentMethod = "BARTER"

	_, err := svc.Generate(context.Background(), req)
	var umErr *UnknownPaymentMethodError
	require.ErrorAs(t, err, &umErr)
}

func TestGenerate_EmptyItems(t *testing.T) {
	svc := newService(newCustomerRepo(), newBookRepo(), &mockBillRepo{})

	_, err := svc.Generate(context.Background(), submission())
	require.ErrorIs(t, err, ErrEmptyItems)
}

func TestGenerate_CustomerNotFound(t *testing.T) {
	svc := newService(newCustomerRepo(), newBookRepo(), &mockBillRepo{})

	_, err := svc.Generate(context.Background(), submission(
		cart.SubmissionItem{BookID: 1, Quantity: 1, UnitPrice: d("10.00")},
	))
	require.ErrorIs(t, err, customer.ErrNotFound)
}

func TestGenerate_BookNoLongerInCatalog(t *testing.T) {
	svc := newService(
		newCustomerRepo(customer.Customer{ID: 7, FullName: "Ada"}),
		newBookRepo(),
		&mockBillRepo{},
	)

	_, err := svc.Generate(context.Background(), submission(
		cart.SubmissionItem{BookID: 99, Quantity: 1, UnitPrice: d("10.00")},
	))
	var bnfErr *BookNotFoundError
	require.ErrorAs(t, err, &bnfErr)
	assert.Equal(t, int64(99), bnfErr.BookID)
}

func TestGenerate_StockMovedBelowSubmittedQuantity(t *testing.T) {
	svc := newService(
		newCustomerRepo(customer.Customer{ID: 7}),
		newBookRepo(book.Book{ID: 1, Title: "Dune", Price: d("12.50"), Stock: 1}),
		&mockBillRepo{},
	)

	_, err := svc.Generate(context.Background(), submission(
		cart.SubmissionItem{BookID: 1, Quantity: 3, UnitPrice: d("12.50")},
	))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
}

func TestGenerate_PersistsPricedBill(t *testing.T) {
	repo := &mockBillRepo{}
	svc := newService(
		newCustomerRepo(customer.Customer{ID: 7, FullName: "Ada"}),
		newBookRepo(
			book.Book{ID: 1, Title: "A", Price: d("20.00"), Stock: 5},
			book.Book{ID: 2, Title: "B", Price: d("90.00"), Stock: 2},
		),
		repo,
	)

	got, err := svc.Generate(context.Background(), submission(
		cart.SubmissionItem{BookID: 1, Quantity: 1, UnitPrice: d("20.00")},
		cart.SubmissionItem{BookID: 2, Quantity: 1, UnitPrice: d("90.00")},
	))
	require.NoError(t, err)

	assert.Equal(t, int64(101), got.ID)
	assert.Equal(t, "BILL-1700000000000", got.Number)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, PaymentCash, got.PaymentMethod)
	assert.True(t, d("110.00").Equal(got.Subtotal), "subtotal = %s", got.Subtotal)
	assert.True(t, d("5.50").Equal(got.Discount), "discount = %s", got.Discount)
	assert.True(t, d("10.45").Equal(got.Tax), "tax = %s", got.Tax)
	assert.True(t, d("114.95").Equal(got.Total), "total = %s", got.Total)

	require.NotNil(t, repo.lastBill)
	require.Len(t, repo.lastBill.Items, 2)
	assert.Equal(t, "A", repo.lastBill.Items[0].Title)
	assert.True(t, d("90.00").Equal(repo.lastBill.Items[1].LineTotal))
}

func TestGenerate_RepositoryError(t *testing.T) {
	svc := newService(
		newCustomerRepo(customer.Customer{ID: 7}),
		newBookRepo(book.Book{ID: 1, Title: "A", Price: d("20.00"), Stock: 5}),
		&mockBillRepo{err: errors.New("db write failed")},
	)

	_, err := svc.Generate(context.Background(), submission(
		cart.SubmissionItem{BookID: 1, Quantity: 1, UnitPrice: d("20.00")},
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create bill")
}

func TestGenerate_TransactionStockConflictSurfaced(t *testing.T) {
	conflict := &InsufficientStockError{BookID: 1, Requested: 2, Available: 1}
	svc := newService(
		newCustomerRepo(customer.Customer{ID: 7}),
		newBookRepo(book.Book{ID: 1, Title: "A", Price: d("20.00"), Stock: 5}),
		&mockBillRepo{err: conflict},
	)

	_, err := svc.Generate(context.Background(), submission(
		cart.SubmissionItem{BookID: 1, Quantity: 2, UnitPrice: d("20.00")},
	))
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Available)
}
