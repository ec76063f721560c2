package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookshop-pos/internal/domain/bill"
)

const (
	createBillSQL = `INSERT INTO bills (bill_number, customer_id, subtotal, discount, tax,
			delivery_charge, total, payment_method, status, is_delivery, delivery_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	createBillItemSQL = `INSERT INTO bill_items (bill_id, book_id, title, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)`

	decrementStockSQL = `UPDATE books SET stock = stock - $2
		WHERE id = $1 AND stock >= $2`

	getStockSQL = `SELECT stock FROM books WHERE id = $1`

	getBillByIDSQL = `SELECT id, bill_number, customer_id, subtotal, discount, tax,
			delivery_charge, total, payment_method, status, is_delivery, delivery_address, created_at
		FROM bills WHERE id = $1`

	getBillItemsSQL = `SELECT book_id, title, quantity, unit_price, line_total
		FROM bill_items WHERE bill_id = $1 ORDER BY id`
)

var _ bill.Repository = (*BillRepository)(nil)

// BillRepository implements bill.Repository backed by PostgreSQL.
type BillRepository struct {
	pool *pgxpool.Pool
}

// NewBillRepository returns a BillRepository that uses the given pool.
func NewBillRepository(pool *pgxpool.Pool) *BillRepository {
	return &BillRepository{pool: pool}
}

// Create persists the bill and its items and decrements stock for every
// billed book, all in one transaction. The conditional stock update is the
// authoritative check: if another sale drained stock since validation, the
// transaction rolls back with an InsufficientStockError.
func (r *BillRepository) Create(ctx context.Context, b *bill.Bill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning bill transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	err = tx.QueryRow(ctx, createBillSQL,
		b.Number, b.CustomerID, b.Subtotal, b.Discount, b.Tax,
		b.DeliveryCharge, b.Total, b.PaymentMethod, b.Status,
		b.IsDelivery, b.DeliveryAddress, b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("creating bill %q: %w", b.Number, err)
	}

	for _, item := range b.Items {
		tag, err := tx.Exec(ctx, decrementStockSQL, item.BookID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for book %d: %w", item.BookID, err)
		}
		if tag.RowsAffected() == 0 {
			available := 0
			// Best effort: report what is left so the operator can adjust.
			_ = tx.QueryRow(ctx, getStockSQL, item.BookID).Scan(&available)
			return &bill.InsufficientStockError{
				BookID:    item.BookID,
				Requested: item.Quantity,
				Available: available,
			}
		}

		if _, err := tx.Exec(ctx, createBillItemSQL,
			b.ID, item.BookID, item.Title, item.Quantity, item.UnitPrice, item.LineTotal,
		); err != nil {
			return fmt.Errorf("creating bill item for book %d: %w", item.BookID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing bill %q: %w", b.Number, err)
	}
	return nil
}

// GetByID returns a persisted bill with its items.
func (r *BillRepository) GetByID(ctx context.Context, id int64) (*bill.Bill, error) {
	rows, err := r.pool.Query(ctx, getBillByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting bill %d: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBill)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, bill.ErrNotFound
		}
		return nil, fmt.Errorf("getting bill %d: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, getBillItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting items for bill %d: %w", id, err)
	}
	items, err := pgx.CollectRows(itemRows, scanBillItem)
	if err != nil {
		return nil, fmt.Errorf("getting items for bill %d: %w", id, err)
	}
	b.Items = items

	return &b, nil
}

func scanBill(row pgx.CollectableRow) (bill.Bill, error) {
	var (
		b         bill.Bill
		subtotal  decimal.Decimal
		discount  decimal.Decimal
		tax       decimal.Decimal
		delivery  decimal.Decimal
		total     decimal.Decimal
		createdAt time.Time
	)
	err := row.Scan(
		&b.ID, &b.Number, &b.CustomerID, &subtotal, &discount, &tax,
		&delivery, &total, &b.PaymentMethod, &b.Status,
		&b.IsDelivery, &b.DeliveryAddress, &createdAt,
	)
	b.Subtotal = subtotal
	b.Discount = discount
	b.Tax = tax
	b.DeliveryCharge = delivery
	b.Total = total
	b.CreatedAt = createdAt
	return b, err
}

func scanBillItem(row pgx.CollectableRow) (bill.Item, error) {
	var (
		item      bill.Item
		quantity  int32
		unitPrice decimal.Decimal
		lineTotal decimal.Decimal
	)
	err := row.Scan(&item.BookID, &item.Title, &quantity, &unitPrice, &lineTotal)
	item.Quantity = int(quantity)
	item.UnitPrice = unitPrice
	item.LineTotal = lineTotal
	return item, err
}
