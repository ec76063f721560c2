package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookshop-pos/internal/domain/book"
)

const (
	searchBooksSQL = `SELECT id, title, author, isbn, price, stock, category
		FROM books
		WHERE active AND ($1 = '' OR title ILIKE '%' || $1 || '%'
			OR author ILIKE '%' || $1 || '%' OR isbn ILIKE '%' || $1 || '%')
		ORDER BY title, id`

	getBookByIDSQL = `SELECT id, title, author, isbn, price, stock, category
		FROM books WHERE id = $1 AND active`

	getBooksByIDsSQL = `SELECT id, title, author, isbn, price, stock, category
		FROM books WHERE id = ANY($1) AND active`

	upsertBookSQL = `INSERT INTO books (title, author, isbn, price, stock, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (isbn) WHERE isbn <> ''
		DO UPDATE SET title = EXCLUDED.title, author = EXCLUDED.author,
			price = EXCLUDED.price, stock = EXCLUDED.stock,
			category = EXCLUDED.category, active = TRUE`
)

var _ book.Repository = (*BookRepository)(nil)

// BookRepository implements book.Repository backed by PostgreSQL.
type BookRepository struct {
	pool *pgxpool.Pool
}

// NewBookRepository returns a BookRepository that uses the given pool.
func NewBookRepository(pool *pgxpool.Pool) *BookRepository {
	return &BookRepository{pool: pool}
}

// Search returns active books matching the term across title, author, and
// ISBN. An empty term lists the whole catalog.
func (r *BookRepository) Search(ctx context.Context, term string) ([]book.Book, error) {
	rows, err := r.pool.Query(ctx, searchBooksSQL, term)
	if err != nil {
		return nil, fmt.Errorf("searching books %q: %w", term, err)
	}
	return pgx.CollectRows(rows, scanBook)
}

// GetByID returns a single active book by its identifier.
func (r *BookRepository) GetByID(ctx context.Context, id int64) (*book.Book, error) {
	rows, err := r.pool.Query(ctx, getBookByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting book %d: %w", id, err)
	}

	b, err := pgx.CollectExactlyOneRow(rows, scanBook)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, book.ErrNotFound
		}
		return nil, fmt.Errorf("getting book %d: %w", id, err)
	}
	return &b, nil
}

// GetByIDs returns active books matching any of the given IDs.
func (r *BookRepository) GetByIDs(ctx context.Context, ids []int64) ([]book.Book, error) {
	rows, err := r.pool.Query(ctx, getBooksByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting books by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanBook)
}

// Upsert inserts a catalog entry or refreshes it when the ISBN already
// exists. Used by the seed and ingest commands.
func (r *BookRepository) Upsert(ctx context.Context, b book.Book) error {
	_, err := r.pool.Exec(ctx, upsertBookSQL,
		b.Title, b.Author, b.ISBN, b.Price, int32(b.Stock), b.Category,
	)
	if err != nil {
		return fmt.Errorf("upserting book %q: %w", b.Title, err)
	}
	return nil
}

func scanBook(row pgx.CollectableRow) (book.Book, error) {
	var (
		b     book.Book
		price decimal.Decimal
		stock int32
	)
	err := row.Scan(&b.ID, &b.Title, &b.Author, &b.ISBN, &price, &stock, &b.Category)
	b.Price = price
	b.Stock = int(stock)
	return b, err
}
