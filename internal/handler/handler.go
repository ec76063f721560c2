// Package handler exposes the billing service over HTTP. Handlers decode
// requests with go-faster/jx, delegate to the domain, and map domain errors
// to HTTP statuses.
package handler

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/pageturn/bookshop-pos/internal/domain/auth"
	"github.com/pageturn/bookshop-pos/internal/domain/bill"
	"github.com/pageturn/bookshop-pos/internal/domain/book"
	"github.com/pageturn/bookshop-pos/internal/domain/cart"
	"github.com/pageturn/bookshop-pos/internal/domain/customer"
	"github.com/pageturn/bookshop-pos/internal/session"
)

// maxBodyBytes bounds request bodies; billing payloads are tiny.
const maxBodyBytes = 1 << 20

// Handler serves the billing API.
type Handler struct {
	sessions  *session.Store
	books     book.Repository
	customers customer.Repository
	billSvc   *bill.Service
	bills     bill.Repository
	security  *Security
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	sessions *session.Store,
	books book.Repository,
	customers customer.Repository,
	billSvc *bill.Service,
	bills bill.Repository,
	security *Security,
) *Handler {
	return &Handler{
		sessions:  sessions,
		books:     books,
		customers: customers,
		billSvc:   billSvc,
		bills:     bills,
		security:  security,
	}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/books", h.searchBooks)
	mux.HandleFunc("GET /api/customers", h.searchCustomers)
	mux.HandleFunc("POST /api/customers", h.createCustomer)

	mux.HandleFunc("POST /api/sessions", h.openSession)
	mux.HandleFunc("DELETE /api/sessions/{sid}", h.closeSession)
	mux.HandleFunc("GET /api/sessions/{sid}/cart", h.getCart)
	mux.HandleFunc("POST /api/sessions/{sid}/items", h.addItem)
	mux.HandleFunc("PUT /api/sessions/{sid}/items/{bookID}", h.updateItem)
	mux.HandleFunc("DELETE /api/sessions/{sid}/items/{bookID}", h.removeItem)
	mux.HandleFunc("PUT /api/sessions/{sid}/customer", h.selectCustomer)
	mux.HandleFunc("DELETE /api/sessions/{sid}/customer", h.clearCustomer)
	mux.HandleFunc("POST /api/sessions/{sid}/checkout",
		h.security.RequireKey(auth.ScopeCreateBill, h.checkout))

	mux.HandleFunc("GET /api/bills/{id}", h.getBill)
}

// ledger resolves the session from the request path, replying 404 when the
// session is unknown or expired.
func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) (*cart.Ledger, bool) {
	sid := r.PathValue("sid")
	ledger, ok := h.sessions.Get(sid)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return ledger, true
}

// readBody reads a bounded request body for jx decoding.
func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return data, nil
}

// writeJSON writes the encoder's buffer as an application/json response.
func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the {code, message} error body used across the API.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	writeJSON(w, status, &e)
}

// respondError maps domain errors to HTTP statuses. Unexpected errors are
// logged and reported as an opaque 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		stockErr  *cart.StockExceededError
		methodErr *bill.UnknownPaymentMethodError
		liveStock *bill.InsufficientStockError
		missingBk *bill.BookNotFoundError
	)

	switch {
	case errors.As(err, &stockErr):
		writeError(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, cart.ErrNoCustomerSelected),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrNoPaymentMethod),
		errors.Is(err, bill.ErrEmptyItems):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &methodErr):
		writeError(w, http.StatusUnprocessableEntity, methodErr.Error())
	case errors.As(err, &liveStock):
		writeError(w, http.StatusUnprocessableEntity, liveStock.Error())
	case errors.As(err, &missingBk):
		// A book that vanished between add-to-cart and checkout is a
		// submission failure, not a lookup miss.
		writeError(w, http.StatusUnprocessableEntity, missingBk.Error())
	case errors.Is(err, book.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, bill.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// money renders a decimal amount rounded to 2 dp for presentation.
func money(e *jx.Encoder, v cart.Summary) {
	e.FieldStart("subtotal")
	e.Float64(v.Subtotal.Round(2).InexactFloat64())
	e.FieldStart("discount")
	e.Float64(v.Discount.Round(2).InexactFloat64())
	e.FieldStart("tax")
	e.Float64(v.Tax.Round(2).InexactFloat64())
	e.FieldStart("delivery")
	e.Float64(v.Delivery.Round(2).InexactFloat64())
	e.FieldStart("total")
	e.Float64(v.Total.Round(2).InexactFloat64())
}
