package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/pageturn/bookshop-pos/internal/domain/cart"
)

// openSession handles POST /api/sessions: a new empty cart ledger.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	id, _ := h.sessions.Open()

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("sessionId")
	e.Str(id)
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, &e)
}

// closeSession handles DELETE /api/sessions/{sid}. Idempotent.
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	h.sessions.Close(r.PathValue("sid"))
	w.WriteHeader(http.StatusNoContent)
}

// getCart handles GET /api/sessions/{sid}/cart: lines, selected customer,
// and the derived summary.
func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	var e jx.Encoder
	encodeCart(&e, ledger)
	writeJSON(w, http.StatusOK, &e)
}

// addItem handles POST /api/sessions/{sid}/items. The book's price and stock
// limit are resolved from the live catalog at add time.
func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var bookID int64
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		if key == "bookId" {
			bookID, err = d.Int64()
			return err
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	b, err := h.books.GetByID(r.Context(), bookID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := ledger.AddItem(b.ID, b.Title, b.Price, b.Stock); err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCart(&e, ledger)
	writeJSON(w, http.StatusOK, &e)
}

// updateItem handles PUT /api/sessions/{sid}/items/{bookID}. A quantity of
// zero removes the line.
func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	bookID, err := strconv.ParseInt(r.PathValue("bookID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity := 0
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		if key == "quantity" {
			quantity, err = d.Int()
			return err
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := ledger.UpdateQuantity(bookID, quantity); err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCart(&e, ledger)
	writeJSON(w, http.StatusOK, &e)
}

// removeItem handles DELETE /api/sessions/{sid}/items/{bookID}. Idempotent.
func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	bookID, err := strconv.ParseInt(r.PathValue("bookID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid book id")
		return
	}

	ledger.RemoveItem(bookID)

	var e jx.Encoder
	encodeCart(&e, ledger)
	writeJSON(w, http.StatusOK, &e)
}

// selectCustomer handles PUT /api/sessions/{sid}/customer.
func (h *Handler) selectCustomer(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var customerID int64
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		if key == "customerId" {
			customerID, err = d.Int64()
			return err
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	c, err := h.customers.GetByID(r.Context(), customerID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ledger.SelectCustomer(cart.Customer{
		ID:            c.ID,
		FullName:      c.FullName,
		Phone:         c.Phone,
		Email:         c.Email,
		AccountNumber: c.AccountNumber,
	})

	var e jx.Encoder
	encodeCart(&e, ledger)
	writeJSON(w, http.StatusOK, &e)
}

// clearCustomer handles DELETE /api/sessions/{sid}/customer.
func (h *Handler) clearCustomer(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	ledger.ClearCustomer()

	var e jx.Encoder
	encodeCart(&e, ledger)
	writeJSON(w, http.StatusOK, &e)
}

// encodeCart renders the full cart view: lines in insertion order, the
// selected customer when present, and the 2 dp summary.
func encodeCart(e *jx.Encoder, ledger *cart.Ledger) {
	e.ObjStart()

	e.FieldStart("items")
	e.ArrStart()
	for _, l := range ledger.Lines() {
		e.ObjStart()
		e.FieldStart("bookId")
		e.Int64(l.BookID)
		e.FieldStart("title")
		e.Str(l.Title)
		e.FieldStart("unitPrice")
		e.Float64(l.UnitPrice.Round(2).InexactFloat64())
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.FieldStart("stockLimit")
		e.Int(l.StockLimit)
		e.FieldStart("lineTotal")
		e.Float64(l.LineTotal().Round(2).InexactFloat64())
		e.ObjEnd()
	}
	e.ArrEnd()

	if c, ok := ledger.Customer(); ok {
		e.FieldStart("customer")
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(c.ID)
		e.FieldStart("fullName")
		e.Str(c.FullName)
		e.FieldStart("phone")
		e.Str(c.Phone)
		e.FieldStart("email")
		e.Str(c.Email)
		e.FieldStart("accountNumber")
		e.Str(c.AccountNumber)
		e.ObjEnd()
	}

	e.FieldStart("summary")
	e.ObjStart()
	money(e, ledger.Summary())
	e.ObjEnd()

	e.ObjEnd()
}
