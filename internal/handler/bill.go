package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/jx"

	"github.com/pageturn/bookshop-pos/internal/domain/bill"
)

// checkout handles POST /api/sessions/{sid}/checkout. The ledger builds the
// submission payload, the bill service persists it, and only a confirmed
// write clears the cart. Any failure leaves the session untouched for retry.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.ledger(w, r)
	if !ok {
		return
	}

	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	paymentMethod := ""
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		if key == "paymentMethod" {
			paymentMethod, err = d.Str()
			return err
		}
		return d.Skip()
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req, err := ledger.PrepareSubmission(paymentMethod)
	if err != nil {
		respondError(w, r, err)
		return
	}

	generated, err := h.billSvc.Generate(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ledger.Reset()

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	e.FieldStart("billNumber")
	e.Str(generated.Number)
	e.FieldStart("billId")
	e.Int64(generated.ID)
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, &e)
}

// getBill handles GET /api/bills/{id}: the persisted invoice view.
func (h *Handler) getBill(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid bill id")
		return
	}

	b, err := h.bills.GetByID(r.Context(), id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeBill(&e, b)
	writeJSON(w, http.StatusOK, &e)
}

func encodeBill(e *jx.Encoder, b *bill.Bill) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(b.ID)
	e.FieldStart("billNumber")
	e.Str(b.Number)
	// Customer IDs travel as strings in the billing wire format.
	e.FieldStart("customerId")
	e.Str(strconv.FormatInt(b.CustomerID, 10))
	e.FieldStart("paymentMethod")
	e.Str(b.PaymentMethod)
	e.FieldStart("status")
	e.Str(b.Status)
	e.FieldStart("isDelivery")
	e.Bool(b.IsDelivery)
	e.FieldStart("deliveryAddress")
	e.Str(b.DeliveryAddress)
	e.FieldStart("createdAt")
	e.Str(b.CreatedAt.UTC().Format(time.RFC3339))

	e.FieldStart("items")
	e.ArrStart()
	for _, item := range b.Items {
		e.ObjStart()
		e.FieldStart("bookId")
		e.Int64(item.BookID)
		e.FieldStart("title")
		e.Str(item.Title)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("unitPrice")
		e.Float64(item.UnitPrice.Round(2).InexactFloat64())
		e.FieldStart("lineTotal")
		e.Float64(item.LineTotal.Round(2).InexactFloat64())
		e.ObjEnd()
	}
	e.ArrEnd()

	e.FieldStart("subtotal")
	e.Float64(b.Subtotal.Round(2).InexactFloat64())
	e.FieldStart("discount")
	e.Float64(b.Discount.Round(2).InexactFloat64())
	e.FieldStart("tax")
	e.Float64(b.Tax.Round(2).InexactFloat64())
	e.FieldStart("delivery")
	e.Float64(b.DeliveryCharge.Round(2).InexactFloat64())
	e.FieldStart("total")
	e.Float64(b.Total.Round(2).InexactFloat64())
	e.ObjEnd()
}
