package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/pageturn/bookshop-pos/internal/domain/customer"
)

// searchCustomers handles GET /api/customers?term=.
func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")

	customers, err := h.customers.Search(r.Context(), term)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, c := range customers {
		encodeCustomer(&e, c)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

// createCustomer handles POST /api/customers.
func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var req customer.CreateRequest
	d := jx.DecodeBytes(body)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "fullName":
			req.FullName, err = d.Str()
		case "email":
			req.Email, err = d.Str()
		case "phone":
			req.Phone, err = d.Str()
		case "address":
			req.Address, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	}); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.FullName == "" {
		writeError(w, http.StatusUnprocessableEntity, "fullName required")
		return
	}

	created, err := h.customers.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("success")
	e.Bool(true)
	e.FieldStart("customer")
	encodeCustomer(&e, *created)
	e.ObjEnd()
	writeJSON(w, http.StatusCreated, &e)
}

func encodeCustomer(e *jx.Encoder, c customer.Customer) {
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
