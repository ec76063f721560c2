package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/pageturn/bookshop-pos/internal/domain/book"
)

// searchBooks handles GET /api/books?term=. An empty term lists the catalog.
func (h *Handler) searchBooks(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")

	books, err := h.books.Search(r.Context(), term)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, b := range books {
		encodeBook(&e, b)
	}
	e.ArrEnd()
	writeJSON(w, http.StatusOK, &e)
}

func encodeBook(e *jx.Encoder, b book.Book) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(b.ID)
	e.FieldStart("title")
	e.Str(b.Title)
	e.FieldStart("author")
	e.Str(b.Author)
	if b.ISBN != "" {
		e.FieldStart("isbn")
		e.Str(b.ISBN)
	}
	e.FieldStart("price")
	e.Float64(b.Price.Round(2).InexactFloat64())
	e.FieldStart("quantity")
	e.Int(b.Stock)
	if b.Category != "" {
		e.FieldStart("category")
		e.Str(b.Category)
	}
	e.ObjEnd()
}
