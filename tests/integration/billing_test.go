//go:build integration

package integration

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestListBooks(t *testing.T) {
	resp := doGet(t, "/api/books")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	books := decodeJSON[[]bookResponse](t, resp)
	if len(books) != 10 {
		t.Fatalf("expected 10 books, got %d", len(books))
	}
	for _, b := range books {
		if b.Title == "" {
			t.Error("book title is empty")
		}
		if b.Price <= 0 {
			t.Errorf("book %q price: got %v, want > 0", b.Title, b.Price)
		}
	}
}

func TestSearchBooks_ByAuthor(t *testing.T) {
	resp := doGet(t, "/api/books?term=Le+Guin")
	defer resp.Body.Close()

	books := decodeJSON[[]bookResponse](t, resp)
	if len(books) != 1 {
		t.Fatalf("expected 1 book by Le Guin, got %d", len(books))
	}
	if books[0].Title != "The Left Hand of Darkness" {
		t.Errorf("title: got %q", books[0].Title)
	}
}

func TestBillingFlow_EndToEnd(t *testing.T) {
	sid := openSession(t)
	bookA := findBook(t, "Solaris")                  // 14.95
	bookB := findBook(t, "The Pragmatic Programmer") // 39.50
	cust := findCustomer(t, "Amara Patel")

	// Add one of each.
	for _, id := range []int64{bookA.ID, bookB.ID} {
		resp := doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/items", map[string]any{"bookId": id})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	// Select the customer and check the derived summary.
	resp := doJSON(t, http.MethodPut, "/api/sessions/"+sid+"/customer", map[string]any{"customerId": cust.ID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select customer: expected 200, got %d", resp.StatusCode)
	}
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	if len(cart.Items) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(cart.Items))
	}
	// 14.95 + 39.50 = 54.45, below the 100 discount threshold.
	if !almostEqual(cart.Summary.Subtotal, 54.45) {
		t.Errorf("subtotal: got %v, want 54.45", cart.Summary.Subtotal)
	}
	if !almostEqual(cart.Summary.Discount, 0) {
		t.Errorf("discount: got %v, want 0", cart.Summary.Discount)
	}
	// 10% tax on 54.45.
	if !almostEqual(cart.Summary.Tax, 5.45) {
		t.Errorf("tax: got %v, want 5.45", cart.Summary.Tax)
	}
	if !almostEqual(cart.Summary.Total, 59.90) {
		t.Errorf("total: got %v, want 59.90", cart.Summary.Total)
	}

	// Checkout.
	resp = doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/checkout", map[string]any{"paymentMethod": "CASH"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}
	checkout := decodeJSON[checkoutResponse](t, resp)
	resp.Body.Close()

	if !checkout.Success {
		t.Error("checkout success flag is false")
	}
	if !strings.HasPrefix(checkout.BillNumber, "BILL-") {
		t.Errorf("bill number %q does not start with BILL-", checkout.BillNumber)
	}

	// The persisted bill matches the cart summary.
	resp = doGet(t, fmt.Sprintf("/api/bills/%d", checkout.BillID))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get bill: expected 200, got %d", resp.StatusCode)
	}
	bill := decodeJSON[billResponse](t, resp)
	resp.Body.Close()

	if bill.BillNumber != checkout.BillNumber {
		t.Errorf("bill number: got %q, want %q", bill.BillNumber, checkout.BillNumber)
	}
	if bill.Status != "PENDING" {
		t.Errorf("status: got %q, want PENDING", bill.Status)
	}
	if !almostEqual(bill.Total, 59.90) {
		t.Errorf("bill total: got %v, want 59.90", bill.Total)
	}
	if len(bill.Items) != 2 {
		t.Errorf("bill items: got %d, want 2", len(bill.Items))
	}

	// The cart is empty after a confirmed submission.
	resp = doGet(t, "/api/sessions/"+sid+"/cart")
	cart = decodeJSON[cartResponse](t, resp)
	resp.Body.Close()
	if len(cart.Items) != 0 {
		t.Errorf("cart should be empty after checkout, got %d lines", len(cart.Items))
	}
	if cart.Customer != nil {
		t.Error("customer should be cleared after checkout")
	}

	// Stock was decremented by the sale.
	after := findBook(t, "Solaris")
	if after.Quantity != bookA.Quantity-1 {
		t.Errorf("stock after sale: got %d, want %d", after.Quantity, bookA.Quantity-1)
	}
}

func TestBillingFlow_DiscountOverThreshold(t *testing.T) {
	sid := openSession(t)
	knuth := findBook(t, "The Art of Computer Programming, Vol. 1") // 79.99
	ddia := findBook(t, "Designing Data-Intensive Applications")    // 54.00

	for _, id := range []int64{knuth.ID, ddia.ID} {
		resp := doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/items", map[string]any{"bookId": id})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add item: expected 200, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := doGet(t, "/api/sessions/"+sid+"/cart")
	cart := decodeJSON[cartResponse](t, resp)
	resp.Body.Close()

	// 79.99 + 54.00 = 133.99 > 100, so the 5% discount applies.
	if !almostEqual(cart.Summary.Subtotal, 133.99) {
		t.Errorf("subtotal: got %v, want 133.99", cart.Summary.Subtotal)
	}
	if !almostEqual(cart.Summary.Discount, 6.70) {
		t.Errorf("discount: got %v, want 6.70", cart.Summary.Discount)
	}
	// Tax is 10% of the discounted base: (133.99 - 6.6995) * 0.10 = 12.729...
	if !almostEqual(cart.Summary.Tax, 12.73) {
		t.Errorf("tax: got %v, want 12.73", cart.Summary.Tax)
	}

	// Clean up the session.
	resp = doJSON(t, http.MethodDelete, "/api/sessions/"+sid, nil)
	resp.Body.Close()
}

func TestCheckout_WithoutCustomer(t *testing.T) {
	sid := openSession(t)
	b := findBook(t, "Solaris")

	resp := doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/items", map[string]any{"bookId": b.ID})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/checkout", map[string]any{"paymentMethod": "CASH"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
	errBody := decodeJSON[errorResponse](t, resp)
	if errBody.Code != http.StatusUnprocessableEntity {
		t.Errorf("error code: got %d, want 422", errBody.Code)
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	sid := openSession(t)
	cust := findCustomer(t, "Tomasz Nowak")

	resp := doJSON(t, http.MethodPut, "/api/sessions/"+sid+"/customer", map[string]any{"customerId": cust.ID})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/checkout", map[string]any{"paymentMethod": "CASH"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestCheckout_WithoutOperatorKey(t *testing.T) {
	sid := openSession(t)
	b := findBook(t, "Solaris")
	cust := findCustomer(t, "Grace Okafor")

	resp := doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/items", map[string]any{"bookId": b.ID})
	resp.Body.Close()
	resp = doJSON(t, http.MethodPut, "/api/sessions/"+sid+"/customer", map[string]any{"customerId": cust.ID})
	resp.Body.Close()

	// Same checkout request without the api_key header.
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/sessions/"+sid+"/checkout",
		strings.NewReader(`{"paymentMethod":"CASH"}`))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = httpClient.Do(req)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}

	// The cart is untouched and can still be checked out with the key.
	resp2 := doGet(t, "/api/sessions/"+sid+"/cart")
	cart := decodeJSON[cartResponse](t, resp2)
	resp2.Body.Close()
	if len(cart.Items) != 1 {
		t.Errorf("cart lines after rejected checkout: got %d, want 1", len(cart.Items))
	}
}

func TestAddItem_OutOfStockBook(t *testing.T) {
	sid := openSession(t)
	soldOut := findBook(t, "Invisible Cities") // seeded with zero stock

	resp := doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/items", map[string]any{"bookId": soldOut.ID})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestCreateCustomerAndBillAgainstIt(t *testing.T) {
	resp := doJSON(t, http.MethodPost, "/api/customers", map[string]any{
		"fullName": "Integration Shopper",
		"email":    "shopper@example.com",
		"phone":    "555-0999",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create customer: expected 201, got %d", resp.StatusCode)
	}
	created := decodeJSON[struct {
		Success  bool             `json:"success"`
		Customer customerResponse `json:"customer"`
	}](t, resp)
	resp.Body.Close()

	if !created.Success {
		t.Fatal("create customer success flag is false")
	}
	if !strings.HasPrefix(created.Customer.AccountNumber, "ACC-") {
		t.Errorf("account number %q does not start with ACC-", created.Customer.AccountNumber)
	}

	sid := openSession(t)
	b := findBook(t, "Thinking, Fast and Slow")

	resp = doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/items", map[string]any{"bookId": b.ID})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, "/api/sessions/"+sid+"/customer", map[string]any{"customerId": created.Customer.ID})
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, "/api/sessions/"+sid+"/checkout", map[string]any{"paymentMethod": "UPI"})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", resp.StatusCode)
	}
}

func TestSession_Close(t *testing.T) {
	sid := openSession(t)

	resp := doJSON(t, http.MethodDelete, "/api/sessions/"+sid, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("close session: expected 204, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/sessions/"+sid+"/cart")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("closed session cart: expected 404, got %d", resp.StatusCode)
	}
}
