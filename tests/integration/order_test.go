//go:build integration

package integration

import (
	"net/http"
	"regexp"
	"strings"
	"sync"
	"testing"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestPlaceOrder_NoAuth(t *testing.T) {
	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "whatever", Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", "", req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_EmptyItems(t *testing.T) {
	token := registerUser(t, "empty-items@test.local")

	resp := doPost(t, "/api/orders", token, orderRequest{})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestPlaceOrder_UnknownProduct(t *testing.T) {
	token := registerUser(t, "unknown-product@test.local")

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: "00000000-0000-0000-0000-000000000000", Quantity: 1}},
	}
	resp := doPost(t, "/api/orders", token, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Message != "Fail create order" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestPlaceOrder_Success(t *testing.T) {
	token := registerUser(t, "success@test.local")
	productID := createProduct(t, token, "Waffle", "6.50", 50)

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: productID, Quantity: 3}},
	}
	resp := doPost(t, "/api/orders", token, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	body := decodeJSON[envelope[orderResponse]](t, resp)
	if body.Message != "Success create order" {
		t.Errorf("message: got %q", body.Message)
	}
	o := body.Data
	if !uuidPattern.MatchString(o.ID) {
		t.Errorf("order id %q is not a uuid", o.ID)
	}
	if o.Status != "pending" {
		t.Errorf("status: got %q, want pending", o.Status)
	}
	if o.GrandTotal != 19.5 {
		t.Errorf("grandTotal: got %v, want 19.5", o.GrandTotal)
	}
	if len(o.Items) != 1 || o.Items[0].Name != "Waffle" || o.Items[0].Price != 6.5 {
		t.Errorf("unexpected items: %+v", o.Items)
	}

	// Stock must be decremented by the committed order.
	prodResp := doGet(t, "/api/products/"+productID, "")
	defer prodResp.Body.Close()
	p := decodeJSON[envelope[productResponse]](t, prodResp).Data
	if p.Quantity != 47 {
		t.Errorf("remaining qty: got %d, want 47", p.Quantity)
	}
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	token := registerUser(t, "insufficient@test.local")
	productID := createProduct(t, token, "Tiramisu", "5.50", 2)

	req := orderRequest{
		Items: []orderItemRequest{{ProductID: productID, Quantity: 4}},
	}
	resp := doPost(t, "/api/orders", token, req)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Message != "Failed add order items" {
		t.Errorf("message: got %q", body.Message)
	}
	if !strings.Contains(body.Detail, "current Tiramisu quantity: 2") {
		t.Errorf("detail: got %q", body.Detail)
	}

	// A rejected order must leave stock untouched.
	prodResp := doGet(t, "/api/products/"+productID, "")
	defer prodResp.Body.Close()
	p := decodeJSON[envelope[productResponse]](t, prodResp).Data
	if p.Quantity != 2 {
		t.Errorf("qty after rejection: got %d, want 2", p.Quantity)
	}
}

func TestPlaceOrder_FailedLineRollsBackEarlierLines(t *testing.T) {
	token := registerUser(t, "rollback@test.local")
	okID := createProduct(t, token, "Macaron", "8.00", 10)
	lowID := createProduct(t, token, "Latte", "4.00", 1)

	req := orderRequest{
		Items: []orderItemRequest{
			{ProductID: okID, Quantity: 2},
			{ProductID: lowID, Quantity: 3},
		},
	}
	resp := doPost(t, "/api/orders", token, req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// The first line's reservation must not survive the failed order.
	prodResp := doGet(t, "/api/products/"+okID, "")
	defer prodResp.Body.Close()
	p := decodeJSON[envelope[productResponse]](t, prodResp).Data
	if p.Quantity != 10 {
		t.Errorf("qty after rollback: got %d, want 10", p.Quantity)
	}
}

func TestPlaceOrder_QuantityBounds(t *testing.T) {
	token := registerUser(t, "bounds@test.local")
	productID := createProduct(t, token, "Brownie", "3.00", 100)

	for _, qty := range []int{0, 6} {
		req := orderRequest{
			Items: []orderItemRequest{{ProductID: productID, Quantity: qty}},
		}
		resp := doPost(t, "/api/orders", token, req)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("quantity %d: expected 400, got %d", qty, resp.StatusCode)
		}
	}
}

func TestPlaceOrder_ConcurrentNoOversell(t *testing.T) {
	token := registerUser(t, "concurrent@test.local")
	productID := createProduct(t, token, "Limited Cake", "9.00", 5)

	const callers = 15
	results := make(chan int, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := orderRequest{
				Items: []orderItemRequest{{ProductID: productID, Quantity: 1}},
			}
			resp := doPost(t, "/api/orders", token, req)
			resp.Body.Close()
			results <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for code := range results {
		switch code {
		case http.StatusCreated:
			accepted++
		case http.StatusBadRequest:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if accepted != 5 {
		t.Errorf("accepted orders: got %d, want 5", accepted)
	}

	prodResp := doGet(t, "/api/products/"+productID, "")
	defer prodResp.Body.Close()
	p := decodeJSON[envelope[productResponse]](t, prodResp).Data
	if p.Quantity != 0 {
		t.Errorf("final qty: got %d, want 0", p.Quantity)
	}
}

func TestListOrders_OwnerScoped(t *testing.T) {
	tokenA := registerUser(t, "owner-a@test.local")
	tokenB := registerUser(t, "owner-b@test.local")
	productID := createProduct(t, tokenA, "Crepe", "4.50", 100)

	for i := 0; i < 3; i++ {
		resp := doPost(t, "/api/orders", tokenA, orderRequest{
			Items: []orderItemRequest{{ProductID: productID, Quantity: 1}},
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create order %d: status %d", i, resp.StatusCode)
		}
	}

	resp := doGet(t, "/api/orders?page=1&limit=2", tokenA)
	list := decodeJSON[orderListResponse](t, resp)
	resp.Body.Close()
	if list.Total != 3 || list.TotalPages != 2 || len(list.Orders) != 2 {
		t.Errorf("page 1: total=%d totalPages=%d orders=%d", list.Total, list.TotalPages, len(list.Orders))
	}
	for _, o := range list.Orders {
		if o.Status != "pending" {
			t.Errorf("status: got %q", o.Status)
		}
	}

	// Another user sees none of them.
	resp = doGet(t, "/api/orders", tokenB)
	list = decodeJSON[orderListResponse](t, resp)
	resp.Body.Close()
	if list.Total != 0 {
		t.Errorf("other owner total: got %d, want 0", list.Total)
	}
}

func TestListOrders_InvalidStatusFilter(t *testing.T) {
	token := registerUser(t, "bad-filter@test.local")

	resp := doGet(t, "/api/orders?status=shipped", token)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Message != "Failed to get user's order history" {
		t.Errorf("message: got %q", body.Message)
	}
}

func TestGetOrder_OtherOwnerHidden(t *testing.T) {
	tokenA := registerUser(t, "get-a@test.local")
	tokenB := registerUser(t, "get-b@test.local")
	productID := createProduct(t, tokenA, "Eclair", "3.50", 10)

	resp := doPost(t, "/api/orders", tokenA, orderRequest{
		Items: []orderItemRequest{{ProductID: productID, Quantity: 1}},
	})
	orderID := decodeJSON[envelope[orderResponse]](t, resp).Data.ID
	resp.Body.Close()

	resp = doGet(t, "/api/orders/"+orderID, tokenA)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("owner get: expected 200, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/orders/"+orderID, tokenB)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("other owner get: expected 404, got %d", resp.StatusCode)
	}
}
