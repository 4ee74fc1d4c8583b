package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront-go/storefront/internal/domain/category"
	"github.com/storefront-go/storefront/internal/domain/order"
	"github.com/storefront-go/storefront/internal/domain/product"
	"github.com/storefront-go/storefront/internal/domain/storage"
	"github.com/storefront-go/storefront/internal/domain/user"
)

// --- Mock implementations ---

type mockTxManager struct{}

func (mockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	return fn(ctx, struct{}{})
}

type mockProductRepo struct {
	byID map[string]*product.Product
}

func (m *mockProductRepo) Create(_ context.Context, p *product.Product) error {
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (m *mockProductRepo) List(_ context.Context, _ product.ListParams) ([]product.Product, int, error) {
	out := make([]product.Product, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockProductRepo) Update(_ context.Context, p *product.Product) error {
	if _, ok := m.byID[p.ID]; !ok {
		return product.ErrNotFound
	}
	m.byID[p.ID] = p
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return product.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *mockProductRepo) GetForUpdate(ctx context.Context, _ storage.Tx, id string) (*product.Product, error) {
	return m.GetByID(ctx, id)
}

func (m *mockProductRepo) DecrementQuantity(_ context.Context, _ storage.Tx, id string, amount int) error {
	p := m.byID[id]
	p.Quantity -= amount
	return nil
}

type mockOrderRepo struct {
	byID    map[string]*order.Order
	byOwner map[string][]order.Order
}

func (m *mockOrderRepo) Create(_ context.Context, _ storage.Tx, o *order.Order) error {
	m.byID[o.ID] = o
	m.byOwner[o.CreatedBy] = append(m.byOwner[o.CreatedBy], *o)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*order.Order, error) {
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	return o, nil
}

func (m *mockOrderRepo) FindByOwner(_ context.Context, owner string, f order.Filter, page, limit int) ([]order.Order, int, error) {
	var matched []order.Order
	for _, o := range m.byOwner[owner] {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matched = append(matched, o)
	}

	start := (page - 1) * limit
	if start >= len(matched) {
		return nil, len(matched), nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

type mockCategoryRepo struct {
	byID map[string]*category.Category
}

func (m *mockCategoryRepo) Create(_ context.Context, c *category.Category) error {
	m.byID[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*category.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, category.ErrNotFound
	}
	return c, nil
}

func (m *mockCategoryRepo) List(_ context.Context, _, _ int) ([]category.Category, int, error) {
	out := make([]category.Category, 0, len(m.byID))
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockCategoryRepo) Update(_ context.Context, c *category.Category) error {
	if _, ok := m.byID[c.ID]; !ok {
		return category.ErrNotFound
	}
	m.byID[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.byID[id]; !ok {
		return category.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type mockUserRepo struct {
	byID    map[string]*user.User
	byEmail map[string]*user.User
}

func (m *mockUserRepo) Create(_ context.Context, u *user.User) error {
	m.byID[u.ID] = u
	m.byEmail[u.Email] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	return u, nil
}

// --- Helpers ---

type testAPI struct {
	mux      *http.ServeMux
	products *mockProductRepo
	orders   *mockOrderRepo
	users    *mockUserRepo
	tokens   *Tokens
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	api := &testAPI{
		mux:      http.NewServeMux(),
		products: &mockProductRepo{byID: map[string]*product.Product{}},
		orders:   &mockOrderRepo{byID: map[string]*order.Order{}, byOwner: map[string][]order.Order{}},
		users:    &mockUserRepo{byID: map[string]*user.User{}, byEmail: map[string]*user.User{}},
		tokens:   NewTokens([]byte("test-secret"), time.Hour),
	}
	categories := &mockCategoryRepo{byID: map[string]*category.Category{}}

	svc := order.NewService(api.products, api.orders, mockTxManager{}, nil)
	h := NewHandler(svc, api.products, categories, api.users, api.tokens)
	h.Register(api.mux)
	return api
}

func (a *testAPI) addProduct(id, name, price string, qty int) {
	a.products.byID[id] = &product.Product{
		ID:       id,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
}

func (a *testAPI) addUser(t *testing.T, id, email, password string) *user.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &user.User{ID: id, FullName: "Test User", Email: email, PasswordHash: string(hash), Role: "user"}
	require.NoError(t, a.users.Create(context.Background(), u))
	return u
}

func (a *testAPI) tokenFor(t *testing.T, u *user.User) string {
	t.Helper()
	token, err := a.tokens.Issue(u)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// --- Tests ---

func TestCreateOrder_Success(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Waffle", "6.50", 10)
	api.addProduct("p2", "Latte", "4.00", 10)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodPost, "/api/orders", token,
		`{"orderItems":[{"productId":"p1","quantity":2},{"productId":"p2","quantity":1}]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Success create order", body["message"])

	data := body["data"].(map[string]any)
	assert.Equal(t, "u1", data["createdBy"])
	assert.Equal(t, "pending", data["status"])
	assert.EqualValues(t, 17, data["grandTotal"])
	assert.Len(t, data["orderItems"], 2)

	assert.Equal(t, 8, api.products.byID["p1"].Quantity)
}

func TestCreateOrder_Unauthorized(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/orders", "", `{"orderItems":[]}`)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Unauthorized", body["message"])
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Waffle", "6.50", 2)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodPost, "/api/orders", token,
		`{"orderItems":[{"productId":"p1","quantity":3}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Failed add order items", body["message"])
	assert.Equal(t,
		"item quantity cannot exceed current product quantity, current Waffle quantity: 2",
		body["detail"])
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodPost, "/api/orders", token,
		`{"orderItems":[{"productId":"missing","quantity":1}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Fail create order", body["message"])
	assert.Contains(t, body["detail"], "missing")
}

func TestCreateOrder_QuantityOutOfBounds(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Waffle", "6.50", 100)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodPost, "/api/orders", token,
		`{"orderItems":[{"productId":"p1","quantity":6}]}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Fail create order", body["message"])

	detail := body["detail"].(map[string]any)
	assert.Contains(t, detail, "orderItems[0].quantity")
}

func TestListOrders_InvalidStatus(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodGet, "/api/orders?status=shipped", token, "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "Failed to get user's order history", body["message"])
	assert.Equal(t, "shipped is not a valid status", body["detail"])
}

func TestListOrders_OwnerScopedWithPagination(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Waffle", "6.50", 100)
	u1 := api.addUser(t, "u1", "u1@example.com", "secret")
	u2 := api.addUser(t, "u2", "u2@example.com", "secret")
	token1 := api.tokenFor(t, u1)
	token2 := api.tokenFor(t, u2)

	for i := 0; i < 3; i++ {
		rec := api.do(t, http.MethodPost, "/api/orders", token1,
			`{"orderItems":[{"productId":"p1","quantity":1}]}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := api.do(t, http.MethodPost, "/api/orders", token2,
		`{"orderItems":[{"productId":"p1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/orders?page=1&limit=2", token1, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeResponse(t, rec)
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 2, body["limit"])
	assert.EqualValues(t, 3, body["total"])
	assert.EqualValues(t, 2, body["totalPages"])
	assert.Len(t, body["orders"], 2)

	// The second owner sees only their own single order.
	rec = api.do(t, http.MethodGet, "/api/orders", token2, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeResponse(t, rec)
	assert.EqualValues(t, 1, body["total"])
}

func TestListOrders_StatusFilter(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Waffle", "6.50", 100)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodPost, "/api/orders", token,
		`{"orderItems":[{"productId":"p1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = api.do(t, http.MethodGet, "/api/orders?status=pending", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decodeResponse(t, rec)["total"])

	rec = api.do(t, http.MethodGet, "/api/orders?status=cancelled", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decodeResponse(t, rec)["total"])
}

func TestGetOrder_OwnerScope(t *testing.T) {
	api := newTestAPI(t)
	api.addProduct("p1", "Waffle", "6.50", 100)
	u1 := api.addUser(t, "u1", "u1@example.com", "secret")
	u2 := api.addUser(t, "u2", "u2@example.com", "secret")
	token1 := api.tokenFor(t, u1)

	rec := api.do(t, http.MethodPost, "/api/orders", token1,
		`{"orderItems":[{"productId":"p1","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decodeResponse(t, rec)["data"].(map[string]any)["id"].(string)

	rec = api.do(t, http.MethodGet, "/api/orders/"+orderID, token1, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user's token gets the same response as a missing order.
	rec = api.do(t, http.MethodGet, "/api/orders/"+orderID, api.tokenFor(t, u2), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "order not found", decodeResponse(t, rec)["detail"])
}

func TestRegisterAndLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/auth/register", "",
		`{"fullName":"Jamie","email":"jamie@example.com","password":"hunter2","passwordConfirmation":"hunter2"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Success register user", decodeResponse(t, rec)["message"])

	rec = api.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"jamie@example.com","password":"wrong"}`)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "invalid email or password", decodeResponse(t, rec)["detail"])

	rec = api.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"jamie@example.com","password":"hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	token := decodeResponse(t, rec)["data"].(string)

	rec = api.do(t, http.MethodGet, "/api/auth/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeResponse(t, rec)["data"].(map[string]any)
	assert.Equal(t, "jamie@example.com", data["email"])
}

func TestRegister_ValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/api/auth/register", "",
		`{"fullName":"","email":"not-an-email","password":"a","passwordConfirmation":"b"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	detail := decodeResponse(t, rec)["detail"].(map[string]any)
	assert.Contains(t, detail, "fullName")
	assert.Contains(t, detail, "email")
	assert.Contains(t, detail, "passwordConfirmation")
}

func TestCreateProduct_UnknownCategory(t *testing.T) {
	api := newTestAPI(t)
	token := api.tokenFor(t, api.addUser(t, "u1", "u1@example.com", "secret"))

	rec := api.do(t, http.MethodPost, "/api/products", token,
		`{"name":"Waffle","description":"tasty","price":"6.50","qty":10,"category":"nope"}`)

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Failed create product", decodeResponse(t, rec)["message"])
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodGet, "/api/auth/me", "garbage", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid or expired token", decodeResponse(t, rec)["detail"])

	other := NewTokens([]byte("other-secret"), time.Hour)
	forged, err := other.Issue(&user.User{ID: "u1"})
	require.NoError(t, err)

	rec = api.do(t, http.MethodGet, "/api/auth/me", forged, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
