// Package handler implements the HTTP API on top of the domain services.
package handler

import (
	"net/http"
	"strconv"

	"github.com/storefront-go/storefront/internal/domain/category"
	"github.com/storefront-go/storefront/internal/domain/order"
	"github.com/storefront-go/storefront/internal/domain/product"
	"github.com/storefront-go/storefront/internal/domain/user"
)

// Handler holds the HTTP endpoints, delegating business logic to the order
// service and the injected repositories.
type Handler struct {
	orders     *order.Service
	products   product.Repository
	categories category.Repository
	users      user.Repository
	tokens     *Tokens
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	products product.Repository,
	categories category.Repository,
	users user.Repository,
	tokens *Tokens,
) *Handler {
	return &Handler{
		orders:     orders,
		products:   products,
		categories: categories,
		users:      users,
		tokens:     tokens,
	}
}

// Register installs all API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	auth := RequireAuth(h.tokens)

	mux.HandleFunc("POST /api/auth/register", h.RegisterUser)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.Handle("GET /api/auth/me", auth(http.HandlerFunc(h.Me)))

	mux.HandleFunc("GET /api/products", h.ListProducts)
	mux.HandleFunc("GET /api/products/{id}", h.GetProduct)
	mux.Handle("POST /api/products", auth(http.HandlerFunc(h.CreateProduct)))
	mux.Handle("PUT /api/products/{id}", auth(http.HandlerFunc(h.UpdateProduct)))
	mux.Handle("DELETE /api/products/{id}", auth(http.HandlerFunc(h.DeleteProduct)))

	mux.HandleFunc("GET /api/categories", h.ListCategories)
	mux.HandleFunc("GET /api/categories/{id}", h.GetCategory)
	mux.Handle("POST /api/categories", auth(http.HandlerFunc(h.CreateCategory)))
	mux.Handle("PUT /api/categories/{id}", auth(http.HandlerFunc(h.UpdateCategory)))
	mux.Handle("DELETE /api/categories/{id}", auth(http.HandlerFunc(h.DeleteCategory)))

	mux.Handle("POST /api/orders", auth(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /api/orders", auth(http.HandlerFunc(h.ListOrders)))
	mux.Handle("GET /api/orders/{id}", auth(http.HandlerFunc(h.GetOrder)))
}

// pagination extracts page and limit query parameters with the API defaults.
func pagination(r *http.Request) (page, limit int) {
	page, limit = 1, 10
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 {
		limit = n
	}
	return page, limit
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
