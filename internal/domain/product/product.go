package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storefront-go/storefront/internal/domain/storage"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item with a mutable stock quantity. Quantity never goes
// negative and is decremented only inside a committed order transaction.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Quantity    int
	CategoryID  string
	CreatedAt   time.Time
}

// ListParams controls catalog listing.
type ListParams struct {
	// Search filters products by case-insensitive name substring.
	Search string
	Page   int
	Limit  int
}

// Repository defines persistence operations for the product catalog.
//
// GetForUpdate and DecrementQuantity are the transactional pair used by order
// placement: the read is row-locked within tx, and the decrement is a write in
// the same scope, visible only if that scope commits.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, params ListParams) ([]Product, int, error)
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error

	GetForUpdate(ctx context.Context, tx storage.Tx, id string) (*Product, error)
	DecrementQuantity(ctx context.Context, tx storage.Tx, id string, amount int) error
}
