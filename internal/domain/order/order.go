package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storefront-go/storefront/internal/domain/storage"
)

// ErrNotFound is returned when a requested order does not exist.
var ErrNotFound = errors.New("order not found")

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// InvalidStatusError indicates a status value outside the enumerated set.
type InvalidStatusError struct {
	Status string
}

func (e *InvalidStatusError) Error() string {
	return e.Status + " is not a valid status"
}

// ParseStatus validates a status string against the enumerated set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCompleted, StatusCancelled:
		return Status(s), nil
	}
	return "", &InvalidStatusError{Status: s}
}

// LineItem is one product + quantity pairing within an order. Name and Price
// are snapshots taken at order time; they do not change if the product later
// changes. Immutable once the order is created.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal returns price × quantity for this line.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is a committed customer order. It is created exactly once inside the
// placement transaction and never mutated afterwards.
type Order struct {
	ID         string
	CreatedBy  string
	Items      []LineItem
	GrandTotal decimal.Decimal
	Status     Status
	CreatedAt  time.Time
}

// Filter narrows owner-scoped order listings.
type Filter struct {
	// Status, when non-empty, restricts results to orders in that state.
	Status Status
}

// Repository defines persistence operations for orders. Create participates in
// the same transactional scope as product stock writes: both land or neither
// does.
type Repository interface {
	Create(ctx context.Context, tx storage.Tx, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	FindByOwner(ctx context.Context, owner string, f Filter, page, limit int) ([]Order, int, error)
}
