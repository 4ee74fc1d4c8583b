package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/storefront-go/storefront/internal/domain/product"
	"github.com/storefront-go/storefront/internal/domain/storage"
)

// RequestedItem is one line of an incoming order request.
type RequestedItem struct {
	ProductID string
	Quantity  int
}

// CreateOrderRequest holds the input for placing an order.
type CreateOrderRequest struct {
	// CreatedBy is the owning user, derived from the authenticated session.
	CreatedBy string
	Items     []RequestedItem
	// Status defaults to pending when empty.
	Status Status
}

// Events receives domain events emitted by the service. OrderPlaced is called
// at most once per order, strictly after the placement transaction has
// committed. Implementations must not block the caller and must never report
// failures back into order placement.
type Events interface {
	OrderPlaced(o *Order)
}

// NopEvents discards all events.
type NopEvents struct{}

func (NopEvents) OrderPlaced(*Order) {}

// Service is the sole entry point for creating orders. It coordinates stock
// reservation, total calculation, validation, and persistence inside a single
// transactional scope.
type Service struct {
	products product.Repository
	orders   Repository
	txm      storage.TxManager
	events   Events
}

// NewService creates an order Service with the required domain dependencies.
func NewService(
	products product.Repository,
	orders Repository,
	txm storage.TxManager,
	events Events,
) *Service {
	if events == nil {
		events = NopEvents{}
	}
	return &Service{
		products: products,
		orders:   orders,
		txm:      txm,
		events:   events,
	}
}

// PlaceOrder reserves stock for every requested line, computes the grand
// total, validates the assembled order, and persists it, all within one
// atomic scope. The first failing line aborts the whole scope; earlier
// decrements are undone by the rollback, never reversed manually.
//
// The OrderPlaced event fires only after a successful commit. Notifier
// failures are the notifier's own problem; they can never un-commit the order.
func (s *Service) PlaceOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	status := req.Status
	if status == "" {
		status = StatusPending
	}

	o := &Order{
		ID:        uuid.New().String(),
		CreatedBy: req.CreatedBy,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	err := s.txm.WithinTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		// Strictly sequential: later lines may read stock written by earlier
		// ones, and the first failure must short-circuit.
		for _, item := range req.Items {
			line, err := s.reserveLine(ctx, tx, item)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, line)
		}

		o.GrandTotal = GrandTotal(o.Items)

		if errs := Validate(o); errs != nil {
			return errs
		}

		if err := s.orders.Create(ctx, tx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.OrderPlaced(o)
	return o, nil
}

// reserveLine validates one requested line against current stock and
// decrements it, both within tx. It returns the line item snapshot (name and
// price at order time) on success.
func (s *Service) reserveLine(ctx context.Context, tx storage.Tx, item RequestedItem) (LineItem, error) {
	p, err := s.products.GetForUpdate(ctx, tx, item.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return LineItem{}, &ProductNotFoundError{ProductID: item.ProductID}
		}
		return LineItem{}, errors.Wrapf(err, "get product %s", item.ProductID)
	}

	if item.Quantity > p.Quantity {
		return LineItem{}, &InsufficientStockError{
			ProductID: p.ID,
			Name:      p.Name,
			Available: p.Quantity,
			Requested: item.Quantity,
		}
	}

	if err := s.products.DecrementQuantity(ctx, tx, p.ID, item.Quantity); err != nil {
		return LineItem{}, errors.Wrapf(err, "decrement product %s", p.ID)
	}

	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  item.Quantity,
	}, nil
}

// GetByID returns a single order.
func (s *Service) GetByID(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// ListByOwner returns the owner's orders ordered by creation time descending,
// optionally filtered by status, along with the total matching count.
func (s *Service) ListByOwner(ctx context.Context, owner string, f Filter, page, limit int) ([]Order, int, error) {
	return s.orders.FindByOwner(ctx, owner, f, page, limit)
}
