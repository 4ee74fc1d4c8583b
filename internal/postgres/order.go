package postgres

import (
	"context"
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-go/storefront/internal/domain/order"
	"github.com/storefront-go/storefront/internal/domain/storage"
)

const (
	createOrderSQL = `INSERT INTO orders (id, created_by, status, grand_total, items, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getOrderByIDSQL = `SELECT id, created_by, status, grand_total, items, created_at
		FROM orders WHERE id = $1`

	findOrdersByOwnerSQL = `SELECT id, created_by, status, grand_total, items, created_at
		FROM orders
		WHERE created_by = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	countOrdersByOwnerSQL = `SELECT count(*) FROM orders
		WHERE created_by = $1 AND ($2 = '' OR status = $2)`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Line items
// are serialized to JSON for storage in the JSONB column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order within tx, the same scope as the stock
// decrements it depends on.
func (r *OrderRepository) Create(ctx context.Context, tx storage.Tx, o *order.Order) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return errors.Wrap(err, "marshaling order items")
	}

	_, err = t.Exec(ctx, createOrderSQL,
		o.ID, o.CreatedBy, string(o.Status), o.GrandTotal, itemsJSON, o.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "creating order %q", o.ID)
	}
	return nil
}

// GetByID returns a single order by its identifier.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %q", id)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %q", id)
	}
	return &o, nil
}

// FindByOwner returns a page of the owner's orders, newest first, optionally
// filtered by status, plus the total matching count.
func (r *OrderRepository) FindByOwner(ctx context.Context, owner string, f order.Filter, page, limit int) ([]order.Order, int, error) {
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx, findOrdersByOwnerSQL, owner, string(f.Status), limit, offset)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "listing orders for %q", owner)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "listing orders for %q", owner)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countOrdersByOwnerSQL, owner, string(f.Status)).Scan(&total); err != nil {
		return nil, 0, errors.Wrapf(err, "counting orders for %q", owner)
	}
	return orders, total, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		status    string
		itemsJSON []byte
	)
	err := row.Scan(&o.ID, &o.CreatedBy, &status, &o.GrandTotal, &itemsJSON, &o.CreatedAt)
	if err != nil {
		return order.Order{}, err
	}
	o.Status = order.Status(status)
	if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
		return order.Order{}, errors.Wrap(err, "unmarshaling order items")
	}
	return o, nil
}
