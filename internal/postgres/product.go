package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-go/storefront/internal/domain/product"
	"github.com/storefront-go/storefront/internal/domain/storage"
)

const (
	productColumns = `id, name, description, price, qty, category_id, created_at`

	createProductSQL = `INSERT INTO products (id, name, description, price, qty, category_id)
		VALUES ($1, $2, $3, $4, $5, $6)`

	getProductByIDSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	// FOR UPDATE locks the row for the rest of the transaction, so two
	// concurrent orders cannot both act on the same pre-decrement quantity.
	getProductForUpdateSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`

	// The qty guard makes the decrement a no-op (0 rows) instead of
	// violating the CHECK constraint if the caller raced past the read.
	decrementQuantitySQL = `UPDATE products SET qty = qty - $2 WHERE id = $1 AND qty >= $2`

	updateProductSQL = `UPDATE products
		SET name = $2, description = $3, price = $4, qty = $5, category_id = $6
		WHERE id = $1`

	deleteProductSQL = `DELETE FROM products WHERE id = $1`

	listProductsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	countProductsSQL = `SELECT count(*) FROM products
		WHERE ($1 = '' OR name ILIKE '%' || $1 || '%')`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create persists a new product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.CategoryID,
	)
	if err != nil {
		return errors.Wrapf(err, "creating product %q", p.ID)
	}
	return nil
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", id)
	}
	return &p, nil
}

// List returns a page of products, newest first, optionally filtered by name
// substring, along with the total matching count.
func (r *ProductRepository) List(ctx context.Context, params product.ListParams) ([]product.Product, int, error) {
	offset := (params.Page - 1) * params.Limit

	rows, err := r.pool.Query(ctx, listProductsSQL, params.Search, params.Limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing products")
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing products")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countProductsSQL, params.Search).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting products")
	}
	return products, total, nil
}

// Update persists changes to an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.Price, p.Quantity, p.CategoryID,
	)
	if err != nil {
		return errors.Wrapf(err, "updating product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a product.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "deleting product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// GetForUpdate reads a product within tx, locking its row until the enclosing
// transaction commits or rolls back.
func (r *ProductRepository) GetForUpdate(ctx context.Context, tx storage.Tx, id string) (*product.Product, error) {
	t, err := txFrom(tx)
	if err != nil {
		return nil, err
	}

	rows, err := t.Query(ctx, getProductForUpdateSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "locking product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "locking product %q", id)
	}
	return &p, nil
}

// DecrementQuantity reduces a product's stock within tx. A decrement that
// would drive the quantity negative affects no rows and reports
// storage.ErrConflict.
func (r *ProductRepository) DecrementQuantity(ctx context.Context, tx storage.Tx, id string, amount int) error {
	t, err := txFrom(tx)
	if err != nil {
		return err
	}

	tag, err := t.Exec(ctx, decrementQuantitySQL, id, amount)
	if err != nil {
		return errors.Wrapf(err, "decrementing product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return errors.Wrapf(storage.ErrConflict, "decrementing product %q", id)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity, &p.CategoryID, &p.CreatedAt,
	)
	return p, err
}
