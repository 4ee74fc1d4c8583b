package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storefront-go/storefront/internal/domain/category"
)

const (
	createCategorySQL = `INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)`

	getCategoryByIDSQL = `SELECT id, name, description, created_at FROM categories WHERE id = $1`

	listCategoriesSQL = `SELECT id, name, description, created_at FROM categories
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	countCategoriesSQL = `SELECT count(*) FROM categories`

	updateCategorySQL = `UPDATE categories SET name = $2, description = $3 WHERE id = $1`

	deleteCategorySQL = `DELETE FROM categories WHERE id = $1`
)

var _ category.Repository = (*CategoryRepository)(nil)

// CategoryRepository implements category.Repository backed by PostgreSQL.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository returns a CategoryRepository that uses the given pool.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

func (r *CategoryRepository) Create(ctx context.Context, c *category.Category) error {
	if _, err := r.pool.Exec(ctx, createCategorySQL, c.ID, c.Name, c.Description); err != nil {
		return errors.Wrapf(err, "creating category %q", c.ID)
	}
	return nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id string) (*category.Category, error) {
	rows, err := r.pool.Query(ctx, getCategoryByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "getting category %q", id)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCategory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, category.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting category %q", id)
	}
	return &c, nil
}

func (r *CategoryRepository) List(ctx context.Context, page, limit int) ([]category.Category, int, error) {
	offset := (page - 1) * limit

	rows, err := r.pool.Query(ctx, listCategoriesSQL, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing categories")
	}
	categories, err := pgx.CollectRows(rows, scanCategory)
	if err != nil {
		return nil, 0, errors.Wrap(err, "listing categories")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countCategoriesSQL).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "counting categories")
	}
	return categories, total, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c *category.Category) error {
	tag, err := r.pool.Exec(ctx, updateCategorySQL, c.ID, c.Name, c.Description)
	if err != nil {
		return errors.Wrapf(err, "updating category %q", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deleteCategorySQL, id)
	if err != nil {
		return errors.Wrapf(err, "deleting category %q", id)
	}
	if tag.RowsAffected() == 0 {
		return category.ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.CollectableRow) (category.Category, error) {
	var c category.Category
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	return c, err
}
