package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bookshelf/catalog-service/internal/domain"
)

// Compile-time interface verification.
var _ CategoryRepository = (*PgCategoryRepository)(nil)

const categoryColumns = "id, title, created_at"

// categorySortColumns is the whitelist of columns a category list may be ordered by.
var categorySortColumns = map[string]bool{
	"id":         true,
	"title":      true,
	"created_at": true,
}

// PgCategoryRepository is a PostgreSQL implementation of CategoryRepository.
type PgCategoryRepository struct {
	db DBTX
}

// NewPgCategoryRepository creates a new PostgreSQL category repository.
func NewPgCategoryRepository(db DBTX) *PgCategoryRepository {
	return &PgCategoryRepository{db: db}
}

// Create inserts a new category.
func (r *PgCategoryRepository) Create(ctx context.Context, title string) (*domain.Category, error) {
	query := `
		INSERT INTO categories (title)
		VALUES ($1)
		RETURNING ` + categoryColumns

	category, err := scanCategory(r.db.QueryRow(ctx, query, title))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domain.NewAlreadyExistsError("category", "title", title)
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return category, nil
}

// Get retrieves a category by id.
func (r *PgCategoryRepository) Get(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`

	category, err := scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("category", id)
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	return category, nil
}

// GetByTitle retrieves a category by its exact title.
func (r *PgCategoryRepository) GetByTitle(ctx context.Context, title string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE title = $1`

	category, err := scanCategory(r.db.QueryRow(ctx, query, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "category", ID: title}
		}
		return nil, fmt.Errorf("failed to get category by title: %w", err)
	}

	return category, nil
}

// List returns a page of categories.
func (r *PgCategoryRepository) List(ctx context.Context, opts ListOptions) ([]*domain.Category, error) {
	applyPaginationDefaults(&opts.Limit, &opts.Skip)

	query := fmt.Sprintf(`
		SELECT %s
		FROM categories
		%s
		LIMIT $1 OFFSET $2`,
		categoryColumns, orderByClause(opts, categorySortColumns))

	return r.queryCategories(ctx, query, opts.Limit, opts.Skip)
}

// All returns every category ordered by id.
func (r *PgCategoryRepository) All(ctx context.Context) ([]*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY id`
	return r.queryCategories(ctx, query)
}

// Count returns the number of categories.
func (r *PgCategoryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}

// Update renames a category.
func (r *PgCategoryRepository) Update(ctx context.Context, id int64, title string) (*domain.Category, error) {
	query := `
		UPDATE categories
		SET title = $1
		WHERE id = $2
		RETURNING ` + categoryColumns

	category, err := scanCategory(r.db.QueryRow(ctx, query, title, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("category", id)
		}
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, domain.NewAlreadyExistsError("category", "title", title)
		}
		return nil, fmt.Errorf("failed to update category: %w", err)
	}

	return category, nil
}

// Delete removes a category and its books atomically. The books are deleted
// explicitly so the cascade does not depend on the foreign key's ON DELETE rule.
func (r *PgCategoryRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.db, func(tx DBTX) error {
		if _, err := tx.Exec(ctx, `DELETE FROM books WHERE category_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete category books: %w", err)
		}

		result, err := tx.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		if result.RowsAffected() == 0 {
			return domain.NewNotFoundError("category", id)
		}
		return nil
	})
}

// DeleteAll removes every category. Books go with them through the foreign key cascade.
func (r *PgCategoryRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM categories`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete categories: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *PgCategoryRepository) queryCategories(ctx context.Context, query string, args ...interface{}) ([]*domain.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]*domain.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// scanCategory reads one category from either a pgx.Row or the current pgx.Rows position.
func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Title, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
