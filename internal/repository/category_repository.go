package repository

import (
	"context"

	"github.com/bookshelf/catalog-service/internal/domain"
)

// CategoryRepository handles category persistence.
type CategoryRepository interface {
	// Create inserts a category and returns it with its generated id and timestamp.
	// Returns domain.ErrAlreadyExists if the title is taken.
	Create(ctx context.Context, title string) (*domain.Category, error)

	// Get retrieves a category by id.
	// Returns domain.ErrNotFound if no matching category exists.
	Get(ctx context.Context, id int64) (*domain.Category, error)

	// GetByTitle retrieves a category by its exact, case-sensitive title.
	// Returns domain.ErrNotFound if no matching category exists.
	GetByTitle(ctx context.Context, title string) (*domain.Category, error)

	// List returns a page of categories in the requested order.
	List(ctx context.Context, opts ListOptions) ([]*domain.Category, error)

	// All returns every category ordered by id.
	All(ctx context.Context) ([]*domain.Category, error)

	// Count returns the number of stored categories.
	Count(ctx context.Context) (int64, error)

	// Update renames a category. Uniqueness is not pre-checked here; a
	// storage-level collision still surfaces as domain.ErrAlreadyExists.
	// Returns domain.ErrNotFound if no row was updated.
	Update(ctx context.Context, id int64, title string) (*domain.Category, error)

	// Delete removes the category's books and then the category itself in
	// one transaction. Returns domain.ErrNotFound if the category does not
	// exist, in which case nothing is deleted.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every category and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)
}
