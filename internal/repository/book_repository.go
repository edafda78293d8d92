package repository

import (
	"context"

	"github.com/bookshelf/catalog-service/internal/domain"
)

// BookRepository handles book persistence and the read models built on books.
type BookRepository interface {
	// Create inserts a book and fills in its ID and CreatedAt.
	// The category reference is not pre-checked; a dangling reference is
	// reported as a *domain.ValidationError on category_id.
	Create(ctx context.Context, book *domain.Book) error

	// CreateMany inserts several books in one statement and fills in their
	// generated fields.
	CreateMany(ctx context.Context, books []*domain.Book) error

	// Get retrieves a book by id.
	// Returns domain.ErrNotFound if no matching book exists.
	Get(ctx context.Context, id int64) (*domain.Book, error)

	// List returns a page of books, optionally limited to one category.
	List(ctx context.Context, filter BookFilter) ([]*domain.Book, error)

	// ListByCategory returns every book of a category ordered by id.
	ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Book, error)

	// Update applies the supplied fields of a partial update and returns the
	// stored book. An empty update returns the book unchanged.
	// Returns domain.ErrNotFound if the book does not exist.
	Update(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error)

	// Delete removes a book.
	// Returns domain.ErrNotFound if no row was deleted.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every book and returns how many were removed.
	DeleteAll(ctx context.Context) (int64, error)

	// Search returns books whose title or description contains term,
	// case-insensitively, ordered by id.
	Search(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error)

	// ListWithCategoryTitle returns a page of books joined with their
	// category title, ordered by book id.
	ListWithCategoryTitle(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error)

	// CountByCategory maps every category id to its number of books.
	// Categories without books are present with a count of zero.
	CountByCategory(ctx context.Context) (map[int64]int64, error)

	// PricesByCategory maps category ids to the prices of their books.
	PricesByCategory(ctx context.Context) (map[int64][]float64, error)
}

// BookFilter specifies criteria for listing books.
type BookFilter struct {
	ListOptions

	// CategoryID restricts the result to one category (optional).
	CategoryID *int64
}
