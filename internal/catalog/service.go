// Package catalog implements the consistency rules of the book catalog on top
// of the repositories: existence and uniqueness pre-checks before every
// mutation, plus the read models used by the HTTP API and the console.
//
// Pre-checks are optimistic. Storage constraints remain the final guard and
// their violations surface as the same domain errors the pre-checks return.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/observability"
	"github.com/bookshelf/catalog-service/internal/repository"
)

// Transactor runs fn with repositories bound to one transaction.
// *repository.Store implements it.
type Transactor interface {
	InTx(ctx context.Context, fn func(categories repository.CategoryRepository, books repository.BookRepository) error) error
}

// Service is the catalog's validation and consistency layer.
type Service struct {
	categories repository.CategoryRepository
	books      repository.BookRepository
	tx         Transactor
	logger     zerolog.Logger
	metrics    *observability.Metrics
}

// NewService creates a catalog service. metrics may be nil.
func NewService(
	categories repository.CategoryRepository,
	books repository.BookRepository,
	tx Transactor,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		categories: categories,
		books:      books,
		tx:         tx,
		logger:     observability.WithComponent(logger, "catalog"),
		metrics:    metrics,
	}
}

// observe records the outcome of an operation. Unexpected failures are logged
// here once; expected outcomes (not found, invalid, conflict) are not.
func (s *Service) observe(operation string, start time.Time, err error) {
	s.metrics.RecordOperation(operation, err, time.Since(start).Seconds())
	if observability.OperationOutcome(err) == observability.OutcomeError {
		s.logger.Error().Err(err).Str("operation", operation).Msg("catalog operation failed")
	}
}

// CreateCategory validates the input, rejects duplicate titles and stores the category.
func (s *Service) CreateCategory(ctx context.Context, in domain.CategoryInput) (category *domain.Category, err error) {
	defer func(start time.Time) { s.observe("create_category", start, err) }(time.Now())

	if err := domain.ValidateCategoryInput(in); err != nil {
		return nil, err
	}

	if err := s.ensureTitleAvailable(ctx, in.Title, 0); err != nil {
		return nil, err
	}

	category, err = s.categories.Create(ctx, in.Title)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCreated("category", 1)
	s.logger.Info().Int64("category_id", category.ID).Str("title", category.Title).Msg("category created")
	return category, nil
}

// GetCategory returns a category by id.
func (s *Service) GetCategory(ctx context.Context, id int64) (category *domain.Category, err error) {
	defer func(start time.Time) { s.observe("get_category", start, err) }(time.Now())
	return s.categories.Get(ctx, id)
}

// ListCategories returns a page of categories.
func (s *Service) ListCategories(ctx context.Context, opts repository.ListOptions) (categories []*domain.Category, err error) {
	defer func(start time.Time) { s.observe("list_categories", start, err) }(time.Now())
	return s.categories.List(ctx, opts)
}

// UpdateCategory renames a category. A nil title returns the category
// unchanged. Renaming a category to its own current title is allowed.
func (s *Service) UpdateCategory(ctx context.Context, id int64, update domain.CategoryUpdate) (category *domain.Category, err error) {
	defer func(start time.Time) { s.observe("update_category", start, err) }(time.Now())

	if err := domain.ValidateCategoryUpdate(update); err != nil {
		return nil, err
	}

	current, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Title == nil {
		return current, nil
	}

	if err := s.ensureTitleAvailable(ctx, *update.Title, id); err != nil {
		return nil, err
	}

	category, err = s.categories.Update(ctx, id, *update.Title)
	if err != nil {
		return nil, err
	}

	logger := observability.WithEntityContext(s.logger, "category", id)
	logger.Info().Str("title", category.Title).Msg("category renamed")
	return category, nil
}

// DeleteCategory removes a category together with all of its books.
func (s *Service) DeleteCategory(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe("delete_category", start, err) }(time.Now())

	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.RecordDeleted("category", 1)
	logger := observability.WithEntityContext(s.logger, "category", id)
	logger.Info().Msg("category deleted with its books")
	return nil
}

// GetCategoryWithBooks returns a category and its books ordered by id.
func (s *Service) GetCategoryWithBooks(ctx context.Context, id int64) (result *domain.CategoryWithBooks, err error) {
	defer func(start time.Time) { s.observe("get_category_with_books", start, err) }(time.Now())

	category, err := s.categories.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	books, err := s.books.ListByCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	return &domain.CategoryWithBooks{Category: *category, Books: books}, nil
}

// CategoriesWithBooks returns every category with its books, ordered by category id.
func (s *Service) CategoriesWithBooks(ctx context.Context) (result []*domain.CategoryWithBooks, err error) {
	defer func(start time.Time) { s.observe("categories_with_books", start, err) }(time.Now())

	categories, err := s.categories.All(ctx)
	if err != nil {
		return nil, err
	}

	result = make([]*domain.CategoryWithBooks, 0, len(categories))
	for _, c := range categories {
		books, err := s.books.ListByCategory(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, &domain.CategoryWithBooks{Category: *c, Books: books})
	}
	return result, nil
}

// CreateBook validates the input, confirms the category exists and stores the book.
func (s *Service) CreateBook(ctx context.Context, in domain.BookInput) (book *domain.Book, err error) {
	defer func(start time.Time) { s.observe("create_book", start, err) }(time.Now())

	if err := domain.ValidateBookInput(in); err != nil {
		return nil, err
	}

	if err := s.ensureCategoryExists(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	book = in.ToBook()
	if err := s.books.Create(ctx, book); err != nil {
		return nil, err
	}

	s.metrics.RecordCreated("book", 1)
	s.logger.Info().Int64("book_id", book.ID).Int64("category_id", book.CategoryID).Msg("book created")
	return book, nil
}

// GetBook returns a book by id.
func (s *Service) GetBook(ctx context.Context, id int64) (book *domain.Book, err error) {
	defer func(start time.Time) { s.observe("get_book", start, err) }(time.Now())
	return s.books.Get(ctx, id)
}

// ListBooks returns a page of books, optionally limited to one category.
func (s *Service) ListBooks(ctx context.Context, filter repository.BookFilter) (books []*domain.Book, err error) {
	defer func(start time.Time) { s.observe("list_books", start, err) }(time.Now())
	return s.books.List(ctx, filter)
}

// UpdateBook applies a partial update. The category reference is re-checked
// only when a new category id is supplied.
func (s *Service) UpdateBook(ctx context.Context, id int64, update domain.BookUpdate) (book *domain.Book, err error) {
	defer func(start time.Time) { s.observe("update_book", start, err) }(time.Now())

	if err := domain.ValidateBookUpdate(update); err != nil {
		return nil, err
	}

	if _, err := s.books.Get(ctx, id); err != nil {
		return nil, err
	}

	if update.CategoryID != nil {
		if err := s.ensureCategoryExists(ctx, *update.CategoryID); err != nil {
			return nil, err
		}
	}

	return s.books.Update(ctx, id, update)
}

// DeleteBook removes a book.
func (s *Service) DeleteBook(ctx context.Context, id int64) (err error) {
	defer func(start time.Time) { s.observe("delete_book", start, err) }(time.Now())

	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}

	s.metrics.RecordDeleted("book", 1)
	logger := observability.WithEntityContext(s.logger, "book", id)
	logger.Debug().Msg("book deleted")
	return nil
}

// SearchBooks finds books whose title or description contains term.
// A blank term is rejected.
func (s *Service) SearchBooks(ctx context.Context, term string, skip, limit int) (books []*domain.Book, err error) {
	defer func(start time.Time) { s.observe("search_books", start, err) }(time.Now())

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, domain.NewValidationError("q", "search term must not be empty")
	}

	return s.books.Search(ctx, term, skip, limit)
}

// ListBooksWithCategory returns a page of books with their category titles.
func (s *Service) ListBooksWithCategory(ctx context.Context, skip, limit int) (books []*domain.BookWithCategory, err error) {
	defer func(start time.Time) { s.observe("list_books_with_category", start, err) }(time.Now())
	return s.books.ListWithCategoryTitle(ctx, skip, limit)
}

// CountBooksByCategory maps every category id to its number of books.
func (s *Service) CountBooksByCategory(ctx context.Context) (counts map[int64]int64, err error) {
	defer func(start time.Time) { s.observe("count_books_by_category", start, err) }(time.Now())
	return s.books.CountByCategory(ctx)
}

// ensureTitleAvailable fails with a conflict when title belongs to a category
// other than exceptID. Pass 0 to check against every category.
func (s *Service) ensureTitleAvailable(ctx context.Context, title string, exceptID int64) error {
	existing, err := s.categories.GetByTitle(ctx, title)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check category title: %w", err)
	case existing.ID != exceptID:
		return domain.NewAlreadyExistsError("category", "title", title)
	default:
		return nil
	}
}

// ensureCategoryExists fails with a category_id validation error when the category is absent.
func (s *Service) ensureCategoryExists(ctx context.Context, categoryID int64) error {
	_, err := s.categories.Get(ctx, categoryID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewMissingCategoryError(categoryID)
	}
	if err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	return nil
}
