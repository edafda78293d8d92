package catalog

import (
	"context"

	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/repository"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockCategoryRepo implements repository.CategoryRepository with optional function fields.
type mockCategoryRepo struct {
	createFn     func(ctx context.Context, title string) (*domain.Category, error)
	getFn        func(ctx context.Context, id int64) (*domain.Category, error)
	getByTitleFn func(ctx context.Context, title string) (*domain.Category, error)
	listFn       func(ctx context.Context, opts repository.ListOptions) ([]*domain.Category, error)
	allFn        func(ctx context.Context) ([]*domain.Category, error)
	countFn      func(ctx context.Context) (int64, error)
	updateFn     func(ctx context.Context, id int64, title string) (*domain.Category, error)
	deleteFn     func(ctx context.Context, id int64) error
	deleteAllFn  func(ctx context.Context) (int64, error)
}

func (m *mockCategoryRepo) Create(ctx context.Context, title string) (*domain.Category, error) {
	if m.createFn != nil {
		return m.createFn(ctx, title)
	}
	return &domain.Category{ID: 1, Title: title}, nil
}

func (m *mockCategoryRepo) Get(ctx context.Context, id int64) (*domain.Category, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("category", id)
}

func (m *mockCategoryRepo) GetByTitle(ctx context.Context, title string) (*domain.Category, error) {
	if m.getByTitleFn != nil {
		return m.getByTitleFn(ctx, title)
	}
	return nil, &domain.NotFoundError{Entity: "category", ID: title}
}

func (m *mockCategoryRepo) List(ctx context.Context, opts repository.ListOptions) ([]*domain.Category, error) {
	if m.listFn != nil {
		return m.listFn(ctx, opts)
	}
	return []*domain.Category{}, nil
}

func (m *mockCategoryRepo) All(ctx context.Context) ([]*domain.Category, error) {
	if m.allFn != nil {
		return m.allFn(ctx)
	}
	return []*domain.Category{}, nil
}

func (m *mockCategoryRepo) Count(ctx context.Context) (int64, error) {
	if m.countFn != nil {
		return m.countFn(ctx)
	}
	return 0, nil
}

func (m *mockCategoryRepo) Update(ctx context.Context, id int64, title string) (*domain.Category, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, title)
	}
	return &domain.Category{ID: id, Title: title}, nil
}

func (m *mockCategoryRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockCategoryRepo) DeleteAll(ctx context.Context) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return 0, nil
}

// mockBookRepo implements repository.BookRepository with optional function fields.
type mockBookRepo struct {
	createFn                func(ctx context.Context, book *domain.Book) error
	createManyFn            func(ctx context.Context, books []*domain.Book) error
	getFn                   func(ctx context.Context, id int64) (*domain.Book, error)
	listFn                  func(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error)
	listByCategoryFn        func(ctx context.Context, categoryID int64) ([]*domain.Book, error)
	updateFn                func(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error)
	deleteFn                func(ctx context.Context, id int64) error
	deleteAllFn             func(ctx context.Context) (int64, error)
	searchFn                func(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error)
	listWithCategoryTitleFn func(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error)
	countByCategoryFn       func(ctx context.Context) (map[int64]int64, error)
	pricesByCategoryFn      func(ctx context.Context) (map[int64][]float64, error)
}

func (m *mockBookRepo) Create(ctx context.Context, book *domain.Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, book)
	}
	book.ID = 1
	return nil
}

func (m *mockBookRepo) CreateMany(ctx context.Context, books []*domain.Book) error {
	if m.createManyFn != nil {
		return m.createManyFn(ctx, books)
	}
	return nil
}

func (m *mockBookRepo) Get(ctx context.Context, id int64) (*domain.Book, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("book", id)
}

func (m *mockBookRepo) List(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return []*domain.Book{}, nil
}

func (m *mockBookRepo) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Book, error) {
	if m.listByCategoryFn != nil {
		return m.listByCategoryFn(ctx, categoryID)
	}
	return []*domain.Book{}, nil
}

func (m *mockBookRepo) Update(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return &domain.Book{ID: id}, nil
}

func (m *mockBookRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockBookRepo) DeleteAll(ctx context.Context) (int64, error) {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx)
	}
	return 0, nil
}

func (m *mockBookRepo) Search(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, term, skip, limit)
	}
	return []*domain.Book{}, nil
}

func (m *mockBookRepo) ListWithCategoryTitle(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error) {
	if m.listWithCategoryTitleFn != nil {
		return m.listWithCategoryTitleFn(ctx, skip, limit)
	}
	return []*domain.BookWithCategory{}, nil
}

func (m *mockBookRepo) CountByCategory(ctx context.Context) (map[int64]int64, error) {
	if m.countByCategoryFn != nil {
		return m.countByCategoryFn(ctx)
	}
	return map[int64]int64{}, nil
}

func (m *mockBookRepo) PricesByCategory(ctx context.Context) (map[int64][]float64, error) {
	if m.pricesByCategoryFn != nil {
		return m.pricesByCategoryFn(ctx)
	}
	return map[int64][]float64{}, nil
}

// fakeTx runs the unit of work directly against the given repositories and
// records whether it was used and whether fn failed (a rollback).
type fakeTx struct {
	categories repository.CategoryRepository
	books      repository.BookRepository
	calls      int
	rolledBack bool
}

func (f *fakeTx) InTx(ctx context.Context, fn func(categories repository.CategoryRepository, books repository.BookRepository) error) error {
	f.calls++
	if err := fn(f.categories, f.books); err != nil {
		f.rolledBack = true
		return err
	}
	return nil
}
