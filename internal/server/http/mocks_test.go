package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/database"
	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/observability"
	"github.com/bookshelf/catalog-service/internal/repository"
)

// ---------------------------------------------------------------------------
// Mock implementations
// ---------------------------------------------------------------------------

// mockCatalog implements Catalog for HTTP handler tests. Every call is
// counted so tests can assert that rejected requests never reach it.
type mockCatalog struct {
	calls int

	createCategoryFn        func(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	getCategoryFn           func(ctx context.Context, id int64) (*domain.Category, error)
	listCategoriesFn        func(ctx context.Context, opts repository.ListOptions) ([]*domain.Category, error)
	updateCategoryFn        func(ctx context.Context, id int64, update domain.CategoryUpdate) (*domain.Category, error)
	deleteCategoryFn        func(ctx context.Context, id int64) error
	getCategoryWithBooksFn  func(ctx context.Context, id int64) (*domain.CategoryWithBooks, error)
	countBooksFn            func(ctx context.Context) (map[int64]int64, error)
	createBookFn            func(ctx context.Context, in domain.BookInput) (*domain.Book, error)
	getBookFn               func(ctx context.Context, id int64) (*domain.Book, error)
	listBooksFn             func(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error)
	updateBookFn            func(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error)
	deleteBookFn            func(ctx context.Context, id int64) error
	searchBooksFn           func(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error)
	listBooksWithCategoryFn func(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error)
	statisticsFn            func(ctx context.Context) (*catalog.Statistics, error)
}

func (m *mockCatalog) CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error) {
	m.calls++
	if m.createCategoryFn != nil {
		return m.createCategoryFn(ctx, in)
	}
	return &domain.Category{ID: 1, Title: in.Title}, nil
}

func (m *mockCatalog) GetCategory(ctx context.Context, id int64) (*domain.Category, error) {
	m.calls++
	if m.getCategoryFn != nil {
		return m.getCategoryFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("category", id)
}

func (m *mockCatalog) ListCategories(ctx context.Context, opts repository.ListOptions) ([]*domain.Category, error) {
	m.calls++
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(ctx, opts)
	}
	return []*domain.Category{}, nil
}

func (m *mockCatalog) UpdateCategory(ctx context.Context, id int64, update domain.CategoryUpdate) (*domain.Category, error) {
	m.calls++
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(ctx, id, update)
	}
	return nil, domain.NewNotFoundError("category", id)
}

func (m *mockCatalog) DeleteCategory(ctx context.Context, id int64) error {
	m.calls++
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(ctx, id)
	}
	return nil
}

func (m *mockCatalog) GetCategoryWithBooks(ctx context.Context, id int64) (*domain.CategoryWithBooks, error) {
	m.calls++
	if m.getCategoryWithBooksFn != nil {
		return m.getCategoryWithBooksFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("category", id)
}

func (m *mockCatalog) CountBooksByCategory(ctx context.Context) (map[int64]int64, error) {
	m.calls++
	if m.countBooksFn != nil {
		return m.countBooksFn(ctx)
	}
	return map[int64]int64{}, nil
}

func (m *mockCatalog) CreateBook(ctx context.Context, in domain.BookInput) (*domain.Book, error) {
	m.calls++
	if m.createBookFn != nil {
		return m.createBookFn(ctx, in)
	}
	book := in.ToBook()
	book.ID = 1
	return book, nil
}

func (m *mockCatalog) GetBook(ctx context.Context, id int64) (*domain.Book, error) {
	m.calls++
	if m.getBookFn != nil {
		return m.getBookFn(ctx, id)
	}
	return nil, domain.NewNotFoundError("book", id)
}

func (m *mockCatalog) ListBooks(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error) {
	m.calls++
	if m.listBooksFn != nil {
		return m.listBooksFn(ctx, filter)
	}
	return []*domain.Book{}, nil
}

func (m *mockCatalog) UpdateBook(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error) {
	m.calls++
	if m.updateBookFn != nil {
		return m.updateBookFn(ctx, id, update)
	}
	return nil, domain.NewNotFoundError("book", id)
}

func (m *mockCatalog) DeleteBook(ctx context.Context, id int64) error {
	m.calls++
	if m.deleteBookFn != nil {
		return m.deleteBookFn(ctx, id)
	}
	return nil
}

func (m *mockCatalog) SearchBooks(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error) {
	m.calls++
	if m.searchBooksFn != nil {
		return m.searchBooksFn(ctx, term, skip, limit)
	}
	return []*domain.Book{}, nil
}

func (m *mockCatalog) ListBooksWithCategory(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error) {
	m.calls++
	if m.listBooksWithCategoryFn != nil {
		return m.listBooksWithCategoryFn(ctx, skip, limit)
	}
	return []*domain.BookWithCategory{}, nil
}

func (m *mockCatalog) Statistics(ctx context.Context) (*catalog.Statistics, error) {
	m.calls++
	if m.statisticsFn != nil {
		return m.statisticsFn(ctx)
	}
	return &catalog.Statistics{}, nil
}

// mockHealth implements HealthChecker with a fixed status.
type mockHealth struct {
	status database.HealthStatus
}

func (m *mockHealth) Health(context.Context) database.HealthStatus {
	return m.status
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// newTestHTTPServer creates a Server configured for testing with mocked dependencies.
func newTestHTTPServer(cat Catalog) *Server {
	return NewServer(
		Config{Address: ":0", Version: "test"},
		cat,
		&mockHealth{status: database.HealthStatus{Status: database.StatusHealthy}},
		zerolog.Nop(),
		nil,
	)
}

// newTestHTTPServerWithMetrics is newTestHTTPServer with metrics recorded.
func newTestHTTPServerWithMetrics(cat Catalog, metrics *observability.Metrics) *Server {
	return NewServer(
		Config{Address: ":0"},
		cat,
		&mockHealth{status: database.HealthStatus{Status: database.StatusHealthy}},
		zerolog.Nop(),
		metrics,
	)
}

// serveHTTP dispatches a request through the test server's router and returns the recorder.
func serveHTTP(s *Server, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, r)
	return rr
}

// decodeJSON decodes a JSON response body into the given target.
func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(target); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// errorMessage decodes a {"error": "..."} body.
func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	decodeJSON(t, rr, &resp)
	return resp["error"]
}

func strPtr(s string) *string { return &s }
