package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/catalog-service/internal/domain"
)

var bookRowColumns = []string{"id", "title", "description", "price", "url", "category_id", "created_at"}

func strPtr(s string) *string { return &s }

func newTestBook() *domain.Book {
	return &domain.Book{
		Title:       "Dune",
		Description: strPtr("Desert planet"),
		Price:       450.0,
		URL:         strPtr("https://example.com/dune"),
		CategoryID:  1,
	}
}

func bookRow(rows *pgxmock.Rows, b *domain.Book) *pgxmock.Rows {
	return rows.AddRow(b.ID, b.Title, b.Description, b.Price, b.URL, b.CategoryID, b.CreatedAt)
}

func TestPgBookRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("fills generated fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		book := newTestBook()
		now := time.Now().UTC()

		mock.ExpectQuery("INSERT INTO books \\(title, description, price, url, category_id\\)").
			WithArgs(book.Title, book.Description, book.Price, book.URL, book.CategoryID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(10), now))

		require.NoError(t, repo.Create(ctx, book))
		assert.Equal(t, int64(10), book.ID)
		assert.Equal(t, now, book.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil book", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		err = NewPgBookRepository(mock).Create(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("foreign key violation is a category validation error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		book := newTestBook()
		book.CategoryID = 999

		mock.ExpectQuery("INSERT INTO books").
			WithArgs(book.Title, book.Description, book.Price, book.URL, book.CategoryID).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err = repo.Create(ctx, book)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "category_id", validationErr.Field)
		assert.Equal(t, "category with ID 999 does not exist", validationErr.Message)
		assert.Zero(t, book.ID)
	})

	t.Run("check violation is a price validation error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		book := newTestBook()
		book.Price = -5

		mock.ExpectQuery("INSERT INTO books").
			WithArgs(book.Title, book.Description, book.Price, book.URL, book.CategoryID).
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "books_price_positive"})

		err = repo.Create(ctx, book)
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "price", validationErr.Field)
	})
}

func TestPgBookRepository_CreateMany(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input is a no-op", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		assert.NoError(t, NewPgBookRepository(mock).CreateMany(ctx, nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inserts all rows in one statement", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		first := newTestBook()
		second := &domain.Book{Title: "1984", Price: 450.5, CategoryID: 1}
		now := time.Now().UTC()

		mock.ExpectQuery("INSERT INTO books .* VALUES \\(\\$1, \\$2, \\$3, \\$4, \\$5\\), \\(\\$6, \\$7, \\$8, \\$9, \\$10\\)").
			WithArgs(
				first.Title, first.Description, first.Price, first.URL, first.CategoryID,
				second.Title, second.Description, second.Price, second.URL, second.CategoryID,
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).
				AddRow(int64(1), now).
				AddRow(int64(2), now))

		require.NoError(t, repo.CreateMany(ctx, []*domain.Book{first, second}))
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
		assert.Equal(t, now, second.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short result is an error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		books := []*domain.Book{newTestBook(), newTestBook()}

		mock.ExpectQuery("INSERT INTO books").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

		err = repo.CreateMany(ctx, books)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inserted 1 of 2")
	})
}

func TestPgBookRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("returns book with nullable fields", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		now := time.Now().UTC()

		mock.ExpectQuery("SELECT id, title, description, price, url, category_id, created_at FROM books WHERE id = \\$1").
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(bookRowColumns).AddRow(int64(3), "Untitled", nil, 9.99, nil, int64(2), now))

		book, err := repo.Get(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "Untitled", book.Title)
		assert.Nil(t, book.Description)
		assert.Nil(t, book.URL)
		assert.Equal(t, int64(2), book.CategoryID)
	})

	t.Run("missing book is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)

		mock.ExpectQuery("SELECT .* FROM books WHERE id = \\$1").
			WithArgs(int64(5)).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.Get(ctx, 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.EqualError(t, err, "book not found: 5")
	})
}

func TestPgBookRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("without category filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)

		mock.ExpectQuery("FROM books\\s+ORDER BY price DESC, id DESC\\s+LIMIT \\$1 OFFSET \\$2").
			WithArgs(2, 0).
			WillReturnRows(bookRow(pgxmock.NewRows(bookRowColumns), &domain.Book{ID: 1, Title: "A", Price: 20, CategoryID: 1, CreatedAt: now}))

		books, err := repo.List(ctx, BookFilter{ListOptions: ListOptions{Limit: 2, SortBy: "price", SortOrder: "desc"}})
		require.NoError(t, err)
		assert.Len(t, books, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with category filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		categoryID := int64(4)

		mock.ExpectQuery("FROM books\\s+WHERE category_id = \\$1\\s+ORDER BY id ASC\\s+LIMIT \\$2 OFFSET \\$3").
			WithArgs(categoryID, 100, 5).
			WillReturnRows(pgxmock.NewRows(bookRowColumns))

		books, err := repo.List(ctx, BookFilter{ListOptions: ListOptions{Skip: 5}, CategoryID: &categoryID})
		require.NoError(t, err)
		assert.Empty(t, books)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("scan error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)

		mock.ExpectQuery("FROM books").
			WithArgs(100, 0).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

		_, err = repo.List(ctx, BookFilter{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to scan book")
	})
}

func TestPgBookRepository_ListByCategory(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPgBookRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(bookRowColumns)
	bookRow(rows, &domain.Book{ID: 1, Title: "A", Price: 1, CategoryID: 2, CreatedAt: now})
	bookRow(rows, &domain.Book{ID: 2, Title: "B", Price: 2, CategoryID: 2, CreatedAt: now})

	mock.ExpectQuery("FROM books WHERE category_id = \\$1 ORDER BY id").
		WithArgs(int64(2)).
		WillReturnRows(rows)

	books, err := repo.ListByCategory(ctx, 2)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "A", books[0].Title)
	assert.Equal(t, "B", books[1].Title)
}

func TestPgBookRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("price only touches price", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		price := 10.0
		stored := newTestBook()
		stored.ID = 8
		stored.Price = price
		stored.CreatedAt = now

		mock.ExpectQuery("UPDATE books\\s+SET price = \\$1\\s+WHERE id = \\$2\\s+RETURNING").
			WithArgs(price, int64(8)).
			WillReturnRows(bookRow(pgxmock.NewRows(bookRowColumns), stored))

		book, err := repo.Update(ctx, 8, domain.BookUpdate{Price: &price})
		require.NoError(t, err)
		assert.Equal(t, stored, book)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("several fields build an ordered set list", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		title := "Dune Messiah"
		url := "https://example.com/messiah"
		categoryID := int64(3)
		stored := &domain.Book{ID: 8, Title: title, Price: 1, URL: &url, CategoryID: categoryID, CreatedAt: now}

		mock.ExpectQuery("SET title = \\$1, url = \\$2, category_id = \\$3\\s+WHERE id = \\$4").
			WithArgs(title, url, categoryID, int64(8)).
			WillReturnRows(bookRow(pgxmock.NewRows(bookRowColumns), stored))

		book, err := repo.Update(ctx, 8, domain.BookUpdate{Title: &title, URL: &url, CategoryID: &categoryID})
		require.NoError(t, err)
		assert.Equal(t, title, book.Title)
		assert.Equal(t, categoryID, book.CategoryID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty update returns current book", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		stored := newTestBook()
		stored.ID = 8
		stored.CreatedAt = now

		mock.ExpectQuery("SELECT .* FROM books WHERE id = \\$1").
			WithArgs(int64(8)).
			WillReturnRows(bookRow(pgxmock.NewRows(bookRowColumns), stored))

		book, err := repo.Update(ctx, 8, domain.BookUpdate{})
		require.NoError(t, err)
		assert.Equal(t, stored, book)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("vanished row is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		price := 10.0

		mock.ExpectQuery("UPDATE books").
			WithArgs(price, int64(8)).
			WillReturnError(pgx.ErrNoRows)

		_, err = repo.Update(ctx, 8, domain.BookUpdate{Price: &price})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("dangling category is a validation error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgBookRepository(mock)
		categoryID := int64(77)

		mock.ExpectQuery("UPDATE books").
			WithArgs(categoryID, int64(8)).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		_, err = repo.Update(ctx, 8, domain.BookUpdate{CategoryID: &categoryID})
		var validationErr *domain.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "category_id", validationErr.Field)
		assert.Contains(t, validationErr.Message, "77")
	})
}

func TestPgBookRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes book", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM books WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, NewPgBookRepository(mock).Delete(ctx, 1))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero rows is not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM books WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err = NewPgBookRepository(mock).Delete(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectExec("DELETE FROM books WHERE id = \\$1").
			WithArgs(int64(1)).
			WillReturnError(errors.New("broken pipe"))

		err = NewPgBookRepository(mock).Delete(ctx, 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "failed to delete book")
	})
}

func TestPgBookRepository_Search(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		term    string
		pattern string
	}{
		{name: "plain term", term: "python", pattern: "%python%"},
		{name: "percent is literal", term: "100%", pattern: `%100\%%`},
		{name: "underscore is literal", term: "snake_case", pattern: `%snake\_case%`},
		{name: "backslash is literal", term: `a\b`, pattern: `%a\\b%`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			mock.ExpectQuery("WHERE title ILIKE \\$1 ESCAPE .* OR description ILIKE \\$1 ESCAPE .*\\s+ORDER BY id\\s+LIMIT \\$2 OFFSET \\$3").
				WithArgs(tt.pattern, 100, 0).
				WillReturnRows(pgxmock.NewRows(bookRowColumns))

			books, err := NewPgBookRepository(mock).Search(ctx, tt.term, 0, 0)
			require.NoError(t, err)
			assert.Empty(t, books)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPgBookRepository_ListWithCategoryTitle(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now().UTC()
	mock.ExpectQuery("FROM books b\\s+JOIN categories c ON c.id = b.category_id\\s+ORDER BY b.id").
		WithArgs(10, 0).
		WillReturnRows(pgxmock.NewRows(append(bookRowColumns, "category_title")).
			AddRow(int64(1), "Clean Code", nil, 1200.0, nil, int64(2), now, "Programming"))

	results, err := NewPgBookRepository(mock).ListWithCategoryTitle(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Clean Code", results[0].Title)
	assert.Equal(t, "Programming", results[0].CategoryTitle)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPgBookRepository_CountByCategory(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM categories c\\s+LEFT JOIN books b ON b.category_id = c.id\\s+GROUP BY c.id").
		WillReturnRows(pgxmock.NewRows([]string{"id", "count"}).
			AddRow(int64(1), int64(3)).
			AddRow(int64(2), int64(0)))

	counts, err := NewPgBookRepository(mock).CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{1: 3, 2: 0}, counts)
}

func TestPgBookRepository_PricesByCategory(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT category_id, price FROM books").
		WillReturnRows(pgxmock.NewRows([]string{"category_id", "price"}).
			AddRow(int64(1), 799.99).
			AddRow(int64(1), 450.5).
			AddRow(int64(2), 1200.0))

	prices, err := NewPgBookRepository(mock).PricesByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64][]float64{1: {799.99, 450.5}, 2: {1200.0}}, prices)
}

func TestPgBookRepository_DeleteAll(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM books").WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := NewPgBookRepository(mock).DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
