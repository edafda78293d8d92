package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bookshelf/catalog-service/internal/domain"
)

// Compile-time interface verification.
var _ BookRepository = (*PgBookRepository)(nil)

const bookColumns = "id, title, description, price, url, category_id, created_at"

// bookSortColumns is the whitelist of columns a book list may be ordered by.
var bookSortColumns = map[string]bool{
	"id":          true,
	"title":       true,
	"description": true,
	"price":       true,
	"url":         true,
	"category_id": true,
	"created_at":  true,
}

// likeEscaper escapes LIKE metacharacters so a search term matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// PgBookRepository is a PostgreSQL implementation of BookRepository.
type PgBookRepository struct {
	db DBTX
}

// NewPgBookRepository creates a new PostgreSQL book repository.
func NewPgBookRepository(db DBTX) *PgBookRepository {
	return &PgBookRepository{db: db}
}

// Create inserts a new book.
func (r *PgBookRepository) Create(ctx context.Context, book *domain.Book) error {
	if book == nil {
		return domain.NewValidationError("book", "book cannot be nil")
	}

	query := `
		INSERT INTO books (title, description, price, url, category_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query, book.Title, book.Description, book.Price, book.URL, book.CategoryID).
		Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		if mapped := bookConstraintError(err, book.CategoryID); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// CreateMany inserts several books with a single multi-row INSERT.
func (r *PgBookRepository) CreateMany(ctx context.Context, books []*domain.Book) error {
	if len(books) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(books))
	args := make([]interface{}, 0, len(books)*5)
	for i, b := range books {
		if b == nil {
			return domain.NewValidationError("book", "book cannot be nil")
		}
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d, $%d, $%d, $%d, $%d)", i*5+1, i*5+2, i*5+3, i*5+4, i*5+5))
		args = append(args, b.Title, b.Description, b.Price, b.URL, b.CategoryID)
	}

	query := fmt.Sprintf(`
		INSERT INTO books (title, description, price, url, category_id)
		VALUES %s
		RETURNING id, created_at`,
		strings.Join(valueStrings, ", "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create books: %w", err)
	}
	defer rows.Close()

	// RETURNING yields rows in VALUES order for a single-statement insert.
	i := 0
	for rows.Next() {
		if i >= len(books) {
			return fmt.Errorf("failed to create books: more rows returned than inserted")
		}
		if err := rows.Scan(&books[i].ID, &books[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan created book: %w", err)
		}
		i++
	}

	if err := rows.Err(); err != nil {
		if mapped := bookConstraintError(err, books[0].CategoryID); mapped != nil {
			return mapped
		}
		return fmt.Errorf("failed to create books: %w", err)
	}
	if i != len(books) {
		return fmt.Errorf("failed to create books: inserted %d of %d", i, len(books))
	}

	return nil
}

// Get retrieves a book by id.
func (r *PgBookRepository) Get(ctx context.Context, id int64) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("book", id)
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}

	return book, nil
}

// List returns a page of books matching the filter.
func (r *PgBookRepository) List(ctx context.Context, filter BookFilter) ([]*domain.Book, error) {
	applyPaginationDefaults(&filter.Limit, &filter.Skip)

	where := ""
	args := []interface{}{}
	argIndex := 1

	if filter.CategoryID != nil {
		where = fmt.Sprintf("WHERE category_id = $%d", argIndex)
		args = append(args, *filter.CategoryID)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM books
		%s
		%s
		LIMIT $%d OFFSET $%d`,
		bookColumns, where, orderByClause(filter.ListOptions, bookSortColumns), argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Skip)

	return r.queryBooks(ctx, query, args...)
}

// ListByCategory returns all books of one category.
func (r *PgBookRepository) ListByCategory(ctx context.Context, categoryID int64) ([]*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE category_id = $1 ORDER BY id`
	return r.queryBooks(ctx, query, categoryID)
}

// Update applies a partial update. Only supplied fields appear in the SET list.
func (r *PgBookRepository) Update(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error) {
	if update.IsEmpty() {
		return r.Get(ctx, id)
	}

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Price != nil {
		set("price", *update.Price)
	}
	if update.URL != nil {
		set("url", *update.URL)
	}
	if update.CategoryID != nil {
		set("category_id", *update.CategoryID)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE books
		SET %s
		WHERE id = $%d
		RETURNING %s`,
		strings.Join(sets, ", "), len(args), bookColumns)

	book, err := scanBook(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("book", id)
		}
		var categoryID int64
		if update.CategoryID != nil {
			categoryID = *update.CategoryID
		}
		if mapped := bookConstraintError(err, categoryID); mapped != nil {
			return nil, mapped
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	return book, nil
}

// Delete removes a book.
func (r *PgBookRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFoundError("book", id)
	}
	return nil
}

// DeleteAll removes every book.
func (r *PgBookRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM books`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete books: %w", err)
	}
	return result.RowsAffected(), nil
}

// Search finds books by a case-insensitive substring of title or description.
func (r *PgBookRepository) Search(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error) {
	applyPaginationDefaults(&limit, &skip)

	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE title ILIKE $1 ESCAPE '\' OR description ILIKE $1 ESCAPE '\'
		ORDER BY id
		LIMIT $2 OFFSET $3`

	pattern := "%" + likeEscaper.Replace(term) + "%"
	return r.queryBooks(ctx, query, pattern, limit, skip)
}

// ListWithCategoryTitle returns books joined with their category title.
func (r *PgBookRepository) ListWithCategoryTitle(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error) {
	applyPaginationDefaults(&limit, &skip)

	query := `
		SELECT b.id, b.title, b.description, b.price, b.url, b.category_id, b.created_at, c.title
		FROM books b
		JOIN categories c ON c.id = b.category_id
		ORDER BY b.id
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list books with category: %w", err)
	}
	defer rows.Close()

	results := make([]*domain.BookWithCategory, 0)
	for rows.Next() {
		var bc domain.BookWithCategory
		b := &bc.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Description, &b.Price, &b.URL, &b.CategoryID, &b.CreatedAt, &bc.CategoryTitle); err != nil {
			return nil, fmt.Errorf("failed to scan book with category: %w", err)
		}
		results = append(results, &bc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books with category: %w", err)
	}

	return results, nil
}

// CountByCategory counts books per category.
func (r *PgBookRepository) CountByCategory(ctx context.Context) (map[int64]int64, error) {
	query := `
		SELECT c.id, COUNT(b.id)
		FROM categories c
		LEFT JOIN books b ON b.category_id = c.id
		GROUP BY c.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count books by category: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int64)
	for rows.Next() {
		var categoryID, count int64
		if err := rows.Scan(&categoryID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan book count: %w", err)
		}
		counts[categoryID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book counts: %w", err)
	}

	return counts, nil
}

// PricesByCategory collects book prices grouped by category.
func (r *PgBookRepository) PricesByCategory(ctx context.Context) (map[int64][]float64, error) {
	rows, err := r.db.Query(ctx, `SELECT category_id, price FROM books ORDER BY category_id, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load book prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[int64][]float64)
	for rows.Next() {
		var categoryID int64
		var price float64
		if err := rows.Scan(&categoryID, &price); err != nil {
			return nil, fmt.Errorf("failed to scan book price: %w", err)
		}
		prices[categoryID] = append(prices[categoryID], price)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book prices: %w", err)
	}

	return prices, nil
}

func (r *PgBookRepository) queryBooks(ctx context.Context, query string, args ...interface{}) ([]*domain.Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := make([]*domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

// bookConstraintError translates book constraint violations into domain
// errors. It returns nil for any other error.
func bookConstraintError(err error, categoryID int64) error {
	switch pgErrorCode(err) {
	case pgForeignKeyViolation:
		return domain.NewMissingCategoryError(categoryID)
	case pgCheckViolation:
		return domain.NewValidationError("price", "must be greater than 0")
	default:
		return nil
	}
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	if err := row.Scan(&b.ID, &b.Title, &b.Description, &b.Price, &b.URL, &b.CategoryID, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
