// Package repository provides data access interfaces and their PostgreSQL
// implementations for the catalog service.
//
// # Repository Interfaces
//
//   - CategoryRepository: category persistence, lookup by title, cascade delete
//   - BookRepository: book persistence, filtering, search and aggregate queries
//
// Store bundles both over one DBTX and runs multi-repository work inside a
// single transaction via InTx.
//
// # Error Handling
//
// Absence is reported as an error wrapping domain.ErrNotFound. Storage
// constraint violations are translated into the same domain errors the
// service layer produces for its own pre-checks:
//
//   - unique_violation (23505): domain.ErrAlreadyExists
//   - foreign_key_violation (23503): *domain.ValidationError on category_id
//   - check_violation (23514): *domain.ValidationError on price
//
// Every other failure is wrapped with fmt.Errorf and %w.
//
// # Thread Safety
//
// All implementations are safe for concurrent use. The underlying pgxpool
// handles connection pooling and synchronization.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bookshelf/catalog-service/internal/database"
)

// DBTX is the database interface supporting both pool and transaction contexts.
//
//	repo := repository.NewPgBookRepository(db)   // pool
//	repo := repository.NewPgBookRepository(tx)   // inside a transaction
type DBTX = database.DBTX

// txBeginner is implemented by anything that can open a transaction
// (*database.DB, *pgxpool.Pool, and pgx.Tx via savepoints).
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgreSQL error codes used for constraint violation detection.
const (
	pgUniqueViolation     = "23505" // unique_violation
	pgForeignKeyViolation = "23503" // foreign_key_violation
	pgCheckViolation      = "23514" // check_violation
)

// Pagination defaults and limits.
const (
	defaultFilterLimit = 100
	maxFilterLimit     = 1000
)

// Sort directions accepted in ListOptions.SortOrder.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ListOptions controls pagination and ordering for list queries.
type ListOptions struct {
	Skip  int
	Limit int

	// SortBy names a column exactly. Unknown names, including other
	// spellings of a known one, fall back to id.
	SortBy string

	// SortOrder is "asc" or "desc", case-insensitive. Anything else means asc.
	SortOrder string
}

// applyPaginationDefaults normalizes limit and offset values for list queries.
// It clamps limit to [1, maxFilterLimit] and ensures offset >= 0.
func applyPaginationDefaults(limit, offset *int) {
	if *limit <= 0 {
		*limit = defaultFilterLimit
	}
	if *limit > maxFilterLimit {
		*limit = maxFilterLimit
	}
	if *offset < 0 {
		*offset = 0
	}
}

// orderByClause resolves SortBy against the sortable column whitelist and
// returns a complete ORDER BY clause. A non-id sort column gets id as a
// tiebreaker so offset pagination stays stable.
func orderByClause(opts ListOptions, sortable map[string]bool) string {
	column := opts.SortBy
	if !sortable[column] {
		column = "id"
	}

	direction := "ASC"
	if strings.EqualFold(strings.TrimSpace(opts.SortOrder), SortDesc) {
		direction = "DESC"
	}

	if column == "id" {
		return "ORDER BY id " + direction
	}
	return fmt.Sprintf("ORDER BY %s %s, id %s", column, direction, direction)
}

// pgErrorCode returns the SQLSTATE of a PostgreSQL error, or "" for any other error.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// withTx runs fn inside a transaction when db can begin one, committing on
// success and rolling back on error or panic. Otherwise fn runs directly on db.
func withTx(ctx context.Context, db DBTX, fn func(DBTX) error) (err error) {
	beginner, ok := db.(txBeginner)
	if !ok {
		return fn(db)
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
