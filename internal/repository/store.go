package repository

import "context"

// Store groups the catalog repositories over one DBTX.
type Store struct {
	db         DBTX
	categories *PgCategoryRepository
	books      *PgBookRepository
}

// NewStore creates repositories sharing db.
func NewStore(db DBTX) *Store {
	return &Store{
		db:         db,
		categories: NewPgCategoryRepository(db),
		books:      NewPgBookRepository(db),
	}
}

// Categories returns the category repository.
func (s *Store) Categories() CategoryRepository {
	return s.categories
}

// Books returns the book repository.
func (s *Store) Books() BookRepository {
	return s.books
}

// InTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(categories CategoryRepository, books BookRepository) error) error {
	return withTx(ctx, s.db, func(tx DBTX) error {
		return fn(NewPgCategoryRepository(tx), NewPgBookRepository(tx))
	})
}
