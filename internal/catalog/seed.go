package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/repository"
)

// SeedResult reports what a seeding run removed and inserted.
type SeedResult struct {
	RemovedCategories int64
	RemovedBooks      int64
	Categories        int
	Books             int
}

type seedBook struct {
	title       string
	description string
	price       float64
	url         string
}

type seedCategory struct {
	title string
	books []seedBook
}

// sampleCatalog is the demo data loaded by Seed.
var sampleCatalog = []seedCategory{
	{
		title: "Science Fiction",
		books: []seedBook{
			{"The Lord of the Rings", "An epic fantasy saga of Middle-earth", 799.99, "https://example.com/lotr"},
			{"1984", "George Orwell's dystopian novel", 450.50, "https://example.com/1984"},
			{"The Martian", "A science fiction novel about surviving on Mars", 550.00, "https://example.com/martian"},
		},
	},
	{
		title: "Programming",
		books: []seedBook{
			{"Clean Code", "Writing, analyzing and refactoring code", 1200.00, "https://example.com/clean-code"},
			{"Grokking Algorithms", "An illustrated guide for programmers", 850.75, "https://example.com/grokking-algorithms"},
			{"Fluent Python", "Advanced programming in Python", 950.00, "https://example.com/python-mastery"},
			{"SQL for Mere Mortals", "A complete beginner's guide to SQL", 700.25, "https://example.com/sql-guide"},
		},
	},
}

// Seed replaces the catalog contents with the sample data in one transaction.
// If the catalog already has categories and reset is false it returns
// domain.ErrSeedDataExists and changes nothing.
func (s *Service) Seed(ctx context.Context, reset bool) (result *SeedResult, err error) {
	defer func(start time.Time) { s.observe("seed", start, err) }(time.Now())

	existing, err := s.categories.Count(ctx)
	if err != nil {
		return nil, err
	}
	if existing > 0 && !reset {
		return nil, domain.ErrSeedDataExists
	}

	result = &SeedResult{}
	err = s.tx.InTx(ctx, func(categories repository.CategoryRepository, books repository.BookRepository) error {
		removedBooks, err := books.DeleteAll(ctx)
		if err != nil {
			return err
		}
		removedCategories, err := categories.DeleteAll(ctx)
		if err != nil {
			return err
		}
		result.RemovedBooks = removedBooks
		result.RemovedCategories = removedCategories

		for _, sc := range sampleCatalog {
			category, err := categories.Create(ctx, sc.title)
			if err != nil {
				return fmt.Errorf("failed to seed category %q: %w", sc.title, err)
			}

			batch := make([]*domain.Book, 0, len(sc.books))
			for _, sb := range sc.books {
				description, url := sb.description, sb.url
				batch = append(batch, &domain.Book{
					Title:       sb.title,
					Description: &description,
					Price:       sb.price,
					URL:         &url,
					CategoryID:  category.ID,
				})
			}
			if err := books.CreateMany(ctx, batch); err != nil {
				return fmt.Errorf("failed to seed books of %q: %w", sc.title, err)
			}

			result.Categories++
			result.Books += len(batch)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCreated("category", result.Categories)
	s.metrics.RecordCreated("book", result.Books)
	s.logger.Info().
		Int64("removed_categories", result.RemovedCategories).
		Int64("removed_books", result.RemovedBooks).
		Int("categories", result.Categories).
		Int("books", result.Books).
		Msg("catalog seeded")

	return result, nil
}
