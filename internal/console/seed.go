package console

import (
	"context"
	"errors"
	"strings"

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/domain"
)

// Seeder loads the sample catalog. *catalog.Service implements it.
type Seeder interface {
	Seed(ctx context.Context, reset bool) (*catalog.SeedResult, error)
}

// Seed loads the sample data. When the catalog already has data it asks for
// confirmation before replacing it, unless assumeYes is set.
func (m *Menu) Seed(ctx context.Context, seeder Seeder, assumeYes bool) error {
	m.heading("LOADING SAMPLE DATA")

	result, err := seeder.Seed(ctx, assumeYes)
	if errors.Is(err, domain.ErrSeedDataExists) {
		answer, promptErr := m.prompt("The catalog already contains data. Recreate it? (y/n) ")
		if promptErr != nil && !errors.Is(promptErr, errInputClosed) {
			return promptErr
		}
		if !strings.EqualFold(answer, "y") {
			m.printf("Seeding cancelled\n")
			return nil
		}
		result, err = seeder.Seed(ctx, true)
	}
	if err != nil {
		return err
	}

	if result.RemovedCategories > 0 || result.RemovedBooks > 0 {
		m.printf("Removed %d categories and %d books\n", result.RemovedCategories, result.RemovedBooks)
	}
	m.printf("Added %d categories and %d books\n", result.Categories, result.Books)
	return nil
}
