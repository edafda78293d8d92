package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// moneyPlaces is the number of decimal places money values are rounded to.
const moneyPlaces = 2

// Statistics summarizes the whole catalog.
type Statistics struct {
	TotalCategories int
	TotalBooks      int
	AveragePrice    decimal.Decimal
	TotalPrice      decimal.Decimal
	Categories      []CategoryStatistics
}

// CategoryStatistics summarizes the books of one category.
type CategoryStatistics struct {
	CategoryID int64
	Title      string
	BookCount  int
	TotalPrice decimal.Decimal
}

// Statistics computes catalog-wide and per-category counts and price totals.
// Sums are exact decimal sums of the stored prices rounded to two places.
// The average is zero for an empty catalog.
func (s *Service) Statistics(ctx context.Context) (stats *Statistics, err error) {
	defer func(start time.Time) { s.observe("statistics", start, err) }(time.Now())

	categories, err := s.categories.All(ctx)
	if err != nil {
		return nil, err
	}

	prices, err := s.books.PricesByCategory(ctx)
	if err != nil {
		return nil, err
	}

	stats = &Statistics{
		TotalCategories: len(categories),
		Categories:      make([]CategoryStatistics, 0, len(categories)),
	}

	total := decimal.Zero
	for _, c := range categories {
		categoryTotal := sumPrices(prices[c.ID])
		stats.Categories = append(stats.Categories, CategoryStatistics{
			CategoryID: c.ID,
			Title:      c.Title,
			BookCount:  len(prices[c.ID]),
			TotalPrice: categoryTotal.Round(moneyPlaces),
		})
		stats.TotalBooks += len(prices[c.ID])
		total = total.Add(categoryTotal)
	}

	stats.TotalPrice = total.Round(moneyPlaces)
	stats.AveragePrice = decimal.Zero
	if stats.TotalBooks > 0 {
		stats.AveragePrice = total.Div(decimal.NewFromInt(int64(stats.TotalBooks))).Round(moneyPlaces)
	}

	return stats, nil
}

func sumPrices(prices []float64) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range prices {
		sum = sum.Add(decimal.NewFromFloat(p))
	}
	return sum
}
