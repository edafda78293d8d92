// Package console implements the interactive text menu of the catalog.
// It reads choices line by line and writes plain text, so it can be driven
// by a terminal or by any io.Reader in tests.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/observability"
)

const (
	ruleWidth      = 80
	pageSize       = 1000
	shortDescLimit = 80
	longDescLimit  = 100
)

// Catalog is the subset of catalog operations the menu needs.
// *catalog.Service implements it.
type Catalog interface {
	CategoriesWithBooks(ctx context.Context) ([]*domain.CategoryWithBooks, error)
	ListBooksWithCategory(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error)
	SearchBooks(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	Statistics(ctx context.Context) (*catalog.Statistics, error)
}

// errInputClosed is returned internally when the input reaches EOF.
var errInputClosed = errors.New("input closed")

// Menu is the interactive catalog browser.
type Menu struct {
	catalog Catalog
	in      *bufio.Scanner
	out     io.Writer
	logger  zerolog.Logger
}

// NewMenu creates a menu reading choices from in and writing to out.
func NewMenu(cat Catalog, in io.Reader, out io.Writer, logger zerolog.Logger) *Menu {
	return &Menu{
		catalog: cat,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  observability.WithComponent(logger, "console"),
	}
}

// Run shows the menu until the user exits, the input ends or ctx is done.
// A failed action is reported to the user and the menu continues.
func (m *Menu) Run(ctx context.Context) error {
	m.heading("BOOK CATALOG - MAIN MENU")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.printf("\nChoose an action:\n")
		m.printf("1. Show all categories with their books\n")
		m.printf("2. Show all books with their categories\n")
		m.printf("3. Show library statistics\n")
		m.printf("4. Search books\n")
		m.printf("5. Exit\n")

		choice, err := m.prompt("\nYour choice (1-5): ")
		if err != nil {
			return m.finish(err)
		}

		var actionErr error
		switch choice {
		case "1":
			actionErr = m.showCategories(ctx)
		case "2":
			actionErr = m.showBooksWithCategories(ctx)
		case "3":
			actionErr = m.showStatistics(ctx)
		case "4":
			actionErr = m.searchBooks(ctx)
		case "5":
			m.printf("\nExiting...\n")
			return nil
		default:
			m.printf("\nInvalid choice. Please try again.\n")
		}

		if errors.Is(actionErr, errInputClosed) {
			return m.finish(actionErr)
		}
		if actionErr != nil {
			m.logger.Error().Err(actionErr).Str("choice", choice).Msg("menu action failed")
			m.printf("\nAn error occurred: %v\n", actionErr)
		}

		if _, err := m.prompt("\nPress Enter to continue..."); err != nil {
			return m.finish(err)
		}
	}
}

// finish turns the end of input into a clean exit.
func (m *Menu) finish(err error) error {
	if errors.Is(err, errInputClosed) {
		m.printf("\n")
		return nil
	}
	return err
}

func (m *Menu) showCategories(ctx context.Context) error {
	m.heading("BOOK CATEGORIES")

	categories, err := m.catalog.CategoriesWithBooks(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		m.printf("No categories in the catalog\n")
		return nil
	}

	for i, c := range categories {
		m.printf("\n%d. %s\n", i+1, strings.ToUpper(c.Title))
		m.printf("%s\n", strings.Repeat("-", 40))

		if len(c.Books) == 0 {
			m.printf("   No books in this category\n")
			continue
		}
		for j, b := range c.Books {
			m.printf("   %2d. %s\n", j+1, b.Title)
			m.printf("       Description: %s\n", describe(b.Description, shortDescLimit))
			m.printf("       Price: %8.2f\n", b.Price)
			m.printf("       Link: %s\n", link(b.URL))
			m.printf("\n")
		}
	}
	return nil
}

func (m *Menu) showBooksWithCategories(ctx context.Context) error {
	m.heading("ALL BOOKS WITH CATEGORIES")

	var books []*domain.BookWithCategory
	for skip := 0; ; skip += pageSize {
		page, err := m.catalog.ListBooksWithCategory(ctx, skip, pageSize)
		if err != nil {
			return err
		}
		books = append(books, page...)
		if len(page) < pageSize {
			break
		}
	}

	if len(books) == 0 {
		m.printf("No books in the catalog\n")
		return nil
	}

	for i, b := range books {
		m.printf("\n%2d. %s\n", i+1, b.Title)
		m.printf("    Category: %s\n", b.CategoryTitle)
		m.printf("    Description: %s\n", describe(b.Description, longDescLimit))
		m.printf("    Price: %8.2f\n", b.Price)
		m.printf("    Link: %s\n", link(b.URL))
	}
	return nil
}

func (m *Menu) showStatistics(ctx context.Context) error {
	m.heading("LIBRARY STATISTICS")

	stats, err := m.catalog.Statistics(ctx)
	if err != nil {
		return err
	}

	m.printf("\nTotal categories: %d\n", stats.TotalCategories)
	m.printf("Total books: %d\n", stats.TotalBooks)

	if stats.TotalCategories == 0 || stats.TotalBooks == 0 {
		return nil
	}

	m.printf("Average book price: %s\n", stats.AveragePrice.StringFixed(2))
	m.printf("Total value of all books: %s\n", stats.TotalPrice.StringFixed(2))

	m.printf("\nBooks per category:\n")
	m.printf("%s\n", strings.Repeat("-", 40))
	for _, c := range stats.Categories {
		m.printf("%s: %d books, total value: %s\n", c.Title, c.BookCount, c.TotalPrice.StringFixed(2))
	}
	return nil
}

func (m *Menu) searchBooks(ctx context.Context) error {
	m.heading("SEARCH BOOKS")

	term, err := m.prompt("\nEnter a search term: ")
	if err != nil {
		return err
	}
	if term == "" {
		m.printf("The search term must not be empty\n")
		return nil
	}

	var results []*domain.Book
	for skip := 0; ; skip += pageSize {
		page, err := m.catalog.SearchBooks(ctx, term, skip, pageSize)
		if err != nil {
			return err
		}
		results = append(results, page...)
		if len(page) < pageSize {
			break
		}
	}

	if len(results) == 0 {
		m.printf("\nNothing found for '%s'\n", term)
		return nil
	}

	m.printf("\nFound %d books for '%s':\n", len(results), term)
	m.printf("%s\n", strings.Repeat("-", 60))

	titles := make(map[int64]string)
	for i, b := range results {
		title, err := m.categoryTitle(ctx, titles, b.CategoryID)
		if err != nil {
			return err
		}
		m.printf("\n%2d. %s\n", i+1, b.Title)
		m.printf("    Category: %s\n", title)
		m.printf("    Description: %s\n", describe(b.Description, shortDescLimit))
		m.printf("    Price: %8.2f\n", b.Price)
	}
	return nil
}

// categoryTitle resolves a category title once per search.
func (m *Menu) categoryTitle(ctx context.Context, cache map[int64]string, id int64) (string, error) {
	if title, ok := cache[id]; ok {
		return title, nil
	}
	title := "Unknown"
	category, err := m.catalog.GetCategory(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return "", err
	default:
		title = category.Title
	}
	cache[id] = title
	return title, nil
}

// prompt writes label and returns the next trimmed input line.
func (m *Menu) prompt(label string) (string, error) {
	m.printf("%s", label)
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(m.in.Text()), nil
}

func (m *Menu) heading(title string) {
	rule := strings.Repeat("=", ruleWidth)
	m.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

func (m *Menu) printf(format string, args ...interface{}) {
	fmt.Fprintf(m.out, format, args...)
}

// describe renders an optional description, cutting it after limit runes.
func describe(description *string, limit int) string {
	if description == nil || *description == "" {
		return "no description"
	}
	d := *description
	if utf8.RuneCountInString(d) <= limit {
		return d
	}
	return string([]rune(d)[:limit]) + "..."
}

func link(url *string) string {
	if url == nil || *url == "" {
		return "no link"
	}
	return *url
}
