package httpserver

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/domain"
)

// Response types for JSON serialization.

type rootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Service  string `json:"service"`
	Error    string `json:"error,omitempty"`
}

type categoryResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type categoryWithBooksResponse struct {
	categoryResponse
	Books []bookResponse `json:"books"`
}

type bookResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Price       float64   `json:"price"`
	URL         *string   `json:"url"`
	CategoryID  int64     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
}

type bookWithCategoryResponse struct {
	bookResponse
	CategoryTitle string `json:"category_title"`
}

type bookCountResponse struct {
	CategoryID int64 `json:"category_id"`
	BookCount  int64 `json:"book_count"`
}

type statisticsResponse struct {
	TotalCategories int                          `json:"total_categories"`
	TotalBooks      int                          `json:"total_books"`
	AveragePrice    float64                      `json:"average_price"`
	TotalPrice      float64                      `json:"total_price"`
	Categories      []categoryStatisticsResponse `json:"categories"`
}

type categoryStatisticsResponse struct {
	CategoryID int64   `json:"category_id"`
	Title      string  `json:"title"`
	BookCount  int     `json:"book_count"`
	TotalPrice float64 `json:"total_price"`
}

// Converter functions

func domainCategoryToResponse(c *domain.Category) categoryResponse {
	return categoryResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
	}
}

func domainCategoriesToResponse(categories []*domain.Category) []categoryResponse {
	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = domainCategoryToResponse(c)
	}
	return resp
}

func domainCategoryWithBooksToResponse(c *domain.CategoryWithBooks) categoryWithBooksResponse {
	return categoryWithBooksResponse{
		categoryResponse: domainCategoryToResponse(&c.Category),
		Books:            domainBooksToResponse(c.Books),
	}
}

func domainBookToResponse(b *domain.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Price:       b.Price,
		URL:         b.URL,
		CategoryID:  b.CategoryID,
		CreatedAt:   b.CreatedAt,
	}
}

func domainBooksToResponse(books []*domain.Book) []bookResponse {
	resp := make([]bookResponse, len(books))
	for i, b := range books {
		resp[i] = domainBookToResponse(b)
	}
	return resp
}

func domainBooksWithCategoryToResponse(books []*domain.BookWithCategory) []bookWithCategoryResponse {
	resp := make([]bookWithCategoryResponse, len(books))
	for i, b := range books {
		resp[i] = bookWithCategoryResponse{
			bookResponse:  domainBookToResponse(&b.Book),
			CategoryTitle: b.CategoryTitle,
		}
	}
	return resp
}

// bookCountsToResponse lists the counts ordered by category id.
func bookCountsToResponse(counts map[int64]int64) []bookCountResponse {
	resp := make([]bookCountResponse, 0, len(counts))
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		resp = append(resp, bookCountResponse{CategoryID: id, BookCount: counts[id]})
	}
	return resp
}

func statisticsToResponse(s *catalog.Statistics) statisticsResponse {
	categories := make([]categoryStatisticsResponse, len(s.Categories))
	for i, c := range s.Categories {
		categories[i] = categoryStatisticsResponse{
			CategoryID: c.CategoryID,
			Title:      c.Title,
			BookCount:  c.BookCount,
			TotalPrice: c.TotalPrice.InexactFloat64(),
		}
	}
	return statisticsResponse{
		TotalCategories: s.TotalCategories,
		TotalBooks:      s.TotalBooks,
		AveragePrice:    s.AveragePrice.InexactFloat64(),
		TotalPrice:      s.TotalPrice.InexactFloat64(),
		Categories:      categories,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// Headers are already sent; an encode failure can only mean a dropped client.
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
