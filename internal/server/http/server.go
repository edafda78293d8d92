// Package httpserver provides the HTTP REST API of the catalog service.
package httpserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"

	"github.com/bookshelf/catalog-service/internal/catalog"
	"github.com/bookshelf/catalog-service/internal/database"
	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/observability"
	"github.com/bookshelf/catalog-service/internal/repository"
)

// ServiceName is reported by the health and root endpoints.
const ServiceName = "catalog-service"

// Catalog is the set of catalog operations served over HTTP.
// *catalog.Service implements it.
type Catalog interface {
	CreateCategory(ctx context.Context, in domain.CategoryInput) (*domain.Category, error)
	GetCategory(ctx context.Context, id int64) (*domain.Category, error)
	ListCategories(ctx context.Context, opts repository.ListOptions) ([]*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, update domain.CategoryUpdate) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	GetCategoryWithBooks(ctx context.Context, id int64) (*domain.CategoryWithBooks, error)
	CountBooksByCategory(ctx context.Context) (map[int64]int64, error)

	CreateBook(ctx context.Context, in domain.BookInput) (*domain.Book, error)
	GetBook(ctx context.Context, id int64) (*domain.Book, error)
	ListBooks(ctx context.Context, filter repository.BookFilter) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, id int64, update domain.BookUpdate) (*domain.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	SearchBooks(ctx context.Context, term string, skip, limit int) ([]*domain.Book, error)
	ListBooksWithCategory(ctx context.Context, skip, limit int) ([]*domain.BookWithCategory, error)

	Statistics(ctx context.Context) (*catalog.Statistics, error)
}

// HealthChecker reports the state of the backing database.
// *database.DB implements it.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	catalog    Catalog
	health     HealthChecker
	limiter    *RateLimiter
	logger     zerolog.Logger
	metrics    *observability.Metrics
	version    string
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// RateLimitRPS is the global request rate. Zero or less disables limiting.
	RateLimitRPS   float64
	RateLimitBurst int
	// Version is reported by the root endpoint.
	Version string
}

// NewServer creates a new HTTP server with all dependencies. metrics may be nil.
func NewServer(
	cfg Config,
	cat Catalog,
	health HealthChecker,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		catalog: cat,
		health:  health,
		logger:  observability.WithComponent(logger, "http-server"),
		metrics: metrics,
		version: cfg.Version,
	}
	if cfg.RateLimitRPS > 0 {
		s.limiter = NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(metricsMiddleware(s.metrics))
	r.Use(rateLimitMiddleware(s.limiter, s.metrics))

	r.Get("/", s.rootHandler)
	r.Get("/health", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Group(func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.Post("/", s.createCategory)
			r.Get("/{categoryID}", s.getCategory)
			r.Put("/{categoryID}", s.updateCategory)
			r.Delete("/{categoryID}", s.deleteCategory)
			r.Get("/{categoryID}/books", s.getCategoryWithBooks)
			r.Get("/book-counts", s.countBooksByCategory)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.listBooks)
			r.Post("/", s.createBook)
			r.Get("/search", s.searchBooks)
			r.Get("/with-category", s.listBooksWithCategory)
			r.Get("/{bookID}", s.getBook)
			r.Put("/{bookID}", s.updateBook)
			r.Delete("/{bookID}", s.deleteBook)
		})

		r.Get("/stats", s.getStatistics)
	})

	return r
}

// Handler returns the root handler, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// rootHandler describes the API.
func (s *Server) rootHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message: "Book catalog API",
		Version: s.version,
		Endpoints: map[string]string{
			"categories":    "/categories",
			"books":         "/books",
			"search":        "/books/search?q=",
			"with_category": "/books/with-category",
			"book_counts":   "/categories/book-counts",
			"statistics":    "/stats",
			"health":        "/health",
		},
	})
}

// healthHandler returns liveness status including database connectivity.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status == database.StatusHealthy {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:   "ok",
			Database: health.Status,
			Service:  ServiceName,
		})
		return
	}
	writeJSON(w, http.StatusServiceUnavailable, healthResponse{
		Status:   "unhealthy",
		Database: health.Status,
		Service:  ServiceName,
		Error:    health.Error,
	})
}

// readinessHandler reports whether the service can take traffic.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status != database.StatusHealthy {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": health.Status,
	})
}
