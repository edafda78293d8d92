package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog"

	"github.com/bookshelf/catalog-service/internal/domain"
	"github.com/bookshelf/catalog-service/internal/observability"
	"github.com/bookshelf/catalog-service/internal/repository"
)

// Pagination and request size constants.
const (
	defaultLimit       = 100
	maxLimit           = 1000
	maxRequestBodySize = 1 << 20 // 1 MiB limit for request bodies
)

// writeDomainError maps catalog errors to HTTP status codes and writes a JSON
// error response. Unexpected errors are logged and their details are not
// leaked to clients.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	status, message := domainErrorResponse(err)
	if status == http.StatusInternalServerError {
		logger := observability.WithRequestContext(s.logger, observability.RequestIDFromContext(r.Context()), r.Method, r.URL.Path)
		logger.Error().
			Err(err).
			Str("correlation_id", observability.CorrelationIDFromContext(r.Context())).
			Msg("request failed")
	}
	writeError(w, status, message)
}

// domainErrorResponse returns the status code and client-facing message for err.
func domainErrorResponse(err error) (int, string) {
	var (
		notFound *domain.NotFoundError
		invalid  *domain.ValidationError
		exists   *domain.AlreadyExistsError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Entity + " not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid input"
	case errors.As(err, &exists):
		return http.StatusBadRequest, exists.Error()
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusBadRequest, "resource already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// parseID parses an integer path parameter. A malformed value gets a 400
// without echoing the raw input; an id below 1 names no row and gets a 404.
func parseID(w http.ResponseWriter, r *http.Request, param, entity string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s id must be an integer", entity))
		return 0, false
	}
	if id < 1 {
		writeError(w, http.StatusNotFound, entity+" not found")
		return 0, false
	}
	httplog.LogEntrySetField(r.Context(), entity+"_id", strconv.FormatInt(id, 10))
	return id, true
}

// parsePagination reads skip and limit from the query string. skip defaults
// to 0 and must not be negative; limit defaults to 100 and must be within
// [1, 1000]. Out of range values are rejected rather than clamped.
func parsePagination(w http.ResponseWriter, r *http.Request) (skip, limit int, ok bool) {
	q := r.URL.Query()

	skip, ok = parseIntParam(w, q.Get("skip"), "skip", 0, 0, -1)
	if !ok {
		return 0, 0, false
	}
	limit, ok = parseIntParam(w, q.Get("limit"), "limit", defaultLimit, 1, maxLimit)
	if !ok {
		return 0, 0, false
	}
	return skip, limit, true
}

// parseListOptions reads pagination plus sort_by and sort_order. Sort values
// are passed through as-is; the repository whitelists them.
func parseListOptions(w http.ResponseWriter, r *http.Request) (repository.ListOptions, bool) {
	skip, limit, ok := parsePagination(w, r)
	if !ok {
		return repository.ListOptions{}, false
	}
	q := r.URL.Query()
	return repository.ListOptions{
		Skip:      skip,
		Limit:     limit,
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}, true
}

// parseCategoryFilter reads the optional category_id query parameter.
func parseCategoryFilter(w http.ResponseWriter, r *http.Request) (*int64, bool) {
	raw := r.URL.Query().Get("category_id")
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "category_id must be a positive integer")
		return nil, false
	}
	return &id, true
}

// parseIntParam parses an integer query value. An empty value yields def.
// hi < 0 means unbounded.
func parseIntParam(w http.ResponseWriter, raw, name string, def, lo, hi int) (int, bool) {
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be an integer", name))
		return 0, false
	}
	if v < lo {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be greater than or equal to %d", name, lo))
		return 0, false
	}
	if hi >= 0 && v > hi {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s must be less than or equal to %d", name, hi))
		return 0, false
	}
	return v, true
}

// decodeBody decodes a JSON request body into dst, writing a 400 error
// response on failure. Bodies over 1 MiB, unknown fields and trailing data
// are rejected.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, describeDecodeError(err))
		return false
	}
	if dec.More() {
		writeError(w, http.StatusBadRequest, "request body must contain a single JSON object")
		return false
	}
	return true
}

func describeDecodeError(err error) string {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		sizeErr   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &sizeErr):
		return "request body must not exceed 1 MiB"
	case errors.Is(err, io.EOF):
		return "request body must not be empty"
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return "invalid JSON request body"
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s has the wrong type", typeErr.Field)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return "unknown field " + strings.TrimPrefix(err.Error(), "json: unknown field ")
	default:
		return "invalid JSON request body"
	}
}

// Request bodies. Pointer fields distinguish omitted from supplied values.

type createCategoryRequest struct {
	Title string `json:"title"`
}

func (req createCategoryRequest) toInput() domain.CategoryInput {
	return domain.CategoryInput{Title: req.Title}
}

type updateCategoryRequest struct {
	Title *string `json:"title"`
}

func (req updateCategoryRequest) toUpdate() domain.CategoryUpdate {
	return domain.CategoryUpdate{Title: req.Title}
}

type createBookRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Price       float64 `json:"price"`
	URL         *string `json:"url"`
	CategoryID  int64   `json:"category_id"`
}

func (req createBookRequest) toInput() domain.BookInput {
	return domain.BookInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		URL:         req.URL,
		CategoryID:  req.CategoryID,
	}
}

type updateBookRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	URL         *string  `json:"url"`
	CategoryID  *int64   `json:"category_id"`
}

func (req updateBookRequest) toUpdate() domain.BookUpdate {
	return domain.BookUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		URL:         req.URL,
		CategoryID:  req.CategoryID,
	}
}
