package httpserver

import (
	"net/http"

	"github.com/bookshelf/catalog-service/internal/repository"
)

// listBooks handles GET /books.
func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}
	categoryID, ok := parseCategoryFilter(w, r)
	if !ok {
		return
	}

	books, err := s.catalog.ListBooks(r.Context(), repository.BookFilter{
		ListOptions: opts,
		CategoryID:  categoryID,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainBooksToResponse(books))
}

// searchBooks handles GET /books/search?q=.
func (s *Server) searchBooks(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	books, err := s.catalog.SearchBooks(r.Context(), r.URL.Query().Get("q"), skip, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainBooksToResponse(books))
}

// listBooksWithCategory handles GET /books/with-category.
func (s *Server) listBooksWithCategory(w http.ResponseWriter, r *http.Request) {
	skip, limit, ok := parsePagination(w, r)
	if !ok {
		return
	}

	books, err := s.catalog.ListBooksWithCategory(r.Context(), skip, limit)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainBooksWithCategoryToResponse(books))
}

// createBook handles POST /books.
func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if !decodeBody(w, r, &req) {
		return
	}

	book, err := s.catalog.CreateBook(r.Context(), req.toInput())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainBookToResponse(book))
}

// getBook handles GET /books/{bookID}.
func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "bookID", "book")
	if !ok {
		return
	}

	book, err := s.catalog.GetBook(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainBookToResponse(book))
}

// updateBook handles PUT /books/{bookID}. Only supplied fields change.
func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "bookID", "book")
	if !ok {
		return
	}

	var req updateBookRequest
	if !decodeBody(w, r, &req) {
		return
	}

	book, err := s.catalog.UpdateBook(r.Context(), id, req.toUpdate())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainBookToResponse(book))
}

// deleteBook handles DELETE /books/{bookID}.
func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "bookID", "book")
	if !ok {
		return
	}

	if err := s.catalog.DeleteBook(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// getStatistics handles GET /stats.
func (s *Server) getStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.catalog.Statistics(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statisticsToResponse(stats))
}
