package httpserver

import (
	"net/http"
)

// listCategories handles GET /categories.
func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	opts, ok := parseListOptions(w, r)
	if !ok {
		return
	}

	categories, err := s.catalog.ListCategories(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainCategoriesToResponse(categories))
}

// createCategory handles POST /categories.
func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := s.catalog.CreateCategory(r.Context(), req.toInput())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, domainCategoryToResponse(category))
}

// getCategory handles GET /categories/{categoryID}.
func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	category, err := s.catalog.GetCategory(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainCategoryToResponse(category))
}

// getCategoryWithBooks handles GET /categories/{categoryID}/books.
func (s *Server) getCategoryWithBooks(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	result, err := s.catalog.GetCategoryWithBooks(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainCategoryWithBooksToResponse(result))
}

// updateCategory handles PUT /categories/{categoryID}.
func (s *Server) updateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	var req updateCategoryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	category, err := s.catalog.UpdateCategory(r.Context(), id, req.toUpdate())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, domainCategoryToResponse(category))
}

// deleteCategory handles DELETE /categories/{categoryID}. Books of the
// category are deleted with it.
func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "categoryID", "category")
	if !ok {
		return
	}

	if err := s.catalog.DeleteCategory(r.Context(), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// countBooksByCategory handles GET /categories/book-counts.
func (s *Server) countBooksByCategory(w http.ResponseWriter, r *http.Request) {
	counts, err := s.catalog.CountBooksByCategory(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, bookCountsToResponse(counts))
}
