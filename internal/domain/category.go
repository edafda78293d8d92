package domain

import "time"

// Category is a named grouping that owns zero or more books.
// Titles are unique across the catalog.
type Category struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// CategoryWithBooks is a category together with every book assigned to it.
type CategoryWithBooks struct {
	Category
	Books []*Book
}

// CategoryInput carries the client-supplied fields for creating a category.
type CategoryInput struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
}

// CategoryUpdate carries an optional new title for a category.
// A nil Title leaves the category unchanged.
type CategoryUpdate struct {
	Title *string `json:"title" validate:"omitnil,min=1,max=255"`
}
