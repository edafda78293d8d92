// Package domain defines the catalog entities, their input shapes and the error
// taxonomy shared by every layer of the catalog service.
package domain

import "time"

// Book is a catalog item belonging to exactly one category.
type Book struct {
	ID          int64
	Title       string
	Description *string
	Price       float64
	URL         *string
	CategoryID  int64
	CreatedAt   time.Time
}

// BookWithCategory is a book joined with the title of its category.
type BookWithCategory struct {
	Book
	CategoryTitle string
}

// BookInput carries the client-supplied fields for creating a book.
type BookInput struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description"`
	Price       float64 `json:"price" validate:"gt=0"`
	URL         *string `json:"url" validate:"omitnil,max=500"`
	CategoryID  int64   `json:"category_id" validate:"gte=1"`
}

// ToBook converts the input into an unsaved Book.
func (in BookInput) ToBook() *Book {
	return &Book{
		Title:       in.Title,
		Description: in.Description,
		Price:       in.Price,
		URL:         in.URL,
		CategoryID:  in.CategoryID,
	}
}

// BookUpdate is a partial update of a book. Only non-nil fields are applied;
// omitted fields keep their stored value.
type BookUpdate struct {
	Title       *string  `json:"title" validate:"omitnil,min=1,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitnil,gt=0"`
	URL         *string  `json:"url" validate:"omitnil,max=500"`
	CategoryID  *int64   `json:"category_id" validate:"omitnil,gte=1"`
}

// IsEmpty reports whether the update carries no fields at all.
func (u BookUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Price == nil && u.URL == nil && u.CategoryID == nil
}
