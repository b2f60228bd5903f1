package books

// CreateBookPayload represents the request body for adding a book.
type CreateBookPayload struct {
	Title       string `json:"title" mod:"trim" validate:"required"`
	Author      string `json:"author" mod:"trim" validate:"required"`
	ISBN        string `json:"isbn" mod:"trim" validate:"required"`
	TotalCopies int    `json:"total_copies" validate:"required,gt=0"`
}

// UpdateBookPayload represents the request body for patching a book.
type UpdateBookPayload struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Author      *string `json:"author" validate:"omitempty,min=1"`
	ISBN        *string `json:"isbn" validate:"omitempty,min=1"`
	TotalCopies *int    `json:"total_copies" validate:"omitempty,gt=0"`
}

// ListBooksQuery represents the query parameters for listing books.
type ListBooksQuery struct {
	Author        string `query:"author"`
	Title         string `query:"title"`
	AvailableOnly bool   `query:"available_only"`
	Limit         int    `query:"limit" default:"50"`
	Offset        int    `query:"offset" default:"0"`
}
