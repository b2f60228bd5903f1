package borrows

import "time"

// CreateBorrowPayload represents the request body for borrowing a book.
type CreateBorrowPayload struct {
	BookID   int `json:"book_id" validate:"required"`
	MemberID int `json:"member_id" validate:"required"`
}

// ReturnBorrowPayload represents the request body for returning a book. The
// return date defaults to the time of the request.
type ReturnBorrowPayload struct {
	ReturnDate *time.Time `json:"return_date"`
}
