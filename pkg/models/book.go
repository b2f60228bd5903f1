package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Title           string    `bun:",nullzero" json:"title"`
	Author          string    `bun:",nullzero" json:"author"`
	ISBN            string    `bun:",nullzero" json:"isbn"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
}

// CopiesOnLoan is the number of copies currently checked out, derived from
// the denormalized counter pair.
func (b *Book) CopiesOnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}
