package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BorrowRecord is one entry in the append-only loan ledger. Records are never
// deleted; a record with a null returned_at is an outstanding loan.
type BorrowRecord struct {
	bun.BaseModel `bun:"table:borrow_records,alias:br"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	BookID     int        `bun:",nullzero" json:"book_id"`
	Book       *Book      `bun:"rel:belongs-to" json:"book,omitempty"`
	MemberID   int        `bun:",nullzero" json:"member_id"`
	Member     *Member    `bun:"rel:belongs-to" json:"member,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	DueDate    time.Time  `json:"due_date"`
	ReturnedAt *time.Time `json:"returned_at"`
}

// Outstanding reports whether the loan has not been resolved yet.
func (br *BorrowRecord) Outstanding() bool {
	return br.ReturnedAt == nil
}
