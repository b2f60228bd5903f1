package borrows

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/kasho/pkg/errcodes"
	"github.com/shishobooks/kasho/pkg/models"
	"github.com/uptrace/bun"
)

const (
	// BorrowLimit is the maximum number of simultaneous outstanding loans per
	// member.
	BorrowLimit = 3
	// LoanPeriod is how long a copy may be kept before it is due.
	LoanPeriod = 14 * 24 * time.Hour
)

// Service is the borrowing transaction engine. It orchestrates the catalog,
// the member registry, and the loan ledger so that the available-copy
// counter and the ledger can never disagree.
type Service struct {
	db *bun.DB
}

// NewService creates a new borrows service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// Borrow checks a copy of a book out to a member and appends a ledger entry.
//
// The whole operation is one transaction. The counter moves via a
// conditional single-statement decrement, so two concurrent borrows can
// never both observe the last copy: whichever statement runs second matches
// zero rows. The limit count and the ledger insert sit in the same
// transaction for the same reason; a member firing two simultaneous
// requests cannot pass the limit check twice.
func (s *Service) Borrow(ctx context.Context, bookID, memberID int) (*models.BorrowRecord, error) {
	record := &models.BorrowRecord{}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Where("id = ?", bookID).
			Where("available_copies >= 1").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			// Missing book and exhausted copies are deliberately the same
			// answer; the caller only asked whether a copy can be had.
			return errcodes.Conflict("The book is not available for borrowing.")
		}

		exists, err := tx.NewSelect().
			Model((*models.Member)(nil)).
			Where("id = ?", memberID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Member")
		}

		active, err := tx.NewSelect().
			Model((*models.BorrowRecord)(nil)).
			Where("member_id = ?", memberID).
			Where("returned_at IS NULL").
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if active >= BorrowLimit {
			return errcodes.LimitExceeded("Borrow limit reached.")
		}

		now := time.Now()
		record.BookID = bookID
		record.MemberID = memberID
		record.BorrowedAt = now
		record.DueDate = now.Add(LoanPeriod)

		_, err = tx.NewInsert().Model(record).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, record.ID)
}

// Return resolves a ledger entry and checks the copy back in. A record can
// be resolved exactly once. The default return date is now; an explicit
// return date before the borrow date is rejected.
func (s *Service) Return(ctx context.Context, borrowID int, returnDate *time.Time) (*models.BorrowRecord, error) {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		record := &models.BorrowRecord{}
		err := tx.NewSelect().
			Model(record).
			Where("br.id = ?", borrowID).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Borrow record")
			}
			return errors.WithStack(err)
		}

		if record.ReturnedAt != nil {
			return errcodes.Conflict("Book has already been returned.")
		}

		returnedAt := time.Now()
		if returnDate != nil {
			returnedAt = *returnDate
		}
		if returnedAt.Before(record.BorrowedAt) {
			return errcodes.ValidationError("Return date cannot be before the borrow date.")
		}

		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", record.BookID).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			// A book deleted while on loan is an inconsistent state;
			// surface it rather than silently resolving the record.
			return errcodes.NotFound("Book")
		}

		_, err = tx.NewUpdate().
			Model((*models.BorrowRecord)(nil)).
			Set("returned_at = ?", returnedAt).
			Where("id = ?", borrowID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies + 1").
			Where("id = ?", record.BookID).
			Where("available_copies < total_copies").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errors.Errorf("available copies for book %d already at total", record.BookID)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, borrowID)
}

// Retrieve gets a ledger entry by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.BorrowRecord, error) {
	record := &models.BorrowRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("br.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Borrow record")
		}
		return nil, errors.WithStack(err)
	}
	return record, nil
}

// ActiveLoanCount returns the number of outstanding loans for a member.
func (s *Service) ActiveLoanCount(ctx context.Context, memberID int) (int, error) {
	count, err := s.db.NewSelect().
		Model((*models.BorrowRecord)(nil)).
		Where("member_id = ?", memberID).
		Where("returned_at IS NULL").
		Count(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return count, nil
}

// MemberHistory returns every ledger entry for a member, resolved and
// outstanding, in insertion order.
func (s *Service) MemberHistory(ctx context.Context, memberID int) ([]*models.BorrowRecord, error) {
	records := []*models.BorrowRecord{}
	err := s.db.NewSelect().
		Model(&records).
		Where("br.member_id = ?", memberID).
		Order("br.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return records, nil
}
