package books

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/kasho/pkg/errcodes"
	"github.com/shishobooks/kasho/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles catalog operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new books service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateBookOptions contains options for adding a book to the catalog.
type CreateBookOptions struct {
	Title       string
	Author      string
	ISBN        string
	TotalCopies int
}

// Create adds a book to the catalog. Every copy starts available.
func (s *Service) Create(ctx context.Context, opts CreateBookOptions) (*models.Book, error) {
	exists, err := s.db.NewSelect().
		Model((*models.Book)(nil)).
		Where("isbn = ?", opts.ISBN).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.Conflict("ISBN already registered.")
	}

	book := &models.Book{
		CreatedAt:       time.Now(),
		Title:           opts.Title,
		Author:          opts.Author,
		ISBN:            opts.ISBN,
		TotalCopies:     opts.TotalCopies,
		AvailableCopies: opts.TotalCopies,
	}
	_, err = s.db.NewInsert().Model(book).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.Retrieve(ctx, book.ID)
}

// Retrieve gets a book by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Book, error) {
	book := &models.Book{}
	err := s.db.NewSelect().
		Model(book).
		Where("b.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}
	return book, nil
}

// ListOptions contains options for listing books.
type ListOptions struct {
	Author        string
	Title         string
	AvailableOnly bool
	Limit         int
	Offset        int
}

// List returns books matching the given filters. Author and title are
// case-insensitive substring matches.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}

	query := s.db.NewSelect().
		Model(&books).
		Order("b.id ASC")

	if opts.Author != "" {
		query = query.Where("b.author LIKE ? COLLATE NOCASE", "%"+opts.Author+"%")
	}
	if opts.Title != "" {
		query = query.Where("b.title LIKE ? COLLATE NOCASE", "%"+opts.Title+"%")
	}
	if opts.AvailableOnly {
		query = query.Where("b.available_copies > 0")
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return books, total, nil
}

// UpdateOptions contains the patched fields for a book.
type UpdateOptions struct {
	Title       *string
	Author      *string
	ISBN        *string
	TotalCopies *int
}

// Update patches a book. Shrinking total_copies below the number of copies on
// loan is rejected; otherwise available_copies is recomputed so the on-loan
// count is preserved. The check and both counter writes share one
// transaction.
func (s *Service) Update(ctx context.Context, id int, opts UpdateOptions) (*models.Book, error) {
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		book := &models.Book{}
		err := tx.NewSelect().
			Model(book).
			Where("b.id = ?", id).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		columns := []string{}

		if opts.Title != nil {
			book.Title = *opts.Title
			columns = append(columns, "title")
		}
		if opts.Author != nil {
			book.Author = *opts.Author
			columns = append(columns, "author")
		}
		if opts.ISBN != nil && *opts.ISBN != book.ISBN {
			exists, err := tx.NewSelect().
				Model((*models.Book)(nil)).
				Where("isbn = ?", *opts.ISBN).
				Where("id != ?", id).
				Exists(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			if exists {
				return errcodes.Conflict("ISBN already registered.")
			}
			book.ISBN = *opts.ISBN
			columns = append(columns, "isbn")
		}
		if opts.TotalCopies != nil {
			borrowed := book.CopiesOnLoan()
			if *opts.TotalCopies < borrowed {
				return errcodes.ConstraintViolation("Cannot reduce total copies below borrowed amount.")
			}
			book.TotalCopies = *opts.TotalCopies
			book.AvailableCopies = *opts.TotalCopies - borrowed
			columns = append(columns, "total_copies", "available_copies")
		}

		if len(columns) == 0 {
			return nil
		}

		_, err = tx.NewUpdate().
			Model(book).
			Column(columns...).
			WherePK().
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return s.Retrieve(ctx, id)
}

// Delete removes a book from the catalog. A book with outstanding loans
// cannot be removed; the ledger would otherwise reference an orphan and a
// later return would increment a deleted row.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Book")
		}

		outstanding, err := tx.NewSelect().
			Model((*models.BorrowRecord)(nil)).
			Where("book_id = ?", id).
			Where("returned_at IS NULL").
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if outstanding > 0 {
			return errcodes.Conflict("Book has copies on loan.")
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
