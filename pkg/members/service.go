package members

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/kasho/pkg/errcodes"
	"github.com/shishobooks/kasho/pkg/models"
	"github.com/uptrace/bun"
)

// Service handles member registry operations.
type Service struct {
	db *bun.DB
}

// NewService creates a new members service.
func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

// CreateMemberOptions contains options for registering a member.
type CreateMemberOptions struct {
	FullName string
	Email    string
}

// Create registers a new member.
func (s *Service) Create(ctx context.Context, opts CreateMemberOptions) (*models.Member, error) {
	exists, err := s.db.NewSelect().
		Model((*models.Member)(nil)).
		Where("email = ? COLLATE NOCASE", opts.Email).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if exists {
		return nil, errcodes.Conflict("Email already registered.")
	}

	member := &models.Member{
		CreatedAt: time.Now(),
		FullName:  opts.FullName,
		Email:     opts.Email,
	}
	_, err = s.db.NewInsert().Model(member).Exec(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return s.Retrieve(ctx, member.ID)
}

// Retrieve gets a member by ID.
func (s *Service) Retrieve(ctx context.Context, id int) (*models.Member, error) {
	member := &models.Member{}
	err := s.db.NewSelect().
		Model(member).
		Where("m.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Member")
		}
		return nil, errors.WithStack(err)
	}
	return member, nil
}

// ListOptions contains options for listing members.
type ListOptions struct {
	Limit  int
	Offset int
}

// List returns a paginated list of members.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]*models.Member, int, error) {
	members := []*models.Member{}

	query := s.db.NewSelect().
		Model(&members).
		Order("m.id ASC")

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

	return members, total, nil
}

// Delete removes a member. A member with outstanding loans cannot be
// removed; their ledger entries would be orphaned with copies still out.
func (s *Service) Delete(ctx context.Context, id int) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Member)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Member")
		}

		outstanding, err := tx.NewSelect().
			Model((*models.BorrowRecord)(nil)).
			Where("member_id = ?", id).
			Where("returned_at IS NULL").
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if outstanding > 0 {
			return errcodes.Conflict("Member has books on loan.")
		}

		_, err = tx.NewDelete().
			Model((*models.Member)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
