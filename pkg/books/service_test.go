package books

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shishobooks/kasho/pkg/errcodes"
	"github.com/shishobooks/kasho/pkg/migrations"
	"github.com/shishobooks/kasho/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	// A second pool connection would see its own empty :memory: database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createTestMember(t *testing.T, db *bun.DB, email string) *models.Member {
	t.Helper()

	member := &models.Member{
		FullName: "Test Member",
		Email:    email,
	}
	_, err := db.NewInsert().Model(member).Exec(context.Background())
	require.NoError(t, err)
	return member
}

// borrowCopy simulates an outstanding loan: it inserts a ledger row and
// decrements the counter, the way the borrowing service would.
func borrowCopy(t *testing.T, db *bun.DB, book *models.Book, memberID int) {
	t.Helper()
	ctx := context.Background()

	now := time.Now()
	record := &models.BorrowRecord{
		BookID:     book.ID,
		MemberID:   memberID,
		BorrowedAt: now,
		DueDate:    now.Add(14 * 24 * time.Hour),
	}
	_, err := db.NewInsert().Model(record).Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewUpdate().
		Model((*models.Book)(nil)).
		Set("available_copies = available_copies - 1").
		Where("id = ?", book.ID).
		Exec(ctx)
	require.NoError(t, err)
}

func TestCreate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	book, err := svc.Create(ctx, CreateBookOptions{
		Title:       "The Dispossessed",
		Author:      "Ursula K. Le Guin",
		ISBN:        "978-0060512750",
		TotalCopies: 4,
	})
	require.NoError(t, err)

	assert.NotZero(t, book.ID)
	assert.Equal(t, "The Dispossessed", book.Title)
	assert.Equal(t, 4, book.TotalCopies)
	assert.Equal(t, 4, book.AvailableCopies)
	assert.False(t, book.CreatedAt.IsZero())
}

func TestCreateDuplicateISBN(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	_, err := svc.Create(ctx, CreateBookOptions{
		Title:       "First Printing",
		Author:      "A. Author",
		ISBN:        "isbn-dup",
		TotalCopies: 1,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateBookOptions{
		Title:       "Second Printing",
		Author:      "B. Author",
		ISBN:        "isbn-dup",
		TotalCopies: 1,
	})
	assert.ErrorIs(t, err, errcodes.Conflict("ISBN already registered."))
}

func TestRetrieveMissing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	_, err := svc.Retrieve(context.Background(), 9999)
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	seed := []CreateBookOptions{
		{Title: "A Wizard of Earthsea", Author: "Ursula K. Le Guin", ISBN: "isbn-1", TotalCopies: 2},
		{Title: "The Tombs of Atuan", Author: "Ursula K. Le Guin", ISBN: "isbn-2", TotalCopies: 1},
		{Title: "Dune", Author: "Frank Herbert", ISBN: "isbn-3", TotalCopies: 3},
	}
	for _, opts := range seed {
		_, err := svc.Create(ctx, opts)
		require.NoError(t, err)
	}

	books, total, err := svc.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, books, 3)
	// Insertion order.
	assert.Equal(t, "A Wizard of Earthsea", books[0].Title)

	books, total, err = svc.List(ctx, ListOptions{Author: "le guin"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, books, 2)

	books, total, err = svc.List(ctx, ListOptions{Title: "tombs"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "The Tombs of Atuan", books[0].Title)

	books, _, err = svc.List(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, books, 2)

	books, _, err = svc.List(ctx, ListOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Dune", books[0].Title)
}

func TestListAvailableOnly(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	exhausted, err := svc.Create(ctx, CreateBookOptions{
		Title: "Out of Stock", Author: "A. Author", ISBN: "isbn-out", TotalCopies: 1,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateBookOptions{
		Title: "In Stock", Author: "A. Author", ISBN: "isbn-in", TotalCopies: 1,
	})
	require.NoError(t, err)

	member := createTestMember(t, db, "reader@example.com")
	borrowCopy(t, db, exhausted, member.ID)

	books, total, err := svc.List(ctx, ListOptions{AvailableOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, books, 1)
	assert.Equal(t, "In Stock", books[0].Title)
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	book, err := svc.Create(ctx, CreateBookOptions{
		Title: "Untitled", Author: "Anon", ISBN: "isbn-upd", TotalCopies: 2,
	})
	require.NoError(t, err)

	title := "Titled"
	updated, err := svc.Update(ctx, book.ID, UpdateOptions{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Titled", updated.Title)
	assert.Equal(t, "Anon", updated.Author)
	assert.Equal(t, 2, updated.AvailableCopies)
}

func TestUpdateTotalCopiesRecomputesAvailable(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	book, err := svc.Create(ctx, CreateBookOptions{
		Title: "Popular", Author: "Anon", ISBN: "isbn-pop", TotalCopies: 5,
	})
	require.NoError(t, err)

	member := createTestMember(t, db, "reader@example.com")
	borrowCopy(t, db, book, member.ID)
	borrowCopy(t, db, book, member.ID)

	// Grow the stock: the two copies on loan stay on loan.
	total := 8
	updated, err := svc.Update(ctx, book.ID, UpdateOptions{TotalCopies: &total})
	require.NoError(t, err)
	assert.Equal(t, 8, updated.TotalCopies)
	assert.Equal(t, 6, updated.AvailableCopies)

	// Shrink down to exactly the borrowed count: nothing left on the shelf.
	total = 2
	updated, err = svc.Update(ctx, book.ID, UpdateOptions{TotalCopies: &total})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.TotalCopies)
	assert.Equal(t, 0, updated.AvailableCopies)
}

func TestUpdateTotalCopiesBelowBorrowed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	book, err := svc.Create(ctx, CreateBookOptions{
		Title: "Popular", Author: "Anon", ISBN: "isbn-pop2", TotalCopies: 3,
	})
	require.NoError(t, err)

	member := createTestMember(t, db, "reader@example.com")
	borrowCopy(t, db, book, member.ID)
	borrowCopy(t, db, book, member.ID)

	total := 1
	_, err = svc.Update(ctx, book.ID, UpdateOptions{TotalCopies: &total})
	assert.ErrorIs(t, err, errcodes.ConstraintViolation("Cannot reduce total copies below borrowed amount."))

	// The rejected patch must not have touched the row.
	current, err := svc.Retrieve(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.TotalCopies)
	assert.Equal(t, 1, current.AvailableCopies)
}

func TestUpdateDuplicateISBN(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	_, err := svc.Create(ctx, CreateBookOptions{
		Title: "First", Author: "Anon", ISBN: "isbn-a", TotalCopies: 1,
	})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateBookOptions{
		Title: "Second", Author: "Anon", ISBN: "isbn-b", TotalCopies: 1,
	})
	require.NoError(t, err)

	isbn := "isbn-a"
	_, err = svc.Update(ctx, second.ID, UpdateOptions{ISBN: &isbn})
	assert.ErrorIs(t, err, errcodes.Conflict("ISBN already registered."))

	// Re-submitting a book's own ISBN is a no-op, not a conflict.
	isbn = "isbn-b"
	_, err = svc.Update(ctx, second.ID, UpdateOptions{ISBN: &isbn})
	assert.NoError(t, err)
}

func TestUpdateMissing(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	title := "Ghost"
	_, err := svc.Update(context.Background(), 9999, UpdateOptions{Title: &title})
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	book, err := svc.Create(ctx, CreateBookOptions{
		Title: "Ephemeral", Author: "Anon", ISBN: "isbn-del", TotalCopies: 1,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, book.ID)
	require.NoError(t, err)

	_, err = svc.Retrieve(ctx, book.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))

	err = svc.Delete(ctx, book.ID)
	assert.ErrorIs(t, err, errcodes.NotFound("Book"))
}

func TestDeleteWithOutstandingLoan(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	svc := NewService(db)

	book, err := svc.Create(ctx, CreateBookOptions{
		Title: "On Loan", Author: "Anon", ISBN: "isbn-loan", TotalCopies: 1,
	})
	require.NoError(t, err)

	member := createTestMember(t, db, "reader@example.com")
	borrowCopy(t, db, book, member.ID)

	err = svc.Delete(ctx, book.ID)
	assert.ErrorIs(t, err, errcodes.Conflict("Book has copies on loan."))

	_, err = svc.Retrieve(ctx, book.ID)
	assert.NoError(t, err)
}

func TestRetrieveStoreFailure(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	require.NoError(t, db.Close())

	_, err := svc.Retrieve(context.Background(), 1)
	require.Error(t, err)

	// A broken store is an internal failure, not a missing book.
	var e *errcodes.Error
	assert.False(t, errors.As(err, &e))
}
