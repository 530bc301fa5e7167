// internal/data/models.go
package data

import (
	"database/sql"
	"errors"
)

// Sentinel errors returned by the model layer. Handlers translate these
// into HTTP status codes; everything else is treated as a 500.
var (
	// ErrRecordNotFound is returned when a query finds no matching row.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNoCopiesAvailable is returned when a borrowing is requested for a
	// book whose availableCopies counter is already zero.
	ErrNoCopiesAvailable = errors.New("no copies available")

	// ErrAlreadyReturned is returned on a second return attempt for the
	// same borrowing.
	ErrAlreadyReturned = errors.New("borrowing already returned")

	// ErrMemberInactive is returned when an inactive member tries to borrow.
	ErrMemberInactive = errors.New("member is not active")

	// ErrBorrowingActive is returned when deleting a borrowing that has not
	// been returned yet. Deleting the row would desync the availability
	// counter, so the loan must be returned first.
	ErrBorrowingActive = errors.New("borrowing has not been returned")

	// ErrBorrowingsOutstanding is returned when deleting a member or book
	// that still has non-returned borrowings.
	ErrBorrowingsOutstanding = errors.New("outstanding borrowings exist")

	// ErrDuplicateEmail and ErrDuplicateISBN map the database's unique
	// constraint violations onto the fields that caused them.
	ErrDuplicateEmail = errors.New("duplicate email")
	ErrDuplicateISBN  = errors.New("duplicate isbn")
)

// Models is a top-level container that groups all model types together.
// The fields are interfaces rather than concrete types so that handler
// tests can substitute in-memory stubs for the database-backed
// implementations.
type Models struct {
	Members interface {
		Insert(member *Member) error
		Get(id int64) (*Member, error)
		GetAll(filters Filters) ([]*Member, error)
		Update(member *Member) error
		Delete(id int64) error
	}

	Books interface {
		Insert(book *Book) error
		Get(id int64) (*Book, error)
		GetAll(filters Filters) ([]*Book, error)
		Update(book *Book) error
		Delete(id int64) error
		SearchByTitle(title string) ([]*Book, error)
		SearchByAuthor(author string) ([]*Book, error)
	}

	Borrowings interface {
		Insert(memberID, bookID int64) (*Borrowing, error)
		Get(id int64) (*Borrowing, error)
		GetAll() ([]*Borrowing, error)
		GetAllForMember(memberID int64) ([]*Borrowing, error)
		GetOverdue() ([]*Borrowing, error)
		Return(id int64) (*Borrowing, error)
		Delete(id int64) error
	}

	Dashboard interface {
		Stats() (*Stats, error)
	}
}

// NewModels constructs a Models value wired up to the given database
// connection pool. Call this once during application startup and store
// the result in applicationDependencies.
func NewModels(db *sql.DB) Models {
	return Models{
		Members:    MemberModel{DB: db},
		Books:      BookModel{DB: db},
		Borrowings: BorrowingModel{DB: db},
		Dashboard:  DashboardModel{DB: db},
	}
}
