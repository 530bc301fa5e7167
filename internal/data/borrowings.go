// internal/data/borrowings.go
//
// The borrowing lifecycle. A borrowing is BORROWED from creation until it
// is returned; OVERDUE is never stored, it is projected at read time from
// a BORROWED row whose due date has passed. Creation and return each
// mutate exactly one book's available_copies counter atomically with the
// borrowing row, inside a single transaction.
package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kmedina/libtrack/internal/validator"
)

// Status is the lifecycle state of a borrowing as reported to clients.
type Status string

const (
	StatusBorrowed Status = "BORROWED"
	StatusReturned Status = "RETURNED"
	StatusOverdue  Status = "OVERDUE" // read-time projection, never persisted
)

// LoanPeriod is how long a member may keep a book: dueDate = borrowDate + LoanPeriod.
const LoanPeriod = 14 * 24 * time.Hour

// Borrowing links one member to one book for a bounded loan period.
// MemberName and BookTitle are denormalized from the joined rows for list
// rendering and are not stored on the borrowing itself.
type Borrowing struct {
	ID         int64      `json:"id"`
	MemberID   int64      `json:"memberId"`
	BookID     int64      `json:"bookId"`
	MemberName string     `json:"memberName,omitempty"`
	BookTitle  string     `json:"bookTitle,omitempty"`
	BorrowDate time.Time  `json:"borrowDate"`
	DueDate    time.Time  `json:"dueDate"`
	ReturnDate *time.Time `json:"returnDate"`
	Status     Status     `json:"status"`
}

// SearchText returns the concatenation of the borrowing's searchable fields.
func (b *Borrowing) SearchText() string {
	return b.MemberName + " " + b.BookTitle + " " + string(b.Status)
}

// StatusAt projects the stored status to the one observed at the given
// instant: a BORROWED row past its due date reads as OVERDUE. RETURNED is
// terminal and always reads as RETURNED.
func (b *Borrowing) StatusAt(now time.Time) Status {
	if b.Status == StatusReturned {
		return StatusReturned
	}
	if now.After(b.DueDate) {
		return StatusOverdue
	}
	return StatusBorrowed
}

// ValidateBorrowingRequest checks a borrowing creation request.
func ValidateBorrowingRequest(v *validator.Validator, memberID, bookID int64) {
	v.Check(memberID > 0, "memberId", "must be provided")
	v.Check(bookID > 0, "bookId", "must be provided")
}

// BorrowingModel wraps a *sql.DB connection pool and provides the
// borrowing lifecycle operations.
type BorrowingModel struct {
	DB *sql.DB
}

// Insert creates a new borrowing for the given member and book.
//
// The whole operation runs in one transaction: the member is checked for
// existence and the active flag, then the book's counter is decremented
// with a conditional UPDATE that only matches while available_copies > 0.
// Under concurrent inserts against the same book the database serializes
// the row update, so two requests can never both claim the last copy.
//
// Returns ErrRecordNotFound if the member or book id is unknown,
// ErrMemberInactive for a deactivated member, and ErrNoCopiesAvailable
// when every copy is already on loan.
func (m BorrowingModel) Insert(memberID, bookID int64) (*Borrowing, error) {
	tx, err := m.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var active bool
	var memberName string
	err = tx.QueryRow(`
		SELECT active, first_name || ' ' || last_name
		FROM members WHERE id = $1`, memberID).Scan(&active, &memberName)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	if !active {
		return nil, ErrMemberInactive
	}

	// Conditional decrement: matches zero rows when the book is unknown or
	// has no free copies. Which of the two it was is resolved below.
	result, err := tx.Exec(`
		UPDATE books
		SET available_copies = available_copies - 1
		WHERE id = $1 AND available_copies > 0`, bookID)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		var title string
		err = tx.QueryRow(`SELECT title FROM books WHERE id = $1`, bookID).Scan(&title)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		case err != nil:
			return nil, err
		default:
			return nil, ErrNoCopiesAvailable
		}
	}

	var bookTitle string
	err = tx.QueryRow(`SELECT title FROM books WHERE id = $1`, bookID).Scan(&bookTitle)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	borrowing := &Borrowing{
		MemberID:   memberID,
		BookID:     bookID,
		MemberName: memberName,
		BookTitle:  bookTitle,
		BorrowDate: now,
		DueDate:    now.Add(LoanPeriod),
		Status:     StatusBorrowed,
	}

	err = tx.QueryRow(`
		INSERT INTO borrowings (member_id, book_id, borrow_date, due_date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		borrowing.MemberID,
		borrowing.BookID,
		borrowing.BorrowDate,
		borrowing.DueDate,
		borrowing.Status,
	).Scan(&borrowing.ID)
	if err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return borrowing, nil
}

// Return marks the borrowing as returned and hands the copy back to the
// book's availability counter, atomically. Returns ErrRecordNotFound for
// an unknown id and ErrAlreadyReturned when the borrowing is already in
// its terminal state.
func (m BorrowingModel) Return(id int64) (*Borrowing, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	tx, err := m.DB.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var status Status
	err = tx.QueryRow(`SELECT status FROM borrowings WHERE id = $1`, id).Scan(&status)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	if status == StatusReturned {
		return nil, ErrAlreadyReturned
	}

	now := time.Now().UTC()

	// The status guard in the WHERE clause makes the transition
	// idempotent-safe under concurrent return attempts: only one of them
	// flips the row.
	var bookID int64
	err = tx.QueryRow(`
		UPDATE borrowings
		SET status = 'RETURNED', return_date = $1
		WHERE id = $2 AND status = 'BORROWED'
		RETURNING book_id`, now, id).Scan(&bookID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrAlreadyReturned
		default:
			return nil, err
		}
	}

	// The upper bound mirrors the lower bound on Insert; hitting it means
	// the counter drifted from the borrowings table.
	result, err := tx.Exec(`
		UPDATE books
		SET available_copies = available_copies + 1
		WHERE id = $1 AND available_copies < total_copies`, bookID)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("availability counter out of sync for book %d", bookID)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return m.Get(id)
}

// borrowingColumns is the joined SELECT list shared by the read queries.
const borrowingColumns = `
	b.id, b.member_id, b.book_id,
	m.first_name || ' ' || m.last_name,
	k.title,
	b.borrow_date, b.due_date, b.return_date, b.status
	FROM borrowings b
	JOIN members m ON m.id = b.member_id
	JOIN books k ON k.id = b.book_id`

// Get retrieves a single borrowing by its primary key, with the member
// name and book title joined in and the status projected to the current
// instant.
func (m BorrowingModel) Get(id int64) (*Borrowing, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `SELECT ` + borrowingColumns + ` WHERE b.id = $1`

	row := m.DB.QueryRow(query, id)

	borrowing, err := scanBorrowing(row)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return borrowing, nil
}

// GetAll retrieves every borrowing, newest first.
func (m BorrowingModel) GetAll() ([]*Borrowing, error) {
	query := `SELECT ` + borrowingColumns + ` ORDER BY b.borrow_date DESC, b.id DESC`
	return m.queryBorrowings(query)
}

// GetAllForMember retrieves every borrowing belonging to one member,
// newest first.
func (m BorrowingModel) GetAllForMember(memberID int64) ([]*Borrowing, error) {
	query := `SELECT ` + borrowingColumns + `
		WHERE b.member_id = $1
		ORDER BY b.borrow_date DESC, b.id DESC`
	return m.queryBorrowings(query, memberID)
}

// GetOverdue retrieves the borrowings that are overdue right now: stored
// as BORROWED with a due date in the past. The same projection StatusAt
// applies at scan time, so every returned record reads as OVERDUE.
func (m BorrowingModel) GetOverdue() ([]*Borrowing, error) {
	query := `SELECT ` + borrowingColumns + `
		WHERE b.status = 'BORROWED' AND b.due_date < now()
		ORDER BY b.due_date ASC, b.id ASC`
	return m.queryBorrowings(query)
}

// Delete removes a returned borrowing from the history. A non-returned
// borrowing cannot be deleted: dropping the row without the return
// transition would leave the book's counter permanently low.
func (m BorrowingModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	result, err := m.DB.Exec(`
		DELETE FROM borrowings
		WHERE id = $1 AND status = 'RETURNED'`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		// Either the id is unknown or the row is still BORROWED.
		var status Status
		err = m.DB.QueryRow(`SELECT status FROM borrowings WHERE id = $1`, id).Scan(&status)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		case err != nil:
			return err
		default:
			return ErrBorrowingActive
		}
	}
	return nil
}

// scanTarget is satisfied by both *sql.Row and *sql.Rows.
type scanTarget interface {
	Scan(dest ...any) error
}

// scanBorrowing scans one joined borrowing row and applies the overdue
// projection.
func scanBorrowing(row scanTarget) (*Borrowing, error) {
	var borrowing Borrowing
	var returnDate sql.NullTime

	err := row.Scan(
		&borrowing.ID,
		&borrowing.MemberID,
		&borrowing.BookID,
		&borrowing.MemberName,
		&borrowing.BookTitle,
		&borrowing.BorrowDate,
		&borrowing.DueDate,
		&returnDate,
		&borrowing.Status,
	)
	if err != nil {
		return nil, err
	}

	if returnDate.Valid {
		borrowing.ReturnDate = &returnDate.Time
	}
	borrowing.Status = borrowing.StatusAt(time.Now())
	return &borrowing, nil
}

// queryBorrowings runs a SELECT over the joined borrowing view and scans
// the result set into a slice.
func (m BorrowingModel) queryBorrowings(query string, args ...any) ([]*Borrowing, error) {
	rows, err := m.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	borrowings := []*Borrowing{}
	for rows.Next() {
		borrowing, err := scanBorrowing(rows)
		if err != nil {
			return nil, err
		}
		borrowings = append(borrowings, borrowing)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return borrowings, nil
}
