// Package data provides the domain model and database interaction logic
// for the library lending service: members, books, borrowings, and the
// dashboard aggregates.
package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kmedina/libtrack/internal/validator"

	"github.com/lib/pq"
)

// Member represents a registered library member.
type Member struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchText returns the concatenation of the member's searchable fields,
// used by the free-text list filter.
func (m *Member) SearchText() string {
	return m.FirstName + " " + m.LastName + " " + m.Email
}

// ValidateMember checks the fields a client must supply when creating or
// updating a member and records any failures on v.
func ValidateMember(v *validator.Validator, member *Member) {
	v.Check(member.FirstName != "", "firstName", "must be provided")
	v.Check(len(member.FirstName) <= 100, "firstName", "must not be more than 100 characters long")
	v.Check(member.LastName != "", "lastName", "must be provided")
	v.Check(len(member.LastName) <= 100, "lastName", "must not be more than 100 characters long")
	v.Check(member.Email != "", "email", "must be provided")
	v.Check(validator.Matches(member.Email, validator.EmailRX), "email", "must be a valid email address")
}

// MemberModel wraps a *sql.DB connection pool and provides methods for
// creating, reading, updating, and deleting member records.
type MemberModel struct {
	DB *sql.DB
}

// Insert adds a new member record. The database-assigned id and createdAt
// are written back into the struct. Returns ErrDuplicateEmail if the email
// is already registered.
func (m MemberModel) Insert(member *Member) error {
	query := `
		INSERT INTO members (first_name, last_name, email, phone, address, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	args := []any{member.FirstName, member.LastName, member.Email, member.Phone, member.Address, member.Active}

	err := m.DB.QueryRow(query, args...).Scan(&member.ID, &member.CreatedAt)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// Get retrieves a single member by its primary key.
// Returns ErrRecordNotFound if no member with the given id exists.
func (m MemberModel) Get(id int64) (*Member, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT id, first_name, last_name, email, phone, address, active, created_at
		FROM members
		WHERE id = $1`

	var member Member
	err := m.DB.QueryRow(query, id).Scan(
		&member.ID,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&member.Phone,
		&member.Address,
		&member.Active,
		&member.CreatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &member, nil
}

// GetAll retrieves every member, sorted per filters.
func (m MemberModel) GetAll(filters Filters) ([]*Member, error) {
	// Build the query using the validated sort column and direction.
	query := fmt.Sprintf(`
		SELECT id, first_name, last_name, email, phone, address, active, created_at
		FROM members
		ORDER BY %s %s, id ASC`, filters.sortColumn(), filters.sortDirection())

	rows, err := m.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []*Member{}
	for rows.Next() {
		var member Member
		err := rows.Scan(
			&member.ID,
			&member.FirstName,
			&member.LastName,
			&member.Email,
			&member.Phone,
			&member.Address,
			&member.Active,
			&member.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		members = append(members, &member)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// Update saves the modified fields of member back to the database.
// Returns ErrRecordNotFound if the member no longer exists and
// ErrDuplicateEmail if the new email collides with another member's.
func (m MemberModel) Update(member *Member) error {
	query := `
		UPDATE members
		SET first_name = $1, last_name = $2, email = $3, phone = $4, address = $5, active = $6
		WHERE id = $7
		RETURNING id`

	args := []any{
		member.FirstName,
		member.LastName,
		member.Email,
		member.Phone,
		member.Address,
		member.Active,
		member.ID,
	}

	err := m.DB.QueryRow(query, args...).Scan(&member.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return ErrRecordNotFound
		default:
			return translateUniqueViolation(err)
		}
	}
	return nil
}

// Delete removes the member with the given id. The member must have no
// non-returned borrowings; returned history rows are removed alongside via
// ON DELETE CASCADE. The outstanding-loan check and the delete run in one
// transaction so a concurrent borrowing cannot slip between them.
func (m MemberModel) Delete(id int64) error {
	if id < 1 {
		return ErrRecordNotFound
	}

	tx, err := m.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var outstanding int
	err = tx.QueryRow(`
		SELECT count(*) FROM borrowings
		WHERE member_id = $1 AND status = 'BORROWED'`, id).Scan(&outstanding)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return ErrBorrowingsOutstanding
	}

	result, err := tx.Exec(`DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}

	return tx.Commit()
}

// translateUniqueViolation maps PostgreSQL unique-constraint violations
// onto the sentinel error for the offending column. Any other error is
// passed through unchanged.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "members_email_key":
			return ErrDuplicateEmail
		case "books_isbn_key":
			return ErrDuplicateISBN
		}
	}
	return err
}
