// internal/data/books.go
package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kmedina/libtrack/internal/validator"
)

// Book represents a single title held by the library. AvailableCopies is a
// derived quantity: total copies minus the number of non-returned
// borrowings referencing this book. It is set directly only at creation or
// as a bulk correction; the borrowing workflow otherwise owns it.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Publisher       string    `json:"publisher,omitempty"`
	PublicationYear int       `json:"publicationYear"`
	Genre           string    `json:"genre,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SearchText returns the concatenation of the book's searchable fields.
func (b *Book) SearchText() string {
	return b.Title + " " + b.Author + " " + b.ISBN + " " + b.Genre
}

// ValidateBook checks the fields a client must supply when creating or
// updating a book, including the copy-count invariant
// 0 <= availableCopies <= totalCopies.
func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(book.Title != "", "title", "must be provided")
	v.Check(len(book.Title) <= 500, "title", "must not be more than 500 characters long")
	v.Check(book.Author != "", "author", "must be provided")
	v.Check(book.ISBN != "", "isbn", "must be provided")
	v.Check(book.PublicationYear >= 1450, "publicationYear", "must be 1450 or later")
	v.Check(book.PublicationYear <= time.Now().Year(), "publicationYear", "must not be in the future")
	v.Check(book.TotalCopies >= 1, "totalCopies", "must be at least 1")
	v.Check(book.AvailableCopies >= 0, "availableCopies", "must not be negative")
	v.Check(book.AvailableCopies <= book.TotalCopies, "availableCopies", "must not exceed totalCopies")
}

// BookModel wraps a *sql.DB connection pool and provides methods for
// creating, reading, updating, deleting, and searching book records.
type BookModel struct {
	DB *sql.DB
}

// bookColumns is the SELECT list shared by every read query in this file.
const bookColumns = `id, title, author, isbn, publisher, publication_year, genre, total_copies, available_copies, created_at`

// Insert adds a new book record. The database-assigned id and createdAt
// are written back into the struct. Returns ErrDuplicateISBN if a book
// with the same ISBN already exists.
func (m BookModel) Insert(book *Book) error {
	query := `
		INSERT INTO books (title, author, isbn, publisher, publication_year, genre, total_copies, available_copies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	args := []any{
		book.Title,
		book.Author,
		book.ISBN,
		book.Publisher,
		book.PublicationYear,
		book.Genre,
		book.TotalCopies,
		book.AvailableCopies,
	}

	err := m.DB.QueryRow(query, args...).Scan(&book.ID, &book.CreatedAt)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// Get retrieves a single book by its primary key.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	var book Book
	err := m.DB.QueryRow(query, id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.ISBN,
		&book.Publisher,
		&book.PublicationYear,
		&book.Genre,
		&book.TotalCopies,
		&book.AvailableCopies,
		&book.CreatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}

// GetAll retrieves every book, sorted per filters.
func (m BookModel) GetAll(filters Filters) ([]*Book, error) {
	query := fmt.Sprintf(`
		SELECT `+bookColumns+`
		FROM books
		ORDER BY %s %s, id ASC`, filters.sortColumn(), filters.sortDirection())

	return m.queryBooks(query)
}

// SearchByTitle returns the books whose title contains the given text,
// case-insensitively.
func (m BookModel) SearchByTitle(title string) ([]*Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE title ILIKE '%' || $1 || '%'
		ORDER BY title ASC, id ASC`

	return m.queryBooks(query, title)
}

// SearchByAuthor returns the books whose author contains the given text,
// case-insensitively.
func (m BookModel) SearchByAuthor(author string) ([]*Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE author ILIKE '%' || $1 || '%'
		ORDER BY author ASC, title ASC, id ASC`

	return m.queryBooks(query, author)
}

// queryBooks runs a SELECT over the books table and scans the result set
// into a slice.
func (m BookModel) queryBooks(query string, args ...any) ([]*Book, error) {
	rows, err := m.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var book Book
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.ISBN,
			&book.Publisher,
			&book.PublicationYear,
			&book.Genre,
			&book.TotalCopies,
			&book.AvailableCopies,
			&book.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		books = append(books, &book)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// Update saves the modified fields of book back to the database.
// Returns ErrRecordNotFound if the book no longer exists and
// ErrDuplicateISBN on an ISBN collision.
func (m BookModel) Update(book *Book) error {
	query := `
		UPDATE books
		SET title = $1, author = $2, isbn = $3, publisher = $4, publication_year = $5,
		    genre = $6, total_copies = $7, available_copies = $8
		WHERE id = $9
		RETURNING id`

	args := []any{
		book.Title,
		book.Author,
		book.ISBN,
		book.Publisher,
		book.PublicationYear,
		book.Genre,
		book.TotalCopies,
		book.AvailableCopies,
		book.ID,
	}

	err := m.DB.QueryRow(query, args...).Scan(&book.ID)
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

// Delete removes the book with the given id. The book must have no
// non-returned borrowings referencing it; returned history rows cascade.
// Check and delete share a transaction for the same reason as
// MemberModel.Delete.
func (m BookModel) Delete(id int64) error {
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
		WHERE book_id = $1 AND status = 'BORROWED'`, id).Scan(&outstanding)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return ErrBorrowingsOutstanding
	}

	result, err := tx.Exec(`DELETE FROM books WHERE id = $1`, id)
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
