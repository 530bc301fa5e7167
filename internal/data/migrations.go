// internal/data/migrations.go
package data

import "database/sql"

// Migrate applies the schema on startup. Statements are idempotent so the
// call is safe on every boot.
//
// The CHECK constraints on books are the database-level backstop for the
// copy-count invariant 0 <= available_copies <= total_copies; the model
// layer is written so they never fire. Borrowings cascade on member/book
// deletion, which is only reachable after the model layer has verified no
// non-returned borrowings remain.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS members (
			id bigserial PRIMARY KEY,
			first_name text NOT NULL,
			last_name text NOT NULL,
			email text UNIQUE NOT NULL,
			phone text NOT NULL DEFAULT '',
			address text NOT NULL DEFAULT '',
			active boolean NOT NULL DEFAULT true,
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS books (
			id bigserial PRIMARY KEY,
			title text NOT NULL,
			author text NOT NULL,
			isbn text UNIQUE NOT NULL,
			publisher text NOT NULL DEFAULT '',
			publication_year integer NOT NULL,
			genre text NOT NULL DEFAULT '',
			total_copies integer NOT NULL CHECK (total_copies >= 1),
			available_copies integer NOT NULL CHECK (available_copies >= 0 AND available_copies <= total_copies),
			created_at timestamptz NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS borrowings (
			id bigserial PRIMARY KEY,
			member_id bigint NOT NULL REFERENCES members(id) ON DELETE CASCADE,
			book_id bigint NOT NULL REFERENCES books(id) ON DELETE CASCADE,
			borrow_date timestamptz NOT NULL,
			due_date timestamptz NOT NULL,
			return_date timestamptz,
			status text NOT NULL DEFAULT 'BORROWED' CHECK (status IN ('BORROWED', 'RETURNED'))
		)`,
		`CREATE INDEX IF NOT EXISTS borrowings_member_id_idx ON borrowings (member_id)`,
		`CREATE INDEX IF NOT EXISTS borrowings_book_id_idx ON borrowings (book_id)`,
		`CREATE INDEX IF NOT EXISTS borrowings_due_date_idx ON borrowings (due_date) WHERE status = 'BORROWED'`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
