// internal/data/dashboard.go
package data

import "database/sql"

// Stats carries the aggregate counts shown on the dashboard. Active and
// overdue borrowings are split the same way every read path splits them:
// a BORROWED row past its due date counts as overdue, not active.
type Stats struct {
	TotalMembers      int `json:"totalMembers"`
	ActiveMembers     int `json:"activeMembers"`
	TotalBooks        int `json:"totalBooks"`
	TotalCopies       int `json:"totalCopies"`
	AvailableCopies   int `json:"availableCopies"`
	ActiveBorrowings  int `json:"activeBorrowings"`
	OverdueBorrowings int `json:"overdueBorrowings"`
}

// DashboardModel computes the aggregate counts for the dashboard view.
type DashboardModel struct {
	DB *sql.DB
}

// Stats gathers all counts in a single round-trip.
func (m DashboardModel) Stats() (*Stats, error) {
	query := `
		SELECT
			(SELECT count(*) FROM members),
			(SELECT count(*) FROM members WHERE active),
			(SELECT count(*) FROM books),
			(SELECT coalesce(sum(total_copies), 0) FROM books),
			(SELECT coalesce(sum(available_copies), 0) FROM books),
			(SELECT count(*) FROM borrowings WHERE status = 'BORROWED' AND due_date >= now()),
			(SELECT count(*) FROM borrowings WHERE status = 'BORROWED' AND due_date < now())`

	var stats Stats
	err := m.DB.QueryRow(query).Scan(
		&stats.TotalMembers,
		&stats.ActiveMembers,
		&stats.TotalBooks,
		&stats.TotalCopies,
		&stats.AvailableCopies,
		&stats.ActiveBorrowings,
		&stats.OverdueBorrowings,
	)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
