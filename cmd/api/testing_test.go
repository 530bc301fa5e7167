package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kmedina/libtrack/internal/data"
)

// stubStore is an in-memory stand-in for the database-backed models. It
// implements the same semantics the SQL layer enforces — the availability
// guard, the return transition, the outstanding-borrowing delete checks —
// so handler tests exercise the full request/response cycle.
type stubStore struct {
	mu         sync.Mutex
	seq        int64
	members    map[int64]*data.Member
	books      map[int64]*data.Book
	borrowings map[int64]*data.Borrowing
}

func newStubStore() *stubStore {
	return &stubStore{
		members:    make(map[int64]*data.Member),
		books:      make(map[int64]*data.Book),
		borrowings: make(map[int64]*data.Borrowing),
	}
}

func (s *stubStore) nextID() int64 {
	s.seq++
	return s.seq
}

// newTestApplication builds an application wired to a fresh stubStore,
// with logging discarded and the rate limiter off.
func newTestApplication(t *testing.T) (*applicationDependencies, *stubStore) {
	t.Helper()

	store := newStubStore()

	var settings serverConfig
	settings.environment = "test"
	settings.limiter.enabled = false
	settings.cors.trustedOrigins = []string{"http://localhost:3000"}

	app := &applicationDependencies{
		config: settings,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		models: data.Models{
			Members:    stubMembers{store},
			Books:      stubBooks{store},
			Borrowings: stubBorrowings{store},
			Dashboard:  stubDashboard{store},
		},
	}
	return app, store
}

// do routes a request through the full middleware chain and returns the
// recorded response.
func do(t *testing.T, app *applicationDependencies, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(js)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	app.routes().ServeHTTP(rec, req)
	return rec
}

// decode unmarshals a recorded JSON response body into dst.
func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
	}
}

// ---------------------------------------------------------------------------
// Members stub
// ---------------------------------------------------------------------------

type stubMembers struct{ s *stubStore }

func (m stubMembers) Insert(member *data.Member) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.members {
		if strings.EqualFold(existing.Email, member.Email) {
			return data.ErrDuplicateEmail
		}
	}
	member.ID = m.s.nextID()
	member.CreatedAt = time.Now().UTC()
	m.s.members[member.ID] = member
	return nil
}

func (m stubMembers) Get(id int64) (*data.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	member, ok := m.s.members[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	clone := *member
	return &clone, nil
}

func (m stubMembers) GetAll(filters data.Filters) ([]*data.Member, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	members := []*data.Member{}
	for _, member := range m.s.members {
		clone := *member
		members = append(members, &clone)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members, nil
}

func (m stubMembers) Update(member *data.Member) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.members[member.ID]; !ok {
		return data.ErrRecordNotFound
	}
	for id, existing := range m.s.members {
		if id != member.ID && strings.EqualFold(existing.Email, member.Email) {
			return data.ErrDuplicateEmail
		}
	}
	clone := *member
	m.s.members[member.ID] = &clone
	return nil
}

func (m stubMembers) Delete(id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.members[id]; !ok {
		return data.ErrRecordNotFound
	}
	for _, b := range m.s.borrowings {
		if b.MemberID == id && b.Status != data.StatusReturned {
			return data.ErrBorrowingsOutstanding
		}
	}
	delete(m.s.members, id)
	return nil
}

// ---------------------------------------------------------------------------
// Books stub
// ---------------------------------------------------------------------------

type stubBooks struct{ s *stubStore }

func (m stubBooks) Insert(book *data.Book) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, existing := range m.s.books {
		if existing.ISBN == book.ISBN {
			return data.ErrDuplicateISBN
		}
	}
	book.ID = m.s.nextID()
	book.CreatedAt = time.Now().UTC()
	m.s.books[book.ID] = book
	return nil
}

func (m stubBooks) Get(id int64) (*data.Book, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	book, ok := m.s.books[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	clone := *book
	return &clone, nil
}

func (m stubBooks) GetAll(filters data.Filters) ([]*data.Book, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	books := []*data.Book{}
	for _, book := range m.s.books {
		clone := *book
		books = append(books, &clone)
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

func (m stubBooks) Update(book *data.Book) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.books[book.ID]; !ok {
		return data.ErrRecordNotFound
	}
	for id, existing := range m.s.books {
		if id != book.ID && existing.ISBN == book.ISBN {
			return data.ErrDuplicateISBN
		}
	}
	clone := *book
	m.s.books[book.ID] = &clone
	return nil
}

func (m stubBooks) Delete(id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if _, ok := m.s.books[id]; !ok {
		return data.ErrRecordNotFound
	}
	for _, b := range m.s.borrowings {
		if b.BookID == id && b.Status != data.StatusReturned {
			return data.ErrBorrowingsOutstanding
		}
	}
	delete(m.s.books, id)
	return nil
}

func (m stubBooks) SearchByTitle(title string) ([]*data.Book, error) {
	return m.search(func(b *data.Book) string { return b.Title }, title)
}

func (m stubBooks) SearchByAuthor(author string) ([]*data.Book, error) {
	return m.search(func(b *data.Book) string { return b.Author }, author)
}

func (m stubBooks) search(field func(*data.Book) string, q string) ([]*data.Book, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	books := []*data.Book{}
	for _, book := range m.s.books {
		if strings.Contains(strings.ToLower(field(book)), strings.ToLower(q)) {
			clone := *book
			books = append(books, &clone)
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID < books[j].ID })
	return books, nil
}

// ---------------------------------------------------------------------------
// Borrowings stub
// ---------------------------------------------------------------------------

type stubBorrowings struct{ s *stubStore }

func (m stubBorrowings) Insert(memberID, bookID int64) (*data.Borrowing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	member, ok := m.s.members[memberID]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	if !member.Active {
		return nil, data.ErrMemberInactive
	}

	book, ok := m.s.books[bookID]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	if book.AvailableCopies <= 0 {
		return nil, data.ErrNoCopiesAvailable
	}
	book.AvailableCopies--

	now := time.Now().UTC()
	borrowing := &data.Borrowing{
		ID:         m.s.nextID(),
		MemberID:   memberID,
		BookID:     bookID,
		MemberName: member.FirstName + " " + member.LastName,
		BookTitle:  book.Title,
		BorrowDate: now,
		DueDate:    now.Add(data.LoanPeriod),
		Status:     data.StatusBorrowed,
	}
	m.s.borrowings[borrowing.ID] = borrowing

	clone := *borrowing
	return &clone, nil
}

func (m stubBorrowings) Return(id int64) (*data.Borrowing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	borrowing, ok := m.s.borrowings[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	if borrowing.Status == data.StatusReturned {
		return nil, data.ErrAlreadyReturned
	}

	now := time.Now().UTC()
	borrowing.Status = data.StatusReturned
	borrowing.ReturnDate = &now

	if book, ok := m.s.books[borrowing.BookID]; ok && book.AvailableCopies < book.TotalCopies {
		book.AvailableCopies++
	}

	return m.project(borrowing), nil
}

func (m stubBorrowings) Get(id int64) (*data.Borrowing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	borrowing, ok := m.s.borrowings[id]
	if !ok {
		return nil, data.ErrRecordNotFound
	}
	return m.project(borrowing), nil
}

func (m stubBorrowings) GetAll() ([]*data.Borrowing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.collect(func(*data.Borrowing) bool { return true }), nil
}

func (m stubBorrowings) GetAllForMember(memberID int64) ([]*data.Borrowing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.collect(func(b *data.Borrowing) bool { return b.MemberID == memberID }), nil
}

func (m stubBorrowings) GetOverdue() ([]*data.Borrowing, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	now := time.Now()
	return m.collect(func(b *data.Borrowing) bool {
		return b.Status == data.StatusBorrowed && b.DueDate.Before(now)
	}), nil
}

func (m stubBorrowings) Delete(id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	borrowing, ok := m.s.borrowings[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	if borrowing.Status != data.StatusReturned {
		return data.ErrBorrowingActive
	}
	delete(m.s.borrowings, id)
	return nil
}

// project returns a copy with the overdue projection applied, mirroring
// what the SQL read paths do at scan time. The stored record keeps its
// persisted status.
func (m stubBorrowings) project(borrowing *data.Borrowing) *data.Borrowing {
	clone := *borrowing
	clone.Status = clone.StatusAt(time.Now())
	return &clone
}

func (m stubBorrowings) collect(keep func(*data.Borrowing) bool) []*data.Borrowing {
	borrowings := []*data.Borrowing{}
	for _, b := range m.s.borrowings {
		if keep(b) {
			borrowings = append(borrowings, m.project(b))
		}
	}
	sort.Slice(borrowings, func(i, j int) bool { return borrowings[i].ID > borrowings[j].ID })
	return borrowings
}

// ---------------------------------------------------------------------------
// Dashboard stub
// ---------------------------------------------------------------------------

type stubDashboard struct{ s *stubStore }

func (m stubDashboard) Stats() (*data.Stats, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	stats := &data.Stats{
		TotalMembers: len(m.s.members),
		TotalBooks:   len(m.s.books),
	}
	for _, member := range m.s.members {
		if member.Active {
			stats.ActiveMembers++
		}
	}
	for _, book := range m.s.books {
		stats.TotalCopies += book.TotalCopies
		stats.AvailableCopies += book.AvailableCopies
	}
	now := time.Now()
	for _, b := range m.s.borrowings {
		if b.Status != data.StatusBorrowed {
			continue
		}
		if b.DueDate.Before(now) {
			stats.OverdueBorrowings++
		} else {
			stats.ActiveBorrowings++
		}
	}
	return stats, nil
}

// seedMember and seedBook insert records directly into the store,
// bypassing the HTTP layer, for test setup.
func seedMember(t *testing.T, store *stubStore, firstName, lastName, email string, active bool) *data.Member {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()

	member := &data.Member{
		ID:        store.nextID(),
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Active:    active,
		CreatedAt: time.Now().UTC(),
	}
	store.members[member.ID] = member
	return member
}

func seedBook(t *testing.T, store *stubStore, title, author, isbn string, total, available int) *data.Book {
	t.Helper()
	store.mu.Lock()
	defer store.mu.Unlock()

	book := &data.Book{
		ID:              store.nextID(),
		Title:           title,
		Author:          author,
		ISBN:            isbn,
		PublicationYear: 2020,
		TotalCopies:     total,
		AvailableCopies: available,
		CreatedAt:       time.Now().UTC(),
	}
	store.books[book.ID] = book
	return book
}
