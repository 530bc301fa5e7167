package main

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/kmedina/libtrack/internal/data"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBook(t *testing.T) {
	app, _ := newTestApplication(t)

	rec := do(t, app, http.MethodPost, "/api/books", map[string]any{
		"title":           "The Go Programming Language",
		"author":          "Alan A. A. Donovan",
		"isbn":            "9780134190440",
		"publisher":       "Addison-Wesley",
		"publicationYear": 2015,
		"genre":           "Programming",
		"totalCopies":     3,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var book data.Book
	decode(t, rec, &book)
	assert.NotZero(t, book.ID)

	// availableCopies defaults to totalCopies when omitted.
	assert.Equal(t, 3, book.TotalCopies)
	assert.Equal(t, 3, book.AvailableCopies)

	// Duplicate ISBN is refused.
	rec = do(t, app, http.MethodPost, "/api/books", map[string]any{
		"title":           "Another",
		"author":          "Someone",
		"isbn":            "9780134190440",
		"publicationYear": 2020,
		"totalCopies":     1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCreateBookValidation(t *testing.T) {
	app, _ := newTestApplication(t)

	// availableCopies above totalCopies violates the invariant.
	rec := do(t, app, http.MethodPost, "/api/books", map[string]any{
		"title":           "Broken",
		"author":          "Someone",
		"isbn":            "1112223334445",
		"publicationYear": 2020,
		"totalCopies":     2,
		"availableCopies": 5,
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error map[string]string `json:"error"`
	}
	decode(t, rec, &body)
	assert.Contains(t, body.Error, "availableCopies")
}

func TestSearchBooks(t *testing.T) {
	app, store := newTestApplication(t)
	seedBook(t, store, "The Go Programming Language", "Alan A. A. Donovan", "9780134190440", 2, 2)
	seedBook(t, store, "Go in Action", "William Kennedy", "9781617291784", 1, 1)
	seedBook(t, store, "SICP", "Harold Abelson", "9780262510875", 1, 1)

	var books []data.Book

	rec := do(t, app, http.MethodGet, "/api/books/search?title=go", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &books)
	assert.Len(t, books, 2)

	rec = do(t, app, http.MethodGet, "/api/books/author?author=abelson", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &books)
	require.Len(t, books, 1)
	assert.Equal(t, "SICP", books[0].Title)

	// Missing query parameter is a 400, not an empty result.
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, "/api/books/search", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, app, http.MethodGet, "/api/books/author", nil).Code)
}

func TestUpdateBookAdjustsAvailability(t *testing.T) {
	app, store := newTestApplication(t)
	member := seedMember(t, store, "Jane", "Doe", "jane@example.com", true)
	book := seedBook(t, store, "SICP", "Harold Abelson", "9780262510875", 3, 3)

	// One copy goes on loan: 3 total, 2 available.
	require.Equal(t, http.StatusCreated, do(t, app, http.MethodPost, "/api/borrows", map[string]any{
		"memberId": member.ID, "bookId": book.ID,
	}).Code)

	// Growing the stock shifts availableCopies by the same delta, keeping
	// available = total - outstanding.
	rec := do(t, app, http.MethodPut, fmt.Sprintf("/api/books/%d", book.ID), map[string]any{
		"title":           "SICP",
		"author":          "Harold Abelson",
		"isbn":            "9780262510875",
		"publicationYear": 1996,
		"totalCopies":     5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated data.Book
	decode(t, rec, &updated)
	assert.Equal(t, 5, updated.TotalCopies)
	assert.Equal(t, 4, updated.AvailableCopies)

	// Shrinking below the outstanding count fails validation.
	rec = do(t, app, http.MethodPut, fmt.Sprintf("/api/books/%d", book.ID), map[string]any{
		"title":           "SICP",
		"author":          "Harold Abelson",
		"isbn":            "9780262510875",
		"publicationYear": 1996,
		"totalCopies":     0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// An explicit availableCopies is a bulk correction.
	rec = do(t, app, http.MethodPut, fmt.Sprintf("/api/books/%d", book.ID), map[string]any{
		"title":           "SICP",
		"author":          "Harold Abelson",
		"isbn":            "9780262510875",
		"publicationYear": 1996,
		"totalCopies":     5,
		"availableCopies": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &updated)
	assert.Equal(t, 5, updated.AvailableCopies)
}

func TestDeleteBook(t *testing.T) {
	app, store := newTestApplication(t)
	member := seedMember(t, store, "Jane", "Doe", "jane@example.com", true)
	book := seedBook(t, store, "SICP", "Harold Abelson", "9780262510875", 1, 1)

	rec := do(t, app, http.MethodPost, "/api/borrows", map[string]any{"memberId": member.ID, "bookId": book.ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	var borrowing data.Borrowing
	decode(t, rec, &borrowing)

	path := fmt.Sprintf("/api/books/%d", book.ID)

	// Blocked while a copy is on loan.
	assert.Equal(t, http.StatusConflict, do(t, app, http.MethodDelete, path, nil).Code)

	require.Equal(t, http.StatusOK, do(t, app, http.MethodPut, fmt.Sprintf("/api/borrows/%d/return", borrowing.ID), nil).Code)

	assert.Equal(t, http.StatusOK, do(t, app, http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, app, http.MethodGet, path, nil).Code)
}

func TestDashboard(t *testing.T) {
	app, store := newTestApplication(t)
	member := seedMember(t, store, "Jane", "Doe", "jane@example.com", true)
	seedMember(t, store, "Bob", "Idle", "bob@example.com", false)
	book := seedBook(t, store, "SICP", "Harold Abelson", "9780262510875", 3, 3)

	require.Equal(t, http.StatusCreated, do(t, app, http.MethodPost, "/api/borrows", map[string]any{
		"memberId": member.ID, "bookId": book.ID,
	}).Code)

	rec := do(t, app, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats data.Stats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalMembers)
	assert.Equal(t, 1, stats.ActiveMembers)
	assert.Equal(t, 1, stats.TotalBooks)
	assert.Equal(t, 3, stats.TotalCopies)
	assert.Equal(t, 2, stats.AvailableCopies)
	assert.Equal(t, 1, stats.ActiveBorrowings)
	assert.Equal(t, 0, stats.OverdueBorrowings)
}

func TestHealthcheck(t *testing.T) {
	app, _ := newTestApplication(t)

	rec := do(t, app, http.MethodGet, "/api/healthcheck", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	decode(t, rec, &body)
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, "test", body["environment"])
}
