// cmd/api/books.go
// HTTP handlers for the books resource.
package main

import (
	"errors"
	"net/http"

	"github.com/kmedina/libtrack/internal/data"
	"github.com/kmedina/libtrack/internal/validator"
)

// createBookHandler handles POST /api/books.
// availableCopies may be supplied at creation (e.g. some copies already on
// loan when the catalog is imported); when omitted it defaults to
// totalCopies.
func (app *applicationDependencies) createBookHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Title           string `json:"title"`
		Author          string `json:"author"`
		ISBN            string `json:"isbn"`
		Publisher       string `json:"publisher"`
		PublicationYear int    `json:"publicationYear"`
		Genre           string `json:"genre"`
		TotalCopies     int    `json:"totalCopies"`
		AvailableCopies *int   `json:"availableCopies"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book := &data.Book{
		Title:           input.Title,
		Author:          input.Author,
		ISBN:            input.ISBN,
		Publisher:       input.Publisher,
		PublicationYear: input.PublicationYear,
		Genre:           input.Genre,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
	}
	if input.AvailableCopies != nil {
		book.AvailableCopies = *input.AvailableCopies
	}

	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Insert(book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateISBN):
			app.conflictResponse(w, r, "a book with this ISBN already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, book, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBookHandler handles GET /api/books/:id, plus the two search paths
// that share its route pattern: /api/books/search?title= and
// /api/books/author?author= (see routes.go for why they dispatch here).
func (app *applicationDependencies) showBookHandler(w http.ResponseWriter, r *http.Request) {
	switch app.pathParam(r, "id") {
	case "search":
		app.searchBooksByTitleHandler(w, r)
		return
	case "author":
		app.searchBooksByAuthorHandler(w, r)
		return
	}

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, book, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBooksHandler handles GET /api/books.
// Supports ?sort= (safelisted columns) and the ?q= free-text filter.
func (app *applicationDependencies) listBooksHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	filters := data.Filters{
		Sort: app.readString(qs, "sort", "id"),
		SortSafeList: []string{
			"id", "title", "author", "publication_year", "available_copies", "created_at",
			"-id", "-title", "-author", "-publication_year", "-available_copies", "-created_at",
		},
	}

	books, err := app.models.Books.GetAll(filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	books = data.FilterByQuery(books, app.readString(qs, "q", ""))

	err = app.writeJSON(w, http.StatusOK, books, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// searchBooksByTitleHandler handles GET /api/books/search?title=.
func (app *applicationDependencies) searchBooksByTitleHandler(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		app.badRequestResponse(w, r, errors.New("title query parameter must be provided"))
		return
	}

	books, err := app.models.Books.SearchByTitle(title)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, books, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// searchBooksByAuthorHandler handles GET /api/books/author?author=.
func (app *applicationDependencies) searchBooksByAuthorHandler(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	if author == "" {
		app.badRequestResponse(w, r, errors.New("author query parameter must be provided"))
		return
	}

	books, err := app.models.Books.SearchByAuthor(author)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, books, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateBookHandler handles PUT /api/books/:id.
//
// availableCopies is derived from the borrowing workflow, so the body
// normally omits it; when totalCopies changes, availableCopies shifts by
// the same delta to keep available = total − outstanding. A body that
// does supply availableCopies is treated as a bulk correction and
// validated against the invariant instead.
func (app *applicationDependencies) updateBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book, err := app.models.Books.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	var input struct {
		Title           string `json:"title"`
		Author          string `json:"author"`
		ISBN            string `json:"isbn"`
		Publisher       string `json:"publisher"`
		PublicationYear int    `json:"publicationYear"`
		Genre           string `json:"genre"`
		TotalCopies     int    `json:"totalCopies"`
		AvailableCopies *int   `json:"availableCopies"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	book.Title = input.Title
	book.Author = input.Author
	book.ISBN = input.ISBN
	book.Publisher = input.Publisher
	book.PublicationYear = input.PublicationYear
	book.Genre = input.Genre

	switch {
	case input.AvailableCopies != nil:
		book.AvailableCopies = *input.AvailableCopies
	default:
		book.AvailableCopies += input.TotalCopies - book.TotalCopies
	}
	book.TotalCopies = input.TotalCopies

	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Books.Update(book)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrDuplicateISBN):
			app.conflictResponse(w, r, "a book with this ISBN already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, book, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBookHandler handles DELETE /api/books/:id.
// A book with copies still on loan cannot be deleted.
func (app *applicationDependencies) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Books.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrBorrowingsOutstanding):
			app.conflictResponse(w, r, "book has copies that have not been returned")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "book successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
