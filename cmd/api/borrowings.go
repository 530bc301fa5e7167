// cmd/api/borrowings.go
// HTTP handlers for the borrowings resource: the lending workflow.
package main

import (
	"errors"
	"net/http"

	"github.com/kmedina/libtrack/internal/data"
	"github.com/kmedina/libtrack/internal/validator"
)

// createBorrowingHandler handles POST /api/borrows.
// The body is {"memberId": ..., "bookId": ...}; the server computes the
// borrow and due dates. Responds 201 with the new borrowing, 404 for an
// unknown member or book, and 409 when no copies remain or the member is
// inactive.
func (app *applicationDependencies) createBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MemberID int64 `json:"memberId"`
		BookID   int64 `json:"bookId"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	v := validator.New()
	if data.ValidateBorrowingRequest(v, input.MemberID, input.BookID); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	borrowing, err := app.models.Borrowings.Insert(input.MemberID, input.BookID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrNoCopiesAvailable):
			app.conflictResponse(w, r, "no copies of this book are currently available")
		case errors.Is(err, data.ErrMemberInactive):
			app.conflictResponse(w, r, "member is not active")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, borrowing, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showBorrowingHandler handles GET /api/borrows/:id, plus the overdue
// listing whose path shares the route pattern: /api/borrows/overdue (see
// routes.go).
func (app *applicationDependencies) showBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	if app.pathParam(r, "id") == "overdue" {
		app.listOverdueBorrowingsHandler(w, r)
		return
	}

	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrowing, err := app.models.Borrowings.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, borrowing, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listBorrowingsHandler handles GET /api/borrows.
// Supports the ?q= free-text filter over member name, book title, and
// status.
func (app *applicationDependencies) listBorrowingsHandler(w http.ResponseWriter, r *http.Request) {
	borrowings, err := app.models.Borrowings.GetAll()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	borrowings = data.FilterByQuery(borrowings, app.readString(r.URL.Query(), "q", ""))

	err = app.writeJSON(w, http.StatusOK, borrowings, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listOverdueBorrowingsHandler handles GET /api/borrows/overdue.
func (app *applicationDependencies) listOverdueBorrowingsHandler(w http.ResponseWriter, r *http.Request) {
	borrowings, err := app.models.Borrowings.GetOverdue()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, borrowings, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listMemberBorrowingsHandler handles GET /api/borrows/member/:memberId.
// The route is registered as /api/borrows/:id/:memberId, so the first
// segment must be the literal "member" for the path to be valid.
func (app *applicationDependencies) listMemberBorrowingsHandler(w http.ResponseWriter, r *http.Request) {
	if app.pathParam(r, "id") != "member" {
		app.notFoundResponse(w, r)
		return
	}

	memberID, err := app.readIDParam(r, "memberId")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	// Distinguish "member has no borrowings" (empty list) from "member does
	// not exist" (404).
	_, err = app.models.Members.Get(memberID)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	borrowings, err := app.models.Borrowings.GetAllForMember(memberID)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, borrowings, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// returnBorrowingHandler handles PUT /api/borrows/:id/return.
// The request carries no body; the response is the updated borrowing.
// A second return attempt on the same borrowing gets a 409.
func (app *applicationDependencies) returnBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	borrowing, err := app.models.Borrowings.Return(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrAlreadyReturned):
			app.conflictResponse(w, r, "borrowing has already been returned")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, borrowing, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteBorrowingHandler handles DELETE /api/borrows/:id.
// Only returned borrowings can be removed from the history; deleting an
// active loan would strand the book's availability counter.
func (app *applicationDependencies) deleteBorrowingHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Borrowings.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrBorrowingActive):
			app.conflictResponse(w, r, "borrowing has not been returned; return the book before deleting the record")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "borrowing successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
