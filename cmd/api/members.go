// cmd/api/members.go
// HTTP handlers for the members resource.
package main

import (
	"errors"
	"net/http"

	"github.com/kmedina/libtrack/internal/data"
	"github.com/kmedina/libtrack/internal/validator"
)

// createMemberHandler handles POST /api/members.
// It reads a JSON body with the new member's details, validates it,
// inserts the record, and responds 201 with the created member.
func (app *applicationDependencies) createMemberHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		Active    *bool  `json:"active"`
	}

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	member := &data.Member{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		Active:    true, // new members are active unless the body says otherwise
	}
	if input.Active != nil {
		member.Active = *input.Active
	}

	v := validator.New()
	if data.ValidateMember(v, member); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Members.Insert(member)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrDuplicateEmail):
			app.conflictResponse(w, r, "a member with this email address already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusCreated, member, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showMemberHandler handles GET /api/members/:id.
func (app *applicationDependencies) showMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	member, err := app.models.Members.Get(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, member, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listMembersHandler handles GET /api/members.
// Supports ?sort= (safelisted columns, "-" prefix for descending) and
// ?q= — a free-text filter applied in-process to the fetched records.
func (app *applicationDependencies) listMembersHandler(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()

	filters := data.Filters{
		Sort: app.readString(qs, "sort", "id"),
		SortSafeList: []string{
			"id", "first_name", "last_name", "email", "created_at",
			"-id", "-first_name", "-last_name", "-email", "-created_at",
		},
	}

	members, err := app.models.Members.GetAll(filters)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	members = data.FilterByQuery(members, app.readString(qs, "q", ""))

	err = app.writeJSON(w, http.StatusOK, members, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// updateMemberHandler handles PUT /api/members/:id.
// The body carries the full member representation; the whole record is
// validated and replaced.
func (app *applicationDependencies) updateMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	member, err := app.models.Members.Get(id)
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
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
		Address   string `json:"address"`
		Active    *bool  `json:"active"`
	}

	err = app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	member.FirstName = input.FirstName
	member.LastName = input.LastName
	member.Email = input.Email
	member.Phone = input.Phone
	member.Address = input.Address
	if input.Active != nil {
		member.Active = *input.Active
	}

	v := validator.New()
	if data.ValidateMember(v, member); !v.Valid() {
		app.failedValidationResponse(w, r, v.Errors)
		return
	}

	err = app.models.Members.Update(member)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrDuplicateEmail):
			app.conflictResponse(w, r, "a member with this email address already exists")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, member, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// deleteMemberHandler handles DELETE /api/members/:id.
// A member with non-returned borrowings cannot be deleted.
func (app *applicationDependencies) deleteMemberHandler(w http.ResponseWriter, r *http.Request) {
	id, err := app.readIDParam(r, "id")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.models.Members.Delete(id)
	if err != nil {
		switch {
		case errors.Is(err, data.ErrRecordNotFound):
			app.notFoundResponse(w, r)
		case errors.Is(err, data.ErrBorrowingsOutstanding):
			app.conflictResponse(w, r, "member has borrowings that have not been returned")
		default:
			app.serverErrorResponse(w, r, err)
		}
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"message": "member successfully deleted"}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
