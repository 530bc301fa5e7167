// cmd/api/routes.go
package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router
// wrapped in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → enableCORS → rateLimit → requestID → router
//
// Paths match what the browser client calls, all under /api:
//
//	GET    /api/healthcheck
//	GET    /api/dashboard
//
//	GET    /api/members                    – list members (?q= free-text, ?sort=)
//	POST   /api/members                    – register a member
//	GET    /api/members/:id
//	PUT    /api/members/:id
//	DELETE /api/members/:id                – 409 while loans are outstanding
//
//	GET    /api/books                      – list books (?q=, ?sort=)
//	POST   /api/books
//	GET    /api/books/search?title=        – case-insensitive title search
//	GET    /api/books/author?author=       – case-insensitive author search
//	GET    /api/books/:id
//	PUT    /api/books/:id
//	DELETE /api/books/:id                  – 409 while copies are on loan
//
//	GET    /api/borrows                    – list borrowings (?q=)
//	POST   /api/borrows                    – lend a book ({memberId, bookId})
//	GET    /api/borrows/overdue
//	GET    /api/borrows/member/:memberId
//	GET    /api/borrows/:id
//	PUT    /api/borrows/:id/return         – return a book, no body
//	DELETE /api/borrows/:id                – returned borrowings only
func (app *applicationDependencies) routes() http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/api/healthcheck", app.healthcheckHandler)
	router.HandlerFunc(http.MethodGet, "/api/dashboard", app.dashboardHandler)

	router.HandlerFunc(http.MethodGet, "/api/members", app.listMembersHandler)
	router.HandlerFunc(http.MethodPost, "/api/members", app.createMemberHandler)
	router.HandlerFunc(http.MethodGet, "/api/members/:id", app.showMemberHandler)
	router.HandlerFunc(http.MethodPut, "/api/members/:id", app.updateMemberHandler)
	router.HandlerFunc(http.MethodDelete, "/api/members/:id", app.deleteMemberHandler)

	// httprouter rejects a static path (/api/books/search) next to a
	// wildcard one (/api/books/:id), so the reserved words "search",
	// "author", "overdue", and "member" arrive through the :id parameter
	// and the GET handlers dispatch on its value.
	router.HandlerFunc(http.MethodGet, "/api/books", app.listBooksHandler)
	router.HandlerFunc(http.MethodPost, "/api/books", app.createBookHandler)
	router.HandlerFunc(http.MethodGet, "/api/books/:id", app.showBookHandler)
	router.HandlerFunc(http.MethodPut, "/api/books/:id", app.updateBookHandler)
	router.HandlerFunc(http.MethodDelete, "/api/books/:id", app.deleteBookHandler)

	router.HandlerFunc(http.MethodGet, "/api/borrows", app.listBorrowingsHandler)
	router.HandlerFunc(http.MethodPost, "/api/borrows", app.createBorrowingHandler)
	router.HandlerFunc(http.MethodGet, "/api/borrows/:id", app.showBorrowingHandler)
	router.HandlerFunc(http.MethodGet, "/api/borrows/:id/:memberId", app.listMemberBorrowingsHandler)
	router.HandlerFunc(http.MethodPut, "/api/borrows/:id/return", app.returnBorrowingHandler)
	router.HandlerFunc(http.MethodDelete, "/api/borrows/:id", app.deleteBorrowingHandler)

	// recoverPanic is outermost so it catches panics from the whole chain.
	return app.recoverPanic(app.enableCORS(app.rateLimit(app.requestID(router))))
}
