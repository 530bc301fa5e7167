// cmd/api/healthcheck.go
package main

import "net/http"

// healthcheckHandler handles GET /api/healthcheck.
func (app *applicationDependencies) healthcheckHandler(w http.ResponseWriter, r *http.Request) {
	payload := map[string]string{
		"status":      "available",
		"environment": app.config.environment,
		"version":     appVersion,
	}

	err := app.writeJSON(w, http.StatusOK, payload, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// dashboardHandler handles GET /api/dashboard, the aggregate counts shown
// on the client's landing page.
func (app *applicationDependencies) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := app.models.Dashboard.Stats()
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, stats, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
