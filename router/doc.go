// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Hearth API.

# Route Registration

NewRouter builds every handler and returns the wrapped mux:

	handler := router.NewRouter(db, cfg)

Callers that need a handler outside HTTP (the scheduler needs the task
handler) build the set first:

	h := router.NewHandlers(db, cfg)
	handler := router.Build(h, cfg)

# Endpoints

Open:

	GET  /health  - Liveness
	GET  /        - Static page
	POST /unlock  - Pattern lock, rate limited per IP
	POST /lock    - Clear the gate cookie

Everything under /api requires the gate cookie:

	GET    /api/session
	GET    /api/tasks                        POST /api/tasks
	PUT    /api/tasks/{id}                   DELETE /api/tasks/{id}
	POST   /api/tasks/{id}/complete          POST /api/tasks/{id}/uncomplete
	POST   /api/tasks/recompute
	GET    /api/activities                   POST /api/activities
	DELETE /api/activities/{id}
	POST   /api/votes                        GET /api/votes/mine
	GET    /api/votes/results
	GET    /api/behaviors                    POST /api/behaviors
	DELETE /api/behaviors/{id}
	GET    /api/behaviors/completions        PUT /api/behaviors/completions
	GET    /api/behaviors/totals             GET /api/behaviors/weekly
	GET    /api/behaviors/weekly.xlsx
	GET    /api/templates                    POST /api/templates
	DELETE /api/templates/{id}               POST /api/templates/{id}/items
	DELETE /api/templates/{id}/items/{itemID}
	POST   /api/trips                        GET /api/trips/{id}
	DELETE /api/trips/{id}                   POST /api/trips/{id}/items/{itemID}/toggle
	POST   /api/squares                      GET /api/squares/{id}
	POST   /api/squares/{id}/claim           POST /api/squares/{id}/lock
	GET    /api/squares/{id}/winner
	GET    /api/buttons                      POST /api/buttons
	DELETE /api/buttons/{id}                 POST /api/buttons/{id}/press

# Middleware

Every route except /health and / is wrapped with middleware.WithLogging.
The whole mux is wrapped with middleware.CORS.
*/
package router
