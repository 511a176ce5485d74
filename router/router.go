// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	_ "embed"
	"net/http"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/handlers"
	"github.com/danielhkuo/hearth/middleware"
)

//go:embed static/index.html
var indexHTML []byte

// Handlers groups the resource handlers so main can share the task handler
// with the scheduler.
type Handlers struct {
	Tasks     *handlers.TaskHandler
	Voting    *handlers.VotingHandler
	Behaviors *handlers.BehaviorHandler
	Packing   *handlers.PackingHandler
	Squares   *handlers.SquaresHandler
	Buttons   *handlers.ButtonHandler
	Gate      *handlers.GateHandler
}

func NewHandlers(db *sql.DB, cfg cliparse.Config) Handlers {
	return Handlers{
		Tasks:     handlers.NewTaskHandler(db, cfg),
		Voting:    handlers.NewVotingHandler(db, cfg),
		Behaviors: handlers.NewBehaviorHandler(db, cfg),
		Packing:   handlers.NewPackingHandler(db, cfg),
		Squares:   handlers.NewSquaresHandler(db, cfg),
		Buttons:   handlers.NewButtonHandler(db, cfg),
		Gate:      handlers.NewGateHandler(cfg),
	}
}

func NewRouter(db *sql.DB, cfg cliparse.Config) http.Handler {
	return Build(NewHandlers(db, cfg), cfg)
}

// Build wires routes for an existing set of handlers.
func Build(h Handlers, cfg cliparse.Config) http.Handler {
	mux := http.NewServeMux()
	log := middleware.WithLogging

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Static page
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(indexHTML)
	})

	// Gate (open)
	limiter := middleware.NewIPRateLimiter(cfg.UnlockPerMinute, cfg.TrustedProxies)
	mux.HandleFunc("POST /unlock", log(limiter.Limit(h.Gate.Unlock)))
	mux.HandleFunc("POST /lock", log(h.Gate.Lock))

	api := http.NewServeMux()

	api.HandleFunc("GET /api/session", log(h.Gate.Session))

	// Tasks
	api.HandleFunc("GET /api/tasks", log(h.Tasks.List))
	api.HandleFunc("POST /api/tasks", log(h.Tasks.Create))
	api.HandleFunc("POST /api/tasks/recompute", log(h.Tasks.RecomputeHTTP))
	api.HandleFunc("PUT /api/tasks/{id}", log(h.Tasks.Update))
	api.HandleFunc("DELETE /api/tasks/{id}", log(h.Tasks.Delete))
	api.HandleFunc("POST /api/tasks/{id}/complete", log(h.Tasks.Complete))
	api.HandleFunc("POST /api/tasks/{id}/uncomplete", log(h.Tasks.Uncomplete))

	// Activities and votes
	api.HandleFunc("GET /api/activities", log(h.Voting.ListActivities))
	api.HandleFunc("POST /api/activities", log(h.Voting.CreateActivity))
	api.HandleFunc("DELETE /api/activities/{id}", log(h.Voting.DeleteActivity))
	api.HandleFunc("POST /api/votes", log(h.Voting.SubmitVote))
	api.HandleFunc("GET /api/votes/mine", log(h.Voting.MyVotes))
	api.HandleFunc("GET /api/votes/results", log(h.Voting.Results))

	// Behaviors
	api.HandleFunc("GET /api/behaviors", log(h.Behaviors.List))
	api.HandleFunc("POST /api/behaviors", log(h.Behaviors.Create))
	api.HandleFunc("DELETE /api/behaviors/{id}", log(h.Behaviors.Delete))
	api.HandleFunc("GET /api/behaviors/completions", log(h.Behaviors.GetCompletions))
	api.HandleFunc("PUT /api/behaviors/completions", log(h.Behaviors.SaveCompletions))
	api.HandleFunc("GET /api/behaviors/totals", log(h.Behaviors.Totals))
	api.HandleFunc("GET /api/behaviors/weekly", log(h.Behaviors.Weekly))
	api.HandleFunc("GET /api/behaviors/weekly.xlsx", log(h.Behaviors.WeeklyXLSX))

	// Packing
	api.HandleFunc("GET /api/templates", log(h.Packing.ListTemplates))
	api.HandleFunc("POST /api/templates", log(h.Packing.CreateTemplate))
	api.HandleFunc("DELETE /api/templates/{id}", log(h.Packing.DeleteTemplate))
	api.HandleFunc("POST /api/templates/{id}/items", log(h.Packing.AddTemplateItem))
	api.HandleFunc("DELETE /api/templates/{id}/items/{itemID}", log(h.Packing.DeleteTemplateItem))
	api.HandleFunc("POST /api/trips", log(h.Packing.CreateTrip))
	api.HandleFunc("GET /api/trips/{id}", log(h.Packing.GetTrip))
	api.HandleFunc("DELETE /api/trips/{id}", log(h.Packing.DeleteTrip))
	api.HandleFunc("POST /api/trips/{id}/items/{itemID}/toggle", log(h.Packing.ToggleTripItem))

	// Football squares
	api.HandleFunc("POST /api/squares", log(h.Squares.CreateGame))
	api.HandleFunc("GET /api/squares/{id}", log(h.Squares.GetGame))
	api.HandleFunc("POST /api/squares/{id}/claim", log(h.Squares.Claim))
	api.HandleFunc("POST /api/squares/{id}/lock", log(h.Squares.Lock))
	api.HandleFunc("GET /api/squares/{id}/winner", log(h.Squares.Winner))

	// Smart home
	api.HandleFunc("GET /api/buttons", log(h.Buttons.List))
	api.HandleFunc("POST /api/buttons", log(h.Buttons.Create))
	api.HandleFunc("DELETE /api/buttons/{id}", log(h.Buttons.Delete))
	api.HandleFunc("POST /api/buttons/{id}/press", log(h.Buttons.Press))

	mux.Handle("/api/", middleware.RequireGate(cfg.GateSecret)(api))

	return middleware.CORS(mux)
}
