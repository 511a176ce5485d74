// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/tally"
)

type VotingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewVotingHandler(db *sql.DB, cfg cliparse.Config) *VotingHandler {
	return &VotingHandler{db: db, cfg: cfg}
}

// ListActivities handles GET /api/activities
func (h *VotingHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, name, activity_type FROM activity ORDER BY activity_type, name
	`)
	if err != nil {
		slog.Error("failed to query activities", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.Name, &a.ActivityType); err != nil {
			slog.Error("failed to scan activity", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate activities", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, activities)
}

// CreateActivity handles POST /api/activities
func (h *VotingHandler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req models.CreateActivityRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	name := middleware.CleanText(req.Name)
	activityType := strings.ToLower(middleware.CleanText(req.ActivityType))
	if name == "" || activityType == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name and activity_type are required")
		return
	}

	var id int64
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO activity (name, activity_type)
		VALUES ($1, $2)
		RETURNING id
	`, name, activityType).Scan(&id)
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Activity already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert activity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create activity")
		return
	}

	slog.Info("activity created", "activity_id", id, "activity_type", activityType)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: id})
}

// DeleteActivity handles DELETE /api/activities/{id}
// Votes cast for the activity go with it.
func (h *VotingHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var name, activityType string
	err = tx.QueryRowContext(r.Context(), `
		SELECT name, activity_type FROM activity WHERE id = $1
	`, id).Scan(&name, &activityType)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Activity not found")
		return
	}
	if err != nil {
		slog.Error("failed to query activity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if _, err := tx.ExecContext(r.Context(), `
		DELETE FROM vote WHERE activity_name = $1 AND activity_type = $2
	`, name, activityType); err != nil {
		slog.Error("failed to delete votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if _, err := tx.ExecContext(r.Context(), `DELETE FROM activity WHERE id = $1`, id); err != nil {
		slog.Error("failed to delete activity", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	slog.Info("activity deleted", "activity_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SubmitVote handles POST /api/votes
// Replaces the voter's whole ranking for one category.
func (h *VotingHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	activityType := strings.ToLower(strings.TrimSpace(req.ActivityType))

	seen := make(map[string]bool, len(req.Ranking))
	for _, name := range req.Ranking {
		if seen[name] {
			middleware.ErrorResponse(w, http.StatusBadRequest, "ranking lists "+name+" twice")
			return
		}
		seen[name] = true
	}

	// Get all valid activity names for this category
	known, err := h.activityNames(r.Context(), activityType)
	if err != nil {
		slog.Error("failed to query activities", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if len(known) > 0 {
		for _, name := range req.Ranking {
			if !known[name] {
				middleware.ErrorResponse(w, http.StatusBadRequest, "Unknown activity: "+name)
				return
			}
		}
	}

	// Begin transaction for the replace
	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(r.Context(), `
		DELETE FROM vote WHERE email = $1 AND activity_type = $2
	`, email, activityType)
	if err != nil {
		slog.Error("failed to delete old votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save vote")
		return
	}
	n, err := res.RowsAffected()
	if err != nil {
		slog.Error("failed to count old votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save vote")
		return
	}
	replaced := n > 0

	for i, name := range req.Ranking {
		_, err := tx.ExecContext(r.Context(), `
			INSERT INTO vote (email, activity_name, activity_type, rank_position)
			VALUES ($1, $2, $3, $4)
		`, email, name, activityType, i+1)
		if err != nil {
			slog.Error("failed to insert vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save vote")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save vote")
		return
	}

	slog.Info("vote submitted", "activity_type", activityType, "ranked", len(req.Ranking), "is_update", replaced)

	status := http.StatusCreated
	if replaced {
		status = http.StatusOK
	}
	w.WriteHeader(status)
}

// MyVotes handles GET /api/votes/mine?email=
func (h *VotingHandler) MyVotes(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))
	if email == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "email is required")
		return
	}

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT activity_type, activity_name
		FROM vote
		WHERE email = $1
		ORDER BY activity_type, rank_position
	`, email)
	if err != nil {
		slog.Error("failed to query votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	resp := models.MyVotesResponse{Email: email, Rankings: map[string][]string{}}
	for rows.Next() {
		var activityType, name string
		if err := rows.Scan(&activityType, &name); err != nil {
			slog.Error("failed to scan vote", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		resp.Rankings[activityType] = append(resp.Rankings[activityType], name)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Results handles GET /api/votes/results
func (h *VotingHandler) Results(w http.ResponseWriter, r *http.Request) {
	votes, voters, err := h.loadVotes(r.Context())
	if err != nil {
		slog.Error("failed to load votes", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	canonical, err := h.loadCanonical(r.Context())
	if err != nil {
		slog.Error("failed to load activities", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.VoteResultsResponse{
		Categories: tally.Tally(votes, canonical),
		VoterCount: voters,
	})
}

func (h *VotingHandler) activityNames(ctx context.Context, activityType string) (map[string]bool, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT name FROM activity WHERE activity_type = $1`, activityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = true
	}
	return names, rows.Err()
}

func (h *VotingHandler) loadVotes(ctx context.Context) ([]tally.Vote, int, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT email, activity_name, activity_type, rank_position FROM vote
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	var votes []tally.Vote
	voters := make(map[string]bool)
	for rows.Next() {
		var v tally.Vote
		if err := rows.Scan(&v.Email, &v.ActivityName, &v.ActivityType, &v.RankPosition); err != nil {
			return nil, 0, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
		voters[v.Email] = true
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate votes: %w", err)
	}
	return votes, len(voters), nil
}

func (h *VotingHandler) loadCanonical(ctx context.Context) ([]tally.Item, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT name, activity_type FROM activity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var items []tally.Item
	for rows.Next() {
		var it tally.Item
		if err := rows.Scan(&it.Name, &it.Type); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
