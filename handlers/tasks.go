// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/recurrence"
)

type TaskHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewTaskHandler(db *sql.DB, cfg cliparse.Config) *TaskHandler {
	return &TaskHandler{db: db, cfg: cfg, now: time.Now}
}

// Today is the current household day at local midnight.
func (h *TaskHandler) Today() time.Time {
	return recurrence.Day(h.now(), location(h.cfg))
}

// List handles GET /api/tasks
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT id, title, assignee, recurrence, last_completed, visible, completed
		FROM task`
	var args []interface{}
	if r.URL.Query().Get("visible") == "true" {
		query += ` WHERE visible = $1`
		args = append(args, true)
	}
	query += ` ORDER BY id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query tasks", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	today := h.Today()
	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		var rule, last sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &t.Assignee, &rule, &last, &t.Visible, &t.Completed); err != nil {
			slog.Error("failed to scan task", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if rule.Valid {
			t.Recurrence = recurrence.ParseRule([]byte(rule.String))
		}
		if last.Valid {
			t.LastCompleted = &last.String
			t.LastCompletedAgo = h.ago(last.String, today)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate tasks", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tasks)
}

func (h *TaskHandler) ago(day string, today time.Time) string {
	d, err := recurrence.ParseDay(day, location(h.cfg))
	if err != nil {
		return ""
	}
	if d.Equal(today) {
		return "today"
	}
	return humanize.RelTime(d, today, "ago", "from now")
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTaskRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := encodeRule(req.Recurrence)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var id int64
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO task (title, assignee, recurrence, visible, completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, middleware.CleanText(req.Title), middleware.CleanText(req.Assignee), rule, req.Visible, false).Scan(&id)
	if err != nil {
		slog.Error("failed to insert task", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create task")
		return
	}

	slog.Info("task created", "task_id", id)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: id})
}

// Update handles PUT /api/tasks/{id}
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.UpdateTaskRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	rule, err := encodeRule(req.Recurrence)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE task
		SET title = $1, assignee = $2, recurrence = $3, visible = $4, completed = $5
		WHERE id = $6
	`, middleware.CleanText(req.Title), middleware.CleanText(req.Assignee), rule, req.Visible, req.Completed, id)
	h.finishWrite(w, res, err, "update", id)
}

// Delete handles DELETE /api/tasks/{id}
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM task WHERE id = $1`, id)
	h.finishWrite(w, res, err, "delete", id)
}

// Complete handles POST /api/tasks/{id}/complete
// Marks today's instance done and records today as the last completion.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	today := recurrence.FormatDay(h.Today())
	res, err := h.db.ExecContext(r.Context(), `
		UPDATE task SET completed = $1, last_completed = $2 WHERE id = $3
	`, true, today, id)
	h.finishWrite(w, res, err, "complete", id)
}

// Uncomplete handles POST /api/tasks/{id}/uncomplete
func (h *TaskHandler) Uncomplete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE task SET completed = $1 WHERE id = $2
	`, false, id)
	h.finishWrite(w, res, err, "uncomplete", id)
}

func (h *TaskHandler) finishWrite(w http.ResponseWriter, res sql.Result, err error, action string, id int64) {
	if err != nil {
		slog.Error("task write failed", "action", action, "error", err, "task_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	ok, err := affectedOne(res)
	if err != nil {
		slog.Error("task write failed", "action", action, "error", err, "task_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Task not found")
		return
	}

	slog.Info("task "+action, "task_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// RecomputeHTTP handles POST /api/tasks/recompute
// Forces a pass for today even if the scheduler already ran.
func (h *TaskHandler) RecomputeHTTP(w http.ResponseWriter, r *http.Request) {
	today := h.Today()
	updates, err := h.Recompute(r.Context(), today)
	if err != nil {
		slog.Error("recompute failed", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to recompute tasks")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RecomputeResponse{
		Day:     recurrence.FormatDay(today),
		Updates: updates,
	})
}

// Recompute reads every recurring task, evaluates it for today and writes all
// results back in one transaction. The first failed write aborts the batch.
//
// Nothing locks the rows between the read and the write; two overlapping runs
// resolve as last writer wins.
func (h *TaskHandler) Recompute(ctx context.Context, today time.Time) ([]recurrence.Update, error) {
	tasks, err := h.loadRecurring(ctx)
	if err != nil {
		return nil, err
	}

	updates := recurrence.ComputeUpdates(tasks, today)

	if err := h.applyUpdates(ctx, updates, recurrence.FormatDay(today)); err != nil {
		return nil, err
	}

	slog.Info("tasks recomputed", "day", recurrence.FormatDay(today), "tasks", len(updates))
	return updates, nil
}

// RecomputeIfDue runs Recompute unless today has already been processed.
func (h *TaskHandler) RecomputeIfDue(ctx context.Context) (bool, error) {
	today := h.Today()
	day := recurrence.FormatDay(today)

	var seen string
	err := h.db.QueryRowContext(ctx, `SELECT day FROM recompute_run WHERE day = $1`, day).Scan(&seen)
	if err == nil {
		slog.Debug("recompute already ran", "day", day)
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("failed to check recompute runs: %w", err)
	}

	if _, err := h.Recompute(ctx, today); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TaskHandler) loadRecurring(ctx context.Context) ([]recurrence.Task, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, recurrence, last_completed, visible, completed
		FROM task
		WHERE recurrence IS NOT NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	loc := location(h.cfg)
	var tasks []recurrence.Task
	for rows.Next() {
		var t recurrence.Task
		var rule string
		var last sql.NullString
		if err := rows.Scan(&t.ID, &rule, &last, &t.Visible, &t.Completed); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		t.Rule = recurrence.ParseRule([]byte(rule))
		if t.Rule == nil {
			slog.Warn("ignoring unreadable recurrence rule", "task_id", t.ID)
		}
		if last.Valid {
			d, err := recurrence.ParseDay(last.String, loc)
			if err != nil {
				slog.Warn("ignoring unreadable last_completed", "task_id", t.ID, "error", err)
			} else {
				t.LastCompleted = &d
			}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}
	return tasks, nil
}

func (h *TaskHandler) applyUpdates(ctx context.Context, updates []recurrence.Update, day string) error {
	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE task SET visible = $1, completed = $2 WHERE id = $3`)
	if err != nil {
		return fmt.Errorf("failed to prepare task update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.Visible, u.Completed, u.ID); err != nil {
			return fmt.Errorf("failed to update task %d: %w", u.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recompute_run (day, updated)
		VALUES ($1, $2)
		ON CONFLICT (day) DO UPDATE SET updated = excluded.updated, ran_at = CURRENT_TIMESTAMP
	`, day, len(updates))
	if err != nil {
		return fmt.Errorf("failed to record recompute run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit task updates: %w", err)
	}
	return nil
}

// encodeRule validates a rule and renders it for storage. nil stays NULL.
func encodeRule(rule *recurrence.Rule) (*string, error) {
	if rule == nil {
		return nil, nil
	}
	if !rule.Valid() {
		return nil, errors.New("recurrence is invalid")
	}
	raw, err := json.Marshal(rule)
	if err != nil {
		return nil, fmt.Errorf("recurrence is invalid: %w", err)
	}
	s := string(raw)
	return &s, nil
}
