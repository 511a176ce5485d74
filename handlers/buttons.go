// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
)

// PressTimeout bounds a single outbound trigger call.
const PressTimeout = 10 * time.Second

type ButtonHandler struct {
	db     *sql.DB
	cfg    cliparse.Config
	client *http.Client
	now    func() time.Time
}

func NewButtonHandler(db *sql.DB, cfg cliparse.Config) *ButtonHandler {
	return &ButtonHandler{
		db:     db,
		cfg:    cfg,
		client: &http.Client{Timeout: PressTimeout},
		now:    time.Now,
	}
}

// List handles GET /api/buttons
func (h *ButtonHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT id, label, event, last_pressed_at FROM smart_button ORDER BY label, id
	`)
	if err != nil {
		slog.Error("failed to query buttons", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	buttons := []models.SmartButton{}
	for rows.Next() {
		var b models.SmartButton
		var pressed sql.NullString
		if err := rows.Scan(&b.ID, &b.Label, &b.Event, &pressed); err != nil {
			slog.Error("failed to scan button", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if pressed.Valid {
			b.LastPressedAt = &pressed.String
		}
		buttons = append(buttons, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate buttons", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, buttons)
}

// Create handles POST /api/buttons
func (h *ButtonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateButtonRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	label := middleware.CleanText(req.Label)
	event := strings.TrimSpace(req.Event)
	if label == "" || event == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "label and event are required")
		return
	}

	var id int64
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO smart_button (label, event) VALUES ($1, $2) RETURNING id
	`, label, event).Scan(&id)
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "A button for that event already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert button", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create button")
		return
	}

	slog.Info("button created", "button_id", id, "event", event)
	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: id})
}

// Delete handles DELETE /api/buttons/{id}
func (h *ButtonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM smart_button WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete button", "error", err, "button_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete button")
		return
	}
	ok, err := affectedOne(res)
	if err != nil {
		slog.Error("failed to delete button", "error", err, "button_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to delete button")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Button not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Press handles POST /api/buttons/{id}/press
// The trigger runs in the background; the response does not wait for it.
func (h *ButtonHandler) Press(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if h.cfg.IFTTTKey == "" {
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Smart home is not configured")
		return
	}

	pressedAt := h.now().UTC().Format(time.RFC3339)

	var event string
	err = h.db.QueryRowContext(r.Context(), `
		UPDATE smart_button SET last_pressed_at = $1 WHERE id = $2 RETURNING event
	`, pressedAt, id).Scan(&event)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Button not found")
		return
	}
	if err != nil {
		slog.Error("failed to record press", "error", err, "button_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	go h.trigger(event)

	middleware.JSONResponse(w, http.StatusAccepted, models.PressResponse{
		Event:   event,
		Message: "Triggered " + event,
	})
}

func (h *ButtonHandler) triggerURL(event string) string {
	return fmt.Sprintf("%s/trigger/%s/with/key/%s",
		strings.TrimRight(h.cfg.IFTTTBaseURL, "/"),
		url.PathEscape(event),
		url.PathEscape(h.cfg.IFTTTKey))
}

func (h *ButtonHandler) trigger(event string) {
	ctx, cancel := context.WithTimeout(context.Background(), PressTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.triggerURL(event), nil)
	if err != nil {
		slog.Error("failed to build trigger request", "error", err, "event", event)
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		slog.Warn("trigger failed", "error", err, "event", event)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		slog.Warn("trigger rejected", "event", event, "status", resp.StatusCode)
		return
	}
	slog.Info("trigger sent", "event", event)
}
