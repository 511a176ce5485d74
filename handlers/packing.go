// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sort"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
)

// DefaultCategory holds items entered without one.
const DefaultCategory = "Other"

type PackingHandler struct {
	db  *sql.DB
	cfg cliparse.Config
}

func NewPackingHandler(db *sql.DB, cfg cliparse.Config) *PackingHandler {
	return &PackingHandler{db: db, cfg: cfg}
}

func normalizeItem(item models.CreateTemplateItemBody) models.CreateTemplateItemBody {
	item.Name = middleware.CleanText(item.Name)
	item.Category = middleware.CleanText(item.Category)
	if item.Category == "" {
		item.Category = DefaultCategory
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	return item
}

// ListTemplates handles GET /api/templates
func (h *PackingHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT t.id, t.name, i.id, i.name, i.category, i.quantity
		FROM trip_template t
		LEFT JOIN template_item i ON i.template_id = t.id
		ORDER BY t.name, i.category, i.id
	`)
	if err != nil {
		slog.Error("failed to query templates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	templates := []models.TripTemplate{}
	for rows.Next() {
		var id int64
		var name string
		var itemID sql.NullInt64
		var itemName, category sql.NullString
		var quantity sql.NullInt64
		if err := rows.Scan(&id, &name, &itemID, &itemName, &category, &quantity); err != nil {
			slog.Error("failed to scan template", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}

		if n := len(templates); n == 0 || templates[n-1].ID != id {
			templates = append(templates, models.TripTemplate{ID: id, Name: name, Items: []models.TemplateItem{}})
		}
		if itemID.Valid {
			t := &templates[len(templates)-1]
			t.Items = append(t.Items, models.TemplateItem{
				ID:       itemID.Int64,
				Name:     itemName.String,
				Category: category.String,
				Quantity: int(quantity.Int64),
			})
		}
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate templates", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, templates)
}

// CreateTemplate handles POST /api/templates
func (h *PackingHandler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTemplateRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	name := middleware.CleanText(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(r.Context(), `
		INSERT INTO trip_template (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Template already exists")
		return
	}
	if err != nil {
		slog.Error("failed to insert template", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	for _, item := range req.Items {
		item = normalizeItem(item)
		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO template_item (template_id, name, category, quantity)
			VALUES ($1, $2, $3, $4)
		`, id, item.Name, item.Category, item.Quantity); err != nil {
			slog.Error("failed to insert template item", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create template")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create template")
		return
	}

	slog.Info("template created", "template_id", id, "items", len(req.Items))

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: id})
}

// DeleteTemplate handles DELETE /api/templates/{id}
// Trips made from the template keep their copied items.
func (h *PackingHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM trip_template WHERE id = $1`, id)
	h.finishDelete(w, res, err, "template", id)
}

// AddTemplateItem handles POST /api/templates/{id}/items
func (h *PackingHandler) AddTemplateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.CreateTemplateItemBody
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	req = normalizeItem(req)
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	var exists bool
	err = h.db.QueryRowContext(r.Context(), `
		SELECT EXISTS(SELECT 1 FROM trip_template WHERE id = $1)
	`, id).Scan(&exists)
	if err != nil {
		slog.Error("failed to query template", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
		return
	}

	var itemID int64
	err = h.db.QueryRowContext(r.Context(), `
		INSERT INTO template_item (template_id, name, category, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, id, req.Name, req.Category, req.Quantity).Scan(&itemID)
	if err != nil {
		slog.Error("failed to insert template item", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to add item")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: itemID})
}

// DeleteTemplateItem handles DELETE /api/templates/{id}/items/{itemID}
func (h *PackingHandler) DeleteTemplateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `
		DELETE FROM template_item WHERE id = $1 AND template_id = $2
	`, itemID, id)
	h.finishDelete(w, res, err, "template item", itemID)
}

// CreateTrip handles POST /api/trips
// Items are copied from the template so later template edits leave the trip alone.
func (h *PackingHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTripRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	name := middleware.CleanText(req.Name)
	if name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}
	var startDay *string
	if req.StartDay != "" {
		startDay = &req.StartDay
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if req.TemplateID != nil {
		var exists bool
		err := tx.QueryRowContext(r.Context(), `
			SELECT EXISTS(SELECT 1 FROM trip_template WHERE id = $1)
		`, *req.TemplateID).Scan(&exists)
		if err != nil {
			slog.Error("failed to query template", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if !exists {
			middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
			return
		}
	}

	var tripID int64
	err = tx.QueryRowContext(r.Context(), `
		INSERT INTO trip (name, template_id, start_day)
		VALUES ($1, $2, $3)
		RETURNING id
	`, name, req.TemplateID, startDay).Scan(&tripID)
	if err != nil {
		slog.Error("failed to insert trip", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	if req.TemplateID != nil {
		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO trip_item (trip_id, name, category, quantity, packed)
			SELECT CAST($1 AS INTEGER), name, category, quantity, FALSE
			FROM template_item
			WHERE template_id = $2
		`, tripID, *req.TemplateID); err != nil {
			slog.Error("failed to copy template items", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create trip")
			return
		}
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create trip")
		return
	}

	slog.Info("trip created", "trip_id", tripID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: tripID})
}

// GetTrip handles GET /api/trips/{id}
func (h *PackingHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	trip, err := h.loadTrip(r.Context(), id)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Trip not found")
		return
	}
	if err != nil {
		slog.Error("failed to load trip", "error", err, "trip_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, trip)
}

// ToggleTripItem handles POST /api/trips/{id}/items/{itemID}/toggle
func (h *PackingHandler) ToggleTripItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := pathID(r, "itemID")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var item models.TripItem
	err = h.db.QueryRowContext(r.Context(), `
		UPDATE trip_item SET packed = NOT packed
		WHERE id = $1 AND trip_id = $2
		RETURNING id, name, category, quantity, packed
	`, itemID, id).Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Packed)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Item not found")
		return
	}
	if err != nil {
		slog.Error("failed to toggle item", "error", err, "trip_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, item)
}

// DeleteTrip handles DELETE /api/trips/{id}
func (h *PackingHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM trip WHERE id = $1`, id)
	h.finishDelete(w, res, err, "trip", id)
}

func (h *PackingHandler) finishDelete(w http.ResponseWriter, res sql.Result, err error, what string, id int64) {
	if err != nil {
		slog.Error("delete failed", "what", what, "error", err, "id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	ok, err := affectedOne(res)
	if err != nil {
		slog.Error("delete failed", "what", what, "error", err, "id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Not found")
		return
	}

	slog.Info(what+" deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PackingHandler) loadTrip(ctx context.Context, id int64) (*models.Trip, error) {
	trip := &models.Trip{ID: id, Categories: []models.TripCategory{}}

	var templateID sql.NullInt64
	var startDay sql.NullString
	err := h.db.QueryRowContext(ctx, `
		SELECT name, template_id, start_day FROM trip WHERE id = $1
	`, id).Scan(&trip.Name, &templateID, &startDay)
	if err != nil {
		return nil, err
	}
	if templateID.Valid {
		trip.TemplateID = &templateID.Int64
	}
	if startDay.Valid {
		trip.StartDay = &startDay.String
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, name, category, quantity, packed
		FROM trip_item
		WHERE trip_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.TripItem
	for rows.Next() {
		var it models.TripItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Category, &it.Quantity, &it.Packed); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	trip.Categories = groupByCategory(items)
	trip.Total = len(items)
	for _, it := range items {
		if it.Packed {
			trip.Packed++
		}
	}
	return trip, nil
}

// groupByCategory buckets items by category name, alphabetically, with the
// catch-all category last. Items keep their incoming order.
func groupByCategory(items []models.TripItem) []models.TripCategory {
	index := make(map[string]int)
	groups := []models.TripCategory{}
	for _, it := range items {
		i, ok := index[it.Category]
		if !ok {
			i = len(groups)
			index[it.Category] = i
			groups = append(groups, models.TripCategory{Category: it.Category})
		}
		groups[i].Items = append(groups[i].Items, it)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Category, groups[j].Category
		if (a == DefaultCategory) != (b == DefaultCategory) {
			return b == DefaultCategory
		}
		return a < b
	})
	return groups
}
