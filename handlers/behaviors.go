// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/recurrence"
)

var weekdayHeaders = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

type BehaviorHandler struct {
	db  *sql.DB
	cfg cliparse.Config
	now func() time.Time
}

func NewBehaviorHandler(db *sql.DB, cfg cliparse.Config) *BehaviorHandler {
	return &BehaviorHandler{db: db, cfg: cfg, now: time.Now}
}

func (h *BehaviorHandler) today() time.Time {
	return recurrence.Day(h.now(), location(h.cfg))
}

// List handles GET /api/behaviors (optionally ?child=)
func (h *BehaviorHandler) List(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, child, name, points FROM behavior`
	var args []interface{}
	if child := middleware.CleanText(r.URL.Query().Get("child")); child != "" {
		query += ` WHERE child = $1`
		args = append(args, child)
	}
	query += ` ORDER BY child, id`

	rows, err := h.db.QueryContext(r.Context(), query, args...)
	if err != nil {
		slog.Error("failed to query behaviors", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	behaviors := []models.Behavior{}
	for rows.Next() {
		var b models.Behavior
		if err := rows.Scan(&b.ID, &b.Child, &b.Name, &b.Points); err != nil {
			slog.Error("failed to scan behavior", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		behaviors = append(behaviors, b)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate behaviors", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, behaviors)
}

// Create handles POST /api/behaviors
func (h *BehaviorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateBehaviorRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	child := middleware.CleanText(req.Child)
	name := middleware.CleanText(req.Name)
	if child == "" || name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "child and name are required")
		return
	}

	var id int64
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO behavior (child, name, points)
		VALUES ($1, $2, $3)
		RETURNING id
	`, child, name, req.Points).Scan(&id)
	if isUniqueViolation(err) {
		middleware.ErrorResponse(w, http.StatusConflict, "Behavior already exists for "+child)
		return
	}
	if err != nil {
		slog.Error("failed to insert behavior", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create behavior")
		return
	}

	slog.Info("behavior created", "behavior_id", id, "child", child)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: id})
}

// Delete handles DELETE /api/behaviors/{id}
func (h *BehaviorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.db.ExecContext(r.Context(), `DELETE FROM behavior WHERE id = $1`, id)
	if err != nil {
		slog.Error("failed to delete behavior", "error", err, "behavior_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	ok, err := affectedOne(res)
	if err != nil {
		slog.Error("failed to delete behavior", "error", err, "behavior_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Behavior not found")
		return
	}

	slog.Info("behavior deleted", "behavior_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// SaveCompletions handles PUT /api/behaviors/completions
// Replaces a child's checklist for one day and refreshes the daily total.
func (h *BehaviorHandler) SaveCompletions(w http.ResponseWriter, r *http.Request) {
	var req models.SaveCompletionsRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	child := middleware.CleanText(req.Child)
	if child == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "child is required")
		return
	}

	behaviors, err := h.behaviorsFor(r.Context(), child)
	if err != nil {
		slog.Error("failed to query behaviors", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	points := make(map[int64]int, len(behaviors))
	for _, b := range behaviors {
		points[b.ID] = b.Points
	}
	for id := range req.Completions {
		if _, ok := points[id]; !ok {
			middleware.ErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("behavior %d does not belong to %s", id, child))
			return
		}
	}

	tx, err := h.db.BeginTx(r.Context(), nil)
	if err != nil {
		slog.Error("failed to begin transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(r.Context(), `
		DELETE FROM behavior_completion WHERE child = $1 AND day = $2
	`, child, req.Day); err != nil {
		slog.Error("failed to clear completions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save completions")
		return
	}

	total, earned := 0, 0
	for id, done := range req.Completions {
		if _, err := tx.ExecContext(r.Context(), `
			INSERT INTO behavior_completion (child, day, behavior_id, completed)
			VALUES ($1, $2, $3, $4)
		`, child, req.Day, id, done); err != nil {
			slog.Error("failed to insert completion", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save completions")
			return
		}
		if done {
			total++
			earned += points[id]
		}
	}

	if _, err := tx.ExecContext(r.Context(), `
		INSERT INTO daily_total (child, day, total, points)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (child, day) DO UPDATE SET total = excluded.total, points = excluded.points
	`, child, req.Day, total, earned); err != nil {
		slog.Error("failed to upsert daily total", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save completions")
		return
	}

	if err := tx.Commit(); err != nil {
		slog.Error("failed to commit transaction", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to save completions")
		return
	}

	slog.Info("completions saved", "child", child, "day", req.Day, "total", total)

	middleware.JSONResponse(w, http.StatusOK, models.DailyTotal{
		Child:  child,
		Day:    req.Day,
		Total:  total,
		Points: earned,
	})
}

// GetCompletions handles GET /api/behaviors/completions?child=&day=
func (h *BehaviorHandler) GetCompletions(w http.ResponseWriter, r *http.Request) {
	child := middleware.CleanText(r.URL.Query().Get("child"))
	if child == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "child is required")
		return
	}
	day, err := dayParam(r, "day", h.today(), location(h.cfg))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	dayStr := recurrence.FormatDay(day)

	rows, err := h.db.QueryContext(r.Context(), `
		SELECT b.id, b.name, b.points, COALESCE(c.completed, FALSE)
		FROM behavior b
		LEFT JOIN behavior_completion c
			ON c.behavior_id = b.id AND c.child = b.child AND c.day = $2
		WHERE b.child = $1
		ORDER BY b.id
	`, child, dayStr)
	if err != nil {
		slog.Error("failed to query completions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}
	defer rows.Close()

	resp := models.DayCompletions{Child: child, Day: dayStr, Completions: []models.Completion{}}
	for rows.Next() {
		var c models.Completion
		if err := rows.Scan(&c.BehaviorID, &c.Name, &c.Points, &c.Completed); err != nil {
			slog.Error("failed to scan completion", "error", err)
			middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
			return
		}
		if c.Completed {
			resp.Total++
			resp.Points += c.Points
		}
		resp.Completions = append(resp.Completions, c)
	}
	if err := rows.Err(); err != nil {
		slog.Error("failed to iterate completions", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// Totals handles GET /api/behaviors/totals?from=&to=
// Defaults to the seven days ending today.
func (h *BehaviorHandler) Totals(w http.ResponseWriter, r *http.Request) {
	loc := location(h.cfg)
	to, err := dayParam(r, "to", h.today(), loc)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := dayParam(r, "from", to.AddDate(0, 0, -6), loc)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if from.After(to) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	totals, err := h.dailyTotals(r.Context(), from, to)
	if err != nil {
		slog.Error("failed to query daily totals", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, totals)
}

// Weekly handles GET /api/behaviors/weekly?week=
// week may be any day; the Monday-Sunday week containing it is summed.
func (h *BehaviorHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	sums, _, err := h.weeklySums(r)
	if err != nil {
		h.weeklyError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sums)
}

// WeeklyXLSX handles GET /api/behaviors/weekly.xlsx?week=
func (h *BehaviorHandler) WeeklyXLSX(w http.ResponseWriter, r *http.Request) {
	sums, start, err := h.weeklySums(r)
	if err != nil {
		h.weeklyError(w, err)
		return
	}

	f, err := weeklyWorkbook(sums, start)
	if err != nil {
		slog.Error("failed to build workbook", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to export")
		return
	}
	defer f.Close()

	filename := "behaviors-" + recurrence.FormatDay(start) + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := f.Write(w); err != nil {
		slog.Error("failed to write workbook", "error", err)
	}
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func (h *BehaviorHandler) weeklyError(w http.ResponseWriter, err error) {
	var br badRequest
	if errors.As(err, &br) {
		middleware.ErrorResponse(w, http.StatusBadRequest, br.msg)
		return
	}
	slog.Error("failed to compute weekly sums", "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}

func (h *BehaviorHandler) weeklySums(r *http.Request) ([]models.WeeklySum, time.Time, error) {
	day, err := dayParam(r, "week", h.today(), location(h.cfg))
	if err != nil {
		return nil, time.Time{}, badRequest{err.Error()}
	}
	start := recurrence.WeekStart(day)

	totals, err := h.dailyTotals(r.Context(), start, start.AddDate(0, 0, 6))
	if err != nil {
		return nil, time.Time{}, err
	}

	return sumWeek(totals, start), start, nil
}

// sumWeek folds daily totals into one row per child, Monday first.
func sumWeek(totals []models.DailyTotal, start time.Time) []models.WeeklySum {
	index := make(map[string]int, 7)
	for i := 0; i < 7; i++ {
		index[recurrence.FormatDay(start.AddDate(0, 0, i))] = i
	}

	byChild := make(map[string]*models.WeeklySum)
	for _, t := range totals {
		idx, ok := index[t.Day]
		if !ok {
			continue
		}
		s, ok := byChild[t.Child]
		if !ok {
			s = &models.WeeklySum{Child: t.Child, WeekStart: recurrence.FormatDay(start)}
			byChild[t.Child] = s
		}
		s.Days[idx] += t.Total
		s.Total += t.Total
		s.Points += t.Points
	}

	sums := make([]models.WeeklySum, 0, len(byChild))
	for _, s := range byChild {
		sums = append(sums, *s)
	}
	sort.Slice(sums, func(i, j int) bool {
		return sums[i].Child < sums[j].Child
	})
	return sums
}

func weeklyWorkbook(sums []models.WeeklySum, start time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Week of " + recurrence.FormatDay(start)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	header := []interface{}{"Child"}
	for _, d := range weekdayHeaders {
		header = append(header, d)
	}
	header = append(header, "Total", "Points")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetRowStyle(sheet, 1, 1, bold)
	}

	for i, s := range sums {
		row := []interface{}{s.Child}
		for _, n := range s.Days {
			row = append(row, n)
		}
		row = append(row, s.Total, s.Points)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			f.Close()
			return nil, err
		}
	}

	return f, nil
}

func (h *BehaviorHandler) dailyTotals(ctx context.Context, from, to time.Time) ([]models.DailyTotal, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT child, day, total, points
		FROM daily_total
		WHERE day >= $1 AND day <= $2
		ORDER BY day, child
	`, recurrence.FormatDay(from), recurrence.FormatDay(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := []models.DailyTotal{}
	for rows.Next() {
		var t models.DailyTotal
		if err := rows.Scan(&t.Child, &t.Day, &t.Total, &t.Points); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (h *BehaviorHandler) behaviorsFor(ctx context.Context, child string) ([]models.Behavior, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, child, name, points FROM behavior WHERE child = $1
	`, child)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var behaviors []models.Behavior
	for rows.Next() {
		var b models.Behavior
		if err := rows.Scan(&b.ID, &b.Child, &b.Name, &b.Points); err != nil {
			return nil, err
		}
		behaviors = append(behaviors, b)
	}
	return behaviors, rows.Err()
}
