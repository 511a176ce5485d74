// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/squares"
)

type SquaresHandler struct {
	db  *sql.DB
	cfg cliparse.Config

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewSquaresHandler(db *sql.DB, cfg cliparse.Config) *SquaresHandler {
	seed := uint64(time.Now().UnixNano())
	return &SquaresHandler{
		db:  db,
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed>>1)),
	}
}

// CreateGame handles POST /api/squares
func (h *SquaresHandler) CreateGame(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSquaresGameRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var id int64
	err := h.db.QueryRowContext(r.Context(), `
		INSERT INTO squares_game (name, home_team, away_team)
		VALUES ($1, $2, $3)
		RETURNING id
	`, middleware.CleanText(req.Name), middleware.CleanText(req.HomeTeam), middleware.CleanText(req.AwayTeam)).Scan(&id)
	if err != nil {
		slog.Error("failed to insert squares game", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create game")
		return
	}

	slog.Info("squares game created", "game_id", id)

	middleware.JSONResponse(w, http.StatusCreated, models.CreatedResponse{ID: id})
}

// GetGame handles GET /api/squares/{id}
func (h *SquaresHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	game, _, ok := h.load(r.Context(), w, id)
	if !ok {
		return
	}

	middleware.JSONResponse(w, http.StatusOK, game)
}

// Claim handles POST /api/squares/{id}/claim
func (h *SquaresHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.ClaimSquareRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	owner := middleware.CleanText(req.Owner)
	if owner == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "owner is required")
		return
	}

	_, board, ok := h.load(r.Context(), w, id)
	if !ok {
		return
	}

	if err := board.Claim(req.Row, req.Col, owner); err != nil {
		status := http.StatusConflict
		if errors.Is(err, squares.ErrOutOfRange) {
			status = http.StatusBadRequest
		}
		middleware.ErrorResponse(w, status, err.Error())
		return
	}

	inserted, err := h.insertClaim(r.Context(), id, req.Row, req.Col, owner)
	if isUniqueViolation(err) {
		// Lost a race with another claim.
		middleware.ErrorResponse(w, http.StatusConflict, squares.ErrSquareTaken.Error())
		return
	}
	if err != nil {
		slog.Error("failed to insert square", "error", err, "game_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to claim square")
		return
	}
	if !inserted {
		// Lost a race with Lock.
		middleware.ErrorResponse(w, http.StatusConflict, squares.ErrBoardLocked.Error())
		return
	}

	slog.Info("square claimed", "game_id", id, "row", req.Row, "col", req.Col)
	w.WriteHeader(http.StatusCreated)
}

// insertClaim stores a claim only while the game's digits are undrawn.
// It reports false when the board was locked first.
func (h *SquaresHandler) insertClaim(ctx context.Context, id int64, row, col int, owner string) (bool, error) {
	res, err := h.db.ExecContext(ctx, `
		INSERT INTO square (game_id, row_index, col_index, owner)
		SELECT CAST($1 AS INTEGER), CAST($2 AS INTEGER), CAST($3 AS INTEGER), CAST($4 AS TEXT)
		WHERE EXISTS (SELECT 1 FROM squares_game WHERE id = $1 AND row_digits = '')
	`, id, row, col, owner)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Lock handles POST /api/squares/{id}/lock
// Draws the row and column digits. Claims are closed afterwards.
func (h *SquaresHandler) Lock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	_, board, ok := h.load(r.Context(), w, id)
	if !ok {
		return
	}
	if board.Locked() {
		middleware.ErrorResponse(w, http.StatusConflict, squares.ErrBoardLocked.Error())
		return
	}

	h.mu.Lock()
	board.RowDigits = squares.ShuffleDigits(h.rng)
	board.ColDigits = squares.ShuffleDigits(h.rng)
	h.mu.Unlock()

	res, err := h.db.ExecContext(r.Context(), `
		UPDATE squares_game SET row_digits = $1, col_digits = $2
		WHERE id = $3 AND row_digits = ''
	`, squares.EncodeDigits(board.RowDigits), squares.EncodeDigits(board.ColDigits), id)
	if err != nil {
		slog.Error("failed to lock game", "error", err, "game_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to lock game")
		return
	}
	locked, err := affectedOne(res)
	if err != nil {
		slog.Error("failed to lock game", "error", err, "game_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to lock game")
		return
	}
	if !locked {
		middleware.ErrorResponse(w, http.StatusConflict, squares.ErrBoardLocked.Error())
		return
	}

	slog.Info("squares game locked", "game_id", id, "unclaimed", board.Unclaimed())

	game, _, ok := h.load(r.Context(), w, id)
	if !ok {
		return
	}
	middleware.JSONResponse(w, http.StatusOK, game)
}

// Winner handles GET /api/squares/{id}/winner?home=&away=
func (h *SquaresHandler) Winner(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	home, err1 := strconv.Atoi(r.URL.Query().Get("home"))
	away, err2 := strconv.Atoi(r.URL.Query().Get("away"))
	if err1 != nil || err2 != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "home and away scores are required")
		return
	}

	_, board, ok := h.load(r.Context(), w, id)
	if !ok {
		return
	}

	row, col, owner, err := squares.Winner(board, home, away)
	switch {
	case errors.Is(err, squares.ErrNotLocked):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, squares.ErrNegativeScore):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("failed to find winner", "error", err, "game_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Corrupt board")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.WinnerResponse{
		HomeScore: home,
		AwayScore: away,
		Row:       row,
		Col:       col,
		Owner:     owner,
	})
}

// load reads a game and its board. On failure it has already written the response.
func (h *SquaresHandler) load(ctx context.Context, w http.ResponseWriter, id int64) (*models.SquaresGame, *squares.Board, bool) {
	game, board, err := h.loadBoard(ctx, id)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Game not found")
		return nil, nil, false
	}
	if err != nil {
		slog.Error("failed to load squares game", "error", err, "game_id", id)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
		return nil, nil, false
	}
	return game, board, true
}

func (h *SquaresHandler) loadBoard(ctx context.Context, id int64) (*models.SquaresGame, *squares.Board, error) {
	game := &models.SquaresGame{ID: id}
	var rowDigits, colDigits string
	err := h.db.QueryRowContext(ctx, `
		SELECT name, home_team, away_team, row_digits, col_digits
		FROM squares_game WHERE id = $1
	`, id).Scan(&game.Name, &game.HomeTeam, &game.AwayTeam, &rowDigits, &colDigits)
	if err != nil {
		return nil, nil, err
	}

	board := &squares.Board{}
	if board.RowDigits, err = squares.DecodeDigits(rowDigits); err != nil {
		return nil, nil, err
	}
	if board.ColDigits, err = squares.DecodeDigits(colDigits); err != nil {
		return nil, nil, err
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT row_index, col_index, owner FROM square WHERE game_id = $1
	`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var row, col int
		var owner string
		if err := rows.Scan(&row, &col, &owner); err != nil {
			return nil, nil, err
		}
		if squares.InRange(row, col) {
			board.Owners[row][col] = owner
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	game.RowDigits = board.RowDigits
	game.ColDigits = board.ColDigits
	game.Locked = board.Locked()
	game.Unclaimed = board.Unclaimed()
	game.Owners = make([][]string, squares.Size)
	for i := range board.Owners {
		game.Owners[i] = board.Owners[i][:]
	}
	return game, board, nil
}
