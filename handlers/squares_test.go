// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/testutil"
)

func claimSquare(t *testing.T, h *SquaresHandler, gameID string, row, col int, owner string) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.MakeRequest("POST", "/api/squares/"+gameID+"/claim", models.ClaimSquareRequest{Row: row, Col: col, Owner: owner}, nil)
	req.SetPathValue("id", gameID)
	w := httptest.NewRecorder()
	h.Claim(w, req)
	return w
}

func TestSquaresGame(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewSquaresHandler(db, testutil.GetTestConfig())
	handler.rng = rand.New(rand.NewPCG(1, 2))

	w := httptest.NewRecorder()
	handler.CreateGame(w, testutil.MakeRequest("POST", "/api/squares", models.CreateSquaresGameRequest{
		Name: "Big Game", HomeTeam: "Hawks", AwayTeam: "Bears",
	}, nil))
	testutil.AssertStatus(t, w, http.StatusCreated)

	var created models.CreatedResponse
	testutil.AssertJSON(t, w, &created)
	id := fmt.Sprint(created.ID)

	t.Run("claims", func(t *testing.T) {
		testutil.AssertStatus(t, claimSquare(t, handler, id, 7, 3, "Grandpa"), http.StatusCreated)
		testutil.AssertStatus(t, claimSquare(t, handler, id, 7, 3, "Ava"), http.StatusConflict)
		testutil.AssertStatus(t, claimSquare(t, handler, id, 10, 3, "Ava"), http.StatusBadRequest)
		testutil.AssertStatus(t, claimSquare(t, handler, "404", 1, 1, "Ava"), http.StatusNotFound)
	})

	t.Run("winner before lock", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/squares/"+id+"/winner?home=7&away=3", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.Winner(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)
	})

	var game models.SquaresGame
	t.Run("lock", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/squares/"+id+"/lock", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.Lock(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		testutil.AssertJSON(t, w, &game)
		if !game.Locked || len(game.RowDigits) != 10 || len(game.ColDigits) != 10 {
			t.Fatalf("Expected drawn digits, got %+v", game)
		}
		if game.Unclaimed != 99 || game.Owners[7][3] != "Grandpa" {
			t.Errorf("unexpected board after lock: unclaimed=%d owner=%q", game.Unclaimed, game.Owners[7][3])
		}

		w = httptest.NewRecorder()
		handler.Lock(w, req)
		testutil.AssertStatus(t, w, http.StatusConflict)

		testutil.AssertStatus(t, claimSquare(t, handler, id, 0, 0, "Ava"), http.StatusConflict)
	})

	t.Run("winner", func(t *testing.T) {
		if !game.Locked {
			t.Skip("lock failed")
		}
		home := 10 + game.RowDigits[7] // 1x points, last digit matches row 7
		away := 20 + game.ColDigits[3]

		req := httptest.NewRequest("GET", fmt.Sprintf("/api/squares/%s/winner?home=%d&away=%d", id, home, away), nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		handler.Winner(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.WinnerResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Row != 7 || resp.Col != 3 || resp.Owner != "Grandpa" {
			t.Errorf("winner = %+v, want row 7 col 3 Grandpa", resp)
		}
	})

	t.Run("bad scores", func(t *testing.T) {
		for _, q := range []string{"home=1", "home=-3&away=0", "home=x&away=1"} {
			req := httptest.NewRequest("GET", "/api/squares/"+id+"/winner?"+q, nil)
			req.SetPathValue("id", id)
			w := httptest.NewRecorder()
			handler.Winner(w, req)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		}
	})
}

func TestClaimAfterConcurrentLock(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewSquaresHandler(db, testutil.GetTestConfig())

	var gameID int64
	err := db.QueryRow(`INSERT INTO squares_game (name, home_team, away_team) VALUES ($1, $2, $3) RETURNING id`,
		"Late Game", "Hawks", "Bears").Scan(&gameID)
	if err != nil {
		t.Fatalf("insert game: %v", err)
	}

	inserted, err := handler.insertClaim(context.Background(), gameID, 1, 1, "Ava")
	if err != nil || !inserted {
		t.Fatalf("Expected claim on an open board, got inserted=%v err=%v", inserted, err)
	}

	// Lock lands between the handler's load and its insert.
	if _, err := db.Exec(`UPDATE squares_game SET row_digits = $1, col_digits = $2 WHERE id = $3`,
		"0,1,2,3,4,5,6,7,8,9", "9,8,7,6,5,4,3,2,1,0", gameID); err != nil {
		t.Fatalf("lock game: %v", err)
	}

	inserted, err = handler.insertClaim(context.Background(), gameID, 2, 2, "Leo")
	if err != nil {
		t.Fatalf("insertClaim: %v", err)
	}
	if inserted {
		t.Error("Expected no claim after the digits were drawn")
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM square WHERE game_id = $1`, gameID).Scan(&count); err != nil {
		t.Fatalf("count squares: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 stored claim, got %d", count)
	}

	testutil.AssertStatus(t, claimSquare(t, handler, fmt.Sprint(gameID), 3, 3, "Mom"), http.StatusConflict)
}
