// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/testutil"
)

// TestConcurrentVoteSubmissions verifies that simultaneous ballots from
// different voters all land without duplicates.
func TestConcurrentVoteSubmissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewVotingHandler(db, testutil.GetTestConfig())
	names := []string{"Pizza", "Tacos", "Sushi"}
	for _, n := range names {
		testutil.CreateTestActivity(t, db, n, "dinner")
	}

	numVoters := 10
	var created atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numVoters; i++ {
		wg.Add(1)
		go func(voterIdx int) {
			defer wg.Done()

			ranking := []string{names[voterIdx%3], names[(voterIdx+1)%3], names[(voterIdx+2)%3]}
			w := httptest.NewRecorder()
			handler.SubmitVote(w, testutil.MakeRequest("POST", "/api/votes", models.SubmitVoteRequest{
				Email:        fmt.Sprintf("voter%d@example.com", voterIdx),
				ActivityType: "dinner",
				Ranking:      ranking,
			}, nil))
			if w.Code == http.StatusCreated {
				created.Add(1)
			} else {
				t.Errorf("voter %d: status %d: %s", voterIdx, w.Code, w.Body.String())
			}
		}(i)
	}
	wg.Wait()

	if int(created.Load()) != numVoters {
		t.Errorf("Expected %d new ballots, got %d", numVoters, created.Load())
	}

	var rows int
	if err := db.QueryRow(`SELECT COUNT(*) FROM vote`).Scan(&rows); err != nil {
		t.Fatalf("count votes: %v", err)
	}
	if rows != numVoters*len(names) {
		t.Errorf("Expected %d vote rows, got %d", numVoters*len(names), rows)
	}
}

// TestConcurrentBallotReplacement verifies that one voter resubmitting in
// parallel ends with exactly one complete ballot.
func TestConcurrentBallotReplacement(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewVotingHandler(db, testutil.GetTestConfig())
	rankings := [][]string{
		{"Zoo", "Beach", "Museum"},
		{"Beach", "Museum"},
		{"Museum"},
		{"Zoo", "Museum"},
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := httptest.NewRecorder()
			handler.SubmitVote(w, testutil.MakeRequest("POST", "/api/votes", models.SubmitVoteRequest{
				Email:        "mom@example.com",
				ActivityType: "outing",
				Ranking:      rankings[n%len(rankings)],
			}, nil))
			if w.Code != http.StatusCreated && w.Code != http.StatusOK {
				t.Errorf("submission %d: status %d", n, w.Code)
			}
		}(i)
	}
	wg.Wait()

	var count, maxPos int
	err := db.QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(rank_position), 0) FROM vote WHERE email = $1
	`, "mom@example.com").Scan(&count, &maxPos)
	if err != nil {
		t.Fatalf("query ballot: %v", err)
	}

	valid := false
	for _, r := range rankings {
		if len(r) == count {
			valid = true
		}
	}
	if !valid || maxPos != count {
		t.Errorf("ballot is a mix of submissions: %d rows, max position %d", count, maxPos)
	}
}

// TestConcurrentSquareClaims verifies that only one of many racing claims
// on the same square succeeds.
func TestConcurrentSquareClaims(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewSquaresHandler(db, testutil.GetTestConfig())

	var gameID int64
	err := db.QueryRow(`
		INSERT INTO squares_game (name, home_team, away_team) VALUES ($1, $2, $3) RETURNING id
	`, "Playoffs", "Home", "Away").Scan(&gameID)
	if err != nil {
		t.Fatalf("seed game: %v", err)
	}
	id := strconv.FormatInt(gameID, 10)

	var won, lost atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := claimSquare(t, handler, id, 4, 4, fmt.Sprintf("Cousin %d", n))
			switch w.Code {
			case http.StatusCreated:
				won.Add(1)
			case http.StatusConflict:
				lost.Add(1)
			default:
				t.Errorf("claim %d: status %d", n, w.Code)
			}
		}(i)
	}
	wg.Wait()

	if won.Load() != 1 || lost.Load() != 7 {
		t.Errorf("Expected 1 winner and 7 conflicts, got %d and %d", won.Load(), lost.Load())
	}
}

// TestConcurrentRecompute verifies that overlapping passes for the same day
// leave tasks in the state a single pass would.
func TestConcurrentRecompute(t *testing.T) {
	h, db := newTestTaskHandler(t)

	lastWeek := "2026-10-10"
	weekly := testutil.CreateTestTask(t, db, "Water plants", `{"type":"weekly","interval":1}`, &lastWeek, false, true)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := httptest.NewRecorder()
			h.RecomputeHTTP(w, testutil.MakeRequest("POST", "/api/tasks/recompute", nil, nil))
			if w.Code != http.StatusOK {
				t.Errorf("recompute status %d: %s", w.Code, w.Body.String())
			}
		}()
	}
	wg.Wait()

	var visible, completed bool
	if err := db.QueryRow(`SELECT visible, completed FROM task WHERE id = $1`, weekly).Scan(&visible, &completed); err != nil {
		t.Fatalf("read task: %v", err)
	}
	if !visible || completed {
		t.Errorf("weekly task visible=%v completed=%v, want true/false", visible, completed)
	}

	var runs int
	if err := db.QueryRow(`SELECT COUNT(*) FROM recompute_run`).Scan(&runs); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if runs != 1 {
		t.Errorf("Expected one recompute_run row, got %d", runs)
	}
}
