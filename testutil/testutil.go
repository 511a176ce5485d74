// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/danielhkuo/hearth/auth"
	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/db"
	"github.com/danielhkuo/hearth/models"
)

// TestPattern unlocks the gate configured by GetTestConfig.
var TestPattern = []int{1, 2, 3, 6, 9}

// SetupTestDB creates a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(context.Background(), db.SQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		conn.Close()
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	hash, err := auth.HashPattern(TestPattern, bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      db.SQLite,
		GateSecret:        "test-gate-secret",
		PatternHash:       hash,
		UnlockPerMinute:   cliparse.DefaultUnlockPerMinute,
		TimeZone:          "UTC",
		Location:          time.UTC,
		RecomputeSchedule: cliparse.DefaultRecomputeSchedule,
		IFTTTKey:          "test-ifttt-key",
		IFTTTBaseURL:      cliparse.DefaultIFTTTBaseURL,
	}
}

// GateCookie returns a valid gate cookie for cfg
func GateCookie(t *testing.T, cfg cliparse.Config) *http.Cookie {
	t.Helper()

	token, err := auth.IssueGateToken(cfg.GateSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue gate token: %v", err)
	}
	return &http.Cookie{Name: models.GateCookieName, Value: token}
}

// CreateTestTask inserts a task and returns its ID. recurrence is raw JSON or "".
func CreateTestTask(t *testing.T, conn *sql.DB, title, recurrence string, lastCompleted *string, visible, completed bool) int64 {
	t.Helper()

	var rule *string
	if recurrence != "" {
		rule = &recurrence
	}

	var id int64
	err := conn.QueryRow(`
		INSERT INTO task (title, recurrence, last_completed, visible, completed)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, title, rule, lastCompleted, visible, completed).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test task: %v", err)
	}

	return id
}

// CreateTestActivity adds a canonical activity
func CreateTestActivity(t *testing.T, conn *sql.DB, name, activityType string) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRow(`
		INSERT INTO activity (name, activity_type)
		VALUES ($1, $2)
		RETURNING id
	`, name, activityType).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test activity: %v", err)
	}

	return id
}

// SubmitTestVote stores one voter's ranking for a category, best first
func SubmitTestVote(t *testing.T, conn *sql.DB, email, activityType string, ranking ...string) {
	t.Helper()

	for i, name := range ranking {
		_, err := conn.Exec(`
			INSERT INTO vote (email, activity_name, activity_type, rank_position)
			VALUES ($1, $2, $3, $4)
		`, email, name, activityType, i+1)
		if err != nil {
			t.Fatalf("Failed to create test vote: %v", err)
		}
	}
}

// CreateTestBehavior adds a behavior for a child
func CreateTestBehavior(t *testing.T, conn *sql.DB, child, name string, points int) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRow(`
		INSERT INTO behavior (child, name, points)
		VALUES ($1, $2, $3)
		RETURNING id
	`, child, name, points).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test behavior: %v", err)
	}

	return id
}

// CreateTestTemplate adds a packing template with the given items
func CreateTestTemplate(t *testing.T, conn *sql.DB, name string, items ...models.TemplateItem) int64 {
	t.Helper()

	var id int64
	err := conn.QueryRow(`
		INSERT INTO trip_template (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test template: %v", err)
	}

	for _, item := range items {
		_, err := conn.Exec(`
			INSERT INTO template_item (template_id, name, category, quantity)
			VALUES ($1, $2, $3, $4)
		`, id, item.Name, item.Category, item.Quantity)
		if err != nil {
			t.Fatalf("Failed to create test template item: %v", err)
		}
	}

	return id
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
