// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/danielhkuo/hearth/models"
	"github.com/danielhkuo/hearth/testutil"
)

func TestCreateButton(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewButtonHandler(db, testutil.GetTestConfig())

	tests := []struct {
		name           string
		body           models.CreateButtonRequest
		expectedStatus int
	}{
		{"valid", models.CreateButtonRequest{Label: "Porch light", Event: "porch_on"}, http.StatusCreated},
		{"duplicate event", models.CreateButtonRequest{Label: "Porch again", Event: "porch_on"}, http.StatusConflict},
		{"slash in event", models.CreateButtonRequest{Label: "Bad", Event: "a/b"}, http.StatusBadRequest},
		{"missing label", models.CreateButtonRequest{Event: "garage"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.Create(w, testutil.MakeRequest("POST", "/api/buttons", tt.body, nil))
			testutil.AssertStatus(t, w, tt.expectedStatus)
		})
	}

	w := httptest.NewRecorder()
	handler.List(w, testutil.MakeRequest("GET", "/api/buttons", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var buttons []models.SmartButton
	testutil.AssertJSON(t, w, &buttons)
	if len(buttons) != 1 || buttons[0].Event != "porch_on" || buttons[0].LastPressedAt != nil {
		t.Errorf("unexpected buttons %+v", buttons)
	}
}

func TestPressButton(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	hits := make(chan string, 1)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.Method + " " + r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer remote.Close()

	handler := NewButtonHandler(db, testutil.GetTestConfig())
	handler.cfg.IFTTTBaseURL = remote.URL
	handler.client = remote.Client()
	handler.now = func() time.Time { return fixedNow }

	var id int64
	if err := db.QueryRow(`INSERT INTO smart_button (label, event) VALUES ($1, $2) RETURNING id`, "Fireplace", "fireplace_on").Scan(&id); err != nil {
		t.Fatalf("seed button: %v", err)
	}
	idStr := strconv.FormatInt(id, 10)

	req := httptest.NewRequest("POST", "/api/buttons/"+idStr+"/press", nil)
	req.SetPathValue("id", idStr)
	w := httptest.NewRecorder()
	handler.Press(w, req)
	testutil.AssertStatus(t, w, http.StatusAccepted)

	var resp models.PressResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Event != "fireplace_on" {
		t.Errorf("Event = %q", resp.Event)
	}

	select {
	case got := <-hits:
		want := "POST /trigger/fireplace_on/with/key/test-ifttt-key"
		if got != want {
			t.Errorf("trigger = %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("trigger was never sent")
	}

	var pressed string
	if err := db.QueryRow(`SELECT last_pressed_at FROM smart_button WHERE id = $1`, id).Scan(&pressed); err != nil {
		t.Fatalf("read last_pressed_at: %v", err)
	}
	if pressed != "2026-10-17T10:30:00Z" {
		t.Errorf("last_pressed_at = %q", pressed)
	}

	t.Run("unknown button", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/buttons/99/press", nil)
		req.SetPathValue("id", "99")
		w := httptest.NewRecorder()
		handler.Press(w, req)
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})

	t.Run("no key configured", func(t *testing.T) {
		unconfigured := NewButtonHandler(db, testutil.GetTestConfig())
		unconfigured.cfg.IFTTTKey = ""

		req := httptest.NewRequest("POST", "/api/buttons/"+idStr+"/press", nil)
		req.SetPathValue("id", idStr)
		w := httptest.NewRecorder()
		unconfigured.Press(w, req)
		testutil.AssertStatus(t, w, http.StatusServiceUnavailable)
	})
}

func TestDeleteButton(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer db.Close()

	handler := NewButtonHandler(db, testutil.GetTestConfig())

	var id int64
	if err := db.QueryRow(`INSERT INTO smart_button (label, event) VALUES ($1, $2) RETURNING id`, "Fan", "fan_toggle").Scan(&id); err != nil {
		t.Fatalf("seed button: %v", err)
	}
	idStr := strconv.FormatInt(id, 10)

	for _, want := range []int{http.StatusNoContent, http.StatusNotFound} {
		req := httptest.NewRequest("DELETE", "/api/buttons/"+idStr, nil)
		req.SetPathValue("id", idStr)
		w := httptest.NewRecorder()
		handler.Delete(w, req)
		testutil.AssertStatus(t, w, want)
	}
}
