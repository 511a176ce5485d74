// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielhkuo/hearth/auth"
	"github.com/danielhkuo/hearth/cliparse"
	"github.com/danielhkuo/hearth/middleware"
	"github.com/danielhkuo/hearth/models"
)

// GateTTL is how long an unlocked browser stays unlocked.
const GateTTL = 30 * 24 * time.Hour

// GateHandler needs no database: the gate state lives in the signed cookie.
type GateHandler struct {
	cfg cliparse.Config
}

func NewGateHandler(cfg cliparse.Config) *GateHandler {
	return &GateHandler{cfg: cfg}
}

// Unlock handles POST /unlock
func (h *GateHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	var req models.UnlockRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ipHash := auth.HashIP(middleware.GetClientIP(r, h.cfg.TrustedProxies), h.cfg.GateSecret)

	err := auth.CheckPattern(h.cfg.PatternHash, req.Pattern)
	switch {
	case errors.Is(err, auth.ErrInvalidPattern):
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Warn("unlock rejected", "ip_hash", ipHash)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Wrong pattern")
		return
	}

	token, err := auth.IssueGateToken(h.cfg.GateSecret, GateTTL)
	if err != nil {
		slog.Error("failed to issue gate token", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to unlock")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     models.GateCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(GateTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})

	slog.Info("gate unlocked", "ip_hash", ipHash)
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{Unlocked: true})
}

// Lock handles POST /lock
func (h *GateHandler) Lock(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.GateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{Unlocked: false})
}

// Session handles GET /api/session
func (h *GateHandler) Session(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{
		Unlocked: middleware.Unlocked(r, h.cfg.GateSecret),
	})
}
