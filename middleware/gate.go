// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/hearth/auth"
	"github.com/danielhkuo/hearth/models"
)

// RequireGate rejects requests that do not carry a valid gate cookie.
func RequireGate(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Unlocked(r, secret) {
				ErrorResponse(w, http.StatusUnauthorized, "Locked")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Unlocked reports whether the request carries a valid gate cookie.
func Unlocked(r *http.Request, secret string) bool {
	cookie, err := r.Cookie(models.GateCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	if _, err := auth.ParseGateToken(secret, cookie.Value); err != nil {
		slog.Debug("gate cookie rejected", "error", err, "path", r.URL.Path)
		return false
	}
	return true
}
