// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Each request gets an X-Request-ID (kept from the client when present) that
appears on the start and completion log lines along with status and
duration_ms.

# Gate

Everything under /api sits behind the pattern lock:

	api := middleware.RequireGate(cfg.GateSecret)(apiMux)

The gate cookie is a signed token issued by POST /unlock. Unlock attempts are
throttled per client IP:

	limiter := middleware.NewIPRateLimiter(cfg.UnlockPerMinute, cfg.TrustedProxies)
	mux.HandleFunc("POST /unlock", limiter.Limit(gate.Unlock))

# CORS Middleware

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

# JSON Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse and validate a request body in one step:

	var req models.CreateTaskRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

Free-text labels go through CleanText before they are stored.

# Client IP Extraction

	ip := middleware.GetClientIP(r, cfg.TrustedProxies)

RemoteAddr is used unless the peer is a trusted proxy. Behind one, the
right-most X-Forwarded-For hop outside the trusted set is the client, then
X-Real-IP. Used to key the unlock limiter.
*/
package middleware
