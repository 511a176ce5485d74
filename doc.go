// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Hearth household server.

Hearth keeps a family's shared chores, votes, behavior charts, packing lists,
football squares and smart-home buttons behind a single pattern-lock gate.

# Starting the Server

The server reads flags first, then environment variables, then an optional
.env file:

	DATABASE_URL=hearth.db GATE_SECRET=... PATTERN_HASH=... go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -tz America/Chicago

# Configuration

Required settings:

  - DATABASE_URL (-d): sqlite file path or PostgreSQL connection string
  - GATE_SECRET (--gate-secret): signing key for the gate cookie
  - PATTERN_HASH (--pattern-hash): bcrypt hash of the unlock pattern

Optional settings:

  - PORT (-p): server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - TIMEZONE (-tz): zone that decides where a day starts (default: Local)
  - RECOMPUTE_SCHEDULE (--recompute): six-field cron spec for the daily pass
  - UNLOCK_PER_MINUTE: unlock attempts allowed per client IP
  - TRUSTED_PROXIES (--trusted-proxies): proxy IPs or CIDRs whose
    X-Forwarded-For is believed (default: none, RemoteAddr only)
  - IFTTT_KEY, IFTTT_BASE_URL: webhook trigger for smart-home buttons
  - LOG_LEVEL (--log-level), LOG_PATH (--log-path)

# Architecture

  - recurrence, tally, squares: pure domain logic, no I/O
  - handlers: HTTP request handlers, one struct per resource
  - router: route table, gate and CORS wiring
  - scheduler: cron-driven daily task pass
  - middleware: logging, JSON helpers, validation, gate, rate limiting
  - models: request/response types
  - auth: pattern hashing and gate tokens
  - db: connection and schema for sqlite and PostgreSQL
  - cliparse: configuration parsing
  - logging: slog setup with an optional rolling file

See package documentation for each component.
*/
package main
