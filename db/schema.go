// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Dialects
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dialect string) error {
	ddl, err := Schema(dialect)
	if err != nil {
		return err
	}

	// Postgres accepts the whole script in one Exec; sqlite only reliably runs
	// the first statement, so split on the terminator.
	for _, stmt := range strings.Split(ddl, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Schema returns the DDL for the given dialect.
func Schema(dialect string) (string, error) {
	var idColumn string
	switch dialect {
	case SQLite:
		idColumn = "INTEGER PRIMARY KEY AUTOINCREMENT"
	case Postgres:
		idColumn = "BIGSERIAL PRIMARY KEY"
	default:
		return "", fmt.Errorf("unsupported dialect %q", dialect)
	}
	return strings.ReplaceAll(schema, "{{id}}", idColumn), nil
}

// Days are stored as YYYY-MM-DD text so both dialects compare them the same way.
const schema = `
-- Recurring household tasks
CREATE TABLE IF NOT EXISTS task (
    id {{id}},
    title TEXT NOT NULL,
    assignee TEXT NOT NULL DEFAULT '',
    recurrence TEXT,
    last_completed TEXT,
    visible BOOLEAN NOT NULL DEFAULT FALSE,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_task_visible ON task(visible);

-- One row per day the task pass has run
CREATE TABLE IF NOT EXISTS recompute_run (
    day TEXT PRIMARY KEY,
    updated INTEGER NOT NULL,
    ran_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Trip activities that can be ranked
CREATE TABLE IF NOT EXISTS activity (
    id {{id}},
    name TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    UNIQUE (name, activity_type)
);

-- Ranked-choice votes
CREATE TABLE IF NOT EXISTS vote (
    email TEXT NOT NULL,
    activity_name TEXT NOT NULL,
    activity_type TEXT NOT NULL,
    rank_position INTEGER NOT NULL CHECK (rank_position >= 1),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (email, activity_name, activity_type)
);

CREATE INDEX IF NOT EXISTS idx_vote_type ON vote(activity_type);

-- Behaviors tracked per child
CREATE TABLE IF NOT EXISTS behavior (
    id {{id}},
    child TEXT NOT NULL,
    name TEXT NOT NULL,
    points INTEGER NOT NULL DEFAULT 1,
    UNIQUE (child, name)
);

CREATE TABLE IF NOT EXISTS behavior_completion (
    child TEXT NOT NULL,
    day TEXT NOT NULL,
    behavior_id INTEGER NOT NULL REFERENCES behavior(id) ON DELETE CASCADE,
    completed BOOLEAN NOT NULL,
    PRIMARY KEY (child, day, behavior_id)
);

CREATE TABLE IF NOT EXISTS daily_total (
    child TEXT NOT NULL,
    day TEXT NOT NULL,
    total INTEGER NOT NULL,
    points INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (child, day)
);

CREATE INDEX IF NOT EXISTS idx_daily_total_day ON daily_total(day);

-- Packing list templates
CREATE TABLE IF NOT EXISTS trip_template (
    id {{id}},
    name TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS template_item (
    id {{id}},
    template_id INTEGER NOT NULL REFERENCES trip_template(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL DEFAULT 1
);

CREATE INDEX IF NOT EXISTS idx_template_item_template ON template_item(template_id);

CREATE TABLE IF NOT EXISTS trip (
    id {{id}},
    name TEXT NOT NULL,
    template_id INTEGER REFERENCES trip_template(id) ON DELETE SET NULL,
    start_day TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trip_item (
    id {{id}},
    trip_id INTEGER NOT NULL REFERENCES trip(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    category TEXT NOT NULL DEFAULT '',
    quantity INTEGER NOT NULL DEFAULT 1,
    packed BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_trip_item_trip ON trip_item(trip_id);

-- Football squares
CREATE TABLE IF NOT EXISTS squares_game (
    id {{id}},
    name TEXT NOT NULL,
    home_team TEXT NOT NULL,
    away_team TEXT NOT NULL,
    row_digits TEXT NOT NULL DEFAULT '',
    col_digits TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS square (
    game_id INTEGER NOT NULL REFERENCES squares_game(id) ON DELETE CASCADE,
    row_index INTEGER NOT NULL CHECK (row_index >= 0 AND row_index < 10),
    col_index INTEGER NOT NULL CHECK (col_index >= 0 AND col_index < 10),
    owner TEXT NOT NULL,
    PRIMARY KEY (game_id, row_index, col_index)
);

-- Smart-home buttons
CREATE TABLE IF NOT EXISTS smart_button (
    id {{id}},
    label TEXT NOT NULL,
    event TEXT NOT NULL UNIQUE,
    last_pressed_at TEXT
);
`
