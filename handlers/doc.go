// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Hearth API.

# Handler Types

Each handler is a struct with database and config dependencies:

  - TaskHandler: recurring chores and the daily visibility pass
  - VotingHandler: activities, ranked ballots and tallied results
  - BehaviorHandler: behavior charts, daily totals and weekly sheets
  - PackingHandler: packing templates and trips
  - SquaresHandler: football squares boards
  - ButtonHandler: smart-home webhook buttons
  - GateHandler: pattern-lock unlock, lock and session

Handlers are created via constructor functions that accept *sql.DB and Config:

	taskHandler := handlers.NewTaskHandler(db, cfg)

GateHandler keeps no state of its own and takes only the Config.

# Daily Pass

The visibility pass is a fetch, compute, write pipeline around the pure
recurrence package:

	updates, err := taskHandler.Recompute(ctx, taskHandler.Today())

RecomputeIfDue runs it at most once per day, recording the day in
recompute_run. The scheduler calls it nightly and main calls it at startup.
POST /api/tasks/recompute forces a pass.

# Bulk Writes

Ballots and behavior completions are replaced, not merged: the old rows are
deleted and the new set inserted in one transaction. Any failure rolls the
whole write back.

# Days

Days are "YYYY-MM-DD" strings in the configured time zone. Handlers that
need today read it through an injectable clock.
*/
package handlers
