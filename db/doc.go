// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the household database and creates its schema.

# Connecting

Open picks the driver from the configured dialect (modernc sqlite or lib/pq)
and pings before returning:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

The same *sql.DB is passed to every handler; nothing else opens connections.

# Schema Creation

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.
Queries elsewhere use $N placeholders, which both drivers accept.

# Tables

  - task, recompute_run: recurring tasks and the daily pass log
  - activity, vote: ranked-choice trip activity voting
  - behavior, behavior_completion, daily_total: behavior points per child
  - trip_template, template_item, trip, trip_item: packing lists
  - squares_game, square: football squares pools
  - smart_button: IFTTT trigger buttons

# Relationships

	trip_template 1──* template_item
	trip 1──* trip_item
	behavior 1──* behavior_completion
	squares_game 1──* square

Child rows cascade on delete.
*/
package db
