// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package recurrence decides, once per day, which recurring tasks show up in the
active list and which have their completed flag cleared.

# Rules

A rule is stored as JSON on the task row:

	{"type": "daily"}
	{"type": "weekday"}
	{"type": "weekly", "interval": 2, "days_of_week": ["saturday"]}
	{"type": "monthly", "day_of_month": 15}

Tasks without a rule (or with one that fails to parse) are never made visible
by the daily pass.

# Evaluation

ComputeUpdates is pure: it takes tasks already loaded from the database and
returns one Update per task. The caller writes the updates back in a single
transaction.

	updates := recurrence.ComputeUpdates(tasks, recurrence.Day(time.Now(), loc))

Weekly and monthly rules are due once the configured interval has elapsed
since the last completion (inclusive). A task that has never been completed is
due immediately, before any day-of-week or day-of-month filter applies.
*/
package recurrence
