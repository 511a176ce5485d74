// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler runs the daily task pass in the background.

Jobs are registered with six-field cron specs (seconds first) and evaluated in
the household time zone, so "0 5 0 * * *" fires five minutes after local
midnight:

	s := scheduler.New(cfg.Location)
	err := s.AddRecompute(cfg.RecomputeSchedule, func(ctx context.Context) error {
		_, err := taskHandler.RecomputeIfDue(ctx)
		return err
	})
	s.Start()
	defer s.Stop()

A run that overlaps the previous one is skipped. Panics are recovered and
logged. Stop cancels the context handed to running jobs and waits for them.
*/
package scheduler
