// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recurrence

import (
	"encoding/json"
	"strings"
	"time"
)

// Rule types
const (
	TypeDaily   = "daily"
	TypeWeekday = "weekday"
	TypeWeekly  = "weekly"
	TypeMonthly = "monthly"
)

// Rule describes when a task becomes due again.
// Interval, DaysOfWeek and DayOfMonth only apply to weekly/monthly rules.
type Rule struct {
	Type       string   `json:"type"`
	Interval   *int     `json:"interval,omitempty"`
	DaysOfWeek []string `json:"days_of_week,omitempty"`
	DayOfMonth *int     `json:"day_of_month,omitempty"`
}

// Task is the slice of a stored task the evaluator needs.
type Task struct {
	ID            int64
	Rule          *Rule
	LastCompleted *time.Time
	Visible       bool
	Completed     bool
}

// Update is the result written back for a single task.
type Update struct {
	ID        int64 `json:"id"`
	Visible   bool  `json:"visible"`
	Completed bool  `json:"completed"`
}

// ParseRule decodes a stored rule. Empty, malformed or unknown rules yield nil,
// which the evaluator treats as "never recurs".
func ParseRule(raw []byte) *Rule {
	if len(raw) == 0 {
		return nil
	}
	var r Rule
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	if !r.Valid() {
		return nil
	}
	return &r
}

// Valid reports whether the rule has a known type and sane parameters.
func (r *Rule) Valid() bool {
	if r == nil {
		return false
	}
	switch r.Type {
	case TypeDaily, TypeWeekday:
		return true
	case TypeWeekly:
		if r.Interval != nil && *r.Interval < 1 {
			return false
		}
		for _, d := range r.DaysOfWeek {
			if _, ok := weekdayNames[strings.ToLower(d)]; !ok {
				return false
			}
		}
		return true
	case TypeMonthly:
		if r.Interval != nil && *r.Interval < 1 {
			return false
		}
		if r.DayOfMonth != nil && (*r.DayOfMonth < 1 || *r.DayOfMonth > 31) {
			return false
		}
		return true
	}
	return false
}

// Evaluate decides visibility and completion for one task on the given day.
func Evaluate(t Task, today time.Time) Update {
	visible := due(t.Rule, t.LastCompleted, today)

	// An incomplete task that is already showing never disappears on its own.
	if t.Visible && !t.Completed {
		visible = true
	}

	completed := t.Completed
	if visible {
		completed = false
	}

	return Update{ID: t.ID, Visible: visible, Completed: completed}
}

// ComputeUpdates evaluates every task independently for today.
func ComputeUpdates(tasks []Task, today time.Time) []Update {
	updates := make([]Update, 0, len(tasks))
	for _, t := range tasks {
		updates = append(updates, Evaluate(t, today))
	}
	return updates
}

func due(r *Rule, lastCompleted *time.Time, today time.Time) bool {
	if r == nil {
		return false
	}

	switch r.Type {
	case TypeDaily:
		return true

	case TypeWeekday:
		wd := today.Weekday()
		return wd != time.Saturday && wd != time.Sunday

	case TypeWeekly:
		if lastCompleted == nil {
			return true
		}
		next := lastCompleted.AddDate(0, 0, 7*intervalOrOne(r.Interval))
		visible := !today.Before(next)
		if len(r.DaysOfWeek) > 0 {
			visible = visible && onWeekday(r.DaysOfWeek, today.Weekday())
		}
		return visible

	case TypeMonthly:
		if lastCompleted == nil {
			return true
		}
		// AddDate normalizes overflow: Jan 31 + 1 month lands on Mar 3 (or Mar 2 in leap years).
		next := lastCompleted.AddDate(0, intervalOrOne(r.Interval), 0)
		visible := !today.Before(next)
		if r.DayOfMonth != nil {
			visible = visible && today.Day() == *r.DayOfMonth
		}
		return visible
	}

	return false
}

func intervalOrOne(interval *int) int {
	if interval == nil || *interval < 1 {
		return 1
	}
	return *interval
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func onWeekday(days []string, wd time.Weekday) bool {
	for _, d := range days {
		if w, ok := weekdayNames[strings.ToLower(d)]; ok && w == wd {
			return true
		}
	}
	return false
}
