package models

import (
	"github.com/danielhkuo/hearth/recurrence"
	"github.com/danielhkuo/hearth/tally"
)

// Gate cookie
const (
	GateCookieName = "hearth_gate"
)

// Request types

type UnlockRequest struct {
	Pattern []int `json:"pattern" validate:"required,min=4,max=9,dive,min=1,max=9"`
}

type CreateTaskRequest struct {
	Title      string           `json:"title" validate:"required,max=200"`
	Assignee   string           `json:"assignee" validate:"max=100"`
	Recurrence *recurrence.Rule `json:"recurrence"`
	Visible    bool             `json:"visible"`
}

type UpdateTaskRequest struct {
	Title      string           `json:"title" validate:"required,max=200"`
	Assignee   string           `json:"assignee" validate:"max=100"`
	Recurrence *recurrence.Rule `json:"recurrence"`
	Visible    bool             `json:"visible"`
	Completed  bool             `json:"completed"`
}

type CreateActivityRequest struct {
	Name         string `json:"name" validate:"required,max=200"`
	ActivityType string `json:"activity_type" validate:"required,max=100"`
}

// Ranking lists activity names from most to least preferred.
type SubmitVoteRequest struct {
	Email        string   `json:"email" validate:"required,email"`
	ActivityType string   `json:"activity_type" validate:"required,max=100"`
	Ranking      []string `json:"ranking" validate:"required,min=1,dive,required"`
}

type CreateBehaviorRequest struct {
	Child  string `json:"child" validate:"required,max=100"`
	Name   string `json:"name" validate:"required,max=200"`
	Points int    `json:"points" validate:"min=0,max=100"`
}

// behavior_id -> completed
type SaveCompletionsRequest struct {
	Child       string         `json:"child" validate:"required,max=100"`
	Day         string         `json:"day" validate:"required,datetime=2006-01-02"`
	Completions map[int64]bool `json:"completions" validate:"required"`
}

type CreateTemplateRequest struct {
	Name  string                   `json:"name" validate:"required,max=200"`
	Items []CreateTemplateItemBody `json:"items" validate:"dive"`
}

type CreateTemplateItemBody struct {
	Name     string `json:"name" validate:"required,max=200"`
	Category string `json:"category" validate:"max=100"`
	Quantity int    `json:"quantity" validate:"min=0,max=999"`
}

type CreateTripRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	TemplateID *int64 `json:"template_id"`
	StartDay   string `json:"start_day" validate:"omitempty,datetime=2006-01-02"`
}

type CreateSquaresGameRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	HomeTeam string `json:"home_team" validate:"required,max=100"`
	AwayTeam string `json:"away_team" validate:"required,max=100"`
}

type ClaimSquareRequest struct {
	Row   int    `json:"row" validate:"min=0,max=9"`
	Col   int    `json:"col" validate:"min=0,max=9"`
	Owner string `json:"owner" validate:"required,max=100"`
}

type CreateButtonRequest struct {
	Label string `json:"label" validate:"required,max=100"`
	Event string `json:"event" validate:"required,max=100,excludesall=/?#"`
}

// Response types

type SessionResponse struct {
	Unlocked bool `json:"unlocked"`
}

type RecomputeResponse struct {
	Day     string              `json:"day"`
	Updates []recurrence.Update `json:"updates"`
}

type VoteResultsResponse struct {
	Categories []tally.Category `json:"categories"`
	VoterCount int              `json:"voter_count"`
}

// activity_type -> names, best first
type MyVotesResponse struct {
	Email    string              `json:"email"`
	Rankings map[string][]string `json:"rankings"`
}

type WinnerResponse struct {
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Owner     string `json:"owner"`
}

type PressResponse struct {
	Event   string `json:"event"`
	Message string `json:"message"`
}

type CreatedResponse struct {
	ID int64 `json:"id"`
}

// Domain types

type Task struct {
	ID               int64            `json:"id"`
	Title            string           `json:"title"`
	Assignee         string           `json:"assignee"`
	Recurrence       *recurrence.Rule `json:"recurrence"`
	LastCompleted    *string          `json:"last_completed"`
	LastCompletedAgo string           `json:"last_completed_ago,omitempty"`
	Visible          bool             `json:"visible"`
	Completed        bool             `json:"completed"`
}

type Activity struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	ActivityType string `json:"activity_type"`
}

type Behavior struct {
	ID     int64  `json:"id"`
	Child  string `json:"child"`
	Name   string `json:"name"`
	Points int    `json:"points"`
}

type Completion struct {
	BehaviorID int64  `json:"behavior_id"`
	Name       string `json:"name"`
	Points     int    `json:"points"`
	Completed  bool   `json:"completed"`
}

type DayCompletions struct {
	Child       string       `json:"child"`
	Day         string       `json:"day"`
	Completions []Completion `json:"completions"`
	Total       int          `json:"total"`
	Points      int          `json:"points"`
}

type DailyTotal struct {
	Child  string `json:"child"`
	Day    string `json:"day"`
	Total  int    `json:"total"`
	Points int    `json:"points"`
}

type WeeklySum struct {
	Child     string `json:"child"`
	WeekStart string `json:"week_start"`
	Total     int    `json:"total"`
	Points    int    `json:"points"`
	Days      [7]int `json:"days"` // completions Monday..Sunday
}

type TripTemplate struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Items []TemplateItem `json:"items"`
}

type TemplateItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
}

type Trip struct {
	ID         int64          `json:"id"`
	Name       string         `json:"name"`
	TemplateID *int64         `json:"template_id,omitempty"`
	StartDay   *string        `json:"start_day,omitempty"`
	Categories []TripCategory `json:"categories"`
	Packed     int            `json:"packed"`
	Total      int            `json:"total"`
}

type TripCategory struct {
	Category string     `json:"category"`
	Items    []TripItem `json:"items"`
}

type TripItem struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	Packed   bool   `json:"packed"`
}

type SquaresGame struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	HomeTeam  string     `json:"home_team"`
	AwayTeam  string     `json:"away_team"`
	RowDigits []int      `json:"row_digits,omitempty"`
	ColDigits []int      `json:"col_digits,omitempty"`
	Locked    bool       `json:"locked"`
	Owners    [][]string `json:"owners"`
	Unclaimed int        `json:"unclaimed"`
}

type SmartButton struct {
	ID            int64   `json:"id"`
	Label         string  `json:"label"`
	Event         string  `json:"event"`
	LastPressedAt *string `json:"last_pressed_at,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
