// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Request types carry validator tags checked by middleware.DecodeAndValidate:

  - CreateTaskRequest, UpdateTaskRequest: title, assignee, recurrence rule
  - CreateActivityRequest, SubmitVoteRequest: activities and ranked ballots
  - CreateBehaviorRequest, SaveCompletionsRequest: behavior charts
  - CreateTemplateRequest, CreateTripRequest: packing lists
  - CreateSquaresGameRequest, ClaimSquareRequest: football squares
  - CreateButtonRequest: smart-home buttons
  - UnlockRequest: pattern-lock cells

# Domain Types

Days travel as "YYYY-MM-DD" strings. Optional values are pointers so they
encode as null:

	type Task struct {
		LastCompleted *string `json:"last_completed"`
		...
	}

# Errors

Every error body is an ErrorResponse:

	{"error": "Not Found", "message": "Task not found"}
*/
package models
