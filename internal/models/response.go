package models

import "time"

// Response is a student's free-text answer to an exercise.
// There is at most one response per exercise id.
type Response struct {
	ID         int       `json:"id"`
	ExerciseID int       `json:"exerciseId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// SaveResponseRequest represents a request to create or update a response
type SaveResponseRequest struct {
	ExerciseID int    `json:"exerciseId" validate:"required,gt=0"`
	Content    string `json:"content"`
}
