package models

import (
	"time"
)

// Session represents one study session.
// A session without an end time is open; the newest open session is the current one.
type Session struct {
	ID                 int        `json:"id"`
	StartTime          time.Time  `json:"startTime"`
	EndTime            *time.Time `json:"endTime"`
	PomodoroCount      int        `json:"pomodoroCount"`
	ExercisesCompleted int        `json:"exercisesCompleted"`
}

// IsOpen returns true if the session has not been ended
func (s *Session) IsOpen() bool {
	return s.EndTime == nil
}

// Age returns how long ago the session started
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}

// CreateSessionRequest represents a request to start a session
type CreateSessionRequest struct {
	PomodoroCount      int `json:"pomodoroCount" validate:"min=0"`
	ExercisesCompleted int `json:"exercisesCompleted" validate:"min=0"`
}

// SessionPatch is a partial session update. Nil fields are left unchanged.
type SessionPatch struct {
	EndTime            *time.Time `json:"endTime,omitempty"`
	PomodoroCount      *int       `json:"pomodoroCount,omitempty" validate:"omitempty,min=0"`
	ExercisesCompleted *int       `json:"exercisesCompleted,omitempty" validate:"omitempty,min=0"`
}

// Apply merges the non-nil fields of p into s
func (p SessionPatch) Apply(s *Session) {
	if p.EndTime != nil {
		end := *p.EndTime
		s.EndTime = &end
	}
	if p.PomodoroCount != nil {
		s.PomodoroCount = *p.PomodoroCount
	}
	if p.ExercisesCompleted != nil {
		s.ExercisesCompleted = *p.ExercisesCompleted
	}
}
