// models/submission.go
package models

import (
	"fmt"
	"time"
)

// SubmissionState is a step of the private submission workflow.
type SubmissionState string

const (
	SubmissionCreated       SubmissionState = "created"
	SubmissionAwaitingInput SubmissionState = "awaiting_input"
	SubmissionSubmitted     SubmissionState = "submitted"
	SubmissionClosed        SubmissionState = "closed"
)

var submissionNext = map[SubmissionState]SubmissionState{
	SubmissionCreated:       SubmissionAwaitingInput,
	SubmissionAwaitingInput: SubmissionSubmitted,
	SubmissionSubmitted:     SubmissionClosed,
}

// SubmissionSession is kept in memory only; it does not survive a restart.
type SubmissionSession struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	UserName  string          `json:"user_name"`
	ItemID    string          `json:"item_id"`
	SurfaceID string          `json:"surface_id"`
	State     SubmissionState `json:"state"`

	CreatedAt   time.Time  `json:"created_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// Advance moves the session one step forward. Skipping or going back is an error.
func (s *SubmissionSession) Advance(to SubmissionState, now time.Time) error {
	if submissionNext[s.State] != to {
		return fmt.Errorf("invalid submission transition %s -> %s", s.State, to)
	}
	s.State = to
	switch to {
	case SubmissionSubmitted:
		s.SubmittedAt = &now
	case SubmissionClosed:
		s.ClosedAt = &now
	}
	return nil
}
