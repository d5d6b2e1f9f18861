package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Profile is the participant record attached to a user. Problem selection
// only ever moves ProblemSubmissionLocked from false to true.
type Profile struct {
	ID                      string     `json:"id"`
	UserID                  string     `json:"user_id"`
	Role                    string     `json:"role"`
	TeamID                  *string    `json:"team_id,omitempty"`
	SelectedProblem         *string    `json:"selected_problem,omitempty"`
	ProblemSelectedAt       *time.Time `json:"problem_selected_at,omitempty"`
	ProblemSubmissionLocked bool       `json:"problem_submission_locked"`
	CreatedAt               time.Time  `json:"created_at"`
}

func (p *Profile) HasTeam() bool {
	return p.TeamID != nil && *p.TeamID != ""
}
