package model

import "time"

const (
	NotificationProblemSelected = "problem_selected"
	NotificationSubmission      = "submission"
)

type Notification struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"` // Recipient profile ID
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Read          bool      `json:"read"`
	ApplicationID *string   `json:"application_id,omitempty"`
	ActionUserID  *string   `json:"action_user_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
