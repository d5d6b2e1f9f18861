package model

import (
	"strings"
	"time"
)

type ProblemType string

const (
	ProblemTypeLLMAgents    ProblemType = "llm_agents"
	ProblemTypeAIFilmmaking ProblemType = "ai_filmmaking"
)

const (
	ApplicationStatusPending = "pending"
)

// ApplicationField names a form field that a problem type may require.
type ApplicationField string

const (
	FieldTitle       ApplicationField = "title"
	FieldDescription ApplicationField = "description"
	FieldURL         ApplicationField = "url"
	FieldVideoURL    ApplicationField = "video_url"
	FieldGithubURL   ApplicationField = "github_url"
)

// ProblemTypeRules lists what a problem type requires and what it discards.
type ProblemTypeRules struct {
	Required  []ApplicationField
	Forbidden []ApplicationField
}

var problemTypeRules = map[ProblemType]ProblemTypeRules{
	ProblemTypeLLMAgents: {
		Required: []ApplicationField{FieldTitle, FieldDescription, FieldURL, FieldGithubURL, FieldVideoURL},
	},
	ProblemTypeAIFilmmaking: {
		Required:  []ApplicationField{FieldTitle, FieldDescription, FieldURL, FieldVideoURL},
		Forbidden: []ApplicationField{FieldGithubURL},
	},
}

func RulesForProblemType(pt ProblemType) (ProblemTypeRules, bool) {
	rules, ok := problemTypeRules[pt]
	return rules, ok
}

func (r ProblemTypeRules) Forbids(f ApplicationField) bool {
	for _, forbidden := range r.Forbidden {
		if forbidden == f {
			return true
		}
	}
	return false
}

type Application struct {
	ID                string      `json:"id"`
	Title             string      `json:"title"`
	Description       string      `json:"description"`
	URL               string      `json:"url"`
	ScreenshotURL     string      `json:"screenshot_url"`
	VideoURL          *string     `json:"video_url"`
	GithubURL         *string     `json:"github_url"`
	Tags              []string    `json:"tags"`
	CreatorID         string      `json:"creator_id"`
	TeamID            *string     `json:"team_id"`
	CommentsEnabled   bool        `json:"comments_enabled"`
	Status            string      `json:"status"`
	ProblemType       ProblemType `json:"problem_type"`
	Score             int         `json:"score"`
	ReviewRequestedAt *time.Time  `json:"review_requested_at"`
	ReviewedAt        *time.Time  `json:"reviewed_at"`
	CreatedAt         time.Time   `json:"created_at"`
}

// ParseTags splits a comma-separated tag string. Entries are trimmed, empty
// entries dropped, order and duplicates kept.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
