package model

import (
	"time"
)

// OpenProblemID is the problem statement where a team brings its own problem.
// Selecting it needs an explicit confirmation and sends the team to an
// external form.
const OpenProblemID = "open"

type ProblemStatement struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Company       string `json:"company"`
	IsOpenProblem bool   `json:"is_open_problem,omitempty"`
}

var problemStatements = []ProblemStatement{
	{ID: "hoichoi", Title: "SkyRide Cinema Challenge", Company: "by Hoichoi Technologies"},
	{ID: "lyzr", Title: "Enterprise AI Cost Optimizer", Company: "by Lyzr AI"},
	{ID: "aeos", Title: "VideoVault Comedy Commercial", Company: "by AEOS Labs"},
	{ID: "opraahfx", Title: "InfluencerFlow AI Platform", Company: "by opraahfx"},
	{ID: "hireai", Title: "HireAI", Company: "by 100xEngineers x Jaya Talent"},
	{ID: OpenProblemID, Title: "Open Problem Statement", Company: "Submit your own problem statement", IsOpenProblem: true},
}

// ProblemStatements returns a copy of the fixed catalog in display order.
func ProblemStatements() []ProblemStatement {
	out := make([]ProblemStatement, len(problemStatements))
	copy(out, problemStatements)
	return out
}

func FindProblemStatement(id string) (ProblemStatement, bool) {
	for _, ps := range problemStatements {
		if ps.ID == id {
			return ps, true
		}
	}
	return ProblemStatement{}, false
}

// TeamProblemSubmission is the single team-wide selection. team_id is unique.
type TeamProblemSubmission struct {
	TeamID          string    `json:"team_id"`
	SelectedProblem string    `json:"selected_problem"`
	SubmittedBy     string    `json:"submitted_by"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type SelectionState string

// SelectionPendingSubmit is reported when the team has committed a problem
// but the caller's own profile has not caught up yet.
const (
	SelectionUnselected    SelectionState = "unselected"
	SelectionPendingSubmit SelectionState = "pending-submit"
	SelectionLocked        SelectionState = "locked"
)

// OpenProblemConfirmation is shown before the open problem is committed.
var OpenProblemConfirmation = []string{
	"Lock your problem statement selection",
	"Open a form where you need to submit your problem statement details",
	"This selection cannot be changed later",
}
