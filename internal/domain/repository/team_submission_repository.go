package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"
)

type TeamSubmissionRepository interface {
	// InsertIfAbsent records the team's selection. It reports false, without
	// error, when the team already has one.
	InsertIfAbsent(ctx context.Context, tx *sql.Tx, sub *model.TeamProblemSubmission) (bool, error)
	FindByTeamID(ctx context.Context, teamID string) (*model.TeamProblemSubmission, error)
}

type pgTeamSubmissionRepository struct {
	db *sql.DB
}

func NewPgTeamSubmissionRepository(db *sql.DB) TeamSubmissionRepository {
	return &pgTeamSubmissionRepository{db: db}
}

func (r *pgTeamSubmissionRepository) InsertIfAbsent(ctx context.Context, tx *sql.Tx, sub *model.TeamProblemSubmission) (bool, error) {
	query := `INSERT INTO team_problem_submissions (team_id, selected_problem, submitted_by, submitted_at)
	          VALUES ($1, $2, $3, $4)
	          ON CONFLICT (team_id) DO NOTHING
	          RETURNING team_id`
	var teamID string
	err := pick(r.db, tx).QueryRowContext(ctx, query, sub.TeamID, sub.SelectedProblem, sub.SubmittedBy, sub.SubmittedAt).Scan(&teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("pgTeamSubmissionRepository.InsertIfAbsent: %w", err)
	}
	return true, nil
}

func (r *pgTeamSubmissionRepository) FindByTeamID(ctx context.Context, teamID string) (*model.TeamProblemSubmission, error) {
	query := `SELECT team_id, selected_problem, submitted_by, submitted_at
	          FROM team_problem_submissions WHERE team_id = $1`
	sub := &model.TeamProblemSubmission{}
	err := r.db.QueryRowContext(ctx, query, teamID).Scan(&sub.TeamID, &sub.SelectedProblem, &sub.SubmittedBy, &sub.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgTeamSubmissionRepository.FindByTeamID: %w", err)
	}
	return sub, nil
}
