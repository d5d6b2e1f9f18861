package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"
)

type ProfileRepository interface {
	Create(ctx context.Context, tx *sql.Tx, profile *model.Profile) error
	FindByUserID(ctx context.Context, userID string) (*model.Profile, error)
	ListTeamMemberIDs(ctx context.Context, tx *sql.Tx, teamID string) ([]string, error)
	ListAdminIDs(ctx context.Context, tx *sql.Tx) ([]string, error)

	// LockSelection sets the selection on a single unlocked profile. It
	// reports false when the profile was already locked.
	LockSelection(ctx context.Context, tx *sql.Tx, profileID, problemID string, at time.Time) (bool, error)
	// LockTeamSelection copies a selection onto every profile of the team.
	LockTeamSelection(ctx context.Context, tx *sql.Tx, teamID, problemID string, at time.Time) (int64, error)
	// ReconcileTeams locks every unlocked profile whose team already has a
	// team submission.
	ReconcileTeams(ctx context.Context) (int64, error)
}

type pgProfileRepository struct {
	db *sql.DB
}

func NewPgProfileRepository(db *sql.DB) ProfileRepository {
	return &pgProfileRepository{db: db}
}

const profileColumns = `id, user_id, role, team_id, selected_problem, problem_selected_at, problem_submission_locked, created_at`

func (r *pgProfileRepository) Create(ctx context.Context, tx *sql.Tx, p *model.Profile) error {
	query := `INSERT INTO profiles (id, user_id, role, team_id)
	          VALUES ($1, $2, $3, $4)`
	_, err := pick(r.db, tx).ExecContext(ctx, query, p.ID, p.UserID, p.Role, p.TeamID)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("profile for user already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProfileRepository.Create: %w", err)
	}
	return nil
}

func (r *pgProfileRepository) FindByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	p := &model.Profile{}
	var teamID, selected sql.NullString
	var selectedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.ID, &p.UserID, &p.Role, &teamID, &selected, &selectedAt, &p.ProblemSubmissionLocked, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProfileRepository.FindByUserID: %w", err)
	}
	if teamID.Valid {
		p.TeamID = &teamID.String
	}
	if selected.Valid {
		p.SelectedProblem = &selected.String
	}
	if selectedAt.Valid {
		p.ProblemSelectedAt = &selectedAt.Time
	}
	return p, nil
}

func (r *pgProfileRepository) ListTeamMemberIDs(ctx context.Context, tx *sql.Tx, teamID string) ([]string, error) {
	ids, err := r.listIDs(ctx, tx, `SELECT id FROM profiles WHERE team_id = $1 ORDER BY created_at`, teamID)
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.ListTeamMemberIDs: %w", err)
	}
	return ids, nil
}

func (r *pgProfileRepository) ListAdminIDs(ctx context.Context, tx *sql.Tx) ([]string, error) {
	ids, err := r.listIDs(ctx, tx, `SELECT id FROM profiles WHERE role = $1 ORDER BY created_at`, model.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("pgProfileRepository.ListAdminIDs: %w", err)
	}
	return ids, nil
}

func (r *pgProfileRepository) listIDs(ctx context.Context, tx *sql.Tx, query string, args ...any) ([]string, error) {
	rows, err := pick(r.db, tx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *pgProfileRepository) LockSelection(ctx context.Context, tx *sql.Tx, profileID, problemID string, at time.Time) (bool, error) {
	query := `UPDATE profiles
	          SET selected_problem = $1, problem_selected_at = $2, problem_submission_locked = TRUE
	          WHERE id = $3 AND NOT problem_submission_locked`
	res, err := pick(r.db, tx).ExecContext(ctx, query, problemID, at, profileID)
	if err != nil {
		return false, fmt.Errorf("pgProfileRepository.LockSelection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("pgProfileRepository.LockSelection: %w", err)
	}
	return n > 0, nil
}

func (r *pgProfileRepository) LockTeamSelection(ctx context.Context, tx *sql.Tx, teamID, problemID string, at time.Time) (int64, error) {
	query := `UPDATE profiles
	          SET selected_problem = $1, problem_selected_at = $2, problem_submission_locked = TRUE
	          WHERE team_id = $3`
	res, err := pick(r.db, tx).ExecContext(ctx, query, problemID, at, teamID)
	if err != nil {
		return 0, fmt.Errorf("pgProfileRepository.LockTeamSelection: %w", err)
	}
	return res.RowsAffected()
}

func (r *pgProfileRepository) ReconcileTeams(ctx context.Context) (int64, error) {
	query := `UPDATE profiles p
	          SET selected_problem = t.selected_problem,
	              problem_selected_at = t.submitted_at,
	              problem_submission_locked = TRUE
	          FROM team_problem_submissions t
	          WHERE p.team_id = t.team_id AND NOT p.problem_submission_locked`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("pgProfileRepository.ReconcileTeams: %w", err)
	}
	return res.RowsAffected()
}
