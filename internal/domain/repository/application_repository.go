package repository

import (
	"context"
	"database/sql"
	"fmt"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"

	"github.com/lib/pq"
)

type ApplicationRepository interface {
	Create(ctx context.Context, tx *sql.Tx, app *model.Application) error
	ExistsForTeam(ctx context.Context, teamID string) (bool, error)
	// ListForProfile returns the profile's own applications plus its team's.
	ListForProfile(ctx context.Context, profileID string, teamID *string) ([]model.Application, error)
}

type pgApplicationRepository struct {
	db *sql.DB
}

func NewPgApplicationRepository(db *sql.DB) ApplicationRepository {
	return &pgApplicationRepository{db: db}
}

func (r *pgApplicationRepository) Create(ctx context.Context, tx *sql.Tx, a *model.Application) error {
	query := `INSERT INTO applications (id, title, description, url, screenshot_url, video_url, github_url, tags,
	              creator_id, team_id, comments_enabled, status, problem_type, score, review_requested_at, reviewed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING created_at`
	err := pick(r.db, tx).QueryRowContext(ctx, query,
		a.ID, a.Title, a.Description, a.URL, a.ScreenshotURL, a.VideoURL, a.GithubURL, pq.Array(a.Tags),
		a.CreatorID, a.TeamID, a.CommentsEnabled, a.Status, a.ProblemType, a.Score, a.ReviewRequestedAt, a.ReviewedAt,
	).Scan(&a.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("team application already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgApplicationRepository.Create: %w", err)
	}
	return nil
}

func (r *pgApplicationRepository) ExistsForTeam(ctx context.Context, teamID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE team_id = $1)`, teamID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("pgApplicationRepository.ExistsForTeam: %w", err)
	}
	return exists, nil
}

func (r *pgApplicationRepository) ListForProfile(ctx context.Context, profileID string, teamID *string) ([]model.Application, error) {
	query := `SELECT id, title, description, url, screenshot_url, video_url, github_url, tags,
	                 creator_id, team_id, comments_enabled, status, problem_type, score,
	                 review_requested_at, reviewed_at, created_at
	          FROM applications
	          WHERE creator_id = $1 OR ($2::text IS NOT NULL AND team_id = $2)
	          ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, profileID, teamID)
	if err != nil {
		return nil, fmt.Errorf("pgApplicationRepository.ListForProfile: %w", err)
	}
	defer rows.Close()

	apps := []model.Application{}
	for rows.Next() {
		var a model.Application
		var videoURL, githubURL, team sql.NullString
		var reviewRequestedAt, reviewedAt sql.NullTime
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Description, &a.URL, &a.ScreenshotURL, &videoURL, &githubURL, pq.Array(&a.Tags),
			&a.CreatorID, &team, &a.CommentsEnabled, &a.Status, &a.ProblemType, &a.Score,
			&reviewRequestedAt, &reviewedAt, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgApplicationRepository.ListForProfile scan: %w", err)
		}
		if videoURL.Valid {
			a.VideoURL = &videoURL.String
		}
		if githubURL.Valid {
			a.GithubURL = &githubURL.String
		}
		if team.Valid {
			a.TeamID = &team.String
		}
		if reviewRequestedAt.Valid {
			a.ReviewRequestedAt = &reviewRequestedAt.Time
		}
		if reviewedAt.Valid {
			a.ReviewedAt = &reviewedAt.Time
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgApplicationRepository.ListForProfile rows: %w", err)
	}
	return apps, nil
}
