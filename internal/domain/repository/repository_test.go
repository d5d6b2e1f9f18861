package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTeamSubmission_InsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	sub := &model.TeamProblemSubmission{TeamID: "team-1", SelectedProblem: "lyzr", SubmittedBy: "p-1", SubmittedAt: at}

	t.Run("inserted", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO team_problem_submissions .* ON CONFLICT \(team_id\) DO NOTHING`).
			WithArgs("team-1", "lyzr", "p-1", at).
			WillReturnRows(sqlmock.NewRows([]string{"team_id"}).AddRow("team-1"))

		ok, err := NewPgTeamSubmissionRepository(db).InsertIfAbsent(ctx, nil, sub)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("team already has a submission", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO team_problem_submissions`).
			WillReturnRows(sqlmock.NewRows([]string{"team_id"}))

		ok, err := NewPgTeamSubmissionRepository(db).InsertIfAbsent(ctx, nil, sub)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTeamSubmission_FindByTeamID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT team_id, selected_problem, submitted_by, submitted_at`).
		WithArgs("team-x").
		WillReturnRows(sqlmock.NewRows([]string{"team_id", "selected_problem", "submitted_by", "submitted_at"}))

	_, err := NewPgTeamSubmissionRepository(db).FindByTeamID(context.Background(), "team-x")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProfile_FindByUserID(t *testing.T) {
	db, mock := setupMockDB(t)
	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, user_id, role, team_id, selected_problem, problem_selected_at, problem_submission_locked, created_at FROM profiles WHERE user_id = \$1`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "role", "team_id", "selected_problem", "problem_selected_at", "problem_submission_locked", "created_at"}).
			AddRow("p-1", "u-1", "user", "team-1", nil, nil, false, created))

	p, err := NewPgProfileRepository(db).FindByUserID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "p-1", p.ID)
	require.NotNil(t, p.TeamID)
	assert.Equal(t, "team-1", *p.TeamID)
	assert.Nil(t, p.SelectedProblem)
	assert.Nil(t, p.ProblemSelectedAt)
	assert.False(t, p.ProblemSubmissionLocked)
}

func TestProfile_LockSelection(t *testing.T) {
	at := time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

	t.Run("unlocked profile is locked", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec(`UPDATE profiles .* WHERE id = \$3 AND NOT problem_submission_locked`).
			WithArgs("hireai", at, "p-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := NewPgProfileRepository(db).LockSelection(context.Background(), nil, "p-1", "hireai", at)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("already locked profile is untouched", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectExec(`UPDATE profiles`).
			WithArgs("hireai", at, "p-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := NewPgProfileRepository(db).LockSelection(context.Background(), nil, "p-1", "hireai", at)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestProfile_ListTeamMemberIDs_InTx(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM profiles WHERE team_id = \$1`).
		WithArgs("team-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("p-1").AddRow("p-2"))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	ids, err := NewPgProfileRepository(db).ListTeamMemberIDs(context.Background(), tx, "team-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"p-1", "p-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfile_ReconcileTeams(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`UPDATE profiles p .* FROM team_problem_submissions t`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewPgProfileRepository(db).ReconcileTeams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestApplication_Create_UniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)
	team := "team-1"
	mock.ExpectQuery(`INSERT INTO applications`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	app := &model.Application{ID: "a-1", Title: "t", TeamID: &team, Tags: []string{"go"}, ProblemType: model.ProblemTypeLLMAgents}
	err := NewPgApplicationRepository(db).Create(context.Background(), nil, app)
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestApplication_ListForProfile(t *testing.T) {
	db, mock := setupMockDB(t)
	created := time.Now().UTC()
	mock.ExpectQuery(`SELECT id, title, description, url, screenshot_url`).
		WithArgs("p-1", nil).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "title", "description", "url", "screenshot_url", "video_url", "github_url", "tags",
			"creator_id", "team_id", "comments_enabled", "status", "problem_type", "score",
			"review_requested_at", "reviewed_at", "created_at",
		}).AddRow("a-1", "Demo", "desc", "https://demo.app", "https://cdn/s.png", "https://v.io/1", nil, "{ai,go}",
			"p-1", nil, true, "pending", "ai_filmmaking", 0, nil, nil, created))

	apps, err := NewPgApplicationRepository(db).ListForProfile(context.Background(), "p-1", nil)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, []string{"ai", "go"}, apps[0].Tags)
	assert.Equal(t, model.ProblemTypeAIFilmmaking, apps[0].ProblemType)
	assert.Nil(t, apps[0].GithubURL)
	require.NotNil(t, apps[0].VideoURL)
	assert.True(t, apps[0].CommentsEnabled)
}

func TestNotification_CreateBatch(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(`INSERT INTO notifications`).WithArgs("n-1", "p-2", model.NotificationProblemSelected, sqlmock.AnyArg(), sqlmock.AnyArg(), false, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO notifications`).WithArgs("n-2", "p-3", model.NotificationProblemSelected, sqlmock.AnyArg(), sqlmock.AnyArg(), false, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewPgNotificationRepository(db).CreateBatch(context.Background(), nil, []model.Notification{
		{ID: "n-1", UserID: "p-2", Type: model.NotificationProblemSelected, Title: "x", Message: "y"},
		{ID: "n-2", UserID: "p-3", Type: model.NotificationProblemSelected, Title: "x", Message: "y"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
