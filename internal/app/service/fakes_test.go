package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/platform/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func strPtr(s string) *string { return &s }

// observeLogs routes the process logger into an observer for the test.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(zap.NewNop()) })
	return logs
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
	calls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, _ *sql.Tx, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return common.ErrConflict
	}
	u := *user
	r.users[user.Email] = &u
	return nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	u, ok := r.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
	writes   int

	lockErr     error
	teamLockErr error
	adminsErr   error
}

func newFakeProfileRepo(profiles ...*model.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[string]*model.Profile{}}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepo) Create(_ context.Context, _ *sql.Tx, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[p.ID] = p
	return nil
}

func (r *fakeProfileRepo) FindByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeProfileRepo) ListTeamMemberIDs(_ context.Context, _ *sql.Tx, teamID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for _, p := range r.profiles {
		if p.TeamID != nil && *p.TeamID == teamID {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *fakeProfileRepo) ListAdminIDs(_ context.Context, _ *sql.Tx) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.adminsErr != nil {
		return nil, r.adminsErr
	}
	var ids []string
	for _, p := range r.profiles {
		if p.Role == model.RoleAdmin {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (r *fakeProfileRepo) lock(p *model.Profile, problemID string, at time.Time) {
	p.SelectedProblem = &problemID
	p.ProblemSelectedAt = &at
	p.ProblemSubmissionLocked = true
	r.writes++
}

func (r *fakeProfileRepo) LockSelection(_ context.Context, _ *sql.Tx, profileID, problemID string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lockErr != nil {
		return false, r.lockErr
	}
	p, ok := r.profiles[profileID]
	if !ok || p.ProblemSubmissionLocked {
		return false, nil
	}
	r.lock(p, problemID, at)
	return true, nil
}

func (r *fakeProfileRepo) LockTeamSelection(_ context.Context, _ *sql.Tx, teamID, problemID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.teamLockErr != nil {
		return 0, r.teamLockErr
	}
	var n int64
	for _, p := range r.profiles {
		if p.TeamID != nil && *p.TeamID == teamID {
			r.lock(p, problemID, at)
			n++
		}
	}
	return n, nil
}

func (r *fakeProfileRepo) ReconcileTeams(context.Context) (int64, error) {
	return 0, nil
}

func (r *fakeProfileRepo) get(id string) model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.profiles[id]
}

type fakeTeamSubRepo struct {
	mu   sync.Mutex
	subs map[string]*model.TeamProblemSubmission
}

func newFakeTeamSubRepo() *fakeTeamSubRepo {
	return &fakeTeamSubRepo{subs: map[string]*model.TeamProblemSubmission{}}
}

func (r *fakeTeamSubRepo) InsertIfAbsent(_ context.Context, _ *sql.Tx, sub *model.TeamProblemSubmission) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub.TeamID]; ok {
		return false, nil
	}
	cp := *sub
	r.subs[sub.TeamID] = &cp
	return true, nil
}

func (r *fakeTeamSubRepo) FindByTeamID(_ context.Context, teamID string) (*model.TeamProblemSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[teamID]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []model.Notification
	err           error
}

func (r *fakeNotificationRepo) CreateBatch(_ context.Context, _ *sql.Tx, ns []model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.notifications = append(r.notifications, ns...)
	return nil
}

func (r *fakeNotificationRepo) all() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.notifications...)
}

type fakeApplicationRepo struct {
	mu   sync.Mutex
	apps []model.Application
}

func (r *fakeApplicationRepo) Create(_ context.Context, _ *sql.Tx, app *model.Application) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if app.TeamID != nil {
		for _, a := range r.apps {
			if a.TeamID != nil && *a.TeamID == *app.TeamID {
				return common.ErrConflict
			}
		}
	}
	r.apps = append(r.apps, *app)
	return nil
}

func (r *fakeApplicationRepo) ExistsForTeam(_ context.Context, teamID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.apps {
		if a.TeamID != nil && *a.TeamID == teamID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeApplicationRepo) ListForProfile(_ context.Context, profileID string, teamID *string) ([]model.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Application
	for _, a := range r.apps {
		if a.CreatorID == profileID || (teamID != nil && a.TeamID != nil && *a.TeamID == *teamID) {
			out = append(out, a)
		}
	}
	return out, nil
}
