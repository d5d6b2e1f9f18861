package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/common/security"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/platform/cache"
	"hackathon_portal/internal/platform/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc      *AuthService
	users    *fakeUserRepo
	profiles *fakeProfileRepo
	now      *time.Time
	mock     sqlmock.Sqlmock
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	config.AppConfig = &config.Config{JWTKey: []byte("test-secret"), JWTExp: time.Hour}
	security.InitJWT()

	now := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	db, mock := setupMockDB(t)
	f := &authFixture{
		users:    newFakeUserRepo(),
		profiles: newFakeProfileRepo(),
		now:      &now,
		mock:     mock,
	}
	limiter := cache.NewMemoryLoginLimiter(config.MaxLoginAttempts, config.LockoutDuration, func() time.Time { return *f.now })
	f.svc = NewAuthService(f.users, f.profiles, limiter, db)
	return f
}

func (f *authFixture) addUser(t *testing.T, email, password string) {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)
	f.users.users[email] = &model.User{ID: "u-" + email, Email: email, HashedPassword: hash}
	f.profiles.profiles["p-"+email] = &model.Profile{ID: "p-" + email, UserID: "u-" + email, Role: model.RoleUser}
}

func userErr(t *testing.T, err error) *common.UserError {
	t.Helper()
	var ue *common.UserError
	require.True(t, errors.As(err, &ue), "expected a UserError, got %v", err)
	return ue
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "alice@example.com", SanitizeInput("  <alice@example.com>  "))
	assert.Equal(t, "scriptalert(1)/script", SanitizeInput("<script>alert(1)</script>"))
}

func TestLockoutMessage_RoundsUp(t *testing.T) {
	assert.Equal(t, "Too many failed attempts. Please try again in 15 minutes.", LockoutMessage(15*time.Minute))
	assert.Equal(t, "Too many failed attempts. Please try again in 5 minutes.", LockoutMessage(4*time.Minute+time.Second))
	assert.Equal(t, "Too many failed attempts. Please try again in 1 minutes.", LockoutMessage(time.Second))
}

func TestLogin_InvalidEmailNeverReachesStore(t *testing.T) {
	f := newAuthFixture(t)

	for _, email := range []string{"", "alice", "alice@", "alice@example", "a b@example.com", "@example.com"} {
		_, err := f.svc.Login(context.Background(), "1.1.1.1", LoginRequest{Email: email, Password: "secret123"})
		ue := userErr(t, err)
		assert.Equal(t, "Invalid Email", ue.Title)
		assert.Equal(t, "Please enter a valid email address", ue.Message)
		assert.ErrorIs(t, err, common.ErrValidation)
	}
	assert.Zero(t, f.users.calls)
}

func TestLogin_ShortPasswordRejected(t *testing.T) {
	f := newAuthFixture(t)

	// Stripped brackets count against the length.
	_, err := f.svc.Login(context.Background(), "1.1.1.1", LoginRequest{Email: "alice@example.com", Password: " <abcd> "})
	ue := userErr(t, err)
	assert.Equal(t, "Invalid Password", ue.Title)
	assert.Equal(t, "Password must be at least 6 characters long", ue.Message)
	assert.Zero(t, f.users.calls)
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "secret123")

	resp, err := f.svc.Login(context.Background(), "1.1.1.1", LoginRequest{Email: " alice@example.com ", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, common.RouteProfile, resp.Redirect)
	assert.NotEmpty(t, resp.Token)
	assert.Empty(t, resp.User.HashedPassword)
	assert.Equal(t, "p-alice@example.com", resp.Profile.ID)
}

func TestLogin_LocksOutAfterFiveFailures(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "secret123")
	ctx := context.Background()
	bad := LoginRequest{Email: "alice@example.com", Password: "wrong-password"}

	for i := 0; i < 4; i++ {
		_, err := f.svc.Login(ctx, "1.1.1.1", bad)
		assert.ErrorIs(t, err, common.ErrUnauthorized)
	}

	_, err := f.svc.Login(ctx, "1.1.1.1", bad)
	ue := userErr(t, err)
	assert.ErrorIs(t, err, common.ErrAccountLocked)
	assert.Equal(t, "Account Locked", ue.Title)
	assert.Equal(t, "Too many failed attempts. Please try again in 15 minutes.", ue.Message)
	callsAtLock := f.users.calls

	// Even the right password is refused while locked, without a lookup.
	*f.now = f.now.Add(14 * time.Minute)
	_, err = f.svc.Login(ctx, "1.1.1.1", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	ue = userErr(t, err)
	assert.Equal(t, "Too many failed attempts. Please try again in 1 minutes.", ue.Message)
	assert.Equal(t, callsAtLock, f.users.calls)

	// The account stays locked from another address.
	_, err = f.svc.Login(ctx, "2.2.2.2", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrAccountLocked)
	assert.Equal(t, callsAtLock, f.users.calls)

	*f.now = f.now.Add(time.Minute)
	resp, err := f.svc.Login(ctx, "1.1.1.1", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, common.RouteProfile, resp.Redirect)
}

func TestLogin_SuccessResetsCounter(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "secret123")
	ctx := context.Background()
	bad := LoginRequest{Email: "alice@example.com", Password: "wrong-password"}

	for i := 0; i < 4; i++ {
		_, _ = f.svc.Login(ctx, "1.1.1.1", bad)
	}
	_, err := f.svc.Login(ctx, "1.1.1.1", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "1.1.1.1", bad)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	assert.NotErrorIs(t, err, common.ErrAccountLocked)
}

func TestLogin_RotatingAddressesStillLocksAccount(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "secret123")
	ctx := context.Background()

	var err error
	for i := 0; i < 5; i++ {
		_, err = f.svc.Login(ctx, fmt.Sprintf("198.51.100.%d", i), LoginRequest{Email: "Alice@Example.com", Password: "wrong-password"})
	}
	assert.ErrorIs(t, err, common.ErrAccountLocked)

	_, err = f.svc.Login(ctx, "198.51.100.200", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrAccountLocked)

	// Other accounts are unaffected.
	f.addUser(t, "bob@example.com", "secret123")
	_, err = f.svc.Login(ctx, "198.51.100.201", LoginRequest{Email: "bob@example.com", Password: "secret123"})
	require.NoError(t, err)
}

func TestLogin_RotatingAccountsStillLocksClient(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "secret123")
	ctx := context.Background()

	var err error
	for i := 0; i < 5; i++ {
		_, err = f.svc.Login(ctx, "1.1.1.1", LoginRequest{Email: fmt.Sprintf("user%d@example.com", i), Password: "secret123"})
	}
	assert.ErrorIs(t, err, common.ErrAccountLocked)

	_, err = f.svc.Login(ctx, "1.1.1.1", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrAccountLocked)
}

func TestLogin_MissingProfileIsInternal(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "alice@example.com", "secret123")
	delete(f.profiles.profiles, "p-alice@example.com")

	_, err := f.svc.Login(context.Background(), "1.1.1.1", LoginRequest{Email: "alice@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInternalServer)
	assert.NotErrorIs(t, err, common.ErrNotFound)
	assert.Equal(t, http.StatusInternalServerError, common.HTTPStatusFromError(err))

	rec := httptest.NewRecorder()
	common.RespondWithDomainError(rec, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "not found")
}

func TestLogin_UnknownUserCountsAsFailure(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), "1.1.1.1", LoginRequest{Email: "nobody@example.com", Password: "secret123"})
	ue := userErr(t, err)
	assert.Equal(t, "Invalid login credentials", ue.Message)
}

func TestSignup_CreatesUserAndProfile(t *testing.T) {
	f := newAuthFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Signup(context.Background(), SignupRequest{Email: "bob@example.com", Password: "secret123", TeamID: strPtr(" team-7 ")})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, resp.Profile.Role)
	assert.Equal(t, resp.User.ID, resp.Profile.UserID)
	require.NotNil(t, resp.Profile.TeamID)
	assert.Equal(t, "team-7", *resp.Profile.TeamID)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}

func TestSignup_DuplicateEmailRollsBack(t *testing.T) {
	f := newAuthFixture(t)
	f.addUser(t, "bob@example.com", "secret123")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Signup(context.Background(), SignupRequest{Email: "bob@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, common.ErrConflict)
	assert.NoError(t, f.mock.ExpectationsWereMet())
}
