package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/common/security"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/cache"
	"hackathon_portal/internal/platform/logger"
	"hackathon_portal/internal/platform/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SanitizeInput trims surrounding whitespace and strips angle brackets.
func SanitizeInput(s string) string {
	return strings.NewReplacer("<", "", ">", "").Replace(strings.TrimSpace(s))
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func IsValidPassword(password string) bool {
	return len(password) >= minPasswordLength
}

// LockoutMessage renders the remaining lockout rounded up to whole minutes.
func LockoutMessage(remaining time.Duration) string {
	minutes := int(math.Ceil(remaining.Minutes()))
	return fmt.Sprintf("Too many failed attempts. Please try again in %d minutes.", minutes)
}

var (
	errInvalidEmail    = common.NewUserError(common.ErrValidation, "Invalid Email", "Please enter a valid email address")
	errInvalidPassword = common.NewUserError(common.ErrValidation, "Invalid Password", "Password must be at least 6 characters long")
	errBadCredentials  = common.NewUserError(common.ErrUnauthorized, "Error", "Invalid login credentials")
)

type AuthService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	limiter     cache.LoginLimiter
	db          *sql.DB
}

func NewAuthService(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, limiter cache.LoginLimiter, db *sql.DB) *AuthService {
	return &AuthService{userRepo: userRepo, profileRepo: profileRepo, limiter: limiter, db: db}
}

// Email and password rules are applied by the service, not by tags.
type SignupRequest struct {
	Email    string  `json:"email" validate:"max=320"`
	Password string  `json:"password" validate:"max=128"`
	TeamID   *string `json:"team_id,omitempty" validate:"omitempty,max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"max=320"`
	Password string `json:"password" validate:"max=128"`
}

type AuthResponse struct {
	User     *model.User    `json:"user"`
	Profile  *model.Profile `json:"profile,omitempty"`
	Token    string         `json:"token"`
	Redirect string         `json:"redirect"`
}

func validateCredentials(email, password string) (string, string, error) {
	email, password = SanitizeInput(email), SanitizeInput(password)
	if !IsValidEmail(email) {
		return "", "", errInvalidEmail
	}
	if !IsValidPassword(password) {
		return "", "", errInvalidPassword
	}
	return email, password, nil
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	email, password, err := validateCredentials(req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Email:          email,
		HashedPassword: hashedPassword,
	}
	profile := &model.Profile{
		ID:     uuid.NewString(),
		UserID: user.ID,
		Role:   model.RoleUser,
	}
	if req.TeamID != nil {
		if team := strings.TrimSpace(*req.TeamID); team != "" {
			profile.TeamID = &team
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.userRepo.Create(ctx, tx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	if err := s.profileRepo.Create(ctx, tx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit signup: %w", err)
	}

	token, err := security.IssueToken(security.Session{UserID: user.ID, Role: profile.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Profile: profile, Token: token, Redirect: common.RouteProfile}, nil
}

// Login signs a user in. Failures are counted twice: per client (clientKey)
// and per account, so neither rotating addresses nor rotating accounts
// escapes the lockout. Input validation failures do not count as attempts.
func (s *AuthService) Login(ctx context.Context, clientKey string, req LoginRequest) (*AuthResponse, error) {
	client := clientLimiterKey(clientKey)
	if remaining := s.lockedFor(ctx, client); remaining > 0 {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, lockedOut(remaining)
	}

	email, password, err := validateCredentials(req.Email, req.Password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, err
	}

	account := accountLimiterKey(email)
	if remaining := s.lockedFor(ctx, account); remaining > 0 {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		return nil, lockedOut(remaining)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !security.CheckPasswordHash(password, user.HashedPassword) {
		metrics.LoginAttempts.WithLabelValues("failed").Inc()
		return nil, s.recordFailure(ctx, client, account)
	}

	profile, err := s.profileRepo.FindByUserID(ctx, user.ID)
	if errors.Is(err, common.ErrNotFound) {
		logger.L().Error("User has no profile", zap.String("user_id", user.ID))
		return nil, fmt.Errorf("%w: user %s has no profile", common.ErrInternalServer, user.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	for _, key := range []string{client, account} {
		if err := s.limiter.Reset(ctx, key); err != nil {
			logger.L().Warn("Failed to reset login limiter", zap.String("key", key), zap.Error(err))
		}
	}

	token, err := security.IssueToken(security.Session{UserID: user.ID, Role: profile.Role})
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()
	user.HashedPassword = ""
	return &AuthResponse{User: user, Profile: profile, Token: token, Redirect: common.RouteProfile}, nil
}

func clientLimiterKey(clientKey string) string { return "client:" + clientKey }
func accountLimiterKey(email string) string    { return "account:" + strings.ToLower(email) }

func lockedOut(remaining time.Duration) error {
	return common.NewUserError(common.ErrAccountLocked, "Account Locked", LockoutMessage(remaining))
}

// lockedFor fails open: a limiter outage must not block every sign-in.
func (s *AuthService) lockedFor(ctx context.Context, key string) time.Duration {
	remaining, err := s.limiter.LockedFor(ctx, key)
	if err != nil {
		logger.L().Warn("Login limiter unavailable", zap.String("key", key), zap.Error(err))
		return 0
	}
	return remaining
}

// recordFailure counts the failure against every key and reports the longest
// lockout it started.
func (s *AuthService) recordFailure(ctx context.Context, keys ...string) error {
	var longest time.Duration
	for _, key := range keys {
		lockedFor, err := s.limiter.RecordFailure(ctx, key)
		if err != nil {
			logger.L().Warn("Failed to record login failure", zap.String("key", key), zap.Error(err))
			continue
		}
		if lockedFor > 0 {
			metrics.Lockouts.Inc()
			logger.L().Info("Login locked out after repeated failures", zap.String("key", key))
		}
		if lockedFor > longest {
			longest = lockedFor
		}
	}
	if longest > 0 {
		return lockedOut(longest)
	}
	return errBadCredentials
}
