package security

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

const (
	claimUserID = "user_id"
	claimRole   = "role"
)

var ErrInvalidSession = errors.New("token does not carry a portal session")

// Session is the signed-in caller a portal token stands for.
type Session struct {
	UserID string
	Role   string
}

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// IssueToken signs a token for s that expires after the configured JWTExp.
func IssueToken(s Session) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		claimUserID: s.UserID,
		claimRole:   s.Role,
		"iat":       now.Unix(),
		"exp":       now.Add(config.AppConfig.JWTExp).Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("security.IssueToken: %w", err)
	}
	return tokenString, nil
}

// SessionFromClaims rebuilds a session from verified claims. The user id must
// be present and the role must be one the portal hands out.
func SessionFromClaims(claims map[string]interface{}) (Session, error) {
	userID, _ := claims[claimUserID].(string)
	if userID == "" {
		return Session{}, fmt.Errorf("%w: missing %s", ErrInvalidSession, claimUserID)
	}
	role, _ := claims[claimRole].(string)
	switch role {
	case model.RoleUser, model.RoleAdmin:
	default:
		return Session{}, fmt.Errorf("%w: unknown role %q", ErrInvalidSession, role)
	}
	return Session{UserID: userID, Role: role}, nil
}

// SessionFromContext returns the session of the token jwtauth.Verifier put on
// ctx. Missing, expired and forged tokens all yield an error.
func SessionFromContext(ctx context.Context) (Session, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Session{}, err
	}
	if token == nil {
		return Session{}, ErrInvalidSession
	}
	return SessionFromClaims(claims)
}
