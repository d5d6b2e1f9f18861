package middleware

import (
	"context"
	"errors"
	"net/http"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/common/security"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/logger"

	"go.uber.org/zap"
)

type contextKey string

const (
	SessionCtxKey contextKey = "session"
	ProfileCtxKey contextKey = "profile"
)

// RedirectRoutes maps navigation targets to the API paths clients follow.
var RedirectRoutes = map[string]string{
	common.RouteLogin:             "/api/v1/auth/login",
	common.RouteProfile:           "/api/v1/profile",
	common.RouteApplications:      "/api/v1/applications",
	common.RouteProblemStatements: "/api/v1/problem-statements",
}

func respondUnauthenticated(w http.ResponseWriter, page Page) {
	d := Evaluate(page, false)
	common.RespondWithJSON(w, http.StatusUnauthorized, common.ErrorResponse{
		Error:    "Authentication required",
		Redirect: d.RedirectTo,
	})
}

// Authenticator rejects requests without a valid session for the given page.
func Authenticator(page Page) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := security.SessionFromContext(r.Context())
			if err != nil {
				respondUnauthenticated(w, page)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), SessionCtxKey, session)))
		})
	}
}

// RequireProfile loads the caller's profile. Must run after Authenticator.
func RequireProfile(profiles repository.ProfileRepository, page Page) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := SessionFromContext(r.Context())
			if !ok {
				respondUnauthenticated(w, page)
				return
			}
			profile, err := profiles.FindByUserID(r.Context(), session.UserID)
			if err != nil {
				if errors.Is(err, common.ErrNotFound) {
					respondUnauthenticated(w, page)
					return
				}
				logger.L().Error("Failed to load profile", zap.String("user_id", session.UserID), zap.Error(err))
				common.RespondWithDomainError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ProfileCtxKey, profile)))
		})
	}
}

// RedirectIfAuthenticated sends signed-in callers of the login page to their
// profile instead.
func RedirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, err := security.SessionFromContext(r.Context())
		d := Evaluate(PageLogin, err == nil)
		if d.Render {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Location", RedirectRoutes[d.RedirectTo])
		common.RespondWithJSON(w, http.StatusSeeOther, map[string]string{"redirect": d.RedirectTo})
	})
}

func SessionFromContext(ctx context.Context) (security.Session, bool) {
	session, ok := ctx.Value(SessionCtxKey).(security.Session)
	return session, ok
}

func ProfileFromContext(ctx context.Context) (*model.Profile, bool) {
	profile, ok := ctx.Value(ProfileCtxKey).(*model.Profile)
	return profile, ok && profile != nil
}

// Session chains Authenticator and RequireProfile for a gated page.
func Session(profiles repository.ProfileRepository, page Page) func(http.Handler) http.Handler {
	authenticate := Authenticator(page)
	loadProfile := RequireProfile(profiles, page)
	return func(next http.Handler) http.Handler {
		return authenticate(loadProfile(next))
	}
}
