package handler

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"hackathon_portal/internal/api/middleware"
	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// decodeJSON decodes and validates the request body, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// clientKey identifies the caller for login lockout. RemoteAddr only carries
// a forwarded address when the request came through a trusted proxy.
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func profileOrAbort(w http.ResponseWriter, r *http.Request) (*model.Profile, bool) {
	profile, ok := middleware.ProfileFromContext(r.Context())
	if !ok {
		common.RespondWithJSON(w, http.StatusUnauthorized, common.ErrorResponse{
			Error:    "Authentication required",
			Redirect: common.RouteLogin,
		})
		return nil, false
	}
	return profile, true
}
