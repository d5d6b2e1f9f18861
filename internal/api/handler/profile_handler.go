package handler

import (
	"net/http"

	"hackathon_portal/internal/api/middleware"
	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type ProfileHandler struct {
	profiles repository.ProfileRepository
}

func NewProfileHandler(profiles repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Session(h.profiles, middleware.PageProfile)).Get("/", h.getProfile)
}

func (h *ProfileHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrAbort(w, r)
	if !ok {
		return
	}
	common.RespondWithJSON(w, http.StatusOK, profile)
}
