package handler

import (
	"net/http"

	"hackathon_portal/internal/api/middleware"
	"hackathon_portal/internal/app/service"
	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ApplicationHandler struct {
	applicationService *service.ApplicationService
	profiles           repository.ProfileRepository
}

func NewApplicationHandler(as *service.ApplicationService, profiles repository.ProfileRepository) *ApplicationHandler {
	return &ApplicationHandler{applicationService: as, profiles: profiles}
}

func (h *ApplicationHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Session(h.profiles, middleware.PageApplications)).Get("/", h.listApplications)
	r.With(middleware.Session(h.profiles, middleware.PageSubmit)).Post("/", h.submitApplication)
}

func (h *ApplicationHandler) listApplications(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrAbort(w, r)
	if !ok {
		return
	}
	apps, err := h.applicationService.List(r.Context(), profile)
	if err != nil {
		logger.L().Error("Failed to list applications", zap.String("profile_id", profile.ID), zap.Error(err))
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"applications": apps})
}

func (h *ApplicationHandler) submitApplication(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrAbort(w, r)
	if !ok {
		return
	}
	var req service.SubmitApplicationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.applicationService.Submit(r.Context(), profile, req)
	if err != nil {
		if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
			logger.L().Error("Application submission failed", zap.String("profile_id", profile.ID), zap.Error(err))
		}
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}
