package handler

import (
	"errors"
	"net/http"

	"hackathon_portal/internal/api/middleware"
	"hackathon_portal/internal/app/service"
	"hackathon_portal/internal/common"
	"hackathon_portal/internal/domain/model"
	"hackathon_portal/internal/domain/repository"
	"hackathon_portal/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type SelectionHandler struct {
	selectionService *service.SelectionService
	profiles         repository.ProfileRepository
}

func NewSelectionHandler(ss *service.SelectionService, profiles repository.ProfileRepository) *SelectionHandler {
	return &SelectionHandler{selectionService: ss, profiles: profiles}
}

func (h *SelectionHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Session(h.profiles, middleware.PageProblemStatements))
		protected.Get("/", h.getState)
		protected.Post("/selection", h.selectProblem)
	})
}

type confirmationResponse struct {
	common.ErrorResponse
	Confirm []string `json:"confirm"`
}

func (h *SelectionHandler) getState(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrAbort(w, r)
	if !ok {
		return
	}
	state, err := h.selectionService.GetState(r.Context(), profile)
	if err != nil {
		logger.L().Error("Failed to load selection state", zap.String("profile_id", profile.ID), zap.Error(err))
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, state)
}

func (h *SelectionHandler) selectProblem(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileOrAbort(w, r)
	if !ok {
		return
	}
	var req service.SelectRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.selectionService.Select(r.Context(), profile, req)
	if err != nil {
		var userErr *common.UserError
		if errors.Is(err, common.ErrConfirmationRequired) && errors.As(err, &userErr) {
			common.RespondWithJSON(w, http.StatusPreconditionRequired, confirmationResponse{
				ErrorResponse: common.ErrorResponse{Error: userErr.Message, Title: userErr.Title},
				Confirm:       model.OpenProblemConfirmation,
			})
			return
		}
		if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
			logger.L().Error("Problem selection failed", zap.String("profile_id", profile.ID), zap.Error(err))
		}
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
