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

// multipartOverhead leaves room for form boundaries and headers on top of
// the file itself.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploadService *service.UploadService
	profiles      repository.ProfileRepository
	maxBytes      int64
}

func NewUploadHandler(us *service.UploadService, profiles repository.ProfileRepository, maxBytes int64) *UploadHandler {
	return &UploadHandler{uploadService: us, profiles: profiles, maxBytes: maxBytes}
}

func (h *UploadHandler) RegisterRoutes(r chi.Router) {
	r.With(middleware.Session(h.profiles, middleware.PageSubmit)).Post("/", h.upload)
}

func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "A file must be sent in the \"file\" form field")
		return
	}
	defer file.Close()

	resp, err := h.uploadService.Upload(r.Context(), header.Filename, file)
	if err != nil {
		if common.HTTPStatusFromError(err) >= http.StatusInternalServerError {
			logger.L().Error("Upload failed", zap.String("filename", header.Filename), zap.Error(err))
		}
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}
