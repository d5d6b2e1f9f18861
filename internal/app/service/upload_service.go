package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"hackathon_portal/internal/common"
	"hackathon_portal/internal/platform/metrics"
	"hackathon_portal/internal/platform/storage"
)

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

type UploadService struct {
	store    storage.FileStore
	maxBytes int64
}

func NewUploadService(store storage.FileStore, maxBytes int64) *UploadService {
	return &UploadService{store: store, maxBytes: maxBytes}
}

type UploadResponse struct {
	URL string `json:"url"`
}

// Upload stores an image and returns its public URL. The content type is
// sniffed from the bytes, not taken from the client.
func (s *UploadService) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResponse, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, common.NewUserError(common.ErrValidation, "Error", "The uploaded file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, common.NewUserError(common.ErrValidation, "Error",
			fmt.Sprintf("The file must be smaller than %d MB", s.maxBytes>>20))
	}
	if !allowedImageTypes[http.DetectContentType(data)] {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, common.NewUserError(common.ErrValidation, "Error", "Only PNG, JPEG, GIF or WebP images can be uploaded")
	}

	url, err := s.store.Save(ctx, filename, bytes.NewReader(data))
	if err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to store upload: %w", err)
	}
	metrics.Uploads.WithLabelValues("success").Inc()
	return &UploadResponse{URL: url}, nil
}
