// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/compa-hq/compa-go/internal/middleware"
	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/service"
)

// MediaHandler accepts poster uploads ahead of event submission.
type MediaHandler struct {
	media    *service.MediaService
	activity *service.ActivityService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(media *service.MediaService, activity *service.ActivityService) *MediaHandler {
	return &MediaHandler{
		media:    media,
		activity: activity,
	}
}

// mediaResponse is the public shape of an uploaded poster.
type mediaResponse struct {
	UUID     string `json:"uuid"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Width    int64  `json:"width,omitempty"`
	Height   int64  `json:"height,omitempty"`
}

// Upload accepts a multipart poster upload. The returned UUID is the opaque
// reference the client attaches to its event submission.
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r)
	if userID == 0 {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}

	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		WriteError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "Upload exceeds the size limit", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Multipart field 'file' is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	media, err := h.media.Upload(r.Context(), file, header.Filename, header.Size, userID)
	if err != nil {
		h.writeUploadError(w, err)
		return
	}

	h.activity.LogMedia(r.Context(), model.ActivityLevelInfo, "poster uploaded", &userID, r, map[string]any{
		"uuid":      media.UUID,
		"mime_type": media.MimeType,
		"size":      media.Size,
	})

	resp := mediaResponse{
		UUID:     media.UUID,
		Filename: media.Filename,
		MimeType: media.MimeType,
		Size:     media.Size,
	}
	if media.Width.Valid {
		resp.Width = media.Width.Int64
	}
	if media.Height.Valid {
		resp.Height = media.Height.Int64
	}

	WriteCreated(w, resp)
}

// writeUploadError maps upload failures to API responses.
func (h *MediaHandler) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUploadTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "Upload exceeds the size limit", nil)
	case errors.Is(err, service.ErrUnsupportedMediaType):
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "Only JPEG, PNG, GIF and WebP images are accepted", nil)
	default:
		slog.Error("poster upload failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "upload_failed", "Could not store the upload", nil)
	}
}
