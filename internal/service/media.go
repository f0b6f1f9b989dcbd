// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/compa-hq/compa-go/internal/imaging"
	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/store"
)

// MaxUploadSize is the maximum accepted poster payload.
const MaxUploadSize = 10 << 20 // 10 MB

// MediaService handles poster uploads and reference resolution.
type MediaService struct {
	queries   *store.Queries
	processor *imaging.Processor
}

// NewMediaService creates a new MediaService storing files under uploadsDir.
func NewMediaService(db *sql.DB, uploadsDir string) *MediaService {
	return &MediaService{
		queries:   store.New(db),
		processor: imaging.NewProcessor(uploadsDir),
	}
}

// Upload stores a poster image and records it in the database. The returned
// media carries the opaque UUID reference the client later attaches to its
// event submission. A media row that outlives a failed submission is
// accepted and never reclaimed here.
func (s *MediaService) Upload(ctx context.Context, r io.Reader, filename string, size int64, uploadedBy int64) (model.Media, error) {
	if size > MaxUploadSize {
		return model.Media{}, ErrUploadTooLarge
	}

	// LimitReader guards against clients that lie about the declared size.
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return model.Media{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > MaxUploadSize {
		return model.Media{}, ErrUploadTooLarge
	}

	mimeType := s.processor.DetectMimeType(data)
	if !model.IsSupportedMimeType(mimeType) {
		return model.Media{}, ErrUnsupportedMediaType
	}

	ref := uuid.New().String()
	safeName := filepath.Base(filename)

	result, err := s.processor.ProcessPoster(bytes.NewReader(data), ref, safeName)
	if err != nil {
		return model.Media{}, &UploadError{Err: err}
	}

	// Thumbnail generation is best effort; the original is authoritative.
	if _, err := s.processor.CreateThumbnail(result.FilePath, ref, safeName); err != nil {
		slog.Warn("poster thumbnail generation failed", "uuid", ref, "error", err)
	}

	media, err := s.queries.CreateMedia(ctx, store.CreateMediaParams{
		UUID:       ref,
		Filename:   safeName,
		MimeType:   result.MimeType,
		Size:       result.Size,
		Width:      sql.NullInt64{Int64: int64(result.Width), Valid: true},
		Height:     sql.NullInt64{Int64: int64(result.Height), Valid: true},
		UploadedBy: uploadedBy,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		// Do not leave files behind for a record that was never created.
		if cleanupErr := s.processor.DeletePosterFiles(ref); cleanupErr != nil {
			slog.Error("failed to clean up poster files", "uuid", ref, "error", cleanupErr)
		}
		return model.Media{}, &UploadError{Err: err}
	}

	return media, nil
}

// Resolve looks up a previously uploaded poster by its UUID reference.
func (s *MediaService) Resolve(ctx context.Context, ref string) (model.Media, error) {
	return s.queries.GetMediaByUUID(ctx, ref)
}
