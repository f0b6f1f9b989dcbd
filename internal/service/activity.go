// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"
	"github.com/robfig/cron/v3"

	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/store"
)

// ActivityService records audit events such as logins, submissions and
// uploads, and prunes old entries on a schedule.
type ActivityService struct {
	queries       *store.Queries
	retentionDays int
}

// NewActivityService creates a new ActivityService.
func NewActivityService(db *sql.DB, retentionDays int) *ActivityService {
	return &ActivityService{
		queries:       store.New(db),
		retentionDays: retentionDays,
	}
}

// Log records an activity entry. Metadata values must be JSON-serializable.
// Logging failures are reported to the application log but never propagate
// to the caller.
func (s *ActivityService) Log(ctx context.Context, level, category, message string, userID *int64, r *http.Request, metadata map[string]any) {
	var uid sql.NullInt64
	if userID != nil {
		uid = sql.NullInt64{Int64: *userID, Valid: true}
	}

	if metadata == nil {
		metadata = make(map[string]any)
	}
	var ip string
	if r != nil {
		ip = r.RemoteAddr
		// Record the parsed browser rather than the raw UA string
		ua := useragent.Parse(r.UserAgent())
		if ua.Name != "" {
			metadata["browser"] = fmt.Sprintf("%s %s", ua.Name, ua.Version)
			metadata["os"] = ua.OS
			if ua.Mobile {
				metadata["device"] = "mobile"
			}
		}
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		metaJSON = []byte("{}")
	}

	_, err = s.queries.CreateActivity(ctx, store.CreateActivityParams{
		Level:     level,
		Category:  category,
		Message:   message,
		UserID:    uid,
		Metadata:  string(metaJSON),
		IPAddress: ip,
		CreatedAt: time.Now(),
	})
	if err != nil {
		slog.Error("failed to record activity", "category", category, "error", err)
	}
}

// LogAuth records an authentication-related activity.
func (s *ActivityService) LogAuth(ctx context.Context, level, message string, userID *int64, r *http.Request) {
	s.Log(ctx, level, model.ActivityCategoryAuth, message, userID, r, nil)
}

// LogEvent records an event-submission activity.
func (s *ActivityService) LogEvent(ctx context.Context, level, message string, userID *int64, r *http.Request, metadata map[string]any) {
	s.Log(ctx, level, model.ActivityCategoryEvent, message, userID, r, metadata)
}

// LogMedia records a media-upload activity.
func (s *ActivityService) LogMedia(ctx context.Context, level, message string, userID *int64, r *http.Request, metadata map[string]any) {
	s.Log(ctx, level, model.ActivityCategoryMedia, message, userID, r, metadata)
}

// Prune deletes activity entries older than the retention window.
func (s *ActivityService) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	return s.queries.DeleteOldActivities(ctx, cutoff)
}

// StartRetentionJob schedules a nightly prune of the activity log.
// The returned cron must be stopped on shutdown.
func (s *ActivityService) StartRetentionJob() *cron.Cron {
	c := cron.New()
	_, err := c.AddFunc("0 3 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		deleted, err := s.Prune(ctx)
		if err != nil {
			slog.Error("activity log retention failed", "error", err)
			return
		}
		if deleted > 0 {
			slog.Info("pruned activity log", "deleted", deleted, "retention_days", s.retentionDays)
		}
	})
	if err != nil {
		slog.Error("failed to schedule activity retention job", "error", err)
	}
	c.Start()
	return c
}
