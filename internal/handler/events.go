// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/compa-hq/compa-go/internal/cache"
	"github.com/compa-hq/compa-go/internal/content"
	"github.com/compa-hq/compa-go/internal/middleware"
	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/service"
	"github.com/compa-hq/compa-go/internal/store"
	"github.com/compa-hq/compa-go/internal/view"
)

// EventHandler serves the event feed and accepts submissions.
type EventHandler struct {
	queries    *store.Queries
	submission *service.SubmissionService
	activity   *service.ActivityService
	feedCache  cache.Cache
	cacheTTL   time.Duration
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(db *sql.DB, submission *service.SubmissionService, activity *service.ActivityService, feedCache cache.Cache, cacheTTL time.Duration) *EventHandler {
	return &EventHandler{
		queries:    store.New(db),
		submission: submission,
		activity:   activity,
		feedCache:  feedCache,
		cacheTTL:   cacheTTL,
	}
}

// Create accepts an event submission and responds with the created event's
// identity. The Location header points at the new event.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.SubmissionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body", nil)
		return
	}

	event, err := h.submission.Submit(r.Context(), in)
	if err != nil {
		h.writeSubmissionError(w, r, err)
		return
	}

	// A new event makes the cached feed stale
	if err := h.feedCache.Delete(r.Context(), cache.FeedKey); err != nil {
		slog.Warn("feed cache invalidation failed", "error", err)
	}

	userID := middleware.GetUserID(r)
	h.activity.LogEvent(r.Context(), model.ActivityLevelInfo, "event submitted", &userID, r, map[string]any{
		"event_id": event.ID,
		"slug":     event.Slug,
	})

	w.Header().Set("Location", fmt.Sprintf("/events/%d", event.ID))
	WriteCreated(w, map[string]any{
		"id":   event.ID,
		"slug": event.Slug,
	})
}

// writeSubmissionError maps orchestrator failures to API responses so the
// caller always learns which stage failed.
func (h *EventHandler) writeSubmissionError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *service.ValidationError
	var upErr *service.UploadError
	var perErr *service.PersistenceError

	switch {
	case errors.As(err, &valErr):
		WriteError(w, http.StatusBadRequest, "validation_failed", "Submission has missing or invalid fields", valErr.Fields)
	case errors.As(err, &upErr):
		WriteError(w, http.StatusUnprocessableEntity, "upload_failed", upErr.Error(), nil)
	case errors.Is(err, service.ErrUnauthenticated):
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
	case errors.As(err, &perErr):
		slog.Error("event persistence failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "persist_failed", "Could not save the event. Resubmitting may create a duplicate.", nil)
	default:
		slog.Error("event submission failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Something went wrong", nil)
	}
}

// List returns the projected event feed, served from cache when fresh.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if cached, err := h.feedCache.Get(r.Context(), cache.FeedKey); err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "hit")
		_, _ = w.Write(cached)
		return
	}

	items, err := h.loadFeed(r.Context())
	if err != nil {
		slog.Error("failed to load event feed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Could not load events", nil)
		return
	}

	body, err := json.Marshal(Response{Data: items})
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "internal_error", "Could not encode events", nil)
		return
	}

	if err := h.feedCache.Set(r.Context(), cache.FeedKey, body, h.cacheTTL); err != nil {
		slog.Warn("feed cache write failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(body)
}

// loadFeed reads all events with their joined author and poster data and
// projects them for display.
func (h *EventHandler) loadFeed(ctx context.Context) ([]view.FeedItem, error) {
	rows, err := h.queries.ListEventItems(ctx)
	if err != nil {
		return nil, err
	}
	return view.Project(rows, time.Now()), nil
}

// eventDetail is the detail response for a single event.
type eventDetail struct {
	view.FeedItem
	DescriptionHTML string `json:"descriptionHtml"`
	Description     string `json:"description"`
}

// Get returns one event with its description rendered to sanitized HTML.
func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		WriteError(w, http.StatusNotFound, "not_found", "Event not found", nil)
		return
	}

	row, err := h.queries.GetEventItemRowByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, http.StatusNotFound, "not_found", "Event not found", nil)
			return
		}
		slog.Error("failed to load event", "id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Could not load event", nil)
		return
	}

	html, err := content.RenderDescription(row.Event.Description)
	if err != nil {
		slog.Warn("description rendering failed", "id", id, "error", err)
		html = ""
	}

	WriteSuccess(w, eventDetail{
		FeedItem:        view.ProjectOne(row, time.Now()),
		DescriptionHTML: html,
		Description:     row.Event.Description,
	})
}
