// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/compa-hq/compa-go/internal/middleware"
	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/store"
	"github.com/compa-hq/compa-go/internal/timeparse"
	"github.com/compa-hq/compa-go/internal/util"
)

// PosterResolver resolves an opaque poster reference produced by a prior
// upload. The orchestrator treats it as an external collaborator.
type PosterResolver interface {
	Resolve(ctx context.Context, ref string) (model.Media, error)
}

// AuthGate resolves the submitter's identity from request state. It is
// invoked once per submission, before any persistence write.
type AuthGate interface {
	Identity(ctx context.Context) (int64, error)
}

// SessionAuthGate resolves identity from the server-side session.
type SessionAuthGate struct {
	sm *scs.SessionManager
}

// NewSessionAuthGate creates an AuthGate backed by the session manager.
func NewSessionAuthGate(sm *scs.SessionManager) *SessionAuthGate {
	return &SessionAuthGate{sm: sm}
}

// Identity returns the authenticated user's ID or ErrUnauthenticated.
func (g *SessionAuthGate) Identity(ctx context.Context) (int64, error) {
	userID := g.sm.GetInt64(ctx, middleware.SessionKeyUserID)
	if userID == 0 {
		return 0, ErrUnauthenticated
	}
	return userID, nil
}

// SubmissionInput is the client-authored event submission as received at
// the boundary. Time fields are free-form strings normalized during
// validation.
type SubmissionInput struct {
	Title            string `json:"title"`
	Date             string `json:"date"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
	ShortDescription string `json:"shortDescription"`
	Description      string `json:"description"`
	Venue            string `json:"venue"`
	MapsLink         string `json:"mapsLink"`
	EventLink        string `json:"eventLink"`
	Poster           string `json:"poster"` // UUID reference from a prior upload
}

// eventDraft is a validated submission ready for persistence.
type eventDraft struct {
	title            string
	date             time.Time
	startTime        timeparse.Minutes
	endTime          sql.NullInt64
	shortDescription sql.NullString
	description      string
	venue            string
	mapsLink         sql.NullString
	eventLink        sql.NullString
}

// SubmissionService orchestrates event creation: validate the draft,
// resolve the poster if one was uploaded, authenticate the submitter, then
// persist. Every failure before the persistence stage leaves the events
// table untouched.
type SubmissionService struct {
	queries *store.Queries
	posters PosterResolver
	gate    AuthGate
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(db *sql.DB, posters PosterResolver, gate AuthGate) *SubmissionService {
	return &SubmissionService{
		queries: store.New(db),
		posters: posters,
		gate:    gate,
	}
}

// Submit runs one submission attempt end to end and returns the created
// event. Stage failures come back as *ValidationError, *UploadError,
// ErrUnauthenticated or *PersistenceError so the caller knows whether
// resubmission is safe.
func (s *SubmissionService) Submit(ctx context.Context, in SubmissionInput) (model.EventItem, error) {
	draft, err := validate(in)
	if err != nil {
		return model.EventItem{}, err
	}

	// Poster resolution happens before authorization, mirroring the client
	// flow where the upload completes first. A reference that cannot be
	// resolved terminates the attempt without a persistence call.
	var posterID sql.NullInt64
	if ref := strings.TrimSpace(in.Poster); ref != "" {
		media, err := s.posters.Resolve(ctx, ref)
		if err != nil {
			return model.EventItem{}, &UploadError{Err: fmt.Errorf("resolving poster %q: %w", ref, err)}
		}
		posterID = sql.NullInt64{Int64: media.ID, Valid: true}
	}

	userID, err := s.gate.Identity(ctx)
	if err != nil {
		return model.EventItem{}, err
	}

	slug, err := s.uniqueSlug(ctx, draft.title)
	if err != nil {
		return model.EventItem{}, &PersistenceError{Err: err}
	}

	event, err := s.queries.CreateEventItem(ctx, store.CreateEventItemParams{
		Slug:             slug,
		Title:            draft.title,
		Date:             draft.date,
		StartTime:        int64(draft.startTime),
		EndTime:          draft.endTime,
		ShortDescription: draft.shortDescription,
		Description:      draft.description,
		Venue:            draft.venue,
		MapsLink:         draft.mapsLink,
		EventLink:        draft.eventLink,
		PosterID:         posterID,
		UserID:           userID,
		CreatedAt:        time.Now(),
	})
	if err != nil {
		return model.EventItem{}, &PersistenceError{Err: err}
	}

	return event, nil
}

// validate checks required fields and normalizes the draft. Field problems
// are collected so the caller sees all of them at once.
func validate(in SubmissionInput) (eventDraft, error) {
	fields := make(map[string]string)
	var draft eventDraft

	draft.title = strings.TrimSpace(in.Title)
	if draft.title == "" {
		fields["title"] = "title is required"
	}

	draft.description = strings.TrimSpace(in.Description)
	if draft.description == "" {
		fields["description"] = "description is required"
	}

	draft.venue = strings.TrimSpace(in.Venue)
	if draft.venue == "" {
		fields["venue"] = "venue is required"
	}

	if dateStr := strings.TrimSpace(in.Date); dateStr == "" {
		fields["date"] = "date is required"
	} else {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			fields["date"] = "date must be formatted YYYY-MM-DD"
		} else {
			draft.date = date
		}
	}

	// The time parser itself never fails; an absent result on the required
	// start field is what makes the submission invalid.
	start, ok := timeparse.Parse(in.StartTime)
	if !ok {
		fields["startTime"] = "startTime is required as HH:MM"
	} else {
		draft.startTime = start
	}

	if end, ok := timeparse.Parse(in.EndTime); ok {
		draft.endTime = sql.NullInt64{Int64: int64(end), Valid: true}
	}

	if sd := strings.TrimSpace(in.ShortDescription); sd != "" {
		draft.shortDescription = sql.NullString{String: sd, Valid: true}
	}
	if ml := strings.TrimSpace(in.MapsLink); ml != "" {
		draft.mapsLink = sql.NullString{String: ml, Valid: true}
	}
	if el := strings.TrimSpace(in.EventLink); el != "" {
		draft.eventLink = sql.NullString{String: el, Valid: true}
	}

	if len(fields) > 0 {
		return eventDraft{}, &ValidationError{Fields: fields}
	}
	return draft, nil
}

// uniqueSlug derives a URL slug from the title, appending a numeric suffix
// when the slug is already taken.
func (s *SubmissionService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "event"
	}

	slug := base
	for i := 2; ; i++ {
		n, err := s.queries.CountEventSlugs(ctx, slug)
		if err != nil {
			return "", err
		}
		if n == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
