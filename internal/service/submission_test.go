// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/store"
	"github.com/compa-hq/compa-go/internal/testutil"
)

// fakeResolver records whether it was invoked and serves a canned poster.
type fakeResolver struct {
	called bool
	media  model.Media
	err    error
}

func (f *fakeResolver) Resolve(_ context.Context, _ string) (model.Media, error) {
	f.called = true
	return f.media, f.err
}

// fakeGate resolves a fixed identity or failure.
type fakeGate struct {
	called bool
	userID int64
	err    error
}

func (f *fakeGate) Identity(_ context.Context) (int64, error) {
	f.called = true
	if f.err != nil {
		return 0, f.err
	}
	return f.userID, nil
}

func validInput() SubmissionInput {
	return SubmissionInput{
		Title:       "Bonfire",
		Date:        "2024-03-01",
		StartTime:   "21:00",
		Description: "An evening by the fire.",
		Venue:       "Quad",
	}
}

func countEvents(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	n, err := store.New(db).CountEventItems(context.Background())
	if err != nil {
		t.Fatalf("CountEventItems: %v", err)
	}
	return n
}

func TestSubmitWithoutPoster(t *testing.T) {
	db := testutil.TestDB(t)
	userID := testutil.CreateTestUser(t, db, "ama@example.edu")
	resolver := &fakeResolver{}
	gate := &fakeGate{userID: userID}
	svc := NewSubmissionService(db, resolver, gate)

	event, err := svc.Submit(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if resolver.called {
		t.Error("poster resolver invoked for a submission without poster")
	}
	if event.ID == 0 {
		t.Error("event has no assigned ID")
	}
	if event.StartTime != 1260 {
		t.Errorf("StartTime = %d, want 1260", event.StartTime)
	}
	if event.Venue != "Quad" {
		t.Errorf("Venue = %q", event.Venue)
	}
	if event.Slug != "bonfire" {
		t.Errorf("Slug = %q", event.Slug)
	}
	if event.EndTime.Valid {
		t.Error("EndTime should be absent")
	}
}

func TestSubmitWithPoster(t *testing.T) {
	db := testutil.TestDB(t)
	userID := testutil.CreateTestUser(t, db, "ama@example.edu")

	media, err := store.New(db).CreateMedia(context.Background(), store.CreateMediaParams{
		UUID:       "ref-1",
		Filename:   "poster.png",
		MimeType:   "image/png",
		Size:       100,
		UploadedBy: userID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}

	resolver := &fakeResolver{media: media}
	gate := &fakeGate{userID: userID}
	svc := NewSubmissionService(db, resolver, gate)

	in := validInput()
	in.Poster = "ref-1"
	in.EndTime = "23:30"

	event, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if !resolver.called {
		t.Error("poster resolver not invoked")
	}
	if !event.PosterID.Valid || event.PosterID.Int64 != media.ID {
		t.Errorf("PosterID = %+v, want %d", event.PosterID, media.ID)
	}
	if !event.EndTime.Valid || event.EndTime.Int64 != 1410 {
		t.Errorf("EndTime = %+v, want 1410", event.EndTime)
	}
}

func TestSubmitUploadFailureSkipsPersistence(t *testing.T) {
	db := testutil.TestDB(t)
	userID := testutil.CreateTestUser(t, db, "ama@example.edu")
	resolver := &fakeResolver{err: sql.ErrNoRows}
	gate := &fakeGate{userID: userID}
	svc := NewSubmissionService(db, resolver, gate)

	in := validInput()
	in.Poster = "missing-ref"

	_, err := svc.Submit(context.Background(), in)

	var upErr *UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("err = %v, want *UploadError", err)
	}
	if n := countEvents(t, db); n != 0 {
		t.Errorf("events persisted after upload failure: %d", n)
	}
}

func TestSubmitUnauthenticatedSkipsPersistence(t *testing.T) {
	db := testutil.TestDB(t)
	resolver := &fakeResolver{}
	gate := &fakeGate{err: ErrUnauthenticated}
	svc := NewSubmissionService(db, resolver, gate)

	_, err := svc.Submit(context.Background(), validInput())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
	if n := countEvents(t, db); n != 0 {
		t.Errorf("events persisted for unauthenticated submission: %d", n)
	}
}

func TestSubmitValidationCollectsAllFields(t *testing.T) {
	db := testutil.TestDB(t)
	resolver := &fakeResolver{}
	gate := &fakeGate{userID: 1}
	svc := NewSubmissionService(db, resolver, gate)

	_, err := svc.Submit(context.Background(), SubmissionInput{})

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	for _, field := range []string{"title", "date", "startTime", "description", "venue"} {
		if _, ok := valErr.Fields[field]; !ok {
			t.Errorf("missing field %q not reported", field)
		}
	}
	if gate.called {
		t.Error("auth gate invoked for invalid submission")
	}
	if resolver.called {
		t.Error("poster resolver invoked for invalid submission")
	}
	if n := countEvents(t, db); n != 0 {
		t.Errorf("events persisted for invalid submission: %d", n)
	}
}

func TestSubmitTrimsFields(t *testing.T) {
	db := testutil.TestDB(t)
	userID := testutil.CreateTestUser(t, db, "ama@example.edu")
	svc := NewSubmissionService(db, &fakeResolver{}, &fakeGate{userID: userID})

	in := validInput()
	in.Title = "  Bonfire  "
	in.Venue = " Quad\n"

	event, err := svc.Submit(context.Background(), in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if event.Title != "Bonfire" || event.Venue != "Quad" {
		t.Errorf("fields not trimmed: %q / %q", event.Title, event.Venue)
	}
}

func TestSubmitResubmissionCreatesDuplicate(t *testing.T) {
	db := testutil.TestDB(t)
	userID := testutil.CreateTestUser(t, db, "ama@example.edu")
	svc := NewSubmissionService(db, &fakeResolver{}, &fakeGate{userID: userID})
	ctx := context.Background()

	first, err := svc.Submit(ctx, validInput())
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := svc.Submit(ctx, validInput())
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if first.ID == second.ID {
		t.Error("resubmission did not create a new event")
	}
	if second.Slug != "bonfire-2" {
		t.Errorf("second Slug = %q, want bonfire-2", second.Slug)
	}
	if n := countEvents(t, db); n != 2 {
		t.Errorf("events = %d, want 2", n)
	}
}

func TestSubmitInvalidStartTimeIsValidationError(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewSubmissionService(db, &fakeResolver{}, &fakeGate{userID: 1})

	in := validInput()
	in.StartTime = "25:99"

	_, err := svc.Submit(context.Background(), in)

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if _, ok := valErr.Fields["startTime"]; !ok {
		t.Error("startTime problem not reported")
	}
}
