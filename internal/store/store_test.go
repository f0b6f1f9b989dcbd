// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "compa-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	_ = f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createTestUser(t *testing.T, q *Queries, email string) int64 {
	t.Helper()
	now := time.Now()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		Email:        email,
		PasswordHash: "$argon2id$fake",
		Name:         "Test User",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func TestCreateAndGetUser(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	id := createTestUser(t, q, "ama@example.edu")

	byID, err := q.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if byID.Email != "ama@example.edu" {
		t.Errorf("email = %q, want %q", byID.Email, "ama@example.edu")
	}

	byEmail, err := q.GetUserByEmail(ctx, "ama@example.edu")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if byEmail.ID != id {
		t.Errorf("id = %d, want %d", byEmail.ID, id)
	}

	if _, err := q.GetUserByEmail(ctx, "nobody@example.edu"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing user error = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateUserLastLogin(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	id := createTestUser(t, q, "kofi@example.edu")
	if err := q.UpdateUserLastLogin(ctx, id, time.Now()); err != nil {
		t.Fatalf("UpdateUserLastLogin: %v", err)
	}

	u, err := q.GetUserByID(ctx, id)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !u.LastLoginAt.Valid {
		t.Error("last_login_at should be set")
	}
}

func TestCreateAndGetMedia(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	userID := createTestUser(t, q, "uploader@example.edu")

	m, err := q.CreateMedia(ctx, CreateMediaParams{
		UUID:       "11111111-2222-3333-4444-555555555555",
		Filename:   "poster.jpg",
		MimeType:   "image/jpeg",
		Size:       1234,
		Width:      sql.NullInt64{Int64: 640, Valid: true},
		Height:     sql.NullInt64{Int64: 480, Valid: true},
		UploadedBy: userID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}
	if m.ID == 0 {
		t.Error("media ID should be assigned")
	}

	got, err := q.GetMediaByUUID(ctx, m.UUID)
	if err != nil {
		t.Fatalf("GetMediaByUUID: %v", err)
	}
	if got.Filename != "poster.jpg" || got.UploadedBy != userID {
		t.Errorf("unexpected media row: %+v", got)
	}
}

func TestCreateAndListEventItems(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	authorID := createTestUser(t, q, "author@example.edu")

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, title := range []string{"Bonfire", "Movie Night"} {
		_, err := q.CreateEventItem(ctx, CreateEventItemParams{
			Slug:        "event-" + title,
			Title:       title,
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			StartTime:   1260,
			Description: "A campus event",
			Venue:       "Quad",
			UserID:      authorID,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateEventItem(%s): %v", title, err)
		}
	}

	items, err := q.ListEventItems(ctx)
	if err != nil {
		t.Fatalf("ListEventItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	// Newest first
	if items[0].Event.Title != "Movie Night" {
		t.Errorf("first item = %q, want %q", items[0].Event.Title, "Movie Night")
	}
	if items[0].AuthorEmail != "author@example.edu" {
		t.Errorf("author email = %q", items[0].AuthorEmail)
	}
	if items[0].PosterUUID.Valid {
		t.Error("poster should be absent")
	}

	n, err := q.CountEventItems(ctx)
	if err != nil {
		t.Fatalf("CountEventItems: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestListEventItemsResolvesPosterJoin(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	authorID := createTestUser(t, q, "author@example.edu")
	uploaderID := createTestUser(t, q, "uploader@example.edu")

	m, err := q.CreateMedia(ctx, CreateMediaParams{
		UUID:       "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		Filename:   "bonfire.png",
		MimeType:   "image/png",
		Size:       99,
		UploadedBy: uploaderID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}

	_, err = q.CreateEventItem(ctx, CreateEventItemParams{
		Slug:        "bonfire",
		Title:       "Bonfire",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:   1260,
		Description: "Fire on the quad",
		Venue:       "Quad",
		PosterID:    sql.NullInt64{Int64: m.ID, Valid: true},
		UserID:      authorID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEventItem: %v", err)
	}

	items, err := q.ListEventItems(ctx)
	if err != nil {
		t.Fatalf("ListEventItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	r := items[0]
	if !r.PosterUUID.Valid || r.PosterUUID.String != m.UUID {
		t.Errorf("poster uuid = %+v, want %s", r.PosterUUID, m.UUID)
	}
	if !r.PosterUploaderName.Valid || r.PosterUploaderName.String != "Test User" {
		t.Errorf("poster uploader = %+v", r.PosterUploaderName)
	}
}

func TestGetEventItemByID(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	authorID := createTestUser(t, q, "author@example.edu")
	created, err := q.CreateEventItem(ctx, CreateEventItemParams{
		Slug:        "bonfire",
		Title:       "Bonfire",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:   1260,
		EndTime:     sql.NullInt64{Int64: 1380, Valid: true},
		Description: "Fire on the quad",
		Venue:       "Quad",
		UserID:      authorID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEventItem: %v", err)
	}

	got, err := q.GetEventItemByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEventItemByID: %v", err)
	}
	if got.Title != "Bonfire" || got.StartTime != 1260 {
		t.Errorf("unexpected event: %+v", got)
	}
	if !got.EndTime.Valid || got.EndTime.Int64 != 1380 {
		t.Errorf("end_time = %+v, want 1380", got.EndTime)
	}

	if _, err := q.GetEventItemByID(ctx, 999999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing event error = %v, want sql.ErrNoRows", err)
	}
}

func TestGetEventItemRowByID(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	authorID := createTestUser(t, q, "author@example.edu")
	m, err := q.CreateMedia(ctx, CreateMediaParams{
		UUID:       "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		Filename:   "bonfire.png",
		MimeType:   "image/png",
		Size:       99,
		UploadedBy: authorID,
		CreatedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateMedia: %v", err)
	}

	created, err := q.CreateEventItem(ctx, CreateEventItemParams{
		Slug:        "bonfire",
		Title:       "Bonfire",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:   1260,
		Description: "Fire on the quad",
		Venue:       "Quad",
		PosterID:    sql.NullInt64{Int64: m.ID, Valid: true},
		UserID:      authorID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEventItem: %v", err)
	}

	row, err := q.GetEventItemRowByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetEventItemRowByID: %v", err)
	}
	if row.Event.Title != "Bonfire" {
		t.Errorf("title = %q", row.Event.Title)
	}
	if row.AuthorName != "Test User" {
		t.Errorf("author = %q", row.AuthorName)
	}
	if !row.PosterUUID.Valid || row.PosterUUID.String != m.UUID {
		t.Errorf("poster uuid = %+v, want %s", row.PosterUUID, m.UUID)
	}
	if !row.PosterFilename.Valid || row.PosterFilename.String != "bonfire.png" {
		t.Errorf("poster filename = %+v", row.PosterFilename)
	}

	if _, err := q.GetEventItemRowByID(ctx, 999999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing event error = %v, want sql.ErrNoRows", err)
	}
}

func TestCountEventSlugs(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	authorID := createTestUser(t, q, "author@example.edu")
	_, err := q.CreateEventItem(ctx, CreateEventItemParams{
		Slug:        "bonfire",
		Title:       "Bonfire",
		Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		StartTime:   600,
		Description: "d",
		Venue:       "v",
		UserID:      authorID,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEventItem: %v", err)
	}

	n, err := q.CountEventSlugs(ctx, "bonfire")
	if err != nil {
		t.Fatalf("CountEventSlugs: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	n, _ = q.CountEventSlugs(ctx, "unused")
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestActivityLogRetention(t *testing.T) {
	db := testDB(t)
	q := New(db)
	ctx := context.Background()

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now()

	for _, at := range []time.Time{old, recent} {
		_, err := q.CreateActivity(ctx, CreateActivityParams{
			Level:     "info",
			Category:  "system",
			Message:   "entry",
			Metadata:  "{}",
			CreatedAt: at,
		})
		if err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}

	deleted, err := q.DeleteOldActivities(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteOldActivities: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db, false); err != nil {
		t.Fatalf("Seed disabled: %v", err)
	}
	if _, err := New(db).GetUserByEmail(ctx, DefaultUserEmail); !errors.Is(err, sql.ErrNoRows) {
		t.Error("disabled seed should not create the user")
	}

	if err := Seed(ctx, db, true); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	u, err := New(db).GetUserByEmail(ctx, DefaultUserEmail)
	if err != nil {
		t.Fatalf("seed user missing: %v", err)
	}
	if u.Name != DefaultUserName {
		t.Errorf("name = %q", u.Name)
	}

	// Idempotent
	if err := Seed(ctx, db, true); err != nil {
		t.Fatalf("second Seed: %v", err)
	}
}
