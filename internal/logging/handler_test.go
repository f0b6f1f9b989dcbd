// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	_ "modernc.org/sqlite"
)

func setupLogTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
		CREATE TABLE activity_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			level TEXT NOT NULL DEFAULT 'info',
			category TEXT NOT NULL DEFAULT 'system',
			message TEXT NOT NULL,
			user_id INTEGER,
			metadata TEXT NOT NULL DEFAULT '{}',
			ip_address TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		t.Fatalf("failed to create activity_log table: %v", err)
	}
	return db
}

func newTestLogger(db *sql.DB) *slog.Logger {
	inner := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})
	return slog.New(NewActivityLogHandler(inner, db))
}

func countActivities(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM activity_log`).Scan(&n); err != nil {
		t.Fatalf("counting: %v", err)
	}
	return n
}

func TestWarnAndErrorAreMirrored(t *testing.T) {
	db := setupLogTestDB(t)
	logger := newTestLogger(db)

	logger.Warn("upload rejected", "reason", "too large")
	logger.Error("database write failed")

	if n := countActivities(t, db); n != 2 {
		t.Errorf("activity rows = %d, want 2", n)
	}

	var level, category, metadata string
	err := db.QueryRow(`SELECT level, category, metadata FROM activity_log WHERE message = 'upload rejected'`).
		Scan(&level, &category, &metadata)
	if err != nil {
		t.Fatalf("reading row: %v", err)
	}
	if level != "warning" {
		t.Errorf("level = %q, want warning", level)
	}
	if category != "media" {
		t.Errorf("category = %q, want media (inferred from message)", category)
	}
	if metadata != `{"reason":"too large"}` {
		t.Errorf("metadata = %q", metadata)
	}
}

func TestInfoIsNotMirrored(t *testing.T) {
	db := setupLogTestDB(t)
	logger := newTestLogger(db)

	logger.Info("server started")

	if n := countActivities(t, db); n != 0 {
		t.Errorf("activity rows = %d, want 0", n)
	}
}

func TestExplicitCategoryAttr(t *testing.T) {
	db := setupLogTestDB(t)
	logger := newTestLogger(db)

	logger.Warn("something odd", "category", "auth")

	var category string
	if err := db.QueryRow(`SELECT category FROM activity_log`).Scan(&category); err != nil {
		t.Fatalf("reading row: %v", err)
	}
	if category != "auth" {
		t.Errorf("category = %q, want auth", category)
	}
}
