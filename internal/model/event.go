// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"database/sql"
	"time"
)

// EventItem represents a community event posted to the board.
// Items are created once by the submission pipeline and never edited or
// deleted through this application.
type EventItem struct {
	ID               int64
	Slug             string
	Title            string
	Date             time.Time // calendar date, wall clock, no zone semantics
	StartTime        int64     // minute of day, 0-1439
	EndTime          sql.NullInt64
	ShortDescription sql.NullString
	Description      string
	Venue            string
	MapsLink         sql.NullString
	EventLink        sql.NullString
	PosterID         sql.NullInt64
	UserID           int64
	CreatedAt        time.Time
}

// Activity log levels
const (
	ActivityLevelInfo    = "info"
	ActivityLevelWarning = "warning"
	ActivityLevelError   = "error"
)

// Activity log categories
const (
	ActivityCategoryAuth   = "auth"
	ActivityCategoryEvent  = "event"
	ActivityCategoryMedia  = "media"
	ActivityCategorySystem = "system"
)

// Activity represents an audit log entry.
type Activity struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string // JSON string
	IPAddress string
	CreatedAt time.Time
}
