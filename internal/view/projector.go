// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package view derives display-ready feed items from stored event records.
package view

import (
	"fmt"
	"time"

	"github.com/compa-hq/compa-go/internal/store"
	"github.com/compa-hq/compa-go/internal/timeparse"
)

// SummaryLimit is the display length for truncated event descriptions.
const SummaryLimit = 80

// FeedItem is a single rendered entry in the event feed.
type FeedItem struct {
	ID               int64  `json:"id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	Venue            string `json:"venue"`
	Date             string `json:"date"`
	StartTime        int64  `json:"startTime"`
	EndTime          *int64 `json:"endTime,omitempty"`
	Schedule         string `json:"schedule"`
	ShortDescription string `json:"shortDescription,omitempty"`
	Summary          string `json:"summary"`
	MapsLink         string `json:"mapsLink,omitempty"`
	EventLink        string `json:"eventLink,omitempty"`
	Posted           string `json:"posted"`
	AuthorName       string `json:"authorName"`
	PosterURL        string `json:"posterUrl,omitempty"`
	PosterThumbURL   string `json:"posterThumbUrl,omitempty"`

	// Timeline connector hints for the feed rail
	TimelineFirst bool `json:"timelineFirst"`
	TimelineLast  bool `json:"timelineLast"`
}

// Project transforms stored event rows into feed items. It never mutates the
// rows. The caller supplies now so the relative labels are recomputed on each
// render rather than stored.
func Project(rows []store.EventItemRow, now time.Time) []FeedItem {
	items := make([]FeedItem, 0, len(rows))
	for i, row := range rows {
		item := ProjectOne(row, now)
		item.TimelineFirst = i == 0
		item.TimelineLast = i == len(rows)-1
		items = append(items, item)
	}
	return items
}

// ProjectOne transforms a single stored event row into a feed item.
func ProjectOne(row store.EventItemRow, now time.Time) FeedItem {
	e := row.Event

	item := FeedItem{
		ID:         e.ID,
		Slug:       e.Slug,
		Title:      e.Title,
		Venue:      e.Venue,
		Date:       e.Date.Format("2006-01-02"),
		StartTime:  e.StartTime,
		Schedule:   Schedule(e.Date, e.StartTime, e.EndTime.Int64, e.EndTime.Valid),
		Summary:    Ellipsize(e.Description, SummaryLimit),
		Posted:     RelativeTime(e.CreatedAt, now),
		AuthorName: row.AuthorName,
	}

	if e.EndTime.Valid {
		end := e.EndTime.Int64
		item.EndTime = &end
	}
	if e.ShortDescription.Valid {
		item.ShortDescription = e.ShortDescription.String
	}
	if e.MapsLink.Valid {
		item.MapsLink = e.MapsLink.String
	}
	if e.EventLink.Valid {
		item.EventLink = e.EventLink.String
	}
	if row.PosterUUID.Valid && row.PosterFilename.Valid {
		item.PosterURL = fmt.Sprintf("/uploads/originals/%s/%s", row.PosterUUID.String, row.PosterFilename.String)
		item.PosterThumbURL = fmt.Sprintf("/uploads/thumbnail/%s/%s", row.PosterUUID.String, row.PosterFilename.String)
	}

	return item
}

// Ellipsize truncates s to limit runes and appends a single ellipsis
// character. A string exactly at the limit is returned unchanged.
func Ellipsize(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

// Schedule renders the event timing line, e.g. "Fri, 3 Mar. 9.00pm till you
// drop" or "Fri, 3 Mar. 9.00pm – 11.00pm".
func Schedule(date time.Time, startTime int64, endTime int64, hasEnd bool) string {
	line := date.Format("Mon, 2 Jan") + ". " + timeparse.Minutes(startTime).Format()
	if hasEnd {
		return line + " – " + timeparse.Minutes(endTime).Format()
	}
	return line + " till you drop"
}

// RelativeTime renders how long ago t was relative to now. Old posts fall
// back to an absolute date.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2 Jan 2006")
	}
}
