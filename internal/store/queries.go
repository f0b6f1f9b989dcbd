// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/compa-hq/compa-go/internal/model"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps a database handle and exposes typed query methods.
type Queries struct {
	db DBTX
}

// New creates a Queries instance for the given database handle.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries instance bound to the given transaction.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// --- Users ---

// CreateUserParams holds the fields for creating a user.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser inserts a new user and returns it with its assigned ID.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		arg.Email, arg.PasswordHash, arg.Name, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return model.User{
		ID:           id,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		Name:         arg.Name,
		CreatedAt:    arg.CreatedAt,
		UpdatedAt:    arg.UpdatedAt,
	}, nil
}

const userColumns = `id, email, password_hash, name, created_at, updated_at, last_login_at`

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt)
	return u, err
}

// GetUserByID returns the user with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// GetUserByEmail returns the user with the given email.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// UpdateUserLastLogin records a successful login time.
func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ?, updated_at = ? WHERE id = ?`, at, at, id)
	return err
}

// --- Media ---

// CreateMediaParams holds the fields for creating a media record.
type CreateMediaParams struct {
	UUID       string
	Filename   string
	MimeType   string
	Size       int64
	Width      sql.NullInt64
	Height     sql.NullInt64
	UploadedBy int64
	CreatedAt  time.Time
}

// CreateMedia inserts a new media record and returns it with its assigned ID.
func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) (model.Media, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO media (uuid, filename, mime_type, size, width, height, uploaded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.UUID, arg.Filename, arg.MimeType, arg.Size, arg.Width, arg.Height, arg.UploadedBy, arg.CreatedAt)
	if err != nil {
		return model.Media{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Media{}, err
	}
	return model.Media{
		ID:         id,
		UUID:       arg.UUID,
		Filename:   arg.Filename,
		MimeType:   arg.MimeType,
		Size:       arg.Size,
		Width:      arg.Width,
		Height:     arg.Height,
		UploadedBy: arg.UploadedBy,
		CreatedAt:  arg.CreatedAt,
	}, nil
}

const mediaColumns = `id, uuid, filename, mime_type, size, width, height, uploaded_by, created_at`

func scanMedia(row *sql.Row) (model.Media, error) {
	var m model.Media
	err := row.Scan(&m.ID, &m.UUID, &m.Filename, &m.MimeType, &m.Size, &m.Width, &m.Height, &m.UploadedBy, &m.CreatedAt)
	return m, err
}

// GetMediaByID returns the media record with the given ID.
func (q *Queries) GetMediaByID(ctx context.Context, id int64) (model.Media, error) {
	return scanMedia(q.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = ?`, id))
}

// GetMediaByUUID returns the media record with the given UUID reference.
func (q *Queries) GetMediaByUUID(ctx context.Context, uuid string) (model.Media, error) {
	return scanMedia(q.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE uuid = ?`, uuid))
}

// --- Events ---

// CreateEventItemParams holds the fields for creating an event.
// ID and CreatedAt are assigned by CreateEventItem.
type CreateEventItemParams struct {
	Slug             string
	Title            string
	Date             time.Time
	StartTime        int64
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

// CreateEventItem inserts a new event atomically and returns it with its
// assigned ID.
func (q *Queries) CreateEventItem(ctx context.Context, arg CreateEventItemParams) (model.EventItem, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO events (slug, title, date, start_time, end_time, short_description,
		                     description, venue, maps_link, event_link, poster_id, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Slug, arg.Title, arg.Date, arg.StartTime, arg.EndTime, arg.ShortDescription,
		arg.Description, arg.Venue, arg.MapsLink, arg.EventLink, arg.PosterID, arg.UserID, arg.CreatedAt)
	if err != nil {
		return model.EventItem{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.EventItem{}, err
	}
	return model.EventItem{
		ID:               id,
		Slug:             arg.Slug,
		Title:            arg.Title,
		Date:             arg.Date,
		StartTime:        arg.StartTime,
		EndTime:          arg.EndTime,
		ShortDescription: arg.ShortDescription,
		Description:      arg.Description,
		Venue:            arg.Venue,
		MapsLink:         arg.MapsLink,
		EventLink:        arg.EventLink,
		PosterID:         arg.PosterID,
		UserID:           arg.UserID,
		CreatedAt:        arg.CreatedAt,
	}, nil
}

const eventColumns = `e.id, e.slug, e.title, e.date, e.start_time, e.end_time, e.short_description,
	e.description, e.venue, e.maps_link, e.event_link, e.poster_id, e.user_id, e.created_at`

func scanEventItem(dest *model.EventItem, scan func(...any) error, extra ...any) error {
	fields := []any{
		&dest.ID, &dest.Slug, &dest.Title, &dest.Date, &dest.StartTime, &dest.EndTime,
		&dest.ShortDescription, &dest.Description, &dest.Venue, &dest.MapsLink,
		&dest.EventLink, &dest.PosterID, &dest.UserID, &dest.CreatedAt,
	}
	return scan(append(fields, extra...)...)
}

// GetEventItemByID returns the event with the given ID.
func (q *Queries) GetEventItemByID(ctx context.Context, id int64) (model.EventItem, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	var e model.EventItem
	err := scanEventItem(&e, row.Scan)
	return e, err
}

// EventItemRow is an event joined with its author and poster details.
// Author and poster-uploader identities are resolved eagerly so the
// presentation layer never goes back to the database.
type EventItemRow struct {
	Event              model.EventItem
	AuthorName         string
	AuthorEmail        string
	PosterUUID         sql.NullString
	PosterFilename     sql.NullString
	PosterMimeType     sql.NullString
	PosterUploaderName sql.NullString
}

// ListEventItems returns all events joined with author and poster uploader,
// newest first.
func (q *Queries) ListEventItems(ctx context.Context) ([]EventItemRow, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+eventColumns+`,
		        u.name, u.email,
		        m.uuid, m.filename, m.mime_type,
		        pu.name
		 FROM events e
		 JOIN users u ON u.id = e.user_id
		 LEFT JOIN media m ON m.id = e.poster_id
		 LEFT JOIN users pu ON pu.id = m.uploaded_by
		 ORDER BY e.created_at DESC, e.id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []EventItemRow
	for rows.Next() {
		var r EventItemRow
		if err := scanEventItem(&r.Event, rows.Scan,
			&r.AuthorName, &r.AuthorEmail,
			&r.PosterUUID, &r.PosterFilename, &r.PosterMimeType,
			&r.PosterUploaderName,
		); err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

// GetEventItemRowByID returns one event joined with its author and poster
// details, for the detail view.
func (q *Queries) GetEventItemRowByID(ctx context.Context, id int64) (EventItemRow, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+`,
		        u.name, u.email,
		        m.uuid, m.filename, m.mime_type,
		        pu.name
		 FROM events e
		 JOIN users u ON u.id = e.user_id
		 LEFT JOIN media m ON m.id = e.poster_id
		 LEFT JOIN users pu ON pu.id = m.uploaded_by
		 WHERE e.id = ?`, id)
	var r EventItemRow
	err := scanEventItem(&r.Event, row.Scan,
		&r.AuthorName, &r.AuthorEmail,
		&r.PosterUUID, &r.PosterFilename, &r.PosterMimeType,
		&r.PosterUploaderName,
	)
	return r, err
}

// CountEventItems returns the total number of events.
func (q *Queries) CountEventItems(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	return n, err
}

// CountEventSlugs returns how many events already use the given slug.
func (q *Queries) CountEventSlugs(ctx context.Context, slug string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE slug = ?`, slug).Scan(&n)
	return n, err
}

// --- Activity log ---

// CreateActivityParams holds the fields for creating an activity log entry.
type CreateActivityParams struct {
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	IPAddress string
	CreatedAt time.Time
}

// CreateActivity inserts a new activity log entry.
func (q *Queries) CreateActivity(ctx context.Context, arg CreateActivityParams) (model.Activity, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO activity_log (level, category, message, user_id, metadata, ip_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserID, arg.Metadata, arg.IPAddress, arg.CreatedAt)
	if err != nil {
		return model.Activity{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Activity{}, err
	}
	return model.Activity{
		ID:        id,
		Level:     arg.Level,
		Category:  arg.Category,
		Message:   arg.Message,
		UserID:    arg.UserID,
		Metadata:  arg.Metadata,
		IPAddress: arg.IPAddress,
		CreatedAt: arg.CreatedAt,
	}, nil
}

// DeleteOldActivities removes activity log entries created before cutoff.
func (q *Queries) DeleteOldActivities(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM activity_log WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
