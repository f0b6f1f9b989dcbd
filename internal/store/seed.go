// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/compa-hq/compa-go/internal/auth"
)

// Default seeded account credentials, for local development only.
const (
	DefaultUserEmail    = "student@example.edu"
	DefaultUserPassword = "changeme"
	DefaultUserName     = "Demo Student"
)

// Seed creates initial data in the database when enabled.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	// Check if the seed user already exists
	_, err := queries.GetUserByEmail(ctx, DefaultUserEmail)
	if err == nil {
		slog.Info("seed user already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for seed user: %w", err)
	}

	passwordHash, err := auth.HashPassword(DefaultUserPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        DefaultUserEmail,
		PasswordHash: passwordHash,
		Name:         DefaultUserName,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating seed user: %w", err)
	}

	slog.Info("seed user created", "email", user.Email, "id", user.ID)
	return nil
}
