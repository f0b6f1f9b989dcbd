// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/compa-hq/compa-go/internal/auth"
	"github.com/compa-hq/compa-go/internal/middleware"
	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/service"
	"github.com/compa-hq/compa-go/internal/store"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	queries  *store.Queries
	sm       *scs.SessionManager
	activity *service.ActivityService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *sql.DB, sm *scs.SessionManager, activity *service.ActivityService) *AuthHandler {
	return &AuthHandler{
		queries:  store.New(db),
		sm:       sm,
		activity: activity,
	}
}

// loginRequest is the login payload.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse is the public shape of an authenticated user.
type userResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Login authenticates a user and establishes a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_request", "Invalid JSON body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "bad_request", "Email and password are required", nil)
		return
	}

	user, err := h.queries.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Error("login lookup failed", "error", err)
		}
		h.activity.LogAuth(r.Context(), model.ActivityLevelWarning, "failed login attempt", nil, r)
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password", nil)
		return
	}

	ok, err := auth.CheckPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		h.activity.LogAuth(r.Context(), model.ActivityLevelWarning, "failed login attempt", &user.ID, r)
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Invalid email or password", nil)
		return
	}

	// Renew the token on privilege change to prevent session fixation
	if err := h.sm.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Could not establish session", nil)
		return
	}
	h.sm.Put(r.Context(), middleware.SessionKeyUserID, user.ID)

	if err := h.queries.UpdateUserLastLogin(r.Context(), user.ID, time.Now()); err != nil {
		slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}

	h.activity.LogAuth(r.Context(), model.ActivityLevelInfo, "user logged in", &user.ID, r)

	WriteSuccess(w, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName(),
	})
}

// Logout destroys the current session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := h.sm.GetInt64(r.Context(), middleware.SessionKeyUserID)

	if err := h.sm.Destroy(r.Context()); err != nil {
		slog.Error("session destroy failed", "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Could not end session", nil)
		return
	}

	if userID != 0 {
		h.activity.LogAuth(r.Context(), model.ActivityLevelInfo, "user logged out", &userID, r)
	}

	WriteSuccess(w, map[string]string{"status": "logged out"})
}

// Me returns the currently authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
		return
	}
	WriteSuccess(w, userResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName(),
	})
}
