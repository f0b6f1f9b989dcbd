// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/compa-hq/compa-go/internal/model"
	"github.com/compa-hq/compa-go/internal/store"
	"github.com/compa-hq/compa-go/internal/testutil"
)

func TestActivityLogParsesUserAgent(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewActivityService(db, 90)

	req := httptest.NewRequest("POST", "/api/v1/auth/login", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.RemoteAddr = "203.0.113.9:4242"

	userID := int64(5)
	svc.LogAuth(context.Background(), model.ActivityLevelInfo, "user logged in", &userID, req)

	var category, metadata, ip string
	err := db.QueryRow(`SELECT category, metadata, ip_address FROM activity_log`).Scan(&category, &metadata, &ip)
	if err != nil {
		t.Fatalf("reading activity: %v", err)
	}
	if category != model.ActivityCategoryAuth {
		t.Errorf("category = %q", category)
	}
	if ip != "203.0.113.9:4242" {
		t.Errorf("ip = %q", ip)
	}
	if want := `"browser":"Chrome`; !strings.Contains(metadata, want) {
		t.Errorf("metadata %q lacks %q", metadata, want)
	}
}

func TestActivityPrune(t *testing.T) {
	db := testutil.TestDB(t)
	svc := NewActivityService(db, 30)
	q := store.New(db)
	ctx := context.Background()

	for _, age := range []time.Duration{0, 40 * 24 * time.Hour} {
		_, err := q.CreateActivity(ctx, store.CreateActivityParams{
			Level:     model.ActivityLevelInfo,
			Category:  model.ActivityCategorySystem,
			Message:   "entry",
			Metadata:  "{}",
			CreatedAt: time.Now().Add(-age),
		})
		if err != nil {
			t.Fatalf("CreateActivity: %v", err)
		}
	}

	deleted, err := svc.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
