// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"time"
)

// New creates the feed cache. When redisURL is set it attempts a Redis
// backend and falls back to the in-memory cache if the connection fails,
// so a Redis outage never takes down the board.
func New(redisURL, prefix string, defaultTTL time.Duration) Cache {
	if redisURL != "" {
		c, err := NewRedisCache(RedisCacheOptions{
			URL:        redisURL,
			Prefix:     prefix,
			DefaultTTL: defaultTTL,
		})
		if err == nil {
			slog.Info("using Redis feed cache", "prefix", prefix)
			return c
		}
		slog.Warn("Redis unavailable, falling back to in-memory cache", "error", err)
	}
	return NewMemoryCache(defaultTTL)
}
