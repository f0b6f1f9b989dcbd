// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version holds build-time version information.
package version

// Version is the application version, overridable at build time with
// -ldflags "-X github.com/compa-hq/compa-go/internal/version.Version=...".
var Version = "dev"
