// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content renders user-submitted event descriptions to safe HTML.
package content

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// htmlSanitizer strips dangerous elements from rendered descriptions.
// UGCPolicy allows safe HTML tags for user-generated content while removing
// <script>, event handlers, etc.
var htmlSanitizer = bluemonday.UGCPolicy()

// markdown converts event descriptions written in Markdown.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Linkify),
)

// RenderDescription converts a Markdown event description to sanitized HTML.
// The output is safe to embed in a page without further escaping.
func RenderDescription(src string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("rendering description: %w", err)
	}
	return htmlSanitizer.Sanitize(buf.String()), nil
}

// SanitizeHTML strips unsafe markup from an HTML fragment.
func SanitizeHTML(src string) string {
	return htmlSanitizer.Sanitize(src)
}
