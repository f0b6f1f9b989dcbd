// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic behind the event board.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the submission pipeline.
var (
	// ErrUnauthenticated signals that no valid session exists.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrUploadTooLarge signals that an uploaded file exceeds the size limit.
	ErrUploadTooLarge = errors.New("upload too large")

	// ErrUnsupportedMediaType signals an upload with a non-image content type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)

// ValidationError reports missing or malformed fields in a submission.
// It is produced at the boundary, before any upload or persistence work.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "invalid submission: " + strings.Join(names, ", ")
}

// UploadError reports a failed poster upload or an unresolvable poster
// reference. No persistence is attempted after it.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("poster upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a storage failure after validation and
// authorization succeeded. The caller may resubmit; resubmission is not
// deduplicated.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("event persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
