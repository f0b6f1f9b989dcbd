// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package timeparse converts free-form time-of-day input into a normalized
// minute-of-day value. It never fails a request: anything that cannot be
// salvaged reports "not specified" instead of an error.
package timeparse

import (
	"fmt"
	"strings"
)

// MinutesPerDay is the exclusive upper bound for a minute-of-day value.
const MinutesPerDay = 24 * 60

// Minutes is a wall-clock time of day expressed as minutes since midnight,
// in the range [0, 1439]. No time-zone semantics are attached.
type Minutes int

// Parse converts an "HH:MM" 24-hour string into a minute-of-day value.
// Empty input returns ok=false, meaning "not specified". Malformed but
// non-empty input is salvaged where possible: the first two digit groups are
// taken as hour and minute ("9.30", "09h30"), a single group as a bare hour.
// Out-of-range values return ok=false. Parse never panics.
func Parse(s string) (Minutes, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	groups := digitGroups(s, 2)
	if len(groups) == 0 {
		return 0, false
	}

	hour := groups[0]
	minute := 0
	if len(groups) > 1 {
		minute = groups[1]
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, false
	}
	return Minutes(hour*60 + minute), true
}

// digitGroups extracts up to max consecutive digit runs from s.
// Runs longer than two digits are rejected, they do not look like a
// time component ("2024" in a pasted date must not become an hour).
func digitGroups(s string, max int) []int {
	var groups []int
	i := 0
	for i < len(s) && len(groups) < max {
		if s[i] < '0' || s[i] > '9' {
			i++
			continue
		}
		j := i
		n := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			n = n*10 + int(s[j]-'0')
			j++
		}
		if j-i > 2 {
			return nil
		}
		groups = append(groups, n)
		i = j
	}
	return groups
}

// Hour returns the hour component, 0-23.
func (m Minutes) Hour() int { return int(m) / 60 }

// Minute returns the minute component, 0-59.
func (m Minutes) Minute() int { return int(m) % 60 }

// Valid reports whether m is inside the minute-of-day range.
func Valid(m int64) bool { return m >= 0 && m < MinutesPerDay }

// Format renders the time in the compact display form used by the event
// feed, e.g. "9.00pm" or "12.30am".
func (m Minutes) Format() string {
	hour := m.Hour()
	suffix := "am"
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		suffix = "pm"
	case hour > 12:
		hour -= 12
		suffix = "pm"
	}
	return fmt.Sprintf("%d.%02d%s", hour, m.Minute(), suffix)
}
