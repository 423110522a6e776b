package core

import (
	"strings"
	"time"
	"unicode/utf8"
)

var (
	// NowFunc is the clock used for date defaults and ages.
	NowFunc = time.Now // mockable

	dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z", ISODate}
)

// ParseDate parses the date formats the backend sends (ISO-8601 timestamps or calendar dates).
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a backend date as "Jan 02, 2006"; unparsable values are returned unchanged.
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 02, 2006")
}

// FormatDateTime renders a backend timestamp as "Jan 02, 2006 15:04".
func FormatDateTime(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("Jan 02, 2006 15:04")
}

// ISODay returns t as a calendar date.
func ISODay(t time.Time) string {
	return t.Format(ISODate)
}

// Today returns the current calendar date.
func Today() string {
	return ISODay(NowFunc())
}

// Age returns the age in whole years on `on` of someone born on dob, -1 when dob is unknown.
func Age(dob string, on time.Time) int {
	born, ok := ParseDate(dob)
	if !ok {
		return -1
	}
	age := on.Year() - born.Year()
	if on.Month() < born.Month() || (on.Month() == born.Month() && on.Day() < born.Day()) {
		age--
	}
	return age
}

// Initials returns the upper-cased first letters of both names.
func Initials(first, last string) string {
	var b strings.Builder
	for _, s := range []string{first, last} {
		if r, _ := utf8.DecodeRuneInString(strings.TrimSpace(s)); r != utf8.RuneError {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// Truncate shortens s to max runes, appending "...".
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
