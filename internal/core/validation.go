package core

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// MinimumAge is the youngest calendar age allowed to finish onboarding.
const MinimumAge = 18

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

// errInvalidDate is returned by ParseDateOfBirth for unparsable input.
var errInvalidDate = errors.New("not a valid calendar date")

// NormalizeString trims v if it is a string and returns "" for anything else.
func NormalizeString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// NormalizeUsername trims and lowercases a handle.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsValidUsername reports whether the lowercased handle is 3-20 chars of [a-z0-9_].
func IsValidUsername(s string) bool {
	return usernamePattern.MatchString(strings.ToLower(s))
}

// IsValidEmail only checks the shape the clients rely on.
func IsValidEmail(s string) bool {
	return s != "" && strings.Contains(s, "@")
}

// NormalizeGender lowercases g and reports whether it is an accepted value.
func NormalizeGender(g string) (string, bool) {
	g = strings.ToLower(strings.TrimSpace(g))
	switch g {
	case "male", "female":
		return g, true
	default:
		return "", false
	}
}

// ParseDateOfBirth accepts an ISO calendar date or an RFC 3339 timestamp
// and returns midnight UTC of that calendar day. Impossible dates such as
// 2001-02-30 are rejected.
func ParseDateOfBirth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339, time.RFC3339Nano} {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, errInvalidDate
}

// CalculateAge returns the calendar age in whole years at now.
// Both instants are compared in UTC.
func CalculateAge(dob, now time.Time) int {
	dob, now = dob.UTC(), now.UTC()
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}
