// Package validate evaluates license currency from the normalized
// valid_till field.
package validate

import "time"

const dateLayout = "2006-01-02"

// ParseExpiry parses a canonical YYYY-MM-DD expiry string.
func ParseExpiry(validTill string) (time.Time, error) {
	return time.Parse(dateLayout, validTill)
}

// IsCurrentlyValid reports whether the license is valid as of now.
// Any parse failure (empty, malformed, non-canonical format) is treated as
// not valid: expiry evaluation fails closed, never open.
func IsCurrentlyValid(validTill string) bool {
	return IsValidAt(validTill, time.Now())
}

// IsValidAt reports whether the license is valid on the given day.
// Same-day expiry still counts as valid.
func IsValidAt(validTill string, now time.Time) bool {
	expiry, err := ParseExpiry(validTill)
	if err != nil {
		return false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return !expiry.Before(today)
}
