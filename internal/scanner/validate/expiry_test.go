package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsCurrentlyValid(t *testing.T) {
	tests := []struct {
		name      string
		validTill string
		want      bool
	}{
		{"far future date", "2999-01-01", true},
		{"past date", "2000-01-01", false},
		{"empty string", "", false},
		{"not a date", "not-a-date", false},
		{"wrong format", "15/03/2999", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCurrentlyValid(tt.validTill))
		})
	}
}

func TestIsValidAt_SameDayCountsValid(t *testing.T) {
	now := time.Date(2025, time.March, 15, 14, 30, 0, 0, time.UTC)

	assert.True(t, IsValidAt("2025-03-15", now), "same-day expiry should be valid")
	assert.False(t, IsValidAt("2025-03-14", now), "one day past should be invalid")
	assert.True(t, IsValidAt("2025-03-16", now))
}

func TestParseExpiry(t *testing.T) {
	got, err := ParseExpiry("2030-06-01")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2030, time.June, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseExpiry("06/01/2030")
	assert.Error(t, err)
}
