package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_StripsNoiseAndCollapsesWhitespace(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "JANE DOE", "JANE DOE"},
		{"leading and trailing space", "  JANE DOE  ", "JANE DOE"},
		{"noise characters removed", "JANE* DOE!@#", "JANE DOE"},
		{"edge noise leaves no boundary space", "  JANE*  DOE  !!", "JANE DOE"},
		{"whitespace runs collapsed", "JANE \t\n DOE", "JANE DOE"},
		{"hyphen and slash kept", "DL-0420/2019", "DL-0420/2019"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in).Text)
		})
	}
}

func TestClean_CanonicalizesDates(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"slash day-month-year", "15/03/2025", "2025-03-15"},
		{"hyphen day-month-year", "15-03-2025", "2025-03-15"},
		{"already canonical unchanged", "2025-03-15", "2025-03-15"},
		{"date embedded in text", "VALID TILL 15/03/2025 ONLY", "VALID TILL 2025-03-15 ONLY"},
		{"multiple dates", "01/02/2020 and 03/04/2021", "2020-02-01 and 2021-04-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in).Text)
		})
	}
}

func TestClean_ReportsUnparsableDateShapes(t *testing.T) {
	// Matches the DD/MM/YYYY shape but is not a real calendar date. The
	// substring stays as-is so expiry validation fails closed, and the
	// result reports it explicitly.
	res := Clean("VALID TILL 99/99/2025")

	assert.Equal(t, "VALID TILL 99/99/2025", res.Text)
	assert.Equal(t, []string{"99/99/2025"}, res.UnparsableDates)
	assert.Empty(t, res.RewrittenDates)
}

func TestClean_RewriteReport(t *testing.T) {
	res := Clean("15/03/2025")

	assert.Equal(t, map[string]string{"15/03/2025": "2025-03-15"}, res.RewrittenDates)
	assert.Empty(t, res.UnparsableDates)
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"JANE DOE",
		"  JANE*  DOE  15/03/2025 !!",
		"2025-03-15",
		"99/99/2025",
		"DL-0420/2019 VALID 01-01-2030",
		"",
	}

	for _, in := range inputs {
		once := Clean(in).Text
		twice := Clean(once).Text
		assert.Equal(t, once, twice, "Clean not idempotent for %q", in)
	}
}

func TestClean_InvalidCalendarDateNotRewritten(t *testing.T) {
	// 31 February matches the shape but fails the calendar parse for both
	// separators.
	res := Clean("31/02/2025")

	assert.Equal(t, "31/02/2025", res.Text)
	assert.Contains(t, res.UnparsableDates, "31/02/2025")
}
