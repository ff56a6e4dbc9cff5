// Package normalize cleans raw OCR output and canonicalizes any date-shaped
// substrings to YYYY-MM-DD so downstream expiry parsing sees one format.
package normalize

import (
	"regexp"
	"strings"
	"time"
)

const canonicalLayout = "2006-01-02"

var (
	// Everything except letters, digits, underscore, whitespace, hyphen
	// and slash is OCR noise on a license card.
	noiseRe = regexp.MustCompile(`[^\w\s\-/]`)

	spaceRe = regexp.MustCompile(`\s+`)

	// Date shapes seen on license cards: DD/MM/YYYY, DD-MM-YYYY and the
	// already-canonical YYYY-MM-DD. The last shape matches 4-2-2 ordering
	// so canonical strings pass through the rewriter unchanged.
	dateShapeRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}|\d{4}-\d{2}-\d{2}|\d{2}-\d{2}-\d{4}`)
)

// dateLayouts are tried in order for each date-shaped match: day-month-year
// with slash separator first, then with hyphen, then canonical.
var dateLayouts = []string{"02/01/2006", "02-01-2006", canonicalLayout}

// Result carries the cleaned text plus the date rewriting report, so a
// shape that failed every parse is an observable condition rather than a
// silent pass-through.
type Result struct {
	Text string

	// RewrittenDates maps each original date-shaped substring to its
	// canonical form.
	RewrittenDates map[string]string

	// UnparsableDates lists substrings that matched a date shape but
	// failed every layout (e.g. "99/99/2025"). They are left unmodified
	// in Text and will fail closed at expiry validation.
	UnparsableDates []string
}

// Clean strips noise characters, collapses whitespace and canonicalizes
// date substrings. It is idempotent: Clean(Clean(x).Text).Text equals
// Clean(x).Text for any input.
func Clean(raw string) Result {
	// Trim last: stripping an edge noise character can expose boundary
	// whitespace, and a leftover edge space would make Clean non-idempotent.
	text := noiseRe.ReplaceAllString(raw, "")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	res := Result{RewrittenDates: map[string]string{}}

	for _, match := range dateShapeRe.FindAllString(text, -1) {
		canonical, ok := canonicalize(match)
		if !ok {
			res.UnparsableDates = append(res.UnparsableDates, match)
			continue
		}
		if canonical != match {
			text = strings.ReplaceAll(text, match, canonical)
			res.RewrittenDates[match] = canonical
		}
	}

	res.Text = text
	return res
}

// Text is a convenience wrapper returning only the cleaned string.
func Text(raw string) string {
	return Clean(raw).Text
}

func canonicalize(s string) (string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(canonicalLayout), true
		}
	}
	return "", false
}
