// Package normalize converts raw external-API fields into validated domain
// values. Every function is total: invalid input yields nil (unset), never an
// error.
package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/text/unicode/norm"

	"github.com/lepinkainen/bookworm/internal/googlebooks"
)

const (
	minRating = 0.0
	maxRating = 5.0
)

// now is swapped in tests to pin "today".
var now = time.Now

// strictLayouts are tried in order before falling back to the fuzzy parser.
var strictLayouts = []string{
	"2006-01-02",
	"2006-01",
	"2006",
	"January 2006",
	"Jan 2006",
	"2006 January",
	"2006 Jan",
}

// ParseDate parses a free-form publication or birth date into a calendar
// date at UTC midnight. Unparsable and future dates yield nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	t, ok := parseStrict(s)
	if !ok {
		t, ok = parseFuzzy(s)
	}
	if !ok {
		return nil
	}

	// Year 0 is not a valid DATE in PostgreSQL
	if t.Year() < 1 {
		return nil
	}

	date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if date.After(today()) {
		return nil
	}
	return &date
}

func parseStrict(s string) (time.Time, bool) {
	for _, layout := range strictLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFuzzy(s string) (t time.Time, ok bool) {
	// dateparse has panicked on odd inputs in the past
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseAny(s)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}

func today() time.Time {
	y, m, d := now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Rating coerces an average rating to a float within [0, 5].
// Non-numeric and out-of-range values yield nil; values are never clamped.
func Rating(v any) *float64 {
	var f float64

	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || f < minRating || f > maxRating {
		return nil
	}
	return &f
}

// Language keeps a language code only when it is exactly two letters,
// returning it lowercased.
func Language(s string) *string {
	lang := strings.ToLower(s)
	if len(lang) != 2 {
		return nil
	}
	for i := 0; i < len(lang); i++ {
		if lang[i] < 'a' || lang[i] > 'z' {
			return nil
		}
	}
	return &lang
}

// ISBN13 returns the first identifier tagged ISBN_13.
func ISBN13(ids []googlebooks.IndustryIdentifier) *string {
	for _, id := range ids {
		if id.Type == googlebooks.ISBN13Type && id.Identifier != "" {
			isbn := id.Identifier
			return &isbn
		}
	}
	return nil
}

// Name trims and collapses whitespace and applies Unicode NFC so that names
// used as dedup keys compare equal when they render the same.
func Name(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Names normalizes a list of names, dropping blanks and repeats while
// keeping the original order.
func Names(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, raw := range names {
		name := Name(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		result = append(result, name)
	}
	return result
}

// Text returns nil for blank strings.
func Text(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
