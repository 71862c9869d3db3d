// Package rating maps ratios and severities to the five ordered grades A to E.
package rating

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/huangsam/livemeasure/schema"
)

// Rating is a grade from A (best) to E (worst). The numeric value is what
// gets stored in a measure.
type Rating int

// Grades in ascending order of badness.
const (
	A Rating = iota + 1
	B
	C
	D
	E
)

// ErrNegativeDensity is returned when a density below zero is rated.
var ErrNegativeDensity = errors.New("density must be non-negative")

// String returns the letter of the rating.
func (r Rating) String() string {
	if r < A || r > E {
		return "?"
	}
	return string(rune('A' + int(r) - 1))
}

// Valid reports whether r is one of A to E.
func (r Rating) Valid() bool {
	return r >= A && r <= E
}

// Parse accepts a letter (A..E, any case) or a numeric index (1..5).
func Parse(s string) (Rating, error) {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		c := strings.ToUpper(s)[0]
		if c >= 'A' && c <= 'E' {
			return Rating(c-'A') + A, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q", s)
	}
	r := Rating(int(f))
	if !r.Valid() {
		return 0, fmt.Errorf("rating %q out of range", s)
	}
	return r, nil
}

// FromSeverity returns the rating implied by the worst severity present.
func FromSeverity(sev schema.Severity) Rating {
	switch sev {
	case schema.Blocker:
		return E
	case schema.Critical:
		return D
	case schema.Major:
		return C
	case schema.Minor:
		return B
	default:
		return A
	}
}

// ForHotspotReview rates the share of reviewed security hotspots.
// A nil percentage means there is nothing to review.
func ForHotspotReview(percent *float64) Rating {
	if percent == nil {
		return A
	}
	switch p := *percent; {
	case p >= 80:
		return A
	case p >= 70:
		return B
	case p >= 50:
		return C
	case p >= 30:
		return D
	default:
		return E
	}
}
