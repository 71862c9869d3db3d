package rating

import (
	"fmt"
	"strconv"
	"strings"
)

// Grid holds the four ascending upper bounds of grades A to D. Any density
// above the last bound is rated E. Bounds are inclusive.
type Grid [4]float64

// DefaultGrid is the grid used when none is configured.
var DefaultGrid = Grid{0.05, 0.1, 0.2, 0.5}

// NewGrid validates and builds a grid.
func NewGrid(a, b, c, d float64) (Grid, error) {
	g := Grid{a, b, c, d}
	for i, v := range g {
		if v < 0 {
			return Grid{}, fmt.Errorf("rating grid threshold %d is negative: %v", i+1, v)
		}
		if i > 0 && v <= g[i-1] {
			return Grid{}, fmt.Errorf("rating grid thresholds must be strictly ascending: %v", g)
		}
	}
	return g, nil
}

// ParseGrid parses a comma separated list of four thresholds, e.g. "0.05,0.1,0.2,0.5".
func ParseGrid(s string) (Grid, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Grid{}, fmt.Errorf("rating grid must have 4 thresholds, got %d in %q", len(parts), s)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Grid{}, fmt.Errorf("invalid rating grid threshold %q: %w", p, err)
		}
		vals[i] = v
	}
	return NewGrid(vals[0], vals[1], vals[2], vals[3])
}

// RatingForDensity returns the grade of a debt density (debt / development cost).
func (g Grid) RatingForDensity(density float64) (Rating, error) {
	if density < 0 {
		return 0, fmt.Errorf("%w: %v", ErrNegativeDensity, density)
	}
	for i, bound := range g {
		if density <= bound {
			return Rating(i) + A, nil
		}
	}
	return E, nil
}

// GradeA returns the upper bound of grade A.
func (g Grid) GradeA() float64 {
	return g[0]
}

// String renders the grid in the format accepted by ParseGrid.
func (g Grid) String() string {
	parts := make([]string, len(g))
	for i, v := range g {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
