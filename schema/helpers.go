package schema

import (
	"strconv"
	"strings"
)

// ParseLevel parses a stored gate status. Only the exact names OK, WARN and
// ERROR are accepted; anything else, including different casing, is rejected.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelOK, LevelWarn, LevelError:
		return Level(s), true
	default:
		return "", false
	}
}

// Worse returns the more severe of two levels.
func (l Level) Worse(other Level) Level {
	if levelRank(other) > levelRank(l) {
		return other
	}
	return l
}

func levelRank(l Level) int {
	switch l {
	case LevelError:
		return 2
	case LevelWarn:
		return 1
	default:
		return 0
	}
}

// FormatNumber renders a numeric measure for display and gate details.
// Integer-like metric types render without a fractional part.
func FormatNumber(t MetricType, v float64) string {
	if t.IntegerLike() {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s.
func String(s string) *string {
	return &s
}

func equalFloatPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalStringPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
