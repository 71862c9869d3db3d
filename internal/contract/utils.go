package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/gobwas/glob"

	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
)

// Color variables for console output.
var (
	ErrorColor = color.New(color.FgRed, color.Bold) // ErrorColor marks failing gates and the worst ratings.
	WarnColor  = color.New(color.FgYellow)          // WarnColor marks warnings and middle ratings.
	OKColor    = color.New(color.FgGreen)           // OKColor marks passing gates and the best ratings.
)

// GetLevelLabel returns a colored gate level for console output (table).
func GetLevelLabel(level schema.Level) string {
	text := string(level)
	switch level {
	case schema.LevelError:
		return ErrorColor.Sprint(text)
	case schema.LevelWarn:
		return WarnColor.Sprint(text)
	case schema.LevelOK:
		return OKColor.Sprint(text)
	default:
		return text
	}
}

// GetRatingLabel returns a colored rating letter for console output (table).
func GetRatingLabel(r rating.Rating) string {
	text := r.String()
	switch r {
	case rating.A, rating.B:
		return OKColor.Sprint(text)
	case rating.C:
		return WarnColor.Sprint(text)
	case rating.D, rating.E:
		return ErrorColor.Sprint(text)
	default:
		return text
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// CompileKeyPatterns compiles glob patterns over component keys. A single '*'
// stays within one key segment (separated by ':' or '/'), '**' crosses them.
func CompileKeyPatterns(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, ':', '/')
		if err != nil {
			return nil, fmt.Errorf("invalid component pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// MatchesAny reports whether the key matches at least one pattern.
func MatchesAny(key string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(key) {
			return true
		}
	}
	return false
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the path to the SQLite DB file of the measure store.
func GetDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".livemeasure_db"
	}
	return filepath.Join(homeDir, ".livemeasure_db")
}

// TruncateKey truncates a component key to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix and one character.
func TruncateKey(key string, maxWidth int) string {
	runes := []rune(key)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return key
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
