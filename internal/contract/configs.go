package contract

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/huangsam/livemeasure/core/rating"
	"github.com/huangsam/livemeasure/schema"
)

// Default values for configuration.
const (
	DefaultPrecision = 1
	MaxPrecision     = 4
	DefaultLogLevel  = "warn"
)

// DefaultWorkers is the default number of projects refreshed in parallel.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	DatabaseBackend schema.DatabaseBackend
	DatabaseConnect string // Please use env var as this is plaintext

	RatingGrid rating.Grid
	Workers    int

	ProjectKey string
	Components []string // glob patterns over component keys

	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	LogLevel    slog.Level
	MetricsAddr string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	DatabaseBackend string `mapstructure:"database-backend"`
	DatabaseConnect string `mapstructure:"database-connect"`
	RatingGrid      string `mapstructure:"rating-grid"`
	Workers         int    `mapstructure:"workers"`
	Precision       int    `mapstructure:"precision"`
	Output          string `mapstructure:"output"`
	OutputFile      string `mapstructure:"output-file"`
	Width           int    `mapstructure:"width"`
	Color           string `mapstructure:"color"`
	LogLevel        string `mapstructure:"log-level"`
	MetricsAddr     string `mapstructure:"metrics-addr"`

	// --- Fields from refreshCmd.Flags() ---
	Project    string `mapstructure:"project"`
	Components string `mapstructure:"components"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Components != nil {
		clone.Components = make([]string, len(c.Components))
		copy(clone.Components, c.Components)
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processRatingGrid(cfg, input); err != nil {
		return err
	}
	return processComponentPatterns(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("database-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("database-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfig validates the measure store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.DatabaseBackend = schema.DatabaseBackend(strings.ToLower(input.DatabaseBackend))
	if cfg.DatabaseBackend == "" {
		cfg.DatabaseBackend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.DatabaseBackend]; !ok {
		return fmt.Errorf("invalid database backend '%s'. must be sqlite, mysql, postgresql, none", input.DatabaseBackend)
	}
	cfg.DatabaseConnect = input.DatabaseConnect
	return ValidateDatabaseConnectionString(cfg.DatabaseBackend, cfg.DatabaseConnect)
}

// validateSimpleInputs processes and validates the output and worker fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.ProjectKey = strings.TrimSpace(input.Project)
	cfg.MetricsAddr = strings.TrimSpace(input.MetricsAddr)

	colors := true
	if input.Color != "" {
		parsed, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		colors = parsed
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 0 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 0 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if cfg.Output == "" {
		cfg.Output = schema.TextOut
	}
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level
	return nil
}

// processRatingGrid parses the four rating thresholds, falling back to the default grid.
func processRatingGrid(cfg *Config, input *ConfigRawInput) error {
	if strings.TrimSpace(input.RatingGrid) == "" {
		cfg.RatingGrid = rating.DefaultGrid
		return nil
	}
	grid, err := rating.ParseGrid(input.RatingGrid)
	if err != nil {
		return fmt.Errorf("invalid rating-grid %q: %w", input.RatingGrid, err)
	}
	cfg.RatingGrid = grid
	return nil
}

// processComponentPatterns splits and compiles the component key patterns.
func processComponentPatterns(cfg *Config, input *ConfigRawInput) error {
	cfg.Components = nil
	for p := range strings.SplitSeq(input.Components, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			cfg.Components = append(cfg.Components, trimmed)
		}
	}
	if _, err := CompileKeyPatterns(cfg.Components); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel parses a log level name. An empty name selects DefaultLogLevel.
func ParseLogLevel(s string) (slog.Level, error) {
	if s == "" {
		s = DefaultLogLevel
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}
