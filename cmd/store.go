package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/internal/iocache"
	"github.com/huangsam/livemeasure/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// storeBackend reads and validates the backend settings without the full shared setup.
func storeBackend() (schema.DatabaseBackend, string, error) {
	if err := loadConfigFile(); err != nil {
		return "", "", err
	}

	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("database-backend")))
	if backend == "" {
		backend = schema.SQLiteBackend
	}
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid database backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	connStr := viper.GetString("database-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// storeSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func storeSetup() error {
	backend, connStr, err := storeBackend()
	if err != nil {
		return err
	}

	if err := iocache.InitStore(backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize measure store: %w", err)
	}

	cfg.DatabaseBackend = backend
	cfg.DatabaseConnect = connStr
	cfg.OutputFile = viper.GetString("output-file")

	return nil
}

// storeSetupWrapper wraps storeSetup to provide PreRunE for store commands.
func storeSetupWrapper(_ *cobra.Command, _ []string) error {
	return storeSetup()
}

// storeMigrateSetupWrapper loads the backend settings for the migrate command.
// It does NOT open the store, so migrations can run on a fresh database.
func storeMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	backend, connStr, err := storeBackend()
	if err != nil {
		return err
	}
	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetDBFilePath()
	}
	cfg.DatabaseBackend = backend
	cfg.DatabaseConnect = connStr
	return nil
}

// storeCmd focused on measure store management.
//
// Note: Store subcommands use minimal initialization (storeSetup) instead of
// the full sharedSetup. This avoids output and rating validation for simple
// administrative operations.
var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the measure store (status, export, clear, migrate)",
	Long: `Manage the database that holds components, issues, quality gates and live measures.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show row counts and connection info
  export  - Export components and live measures to Parquet
  clear   - Remove every table of the store
  migrate - Run database schema migrations

Examples:
  # Check store status
  livemeasure store status

  # Export for analysis in pandas/DuckDB
  livemeasure store export --output-file measures`,
}

// storeStatusCmd shows store status.
var storeStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show detailed information about the measure store.

Displays:
- Backend type and connection status
- Number of components, live measures and open issues
- Number of projects waiting for reindexing
- Time of the last measure update
- Row count of every table

Examples:
  # Check store status
  livemeasure store status`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetMeasureStore().GetStatus(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		iocache.PrintStoreStatus(os.Stdout, status)
	},
}

// storeClearCmd clears the store.
var storeClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored components, issues, gates and measures",
	Long: `Delete everything held by the measure store.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the store tables

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  # Export before clearing
  livemeasure store export --output-file backup
  livemeasure store clear

  # Clear a MySQL store (set connection string via env variable)
  LIVEMEASURE_DATABASE_BACKEND=mysql LIVEMEASURE_DATABASE_CONNECT="..." livemeasure store clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		backend, connStr, err := storeBackend()
		if err != nil {
			return err
		}
		cfg.DatabaseBackend = backend
		cfg.DatabaseConnect = connStr
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cfg.DatabaseConnect
		if dbFilePath == "" {
			dbFilePath = iocache.GetDBFilePath()
		}
		if err := iocache.ClearStore(cfg.DatabaseBackend, dbFilePath, cfg.DatabaseConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// storeExportCmd exports the store to Parquet files.
var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export components and live measures to Parquet for BI tools and analytics",
	Long: `Export the stored components and live measures to Parquet format.

Exports two datasets:
- <output-file>.components.parquet - the component trees
- <output-file>.live_measures.parquet - every live measure with its metric

Requires: --output-file parameter

Examples:
  # Export all data
  livemeasure store export --output-file measures

  # Use with DuckDB for analysis
  duckdb -c "SELECT metric_key, avg(value) FROM read_parquet('measures.live_measures.parquet') GROUP BY 1"`,
	PreRunE: storeSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteExport(rootCtx, os.Stdout, iocache.Manager.GetMeasureStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export store", err)
		}
	},
}

// storeMigrateCmd runs database migrations for the measure store.
var storeMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the measure store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  livemeasure store migrate

  # Rollback to initial state
  livemeasure store migrate --target-version 0`,
	PreRunE: storeMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateStore(cfg.DatabaseBackend, cfg.DatabaseConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
		fmt.Println("Migrations applied successfully.")
	},
}
