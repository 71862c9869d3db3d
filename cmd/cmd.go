// Package cmd defines the command-line interface for livemeasure.
package cmd

import (
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/huangsam/livemeasure/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(measuresCmd)
	rootCmd.AddCommand(gateCmd)
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the store subcommands to the parent store command
	storeCmd.AddCommand(storeStatusCmd)
	storeCmd.AddCommand(storeClearCmd)
	storeCmd.AddCommand(storeExportCmd)
	storeCmd.AddCommand(storeMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("database-backend", string(schema.SQLiteBackend), "Measure store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("database-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("rating-grid", "", "Maintainability rating thresholds for B,C,D,E (e.g., 0.05,0.1,0.2,0.5)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of projects refreshed concurrently")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of refreshCmd to Viper
	refreshCmd.Flags().StringP("project", "p", "", "Restrict the refresh to the project with this key")
	refreshCmd.Flags().StringP("components", "c", "", "Comma-separated glob patterns over component keys (e.g., 'proj:src/**')")
	if err := viper.BindPFlags(refreshCmd.Flags()); err != nil {
		contract.LogFatal("Error binding refresh flags", err)
	}

	// Bind all flags of measuresCmd to Viper
	measuresCmd.Flags().String("metrics", "", "Comma-separated metric keys to keep (defaults to all)")
	if err := viper.BindPFlags(measuresCmd.Flags()); err != nil {
		contract.LogFatal("Error binding measures flags", err)
	}

	// Bind all flags of gateCmd to Viper
	gateCmd.Flags().Bool("fail-on-error", false, "Exit with a non-zero code when the quality gate is ERROR")
	if err := viper.BindPFlags(gateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding gate flags", err)
	}

	// Bind all flags of storeMigrateCmd to Viper
	storeMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(storeMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding store migrate flags", err)
	}
}
