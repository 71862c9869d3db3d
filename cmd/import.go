package cmd

import (
	"fmt"

	"github.com/huangsam/livemeasure/core"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/spf13/cobra"
)

// importCmd loads a dataset into the measure store.
var importCmd = &cobra.Command{
	Use:   "import <dataset.yaml>",
	Short: "Load metrics, quality gates, components and issues from a YAML dataset",
	Long: `Import a YAML dataset into the configured measure store.

A dataset declares:
- Extra metric definitions on top of the built-in ones
- Quality gates and their conditions (one of them the default)
- Project trees with their last analysis, issues and input measures

Importing a project replaces everything previously stored for it. Live measures
are not computed on import; run refresh afterwards.

Examples:
  # Import the sample dataset
  livemeasure import examples/dataset.yaml

  # Import into PostgreSQL
  LIVEMEASURE_DATABASE_BACKEND=postgresql LIVEMEASURE_DATABASE_CONNECT="host=... dbname=..." livemeasure import dataset.yaml`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		ds, err := core.ExecuteImport(rootCtx, storeManager, args[0])
		if err != nil {
			contract.LogFatal("Cannot import dataset", err)
		}
		fmt.Printf("Imported %d components, %d issues and %d quality gates from %s\n",
			len(ds.Components), len(ds.Issues), len(ds.Gates), args[0])
	},
}
