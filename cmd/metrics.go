package cmd

import (
	"github.com/huangsam/livemeasure/core"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd displays the metric catalogue and formula dependencies.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Display the metric catalogue and the dependencies of every formula",
	Long: `Show every built-in metric with its type and direction, and whether it is an
input (written by analysis) or computed by a formula during refresh.

Computed metrics list the metrics their formula reads. Metrics marked as new
code are only computed when the project has a leak period.

No refresh is performed - this is purely informational.

Examples:
  # Show the catalogue
  livemeasure metrics

  # As JSON for tooling
  livemeasure metrics --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteMetrics(rootCtx, cfg); err != nil {
			contract.LogFatal("Cannot display metrics", err)
		}
	},
}
