package cmd

import (
	"github.com/huangsam/livemeasure/core"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/spf13/cobra"
)

// refreshCmd recomputes live measures after issues changed.
var refreshCmd = &cobra.Command{
	Use:   "refresh [component-uuid...]",
	Short: "Recompute live measures and quality gates of components and their ancestors",
	Long: `Recompute the issue counters, technical debt, ratings and quality gate of the
selected components, their ancestors and their projects.

With component ids, exactly those components are refreshed in one transaction.
Without ids, the selection comes from --project and --components and every
project in the selection is refreshed on its own worker.

Projects that were never analyzed are skipped. Only measures whose value really
changed are written, so running refresh twice in a row reports no changes.

Examples:
  # Refresh every stored project
  livemeasure refresh

  # Refresh one project
  livemeasure refresh --project acme:billing

  # Refresh the Go files of a project
  livemeasure refresh --project acme:billing --components 'acme:billing:**.go'

  # Refresh exact components by id
  livemeasure refresh fil-render fil-total

  # Machine readable outcome
  livemeasure refresh --output json --output-file refresh.json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		if err := core.ExecuteRefresh(rootCtx, cfg, storeManager, args); err != nil {
			contract.LogFatal("Cannot refresh live measures", err)
		}
	},
}
