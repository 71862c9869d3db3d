package cmd

import (
	"runtime"

	"github.com/huangsam/livemeasure/core/formula"
	"github.com/huangsam/livemeasure/schema"
	"github.com/spf13/cobra"
)

// versionCmd shows the build details and the size of the built-in formula set.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of livemeasure.",
	Long: `Display version information including build details.

Shows:
- Release version, commit and build timestamp
- Go runtime version
- Number of metrics in the catalogue and of built-in formulas`,
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("livemeasure %s (commit %s, built %s)\n", version, commit, date)
		cmd.Printf("  Runtime:  %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		cmd.Printf("  Metrics:  %d\n", len(schema.CoreMetrics()))
		if registry, err := formula.DefaultRegistry(); err == nil {
			cmd.Printf("  Formulas: %d\n", len(registry.Formulas()))
		}
	},
}
