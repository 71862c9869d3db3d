package cmd

import (
	"strings"

	"github.com/huangsam/livemeasure/core"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// measuresCmd prints the stored live measures of a component.
var measuresCmd = &cobra.Command{
	Use:   "measures <component-key>",
	Short: "Show the stored live measures of a component",
	Long: `Print the live measures currently stored for one component.

Each row shows the value, the variation over the leak period, the text value
(for the quality gate) and when the row was last written.

Examples:
  # All measures of a project
  livemeasure measures acme:billing

  # Only the issue counters of a file
  livemeasure measures acme:billing:src/invoice/render.go --metrics bugs,code_smells,violations

  # Export as CSV
  livemeasure measures acme:billing --output csv --output-file billing.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		var metricKeys []string
		for k := range strings.SplitSeq(viper.GetString("metrics"), ",") {
			if trimmed := strings.TrimSpace(k); trimmed != "" {
				metricKeys = append(metricKeys, trimmed)
			}
		}
		if err := core.ExecuteMeasures(rootCtx, cfg, storeManager, args[0], metricKeys); err != nil {
			contract.LogFatal("Cannot display measures", err)
		}
	},
}
