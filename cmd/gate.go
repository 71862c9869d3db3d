package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/livemeasure/core"
	"github.com/huangsam/livemeasure/internal/contract"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// gateCmd shows the quality gate outcome of a project.
var gateCmd = &cobra.Command{
	Use:   "gate <project-key>",
	Short: "Show the quality gate status of a project (optionally fail on ERROR)",
	Long: `Print the quality gate status and the evaluated conditions stored by the last refresh.

Each condition shows its metric, operator, thresholds, whether it applies to new
code only, the actual value and its level.

With --fail-on-error the command exits with a non-zero code when the gate is
ERROR, which makes it usable as a CI/CD step after refresh.

Examples:
  # Show the gate of a project
  livemeasure gate acme:billing

  # Block a pipeline on a red gate
  livemeasure refresh --project acme:billing && livemeasure gate acme:billing --fail-on-error`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, args []string) {
		err := core.ExecuteGate(rootCtx, cfg, storeManager, args[0], viper.GetBool("fail-on-error"))
		if errors.Is(err, core.ErrGateFailed) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if err != nil {
			contract.LogFatal("Cannot display quality gate", err)
		}
	},
}
