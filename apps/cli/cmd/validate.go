package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without sending anything",
	Long: `Load the configuration and check its cross references: every request
needs a URL, every test step must name a known request, and no test may run
the same request twice.

Examples:
  apictl validate
  apictl -c deploy/apis.yaml validate`,
	Args: cobra.NoArgs,
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return exitWith(ExitConfigError, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d contexts, %d requests, %d tests)\n",
		configFlag, len(cfg.Contexts), len(cfg.Requests), len(cfg.Tests))
	return nil
}
