package cmd

import (
	"github.com/abdul-hamid-achik/apictl/packages/output"
	"github.com/spf13/cobra"
)

var contextsCmd = &cobra.Command{
	Use:   "contexts",
	Short: "Inspect the configured contexts",
}

var contextsFormatFlag string

var contextsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the contexts defined in the configuration",
	Args:  cobra.NoArgs,
	RunE:  contextsListCommand,
}

func init() {
	contextsListCmd.Flags().StringVarP(&contextsFormatFlag, "output", "o", "tsv", "Output format: table, tsv, yaml")
	contextsCmd.AddCommand(contextsListCmd)
}

func contextsListCommand(cmd *cobra.Command, _ []string) error {
	format, err := output.ParseFormat(contextsFormatFlag)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	cfg, err := loadTargetConfig()
	if err != nil {
		return err
	}
	return output.Render(cmd.OutOrStdout(), output.NewContextList(cfg), format)
}
